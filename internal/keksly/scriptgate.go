package keksly

// Attribute is one name/value pair on a gated script.
type Attribute struct {
	Name  string
	Value string
}

// GatedScript is an inert script waiting for its service to be granted.
// Ref is owned by the ScriptGate that listed it.
type GatedScript struct {
	ServiceID string
	Src       string
	Body      string
	Attrs     []Attribute
	Ref       any
}

// ScriptGate lists inert scripts in document order and activates them.
// An activated script must no longer be listed.
type ScriptGate interface {
	ListGatedScripts() ([]GatedScript, error)
	Activate(script GatedScript) error
}
