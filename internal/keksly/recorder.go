package keksly

// Recorder receives counters about the consent lifecycle.
type Recorder interface {
	DecisionRecorded(source, action string)
	PersistFailed(key string)
	ScriptActivated(serviceID string)
	ConfigFallback(err error)
}

// NopRecorder discards every observation.
type NopRecorder struct{}

func (NopRecorder) DecisionRecorded(string, string) {}
func (NopRecorder) PersistFailed(string)            {}
func (NopRecorder) ScriptActivated(string)          {}
func (NopRecorder) ConfigFallback(error)            {}
