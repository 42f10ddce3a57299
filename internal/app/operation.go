package app

import "time"

// Operation tracks the CLI command being run. Its ID and name tag every log
// line of the run; Status is logged when the app closes.
type Operation struct {
	ID     string
	Name   string
	Status string // "success" or "error"
}

// NewOperation creates an operation identified by the time it started.
func NewOperation(name string, started time.Time) *Operation {
	return &Operation{
		ID:     started.UTC().Format("20060102T150405Z"),
		Name:   name,
		Status: "success",
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

