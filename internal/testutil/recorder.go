package testutil

import (
	"sync"

	"keksly-go/internal/keksly"
)

// RecordingRecorder keeps every observation for later assertions.
type RecordingRecorder struct {
	mu        sync.Mutex
	Decisions []string // "source/action"
	Failed    []string
	Activated []string
	Fallbacks []error
}

func (r *RecordingRecorder) DecisionRecorded(source, action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Decisions = append(r.Decisions, source+"/"+action)
}

func (r *RecordingRecorder) PersistFailed(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failed = append(r.Failed, key)
}

func (r *RecordingRecorder) ScriptActivated(serviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Activated = append(r.Activated, serviceID)
}

func (r *RecordingRecorder) ConfigFallback(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Fallbacks = append(r.Fallbacks, err)
}

var _ keksly.Recorder = (*RecordingRecorder)(nil)
