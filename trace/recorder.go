package trace

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/arloliu/go-mbim/logger"
)

// FileRecorder appends events to a file in CBOR format.
// It is safe for concurrent use.
type FileRecorder struct {
	file    *os.File
	encoder *cbor.Encoder
	logger  logger.Logger
	mu      sync.Mutex
	closed  bool
}

var _ Recorder = (*FileRecorder)(nil)

// NewFileRecorder opens path for appending, creating it with mode 0644 if needed.
func NewFileRecorder(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	return &FileRecorder{
		file:    f,
		encoder: NewEncoder(f),
		logger:  logger.GetLogger(),
	}, nil
}

// Record writes an event. Events recorded after Close are dropped.
func (r *FileRecorder) Record(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	if err := r.encoder.Encode(event); err != nil {
		r.logger.Warn("trace: failed to record event", "method", "Record", "error", err)
	}
}

// Close closes the trace file. It is safe to call more than once.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true

	return r.file.Close()
}

// MemoryRecorder keeps events in memory.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
}

var _ Recorder = (*MemoryRecorder)(nil)

func (r *MemoryRecorder) Record(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *MemoryRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Event(nil), r.events...)
}
