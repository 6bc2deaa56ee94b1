package journal

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/ruteri/trustedcert-registry/interfaces"
)

var _ interfaces.EventJournal = (*MemoryJournal)(nil)

// MemoryJournal keeps events in a slice guarded by a mutex.
type MemoryJournal struct {
	mu     sync.RWMutex
	events []interfaces.Event
}

// NewMemoryJournal returns an empty journal that lives only as long as the process.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) Append(ctx context.Context, e interfaces.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if want := uint64(len(j.events)) + 1; e.Seq != want {
		return fmt.Errorf("%w: expected %d, got %d", interfaces.ErrSequenceGap, want, e.Seq)
	}

	e.Payload = bytes.Clone(e.Payload)
	j.events = append(j.events, e)
	return nil
}

func (j *MemoryJournal) Events(ctx context.Context, after uint64, limit int) ([]interfaces.Event, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if after >= uint64(len(j.events)) {
		return []interfaces.Event{}, nil
	}

	window := j.events[after:]
	if limit > 0 && limit < len(window) {
		window = window[:limit]
	}

	out := make([]interfaces.Event, len(window))
	for i, e := range window {
		e.Payload = bytes.Clone(e.Payload)
		out[i] = e
	}
	return out, nil
}

func (j *MemoryJournal) LastSeq(ctx context.Context) (uint64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return uint64(len(j.events)), nil
}

func (j *MemoryJournal) Close() error {
	return nil
}
