package ledger

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Journal events.
const (
	EventAppended  = "appended"
	EventCompleted = "completed"
)

// JournalEntry is one audit record of a change to the book.
type JournalEntry struct {
	Seq         int64       `json:"seq"`
	Event       string      `json:"event"`
	Transaction Transaction `json:"transaction"`
	RecordedAt  time.Time   `json:"recorded_at"`
}

// Journal mirrors every accepted change to the book. It is an audit trail
// for the running session and is never used to rebuild a ledger.
type Journal interface {
	Record(ctx context.Context, event string, tx Transaction) error
	Entries(ctx context.Context) ([]JournalEntry, error)
}

type memoryJournal struct {
	mu      sync.RWMutex
	entries []JournalEntry
	now     func() time.Time
}

// NewMemoryJournal returns a concurrency-safe in-process journal.
func NewMemoryJournal() Journal {
	return &memoryJournal{now: time.Now}
}

func (j *memoryJournal) Record(_ context.Context, event string, tx Transaction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, JournalEntry{
		Seq:         int64(len(j.entries) + 1),
		Event:       event,
		Transaction: tx,
		RecordedAt:  j.now().UTC(),
	})
	return nil
}

func (j *memoryJournal) Entries(_ context.Context) ([]JournalEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return slices.Clone(j.entries), nil
}
