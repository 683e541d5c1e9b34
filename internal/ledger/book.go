package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Observer is notified after the book accepts or rejects a change. Calls are
// made while the book lock is held and must not call back into the book.
type Observer interface {
	TransactionAppended(tx Transaction, balance int64)
	TransactionCompleted(tx Transaction, balance int64)
	TransactionRejected(kind Kind, err error)
}

// Book owns the session ledger. It serializes every append and completion so
// arrival order stays consistent, mirrors accepted changes to the journal and
// hands out immutable snapshots to readers.
type Book struct {
	mu       sync.Mutex
	current  Ledger
	journal  Journal
	observer Observer
	now      func() time.Time
}

// NewBook creates an empty book. A nil journal defaults to an in-memory one;
// observer may be nil.
func NewBook(journal Journal, observer Observer) *Book {
	if journal == nil {
		journal = NewMemoryJournal()
	}
	return &Book{journal: journal, observer: observer, now: time.Now}
}

// Snapshot returns the current immutable ledger.
func (b *Book) Snapshot() Ledger {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Journal exposes the audit journal backing the book.
func (b *Book) Journal() Journal { return b.journal }

// Append validates and records a transaction. A zero OccurredAt is stamped
// with the current date.
func (b *Book) Append(ctx context.Context, in TransactionInput) (Transaction, error) {
	return b.AppendChecked(ctx, in, nil)
}

// AppendChecked runs check against the current ledger under the book lock and
// appends only when it returns nil. Callers use it for preconditions such as
// available balance that must hold at the moment of the write.
func (b *Book) AppendChecked(ctx context.Context, in TransactionInput, check func(Ledger) error) (Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if in.OccurredAt.IsZero() {
		in.OccurredAt = b.now()
	}
	if check != nil {
		if err := check(b.current); err != nil {
			b.rejected(in.Kind, err)
			return Transaction{}, err
		}
	}

	next, tx, err := b.current.Append(in)
	if err != nil {
		b.rejected(in.Kind, err)
		return Transaction{}, err
	}
	if err := b.journal.Record(ctx, EventAppended, tx); err != nil {
		return Transaction{}, fmt.Errorf("journal append: %w", err)
	}

	b.current = next
	if b.observer != nil {
		b.observer.TransactionAppended(tx, next.Balance())
	}
	return tx, nil
}

// Complete moves a pending transaction to completed.
func (b *Book) Complete(ctx context.Context, id string) (Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next, tx, err := b.current.Complete(id)
	if err != nil {
		return Transaction{}, err
	}
	if err := b.journal.Record(ctx, EventCompleted, tx); err != nil {
		return Transaction{}, fmt.Errorf("journal completion: %w", err)
	}

	b.current = next
	if b.observer != nil {
		b.observer.TransactionCompleted(tx, next.Balance())
	}
	return tx, nil
}

// Seed appends the given transactions in order, stopping at the first error.
func (b *Book) Seed(ctx context.Context, inputs []TransactionInput) error {
	for _, in := range inputs {
		if _, err := b.Append(ctx, in); err != nil {
			return fmt.Errorf("seed %s: %w", in.ID, err)
		}
	}
	return nil
}

func (b *Book) rejected(kind Kind, err error) {
	if b.observer != nil {
		b.observer.TransactionRejected(kind, err)
	}
}
