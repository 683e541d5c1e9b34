package invoice

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrInvoiceNotFound is returned when no invoice carries the id.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrInvoiceExists is returned when an id is reused.
	ErrInvoiceExists = errors.New("invoice exists")
)

// Repository stores invoices for the session.
type Repository interface {
	Create(ctx context.Context, inv Invoice) error
	Get(ctx context.Context, id string) (Invoice, error)
	Update(ctx context.Context, id string, fn func(*Invoice) error) (Invoice, error)
}

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Invoice
}

// NewMemoryRepository constructs an in-memory repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Invoice)}
}

func (r *memoryRepository) Create(_ context.Context, inv Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[inv.ID]; exists {
		return ErrInvoiceExists
	}
	r.storage[inv.ID] = inv
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.storage[id]
	if !ok {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

// Update applies fn to a copy of the stored invoice under the write lock and
// stores the result when fn returns nil.
func (r *memoryRepository) Update(_ context.Context, id string, fn func(*Invoice) error) (Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.storage[id]
	if !ok {
		return Invoice{}, ErrInvoiceNotFound
	}
	if err := fn(&inv); err != nil {
		return Invoice{}, err
	}
	r.storage[id] = inv
	return inv, nil
}
