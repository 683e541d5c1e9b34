package ledger

import (
	"crypto/rand"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrInvalidTransaction indicates a structurally invalid transaction
	// (non-positive amount, fee out of bounds, unknown enum value, missing date).
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrDuplicateTransaction indicates the transaction identifier is already
	// present in the log.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrTransactionNotFound is returned when no transaction carries the id.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrIllegalTransition is returned for any status change other than
	// pending to completed.
	ErrIllegalTransition = errors.New("illegal status transition")
)

// Kind classifies a transaction.
type Kind string

const (
	KindPayment    Kind = "payment"
	KindWithdrawal Kind = "withdrawal"
	KindConversion Kind = "conversion"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPayment, KindWithdrawal, KindConversion:
		return true
	}
	return false
}

// Status is the settlement state of a transaction.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
)

// Currency is an ISO currency code.
type Currency string

const (
	USD Currency = "USD"
	NGN Currency = "NGN"
)

// Transaction is an immutable ledger record. Amount and Fee are minor units
// of Currency.
type Transaction struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	Amount       int64     `json:"amount"`
	Currency     Currency  `json:"currency"`
	Status       Status    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
	Description  string    `json:"description"`
	Counterparty string    `json:"counterparty,omitempty"`
	Fee          int64     `json:"fee,omitempty"`
	Channel      string    `json:"channel,omitempty"`
}

// TransactionInput describes a transaction to append. ID is optional and is
// generated when empty. Currency defaults to USD and Status to completed.
type TransactionInput struct {
	ID           string
	Kind         Kind
	Amount       int64
	Currency     Currency
	Status       Status
	OccurredAt   time.Time
	Description  string
	Counterparty string
	Fee          int64
	Channel      string
}

// Ledger is an immutable snapshot of the transaction log. The zero value is
// an empty ledger. Transactions are held in arrival order; every method that
// changes the log returns a new Ledger and leaves the receiver untouched.
type Ledger struct {
	txs []Transaction
}

// New builds a ledger from already validated transactions in arrival order.
func New(txs ...Transaction) (Ledger, error) {
	var l Ledger
	for _, tx := range txs {
		next, _, err := l.Append(TransactionInput{
			ID:           tx.ID,
			Kind:         tx.Kind,
			Amount:       tx.Amount,
			Currency:     tx.Currency,
			Status:       tx.Status,
			OccurredAt:   tx.OccurredAt,
			Description:  tx.Description,
			Counterparty: tx.Counterparty,
			Fee:          tx.Fee,
			Channel:      tx.Channel,
		})
		if err != nil {
			return Ledger{}, err
		}
		l = next
	}
	return l, nil
}

// Len returns the number of transactions in the log.
func (l Ledger) Len() int { return len(l.txs) }

// Transactions returns a copy of the log in arrival order.
func (l Ledger) Transactions() []Transaction {
	return slices.Clone(l.txs)
}

// Get looks up a transaction by id.
func (l Ledger) Get(id string) (Transaction, bool) {
	for _, tx := range l.txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return Transaction{}, false
}

// Append validates in and returns a new ledger with the transaction placed
// last in arrival order, together with the stored transaction.
func (l Ledger) Append(in TransactionInput) (Ledger, Transaction, error) {
	tx, err := in.build()
	if err != nil {
		return l, Transaction{}, err
	}
	if _, exists := l.Get(tx.ID); exists {
		return l, Transaction{}, fmt.Errorf("%w: %s", ErrDuplicateTransaction, tx.ID)
	}
	// Clip forces append to copy so earlier snapshots never share a tail.
	return Ledger{txs: append(slices.Clip(l.txs), tx)}, tx, nil
}

// Complete transitions a pending transaction to completed.
func (l Ledger) Complete(id string) (Ledger, Transaction, error) {
	idx := slices.IndexFunc(l.txs, func(tx Transaction) bool { return tx.ID == id })
	if idx < 0 {
		return l, Transaction{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	if l.txs[idx].Status != StatusPending {
		return l, Transaction{}, fmt.Errorf("%w: %s is already %s", ErrIllegalTransition, id, l.txs[idx].Status)
	}
	txs := slices.Clone(l.txs)
	txs[idx].Status = StatusCompleted
	return Ledger{txs: txs}, txs[idx], nil
}

func (in TransactionInput) build() (Transaction, error) {
	if !in.Kind.Valid() {
		return Transaction{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidTransaction, in.Kind)
	}
	if in.Amount <= 0 {
		return Transaction{}, fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	if in.Fee < 0 {
		return Transaction{}, fmt.Errorf("%w: fee must not be negative", ErrInvalidTransaction)
	}
	if in.Fee > in.Amount {
		return Transaction{}, fmt.Errorf("%w: fee %d exceeds amount %d", ErrInvalidTransaction, in.Fee, in.Amount)
	}
	if in.OccurredAt.IsZero() {
		return Transaction{}, fmt.Errorf("%w: occurred_at is required", ErrInvalidTransaction)
	}

	currency := in.Currency
	switch currency {
	case "":
		currency = USD
	case USD, NGN:
	default:
		return Transaction{}, fmt.Errorf("%w: unknown currency %q", ErrInvalidTransaction, in.Currency)
	}

	status := in.Status
	switch status {
	case "":
		status = StatusCompleted
	case StatusCompleted, StatusPending:
	default:
		return Transaction{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransaction, in.Status)
	}

	id := in.ID
	if id == "" {
		id = NewID()
	}

	return Transaction{
		ID:           id,
		Kind:         in.Kind,
		Amount:       in.Amount,
		Currency:     currency,
		Status:       status,
		OccurredAt:   Day(in.OccurredAt),
		Description:  in.Description,
		Counterparty: in.Counterparty,
		Fee:          in.Fee,
		Channel:      in.Channel,
	}, nil
}

// Day truncates t to midnight UTC of its calendar date in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a monotonic ULID string.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), idEntropy).String()
}
