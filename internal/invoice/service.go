package invoice

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidInvoice indicates missing or malformed invoice fields.
	ErrInvalidInvoice = errors.New("invalid invoice")
	// ErrAlreadyPaid is returned when paying an invoice twice.
	ErrAlreadyPaid = errors.New("invoice already paid")
)

// DefaultLinkBase prefixes generated payment links.
const DefaultLinkBase = "https://ctrlpay.app"

// Service creates invoices and tracks their payment state.
type Service struct {
	repo     Repository
	linkBase string
	now      func() time.Time
}

// NewService builds an invoice service. An empty linkBase uses
// DefaultLinkBase.
func NewService(repo Repository, linkBase string) *Service {
	if linkBase == "" {
		linkBase = DefaultLinkBase
	}
	return &Service{repo: repo, linkBase: strings.TrimRight(linkBase, "/"), now: time.Now}
}

// CreateInput captures data required to create an invoice.
type CreateInput struct {
	Amount      int64
	Description string
	ClientName  string
	ClientEmail string
}

// Create validates input and stores a pending invoice with its payment link.
func (s *Service) Create(ctx context.Context, input CreateInput) (Invoice, error) {
	if input.Amount <= 0 {
		return Invoice{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInvoice)
	}
	if strings.TrimSpace(input.Description) == "" {
		return Invoice{}, fmt.Errorf("%w: description is required", ErrInvalidInvoice)
	}
	if strings.TrimSpace(input.ClientName) == "" {
		return Invoice{}, fmt.Errorf("%w: client name is required", ErrInvalidInvoice)
	}
	addr, err := mail.ParseAddress(input.ClientEmail)
	if err != nil {
		return Invoice{}, fmt.Errorf("%w: client email: %v", ErrInvalidInvoice, err)
	}

	id := uuid.NewString()
	inv := Invoice{
		ID:          id,
		Amount:      input.Amount,
		Description: strings.TrimSpace(input.Description),
		ClientName:  strings.TrimSpace(input.ClientName),
		ClientEmail: addr.Address,
		Status:      StatusPending,
		PaymentLink: s.linkBase + "/pay/" + id,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// Get retrieves an invoice.
func (s *Service) Get(ctx context.Context, id string) (Invoice, error) {
	return s.repo.Get(ctx, id)
}

// MarkPaid records that transactionID settled the invoice.
func (s *Service) MarkPaid(ctx context.Context, id, transactionID string) (Invoice, error) {
	return s.repo.Update(ctx, id, func(inv *Invoice) error {
		if inv.Status == StatusPaid {
			return ErrAlreadyPaid
		}
		paidAt := s.now().UTC()
		inv.Status = StatusPaid
		inv.PaidAt = &paidAt
		inv.TransactionID = transactionID
		return nil
	})
}
