package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ctrl-pay/ctrl_pay/internal/fees"
	"github.com/ctrl-pay/ctrl_pay/internal/invoice"
	"github.com/ctrl-pay/ctrl_pay/internal/ledger"
	"github.com/ctrl-pay/ctrl_pay/internal/money"
	"github.com/ctrl-pay/ctrl_pay/internal/notification"
	"github.com/ctrl-pay/ctrl_pay/internal/processor"
)

var (
	// ErrPaymentInProgress indicates another checkout for the invoice is
	// waiting on the processor.
	ErrPaymentInProgress = errors.New("payment already in progress")
	// ErrCardRequired indicates a card checkout without card details.
	ErrCardRequired = errors.New("card details required")
	// ErrChannelRequired indicates a checkout without a channel.
	ErrChannelRequired = errors.New("payment channel required")
)

// Service settles invoices through the processor and books the payment.
type Service struct {
	book      *ledger.Book
	invoices  *invoice.Service
	schedule  *fees.Schedule
	processor processor.Processor
	notifier  notification.Notifier

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewService constructs a payment service. notifier may be nil.
func NewService(book *ledger.Book, invoices *invoice.Service, schedule *fees.Schedule, proc processor.Processor, notifier notification.Notifier) *Service {
	return &Service{
		book:      book,
		invoices:  invoices,
		schedule:  schedule,
		processor: proc,
		notifier:  notifier,
		inflight:  make(map[string]struct{}),
	}
}

// PayInput captures a client checkout.
type PayInput struct {
	InvoiceID string
	Channel   string
	Card      *processor.Card
}

// PayResult describes the booked payment.
type PayResult struct {
	Invoice     invoice.Invoice
	Transaction ledger.Transaction
	Breakdown   ledger.Breakdown
	Reference   string
	CompletedAt time.Time
}

// PayInvoice authorizes the checkout, appends a completed payment net of the
// scheduled fee and marks the invoice paid. Nothing is booked when the
// processor declines or ctx is cancelled while waiting on it.
func (s *Service) PayInvoice(ctx context.Context, input PayInput) (PayResult, error) {
	if input.Channel == "" {
		return PayResult{}, ErrChannelRequired
	}
	if input.Channel == "card" && input.Card == nil {
		return PayResult{}, ErrCardRequired
	}

	inv, err := s.invoices.Get(ctx, input.InvoiceID)
	if err != nil {
		return PayResult{}, err
	}
	if inv.Status == invoice.StatusPaid {
		return PayResult{}, invoice.ErrAlreadyPaid
	}

	if !s.claim(inv.ID) {
		return PayResult{}, ErrPaymentInProgress
	}
	defer s.release(inv.ID)

	// A checkout that finished between the read above and the claim has
	// already settled the invoice.
	inv, err = s.invoices.Get(ctx, inv.ID)
	if err != nil {
		return PayResult{}, err
	}
	if inv.Status == invoice.StatusPaid {
		return PayResult{}, invoice.ErrAlreadyPaid
	}

	fee, err := s.schedule.Fee(ledger.KindPayment, input.Channel, inv.Amount)
	if err != nil {
		return PayResult{}, err
	}
	if fee > inv.Amount {
		return PayResult{}, fmt.Errorf("%w: fee %s exceeds amount %s", ledger.ErrInvalidTransaction, money.Format(fee), money.Format(inv.Amount))
	}

	decision, err := s.processor.AuthorizePayment(ctx, processor.PaymentAuthorization{
		Channel: input.Channel,
		Card:    input.Card,
		Amount:  inv.Amount,
	})
	if err != nil {
		return PayResult{}, err
	}

	tx, err := s.book.Append(ctx, ledger.TransactionInput{
		Kind:         ledger.KindPayment,
		Amount:       inv.Amount,
		Fee:          fee,
		Description:  inv.Description,
		Counterparty: inv.ClientName,
		Channel:      input.Channel,
	})
	if err != nil {
		return PayResult{}, fmt.Errorf("book payment: %w", err)
	}

	paid, err := s.invoices.MarkPaid(ctx, inv.ID, tx.ID)
	if err != nil {
		return PayResult{}, fmt.Errorf("mark invoice paid: %w", err)
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:          notification.KindPaymentReceived,
			Destination:   notification.AccountDestination,
			Body:          fmt.Sprintf("You received %s from %s", money.Format(tx.Amount), inv.ClientName),
			TransactionID: tx.ID,
			Amount:        tx.Amount,
		})
	}

	return PayResult{
		Invoice:     paid,
		Transaction: tx,
		Breakdown:   tx.FeeBreakdown(),
		Reference:   decision.Reference,
		CompletedAt: time.Now().UTC(),
	}, nil
}

func (s *Service) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Service) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}
