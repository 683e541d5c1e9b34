package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	// KindPaymentReceived is sent when a client pays an invoice.
	KindPaymentReceived = "payment_received"
	// KindWithdrawalCompleted is sent when a payout settles.
	KindWithdrawalCompleted = "withdrawal_completed"
	// KindInvoiceCreated is sent when an invoice link is generated.
	KindInvoiceCreated = "invoice_created"
)

// AccountDestination addresses notifications to the session owner.
const AccountDestination = "account"

// Message describes a notification payload.
type Message struct {
	Kind          string    `json:"kind"`
	Destination   string    `json:"destination"`
	Body          string    `json:"body"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	SentAt        time.Time `json:"sent_at"`
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.InfoContext(ctx, "notification",
		slog.String("kind", message.Kind),
		slog.String("destination", message.Destination),
		slog.String("body", message.Body),
		slog.String("transaction_id", message.TransactionID),
	)
	return nil
}

// Fanout delivers each message to every backend and joins their errors.
type Fanout []Notifier

// Send delivers message to all backends, continuing past failures.
func (f Fanout) Send(ctx context.Context, message Message) error {
	if message.SentAt.IsZero() {
		message.SentAt = time.Now().UTC()
	}
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
