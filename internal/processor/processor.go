package processor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDeclined indicates the simulated network refused the request.
	ErrDeclined = errors.New("declined by processor")
	// ErrInvalidCard indicates malformed card details.
	ErrInvalidCard = errors.New("invalid card details")
)

// Decision statuses.
const (
	StatusApproved = "approved"
)

// Processor represents a connector to an external payment network.
type Processor interface {
	AuthorizePayment(ctx context.Context, input PaymentAuthorization) (Decision, error)
	AuthorizePayout(ctx context.Context, input PayoutAuthorization) (Decision, error)
}

// Decision captures the simulated response from the processor.
type Decision struct {
	Reference string    `json:"reference"`
	Status    string    `json:"status"`
	DecidedAt time.Time `json:"decided_at"`
}

// Card holds checkout card details. Only card-channel payments carry one.
type Card struct {
	Number string
	Expiry string
	CVV    string
	Name   string
}

// PaymentAuthorization encapsulates an incoming client payment.
type PaymentAuthorization struct {
	Channel string
	Card    *Card
	Amount  int64
}

// PayoutAuthorization captures an outgoing withdrawal.
type PayoutAuthorization struct {
	Method string
	Amount int64
}

// Simulated waits a fixed delay and then approves, except for the configured
// decline cards.
type Simulated struct {
	PaymentDelay time.Duration
	PayoutDelay  time.Duration
	DeclineCards []string
	now          func() time.Time
}

// DeclinedTestCard is declined by NewSimulated.
const DeclinedTestCard = "4000000000000002"

// NewSimulated builds a processor with the prototype's latencies.
func NewSimulated(paymentDelay, payoutDelay time.Duration) *Simulated {
	return &Simulated{
		PaymentDelay: paymentDelay,
		PayoutDelay:  payoutDelay,
		DeclineCards: []string{DeclinedTestCard},
		now:          time.Now,
	}
}

// AuthorizePayment validates card details when present, waits PaymentDelay
// and approves with a synthetic reference.
func (s *Simulated) AuthorizePayment(ctx context.Context, input PaymentAuthorization) (Decision, error) {
	if input.Amount <= 0 {
		return Decision{}, fmt.Errorf("amount must be positive")
	}
	if input.Card != nil {
		if err := ValidateCard(*input.Card); err != nil {
			return Decision{}, err
		}
	}
	if err := wait(ctx, s.PaymentDelay); err != nil {
		return Decision{}, err
	}
	if input.Card != nil && s.declines(input.Card.Number) {
		return Decision{}, ErrDeclined
	}
	return s.approve(), nil
}

// AuthorizePayout waits PayoutDelay and approves with a synthetic reference.
func (s *Simulated) AuthorizePayout(ctx context.Context, input PayoutAuthorization) (Decision, error) {
	if input.Amount <= 0 {
		return Decision{}, fmt.Errorf("amount must be positive")
	}
	if err := wait(ctx, s.PayoutDelay); err != nil {
		return Decision{}, err
	}
	return s.approve(), nil
}

func (s *Simulated) approve() Decision {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return Decision{Reference: uuid.NewString(), Status: StatusApproved, DecidedAt: now().UTC()}
}

func (s *Simulated) declines(number string) bool {
	return slices.Contains(s.DeclineCards, strings.ReplaceAll(number, " ", ""))
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ValidateCard checks number length and digits, MM/YY expiry, CVV and
// cardholder name.
func ValidateCard(card Card) error {
	digits := strings.ReplaceAll(card.Number, " ", "")
	if len(digits) < 12 || len(digits) > 19 {
		return fmt.Errorf("%w: card number must be between 12 and 19 digits", ErrInvalidCard)
	}
	if !numeric(digits) {
		return fmt.Errorf("%w: card number must be numeric", ErrInvalidCard)
	}
	if _, err := time.Parse("01/06", card.Expiry); err != nil {
		return fmt.Errorf("%w: expiry must be MM/YY", ErrInvalidCard)
	}
	if len(card.CVV) < 3 || len(card.CVV) > 4 || !numeric(card.CVV) {
		return fmt.Errorf("%w: cvv must be 3 or 4 digits", ErrInvalidCard)
	}
	if strings.TrimSpace(card.Name) == "" {
		return fmt.Errorf("%w: cardholder name is required", ErrInvalidCard)
	}
	return nil
}

func numeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
