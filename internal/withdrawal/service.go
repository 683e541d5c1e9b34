package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ctrl-pay/ctrl_pay/internal/fees"
	"github.com/ctrl-pay/ctrl_pay/internal/fx"
	"github.com/ctrl-pay/ctrl_pay/internal/ledger"
	"github.com/ctrl-pay/ctrl_pay/internal/money"
	"github.com/ctrl-pay/ctrl_pay/internal/notification"
	"github.com/ctrl-pay/ctrl_pay/internal/processor"
)

var (
	// ErrInsufficientBalance indicates the amount plus fee exceeds the
	// available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrBelowMinimum indicates an amount under the minimum withdrawal.
	ErrBelowMinimum = errors.New("amount below minimum withdrawal")
)

// DefaultMinimum is the smallest withdrawal in cents.
const DefaultMinimum int64 = 1_000

var descriptions = map[string]string{
	"bank":        "Withdrawal to Bank Account",
	"mobile":      "Withdrawal to Mobile Money",
	"crypto":      "Withdrawal to Crypto Wallet",
	"domiciliary": "Withdrawal to Domiciliary Account",
}

// Service quotes and executes payouts from the session balance.
type Service struct {
	book      *ledger.Book
	schedule  *fees.Schedule
	rates     fx.Rates
	processor processor.Processor
	notifier  notification.Notifier
	minimum   int64
}

// NewService constructs a withdrawal service. A non-positive minimum uses
// DefaultMinimum; notifier may be nil.
func NewService(book *ledger.Book, schedule *fees.Schedule, rates fx.Rates, proc processor.Processor, notifier notification.Notifier, minimum int64) *Service {
	if minimum <= 0 {
		minimum = DefaultMinimum
	}
	return &Service{
		book:      book,
		schedule:  schedule,
		rates:     rates,
		processor: proc,
		notifier:  notifier,
		minimum:   minimum,
	}
}

// Quote is what a withdrawal would cost and deliver at the current balance.
type Quote struct {
	Method     string     `json:"method"`
	Amount     int64      `json:"amount"`
	Fee        int64      `json:"fee"`
	Debit      int64      `json:"debit"`
	Received   int64      `json:"received"`
	Balance    int64      `json:"balance"`
	Sufficient bool       `json:"sufficient"`
	Preview    fx.Preview `json:"preview"`
}

// Quote prices a withdrawal of amount cents by method. The recipient gets
// amount and amount plus fee leaves the balance.
func (s *Service) Quote(method string, amount int64) (Quote, error) {
	if _, ok := descriptions[method]; !ok {
		return Quote{}, fmt.Errorf("%w: %s for withdrawal", fees.ErrUnknownChannel, method)
	}
	if amount < s.minimum {
		return Quote{}, fmt.Errorf("%w: %s", ErrBelowMinimum, money.Format(s.minimum))
	}
	fee, err := s.schedule.Fee(ledger.KindWithdrawal, method, amount)
	if err != nil {
		return Quote{}, err
	}
	if fee > amount {
		return Quote{}, fmt.Errorf("%w: fee %s exceeds amount %s", ledger.ErrInvalidTransaction, money.Format(fee), money.Format(amount))
	}
	preview, err := s.rates.Preview(method, amount)
	if err != nil {
		return Quote{}, err
	}
	balance := s.book.Snapshot().Balance()
	return Quote{
		Method:     method,
		Amount:     amount,
		Fee:        fee,
		Debit:      amount + fee,
		Received:   amount,
		Balance:    balance,
		Sufficient: amount+fee <= balance,
		Preview:    preview,
	}, nil
}

// Input captures a withdrawal request.
type Input struct {
	Amount int64
	Method string
}

// Result describes the booked withdrawal.
type Result struct {
	Transaction ledger.Transaction
	Quote       Quote
	Reference   string
	Balance     int64
	CompletedAt time.Time
}

// Withdraw pays out amount by method. The balance is checked before the
// processor call and again atomically when booking, so concurrent withdrawals
// cannot overdraw. A cancelled payout books nothing.
func (s *Service) Withdraw(ctx context.Context, input Input) (Result, error) {
	q, err := s.Quote(input.Method, input.Amount)
	if err != nil {
		return Result{}, err
	}
	if !q.Sufficient {
		return Result{}, insufficient(q.Debit, q.Balance)
	}

	decision, err := s.processor.AuthorizePayout(ctx, processor.PayoutAuthorization{
		Method: input.Method,
		Amount: input.Amount,
	})
	if err != nil {
		return Result{}, err
	}

	tx, err := s.book.AppendChecked(ctx, ledger.TransactionInput{
		Kind:        ledger.KindWithdrawal,
		Amount:      q.Amount,
		Fee:         q.Fee,
		Description: descriptions[input.Method],
		Channel:     input.Method,
	}, func(l ledger.Ledger) error {
		if balance := l.Balance(); q.Debit > balance {
			return insufficient(q.Debit, balance)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	balance := s.book.Snapshot().Balance()
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:          notification.KindWithdrawalCompleted,
			Destination:   notification.AccountDestination,
			Body:          fmt.Sprintf("%s is on its way via %s", money.Format(tx.Amount), input.Method),
			TransactionID: tx.ID,
			Amount:        tx.Amount,
		})
	}

	return Result{
		Transaction: tx,
		Quote:       q,
		Reference:   decision.Reference,
		Balance:     balance,
		CompletedAt: time.Now().UTC(),
	}, nil
}

func insufficient(debit, balance int64) error {
	return fmt.Errorf("%w: need %s, have %s", ErrInsufficientBalance, money.Format(debit), money.Format(balance))
}
