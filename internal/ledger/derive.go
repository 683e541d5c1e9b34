package ledger

import (
	"iter"
	"strings"
	"time"
)

// Balance folds completed USD transactions into the available balance in
// cents. Payments add amount minus fee, withdrawals subtract amount plus fee,
// conversions are inert. The fold is a plain integer sum, so the result does
// not depend on the order of the log.
func (l Ledger) Balance() int64 {
	var balance int64
	for _, tx := range l.txs {
		balance += tx.balanceEffect()
	}
	return balance
}

func (tx Transaction) balanceEffect() int64 {
	if tx.Status != StatusCompleted || tx.Currency != USD {
		return 0
	}
	switch tx.Kind {
	case KindPayment:
		return tx.Amount - tx.Fee
	case KindWithdrawal:
		return -(tx.Amount + tx.Fee)
	default:
		return 0
	}
}

// MonthlyEarnings sums the gross amount of completed USD payments dated in
// the same calendar year and month as ref.
func (l Ledger) MonthlyEarnings(ref time.Time) int64 {
	year, month, _ := ref.Date()
	var total int64
	for _, tx := range l.txs {
		if !tx.isEarning() {
			continue
		}
		if y, m, _ := tx.OccurredAt.Date(); y == year && m == month {
			total += tx.Amount
		}
	}
	return total
}

func (tx Transaction) isEarning() bool {
	return tx.Kind == KindPayment && tx.Status == StatusCompleted && tx.Currency == USD
}

// Filter selects transactions for the history view. Empty fields match
// everything; Kind "all" is treated as empty.
type Filter struct {
	Kind       Kind
	SearchText string
}

func (f Filter) match(tx Transaction, needle string) bool {
	if f.Kind != "" && f.Kind != "all" && tx.Kind != f.Kind {
		return false
	}
	if needle == "" {
		return true
	}
	label := tx.Counterparty
	if label == "" {
		label = tx.Description
	}
	return strings.Contains(strings.ToLower(label), needle)
}

// Filter returns the matching transactions newest-first. The sequence is lazy
// and may be ranged over any number of times.
func (l Ledger) Filter(f Filter) iter.Seq[Transaction] {
	txs := l.txs
	needle := strings.ToLower(f.SearchText)
	return func(yield func(Transaction) bool) {
		for i := len(txs) - 1; i >= 0; i-- {
			if !f.match(txs[i], needle) {
				continue
			}
			if !yield(txs[i]) {
				return
			}
		}
	}
}

// Breakdown splits a transaction into what moves on each side of the fee.
type Breakdown struct {
	Gross int64 `json:"gross"`
	Fee   int64 `json:"fee"`
	Net   int64 `json:"net"`
}

// FeeBreakdown reports gross, fee and net for tx. For a payment the fee is
// withheld: gross is the invoiced amount and net is what reaches the balance.
// For a withdrawal the fee is added on top: gross is what leaves the balance
// and net is what the recipient receives.
func (tx Transaction) FeeBreakdown() Breakdown {
	switch tx.Kind {
	case KindPayment:
		return Breakdown{Gross: tx.Amount, Fee: tx.Fee, Net: tx.Amount - tx.Fee}
	case KindWithdrawal:
		return Breakdown{Gross: tx.Amount + tx.Fee, Fee: tx.Fee, Net: tx.Amount}
	default:
		return Breakdown{Gross: tx.Amount, Fee: tx.Fee, Net: tx.Amount}
	}
}

// Summary is the dashboard view of a ledger for one reference month.
type Summary struct {
	Year            int        `json:"year"`
	Month           time.Month `json:"month"`
	Balance         int64      `json:"balance"`
	MonthlyEarnings int64      `json:"monthly_earnings"`
	TotalEarned     int64      `json:"total_earned"`
	TotalWithdrawn  int64      `json:"total_withdrawn"`
	TotalFees       int64      `json:"total_fees"`
	Pending         int        `json:"pending"`
	Count           int        `json:"count"`
}

// Summarize computes the dashboard figures relative to ref.
func (l Ledger) Summarize(ref time.Time) Summary {
	year, month, _ := ref.Date()
	s := Summary{
		Year:            year,
		Month:           month,
		Balance:         l.Balance(),
		MonthlyEarnings: l.MonthlyEarnings(ref),
		Count:           len(l.txs),
	}
	for _, tx := range l.txs {
		if tx.Status == StatusPending {
			s.Pending++
			continue
		}
		if tx.Currency != USD {
			continue
		}
		switch tx.Kind {
		case KindPayment:
			s.TotalEarned += tx.Amount
			s.TotalFees += tx.Fee
		case KindWithdrawal:
			s.TotalWithdrawn += tx.Amount
			s.TotalFees += tx.Fee
		}
	}
	return s
}
