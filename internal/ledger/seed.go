package ledger

import "time"

// SampleTransactions returns the demo session history, newest first in the
// order a user sees it. Seed appends oldest first so arrival order matches
// the dates.
func SampleTransactions() []TransactionInput {
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }
	newestFirst := []TransactionInput{
		{ID: "1", Kind: KindPayment, Amount: 50_000, Fee: 1_000, OccurredAt: day(time.January, 15),
			Description: "Website Design for Acme Corp", Counterparty: "Acme Corp", Channel: "card"},
		{ID: "2", Kind: KindWithdrawal, Amount: 20_000, Fee: 400, OccurredAt: day(time.January, 10),
			Description: "Withdrawal to Bank Account", Channel: "bank"},
		{ID: "3", Kind: KindPayment, Amount: 75_000, Fee: 1_500, OccurredAt: day(time.January, 8),
			Description: "Mobile App Development", Counterparty: "TechStart Inc", Channel: "card"},
		{ID: "4", Kind: KindPayment, Amount: 30_000, Fee: 600, OccurredAt: day(time.January, 5),
			Description: "Logo Design Project", Counterparty: "Design Studio", Channel: "card"},
		{ID: "5", Kind: KindPayment, Amount: 120_000, Fee: 2_400, OccurredAt: day(time.January, 3),
			Description: "E-commerce Platform", Counterparty: "Online Retail Co", Channel: "bank"},
		{ID: "6", Kind: KindWithdrawal, Amount: 80_000, Fee: 1_600, OccurredAt: day(time.January, 1),
			Description: "Withdrawal to Mobile Money", Channel: "mobile"},
	}
	out := make([]TransactionInput, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		in := newestFirst[i]
		in.Currency = USD
		in.Status = StatusCompleted
		out = append(out, in)
	}
	return out
}
