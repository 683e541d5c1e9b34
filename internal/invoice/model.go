package invoice

import "time"

// Invoice statuses.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// Invoice is a payment request the freelancer sends to a client.
type Invoice struct {
	ID            string     `json:"id"`
	Amount        int64      `json:"amount"`
	Description   string     `json:"description"`
	ClientName    string     `json:"client_name"`
	ClientEmail   string     `json:"client_email"`
	Status        string     `json:"status"`
	PaymentLink   string     `json:"payment_link"`
	CreatedAt     time.Time  `json:"created_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
}
