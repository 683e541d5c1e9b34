package ledger

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ctrl-pay/ctrl_pay/internal/money"
)

// Handler exposes read views over the session book.
type Handler struct {
	book *Book
	now  func() time.Time
}

// NewHandler constructs a ledger handler.
func NewHandler(book *Book) *Handler {
	return &Handler{book: book, now: time.Now}
}

type transactionResponse struct {
	Transaction
	AmountDisplay string `json:"amount_display"`
}

func toResponse(tx Transaction) transactionResponse {
	return transactionResponse{Transaction: tx, AmountDisplay: money.Format(tx.Amount)}
}

// Balance returns the available USD balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	balance := h.book.Snapshot().Balance()
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"balance_cents": balance,
		"balance":       money.String(balance),
		"display":       money.Format(balance),
		"currency":      USD,
		"as_of":         h.now().UTC(),
	})
}

// Summary returns dashboard figures for ?month=YYYY-MM, defaulting to the
// current month.
func (h *Handler) Summary(c *fiber.Ctx) error {
	ref := h.now().UTC()
	if month := c.Query("month"); month != "" {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "month must be formatted as YYYY-MM")
		}
		ref = parsed
	}
	return c.Status(http.StatusOK).JSON(h.book.Snapshot().Summarize(ref))
}

// Transactions lists history newest-first, filtered by ?kind= and ?q=.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	kind := Kind(c.Query("kind"))
	if kind != "" && kind != "all" && !kind.Valid() {
		return fiber.NewError(http.StatusBadRequest, "unknown transaction kind")
	}
	items := make([]transactionResponse, 0)
	for tx := range h.book.Snapshot().Filter(Filter{Kind: kind, SearchText: c.Query("q")}) {
		items = append(items, toResponse(tx))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"transactions": items,
		"count":        len(items),
	})
}

// Fees returns the gross/fee/net breakdown of one transaction.
func (h *Handler) Fees(c *fiber.Ctx) error {
	tx, ok := h.book.Snapshot().Get(c.Params("id"))
	if !ok {
		return fiber.NewError(http.StatusNotFound, ErrTransactionNotFound.Error())
	}
	b := tx.FeeBreakdown()
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"transaction_id": tx.ID,
		"kind":           tx.Kind,
		"gross":          b.Gross,
		"fee":            b.Fee,
		"net":            b.Net,
		"display": fiber.Map{
			"gross": money.Format(b.Gross),
			"fee":   money.Format(b.Fee),
			"net":   money.Format(b.Net),
		},
	})
}

// Complete settles a pending transaction.
func (h *Handler) Complete(c *fiber.Ctx) error {
	tx, err := h.book.Complete(c.UserContext(), c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrTransactionNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrIllegalTransition):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(toResponse(tx))
}

// Journal returns the audit trail of this session.
func (h *Handler) Journal(c *fiber.Ctx) error {
	entries, err := h.book.Journal().Entries(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	if entries == nil {
		entries = []JournalEntry{}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"entries": entries})
}
