package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ctrl-pay/ctrl_pay/internal/ledger"
)

// RegisterLedgerRoutes wires the read side of the session ledger.
func RegisterLedgerRoutes(r fiber.Router, h *ledger.Handler) {
	group := r.Group("/ledger")
	group.Get("/balance", h.Balance)
	group.Get("/summary", h.Summary)
	group.Get("/transactions", h.Transactions)
	group.Get("/transactions/:id/fees", h.Fees)
	group.Post("/transactions/:id/complete", h.Complete)
	group.Get("/journal", h.Journal)
}
