package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ctrl-pay/ctrl_pay/internal/withdrawal"
)

// RegisterWithdrawalRoutes wires payout quote and execution. rateLimiter may
// be nil.
func RegisterWithdrawalRoutes(r fiber.Router, h *withdrawal.Handler, rateLimiter fiber.Handler) {
	r.Post("/withdrawals/quote", h.Quote)
	if rateLimiter != nil {
		r.Post("/withdrawals", rateLimiter, h.Withdraw)
	} else {
		r.Post("/withdrawals", h.Withdraw)
	}
}
