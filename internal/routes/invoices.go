package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ctrl-pay/ctrl_pay/internal/invoice"
	"github.com/ctrl-pay/ctrl_pay/internal/payments"
)

// RegisterInvoiceRoutes wires invoice creation, lookup and checkout.
func RegisterInvoiceRoutes(r fiber.Router, h *invoice.Handler, pay *payments.Handler) {
	r.Post("/invoices", h.Create)
	r.Get("/invoices/:id", h.Get)
	r.Post("/invoices/:id/pay", pay.Pay)
}
