package payments

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ctrl-pay/ctrl_pay/internal/fees"
	"github.com/ctrl-pay/ctrl_pay/internal/invoice"
	"github.com/ctrl-pay/ctrl_pay/internal/ledger"
	"github.com/ctrl-pay/ctrl_pay/internal/money"
	"github.com/ctrl-pay/ctrl_pay/internal/processor"
)

// Handler exposes payment endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type payRequest struct {
	Channel    string `json:"channel"`
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	Name       string `json:"name"`
}

// Pay runs the simulated checkout for an invoice.
func (h *Handler) Pay(c *fiber.Ctx) error {
	var req payRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	input := PayInput{InvoiceID: c.Params("id"), Channel: req.Channel}
	if req.CardNumber != "" {
		input.Card = &processor.Card{Number: req.CardNumber, Expiry: req.Expiry, CVV: req.CVV, Name: req.Name}
	}

	res, err := h.service.PayInvoice(c.UserContext(), input)
	if err != nil {
		switch {
		case errors.Is(err, invoice.ErrInvoiceNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, invoice.ErrAlreadyPaid), errors.Is(err, ErrPaymentInProgress):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, processor.ErrDeclined):
			return fiber.NewError(http.StatusPaymentRequired, err.Error())
		case errors.Is(err, ErrChannelRequired), errors.Is(err, ErrCardRequired),
			errors.Is(err, processor.ErrInvalidCard), errors.Is(err, fees.ErrUnknownChannel),
			errors.Is(err, ledger.ErrInvalidTransaction):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return fiber.NewError(http.StatusRequestTimeout, "payment cancelled")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_id": res.Transaction.ID,
		"invoice_id":     res.Invoice.ID,
		"status":         res.Invoice.Status,
		"gross":          res.Breakdown.Gross,
		"fee":            res.Breakdown.Fee,
		"net":            res.Breakdown.Net,
		"net_display":    money.Format(res.Breakdown.Net),
		"reference":      res.Reference,
		"completed_at":   res.CompletedAt,
	})
}
