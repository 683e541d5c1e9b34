package invoice

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ctrl-pay/ctrl_pay/internal/money"
	"github.com/ctrl-pay/ctrl_pay/internal/notification"
)

// Handler exposes invoice HTTP endpoints.
type Handler struct {
	service  *Service
	notifier notification.Notifier
}

// NewHandler builds an invoice HTTP handler. notifier may be nil.
func NewHandler(service *Service, notifier notification.Notifier) *Handler {
	return &Handler{service: service, notifier: notifier}
}

type createRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
}

type invoiceResponse struct {
	Invoice
	AmountDisplay string `json:"amount_display"`
}

// Create generates an invoice and its payment link.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := money.ParseCents(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	inv, err := h.service.Create(c.UserContext(), CreateInput{
		Amount:      amount,
		Description: req.Description,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInvoice) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	if h.notifier != nil {
		_ = h.notifier.Send(c.UserContext(), notification.Message{
			Kind:        notification.KindInvoiceCreated,
			Destination: inv.ClientEmail,
			Body:        "Invoice for " + money.Format(inv.Amount) + ": " + inv.PaymentLink,
			Amount:      inv.Amount,
		})
	}
	return c.Status(http.StatusCreated).JSON(invoiceResponse{Invoice: inv, AmountDisplay: money.Format(inv.Amount)})
}

// Get returns one invoice.
func (h *Handler) Get(c *fiber.Ctx) error {
	inv, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(invoiceResponse{Invoice: inv, AmountDisplay: money.Format(inv.Amount)})
}
