package withdrawal

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ctrl-pay/ctrl_pay/internal/fees"
	"github.com/ctrl-pay/ctrl_pay/internal/ledger"
	"github.com/ctrl-pay/ctrl_pay/internal/money"
	"github.com/ctrl-pay/ctrl_pay/internal/processor"
)

// Handler exposes withdrawal endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a withdrawal handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type withdrawRequest struct {
	Amount string `json:"amount"`
	Method string `json:"method"`
}

func (r withdrawRequest) parse() (int64, error) {
	amount, err := money.ParseCents(r.Amount)
	if err != nil {
		return 0, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return amount, nil
}

// Quote prices a withdrawal without booking it.
func (h *Handler) Quote(c *fiber.Ctx) error {
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := req.parse()
	if err != nil {
		return err
	}
	q, err := h.service.Quote(req.Method, amount)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(q)
}

// Withdraw executes a payout.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := req.parse()
	if err != nil {
		return err
	}
	res, err := h.service.Withdraw(c.UserContext(), Input{Amount: amount, Method: req.Method})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_id": res.Transaction.ID,
		"amount":         res.Quote.Amount,
		"fee":            res.Quote.Fee,
		"debit":          res.Quote.Debit,
		"preview":        res.Quote.Preview,
		"balance":        res.Balance,
		"reference":      res.Reference,
		"completed_at":   res.CompletedAt,
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInsufficientBalance), errors.Is(err, ErrBelowMinimum),
		errors.Is(err, fees.ErrUnknownChannel), errors.Is(err, ledger.ErrInvalidTransaction):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, processor.ErrDeclined):
		return fiber.NewError(http.StatusPaymentRequired, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(http.StatusRequestTimeout, "withdrawal cancelled")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
