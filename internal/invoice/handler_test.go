package invoice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/ctrl-pay/ctrl_pay/internal/notification"
)

type testNotifier struct {
	last notification.Message
}

func (n *testNotifier) Send(_ context.Context, msg notification.Message) error {
	n.last = msg
	return nil
}

func TestHandlerCreateAndGet(t *testing.T) {
	notifier := &testNotifier{}
	h := NewHandler(NewService(NewMemoryRepository(), ""), notifier)
	app := fiber.New()
	app.Post("/invoices", h.Create)
	app.Get("/invoices/:id", h.Get)

	body := `{"amount":"500.00","description":"Website Design","client_name":"Acme Corp","client_email":"billing@acme.test"}`
	req := httptest.NewRequest(http.MethodPost, "/invoices", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created invoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Amount != 50_000 || created.AmountDisplay != "$500.00" {
		t.Fatalf("unexpected invoice %+v", created)
	}
	if notifier.last.Kind != notification.KindInvoiceCreated || notifier.last.Destination != "billing@acme.test" {
		t.Fatalf("expected invoice notification, got %+v", notifier.last)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/invoices/"+created.ID, nil))
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/invoices/unknown", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandlerCreateRejectsBadAmount(t *testing.T) {
	h := NewHandler(NewService(NewMemoryRepository(), ""), nil)
	app := fiber.New()
	app.Post("/invoices", h.Create)

	for _, amount := range []string{"", "-5", "abc", "0.00"} {
		body := `{"amount":"` + amount + `","description":"d","client_name":"c","client_email":"c@x.test"}`
		req := httptest.NewRequest(http.MethodPost, "/invoices", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("amount %q: expected 400, got %d", amount, resp.StatusCode)
		}
	}
}
