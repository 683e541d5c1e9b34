package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ctrl-pay/ctrl_pay/internal/config"
	"github.com/ctrl-pay/ctrl_pay/internal/logging"
)

func TestErrorsRenderAsJSON(t *testing.T) {
	cfg := config.Config{
		AppName:     "CTRL+Pay",
		AppEnv:      "development",
		Port:        "8080",
		NGNPerUSD:   decimal.RequireFromString("1547.5"),
		USDCHaircut: decimal.RequireFromString("0.01"),
	}
	srv, err := New(cfg, nil, nil, nil, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/missing", nil)
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["request_id"] != "req-42" || body["error"] == "" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	srv, err := New(config.Config{AppEnv: "development", Port: "8080"}, nil, nil, nil, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound || resp.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}
