// Package fx computes display-only currency previews for withdrawals. None of
// its figures are ever booked to the ledger.
package fx

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ctrl-pay/ctrl_pay/internal/money"
)

// ErrUnknownMethod indicates a payout method without a preview currency.
var ErrUnknownMethod = errors.New("unknown payout method")

// Rates are the fixed preview rates.
type Rates struct {
	NGNPerUSD   decimal.Decimal
	USDCHaircut decimal.Decimal
}

// DefaultRates returns 1547.5 NGN per USD and a 1% USDC haircut.
func DefaultRates() Rates {
	return Rates{
		NGNPerUSD:   decimal.RequireFromString("1547.5"),
		USDCHaircut: decimal.RequireFromString("0.01"),
	}
}

// Preview is an approximate amount in the payout currency.
type Preview struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
	Display  string `json:"display"`
}

// Preview converts cents of USD to the currency the method pays out in.
// Bank and mobile money pay NGN, crypto pays USDC and a domiciliary account
// keeps USD.
func (r Rates) Preview(method string, cents int64) (Preview, error) {
	usd := money.ToDecimal(cents)
	switch method {
	case "bank", "mobile":
		ngn := usd.Mul(r.NGNPerUSD).Round(2)
		kobo := ngn.Shift(2).IntPart()
		return Preview{Currency: "NGN", Amount: ngn.StringFixed(2), Display: money.FormatIn("₦", kobo)}, nil
	case "crypto":
		usdc := usd.Mul(decimal.NewFromInt(1).Sub(r.USDCHaircut)).Round(6)
		return Preview{Currency: "USDC", Amount: usdc.StringFixed(6), Display: usdc.StringFixed(6) + " USDC"}, nil
	case "domiciliary":
		return Preview{Currency: "USD", Amount: money.String(cents), Display: money.Format(cents)}, nil
	default:
		return Preview{}, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}
