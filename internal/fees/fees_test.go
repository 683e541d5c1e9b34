package fees

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctrl-pay/ctrl_pay/internal/ledger"
)

func ptr(v int64) *int64 { return &v }

func TestDefaultScheduleMatchesSampleFees(t *testing.T) {
	s := Default()
	for _, tx := range ledger.SampleTransactions() {
		fee, err := s.Fee(tx.Kind, tx.Channel, tx.Amount)
		if err != nil {
			t.Fatalf("%s: %v", tx.ID, err)
		}
		if fee != tx.Fee {
			t.Fatalf("%s: expected fee %d, got %d", tx.ID, tx.Fee, fee)
		}
	}
}

func TestRuleApply(t *testing.T) {
	cases := []struct {
		name   string
		rule   Rule
		amount int64
		want   int64
	}{
		{"two percent", Rule{Type: TypePercentage, Value: 200}, 50_000, 1_000},
		{"rounds half up", Rule{Type: TypePercentage, Value: 200}, 75, 2},
		{"rounds down", Rule{Type: TypePercentage, Value: 200}, 24, 0},
		{"one cent boundary", Rule{Type: TypePercentage, Value: 200}, 25, 1},
		{"fixed", Rule{Type: TypeFixed, Value: 500}, 10_000, 500},
		{"min", Rule{Type: TypePercentage, Value: 100, Min: ptr(50)}, 1_000, 50},
		{"max", Rule{Type: TypePercentage, Value: 100, Max: ptr(2_000)}, 1_000_000, 2_000},
		{"large amount", Rule{Type: TypePercentage, Value: 10_000}, math.MaxInt64, math.MaxInt64},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rule.Apply(tc.amount); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	s, err := NewSchedule([]Rule{
		{Kind: ledger.KindWithdrawal, Channel: Wildcard, Type: TypePercentage, Value: 200},
		{Kind: ledger.KindWithdrawal, Channel: "bank", Type: TypeFixed, Value: 200},
	})
	if err != nil {
		t.Fatalf("new schedule: %v", err)
	}

	if fee, _ := s.Fee(ledger.KindWithdrawal, "bank", 100_000); fee != 200 {
		t.Fatalf("expected exact bank rule, got %d", fee)
	}
	if fee, _ := s.Fee(ledger.KindWithdrawal, "mobile", 100_000); fee != 2_000 {
		t.Fatalf("expected wildcard rule, got %d", fee)
	}
	if _, err := s.Fee(ledger.KindWithdrawal, "pigeon", 100); !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("expected unknown channel, got %v", err)
	}
	if _, err := s.Fee(ledger.KindPayment, "card", 100); !errors.Is(err, ErrNoRule) {
		t.Fatalf("expected no rule, got %v", err)
	}
}

func TestNewScheduleRejectsInvalidRules(t *testing.T) {
	cases := []struct {
		name string
		rule Rule
		want error
	}{
		{"kind", Rule{Kind: "refund", Type: TypeFixed}, ErrInvalidRule},
		{"type", Rule{Kind: ledger.KindPayment, Type: "tiered"}, ErrInvalidRule},
		{"bps", Rule{Kind: ledger.KindPayment, Type: TypePercentage, Value: 10_001}, ErrInvalidRule},
		{"negative fixed", Rule{Kind: ledger.KindPayment, Type: TypeFixed, Value: -1}, ErrInvalidRule},
		{"min above max", Rule{Kind: ledger.KindPayment, Type: TypeFixed, Min: ptr(5), Max: ptr(1)}, ErrInvalidRule},
		{"channel", Rule{Kind: ledger.KindPayment, Channel: "mobile", Type: TypeFixed}, ErrUnknownChannel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSchedule([]Rule{tc.rule}); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fees.yaml")
	doc := `rules:
  - kind: payment
    channel: card
    type: percentage
    value: 290
  - kind: payment
    type: percentage
    value: 200
  - kind: withdrawal
    channel: bank
    type: fixed
    value: 200
  - kind: withdrawal
    channel: "*"
    type: fixed
    value: 500
    max: 400
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.Rules()) != 4 {
		t.Fatalf("expected 4 rules, got %d", len(s.Rules()))
	}
	if fee, _ := s.Fee(ledger.KindPayment, "card", 10_000); fee != 290 {
		t.Fatalf("expected 290, got %d", fee)
	}
	if fee, _ := s.Fee(ledger.KindPayment, "paypal", 10_000); fee != 200 {
		t.Fatalf("expected 200, got %d", fee)
	}
	if fee, _ := s.Fee(ledger.KindWithdrawal, "mobile", 10_000); fee != 400 {
		t.Fatalf("expected capped 400, got %d", fee)
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("rules: []\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(empty); !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("expected invalid rule, got %v", err)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
