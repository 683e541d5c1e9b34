package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("NOTIFIERS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
	if cfg.MinWithdrawal != 1_000 {
		t.Fatalf("expected minimum 1000 cents, got %d", cfg.MinWithdrawal)
	}
	if cfg.PaymentDelay != 3*time.Second || cfg.PayoutDelay != 2*time.Second {
		t.Fatalf("unexpected delays %s/%s", cfg.PaymentDelay, cfg.PayoutDelay)
	}
	if !cfg.SeedSample {
		t.Fatal("development should seed the sample ledger")
	}
	if cfg.NGNPerUSD.String() != "1547.5" {
		t.Fatalf("unexpected rate %s", cfg.NGNPerUSD)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", ":9090")
	t.Setenv("PAYOUT_DELAY_SECONDS", "0")
	t.Setenv("PAYMENT_DELAY", "150ms")
	t.Setenv("MIN_WITHDRAWAL", "25.50")
	t.Setenv("SEED_SAMPLE", "false")
	t.Setenv("NOTIFIERS", "log, kafka")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Address() != ":9090" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
	if cfg.PayoutDelay != 0 || cfg.PaymentDelay != 150*time.Millisecond {
		t.Fatalf("unexpected delays %s/%s", cfg.PaymentDelay, cfg.PayoutDelay)
	}
	if cfg.MinWithdrawal != 2_550 || cfg.SeedSample {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if len(cfg.Notifiers) != 2 || len(cfg.KafkaBrokers) != 2 {
		t.Fatalf("unexpected lists %v %v", cfg.Notifiers, cfg.KafkaBrokers)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PAYOUT_DELAY", "soon")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "PAYOUT_DELAY") {
		t.Fatalf("expected delay error, got %v", err)
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("NOTIFIERS", "amqp,pager")
	t.Setenv("AMQP_URL", "http://broker")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"DATABASE_URL", "REDIS_URL", "AMQP_URL", `unknown notifier "pager"`} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}
