package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/ctrl-pay/ctrl_pay/internal/money"
)

const (
	defaultAppName         = "CTRL+Pay"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultPaymentDelay    = 3 * time.Second
	defaultPayoutDelay     = 2 * time.Second
	defaultMinWithdrawal   = "10.00"
	defaultPaymentLinkBase = "https://ctrlpay.app"
	defaultNGNPerUSD       = "1547.5"
	defaultUSDCHaircut     = "0.01"
	defaultNotifiers       = "log"
	defaultKafkaTopic      = "ctrlpay.notifications"
	defaultAMQPExchange    = "ctrlpay"
	defaultAMQPRoutingKey  = "notifications"
	defaultWithdrawalLimit = 10
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	LogFormat      string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
	// RequireIdempotencyKey rejects unsafe requests without an Idempotency-Key.
	RequireIdempotencyKey bool

	SessionID  string
	SeedSample bool
	FeesFile   string

	PaymentDelay    time.Duration
	PayoutDelay     time.Duration
	MinWithdrawal   int64
	PaymentLinkBase string
	NGNPerUSD       decimal.Decimal
	USDCHaircut     decimal.Decimal

	Notifiers       []string
	KafkaBrokers    []string
	KafkaTopic      string
	AMQPURL         string
	AMQPExchange    string
	AMQPRoutingKey  string
	WithdrawalLimit int
}

// Load reads a .env file when present and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppName:         getEnv("APP_NAME", defaultAppName),
		AppEnv:          getEnv("APP_ENV", defaultAppEnv),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		SessionID:       os.Getenv("SESSION_ID"),
		FeesFile:        os.Getenv("FEES_FILE"),
		PaymentLinkBase: getEnv("PAYMENT_LINK_BASE", defaultPaymentLinkBase),
		Notifiers:       splitList(getEnv("NOTIFIERS", defaultNotifiers)),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", defaultKafkaTopic),
		AMQPURL:         os.Getenv("AMQP_URL"),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", defaultAMQPExchange),
		AMQPRoutingKey:  getEnv("AMQP_ROUTING_KEY", defaultAMQPRoutingKey),
	}

	var err error
	if cfg.ShutdownPeriod, err = getDuration("SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.PaymentDelay, err = getDuration("PAYMENT_DELAY", defaultPaymentDelay); err != nil {
		return Config{}, err
	}
	if cfg.PayoutDelay, err = getDuration("PAYOUT_DELAY", defaultPayoutDelay); err != nil {
		return Config{}, err
	}
	if cfg.RequireIdempotencyKey, err = getBool("REQUIRE_IDEMPOTENCY_KEY", false); err != nil {
		return Config{}, err
	}
	if cfg.SeedSample, err = getBool("SEED_SAMPLE", cfg.IsDev()); err != nil {
		return Config{}, err
	}
	if cfg.WithdrawalLimit, err = getInt("WITHDRAWAL_RATE_LIMIT", defaultWithdrawalLimit); err != nil {
		return Config{}, err
	}
	if cfg.MinWithdrawal, err = money.ParseCents(getEnv("MIN_WITHDRAWAL", defaultMinWithdrawal)); err != nil {
		return Config{}, fmt.Errorf("invalid MIN_WITHDRAWAL: %w", err)
	}
	if cfg.NGNPerUSD, err = decimal.NewFromString(getEnv("NGN_PER_USD", defaultNGNPerUSD)); err != nil {
		return Config{}, fmt.Errorf("invalid NGN_PER_USD: %w", err)
	}
	if cfg.USDCHaircut, err = decimal.NewFromString(getEnv("USDC_HAIRCUT", defaultUSDCHaircut)); err != nil {
		return Config{}, fmt.Errorf("invalid USDC_HAIRCUT: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(strings.TrimPrefix(c.Port, ":")); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %q", c.Port))
	}
	if !c.IsDev() {
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL must be set outside development")
		}
		if c.RedisURL == "" {
			problems = append(problems, "REDIS_URL must be set outside development")
		}
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("invalid LOG_FORMAT %q: must be json or text", c.LogFormat))
	}
	if !c.NGNPerUSD.IsPositive() {
		problems = append(problems, "NGN_PER_USD must be positive")
	}
	if c.USDCHaircut.IsNegative() || c.USDCHaircut.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		problems = append(problems, "USDC_HAIRCUT must be in [0, 1)")
	}
	if u, err := url.Parse(c.PaymentLinkBase); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("invalid PAYMENT_LINK_BASE %q", c.PaymentLinkBase))
	}
	for _, n := range c.Notifiers {
		switch n {
		case "log":
		case "kafka":
			if len(c.KafkaBrokers) == 0 {
				problems = append(problems, "KAFKA_BROKERS must be set when the kafka notifier is enabled")
			}
		case "amqp":
			if u, err := url.Parse(c.AMQPURL); err != nil || (u.Scheme != "amqp" && u.Scheme != "amqps") {
				problems = append(problems, fmt.Sprintf("invalid AMQP_URL %q: must be amqp:// or amqps://", c.AMQPURL))
			}
		default:
			problems = append(problems, fmt.Sprintf("unknown notifier %q", n))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// IsDev reports whether the app runs in development.
func (c Config) IsDev() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev" || c.AppEnv == "local"
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDuration accepts KEY as a Go duration or KEY_SECONDS as whole seconds.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", key, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
