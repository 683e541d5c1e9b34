package routes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ctrl-pay/ctrl_pay/internal/config"
	"github.com/ctrl-pay/ctrl_pay/internal/fees"
	"github.com/ctrl-pay/ctrl_pay/internal/fx"
	"github.com/ctrl-pay/ctrl_pay/internal/invoice"
	"github.com/ctrl-pay/ctrl_pay/internal/ledger"
	"github.com/ctrl-pay/ctrl_pay/internal/metrics"
	"github.com/ctrl-pay/ctrl_pay/internal/middleware"
	"github.com/ctrl-pay/ctrl_pay/internal/notification"
	"github.com/ctrl-pay/ctrl_pay/internal/payments"
	"github.com/ctrl-pay/ctrl_pay/internal/processor"
	"github.com/ctrl-pay/ctrl_pay/internal/withdrawal"
)

const setupTimeout = 10 * time.Second

// Deps aggregates shared dependencies required to wire routes. DB, Cache and
// Notifier are optional.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Notifier notification.Notifier
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(middleware.IdempotencyConfig{
			Cache:    d.Cache,
			TTL:      d.Cfg.IdempotencyTTL,
			Logger:   d.Logger,
			Required: d.Cfg.RequireIdempotencyKey,
		}))
	}

	collector := metrics.New()
	collector.Classify(withdrawal.ErrInsufficientBalance, "insufficient_balance")
	RegisterHealthRoutes(app, d, collector)

	// Ledger
	sessionID := d.Cfg.SessionID
	if sessionID == "" {
		sessionID = ledger.NewID()
	}
	var journal ledger.Journal
	if d.DB != nil {
		pg := ledger.NewPostgresJournal(d.DB, sessionID)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		journal = pg
	} else {
		journal = ledger.NewMemoryJournal()
	}
	book := ledger.NewBook(journal, collector)
	if d.Cfg.SeedSample {
		if err := book.Seed(ctx, ledger.SampleTransactions()); err != nil {
			return fmt.Errorf("seed ledger: %w", err)
		}
	}
	d.Logger.Info("ledger ready",
		slog.String("session_id", sessionID),
		slog.Int("transactions", book.Snapshot().Len()),
		slog.Int64("balance_cents", book.Snapshot().Balance()),
	)

	schedule := fees.Default()
	if d.Cfg.FeesFile != "" {
		loaded, err := fees.LoadFile(d.Cfg.FeesFile)
		if err != nil {
			return err
		}
		schedule = loaded
	}
	rates := fx.Rates{NGNPerUSD: d.Cfg.NGNPerUSD, USDCHaircut: d.Cfg.USDCHaircut}
	if rates.NGNPerUSD.IsZero() {
		rates = fx.DefaultRates()
	}

	notifier := d.Notifier
	if notifier == nil {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}
	proc := processor.NewSimulated(d.Cfg.PaymentDelay, d.Cfg.PayoutDelay)

	// Services and handlers
	invoiceSvc := invoice.NewService(invoice.NewMemoryRepository(), d.Cfg.PaymentLinkBase)
	paymentSvc := payments.NewService(book, invoiceSvc, schedule, proc, notifier)
	withdrawalSvc := withdrawal.NewService(book, schedule, rates, proc, notifier, d.Cfg.MinWithdrawal)

	ledgerHandler := ledger.NewHandler(book)
	invoiceHandler := invoice.NewHandler(invoiceSvc, notifier)
	paymentHandler := payments.NewHandler(paymentSvc)
	withdrawalHandler := withdrawal.NewHandler(withdrawalSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", ping)
	RegisterLedgerRoutes(api, ledgerHandler)
	RegisterInvoiceRoutes(api, invoiceHandler, paymentHandler)
	RegisterWithdrawalRoutes(api, withdrawalHandler,
		middleware.RateLimit(d.Cache, "withdrawal", d.Cfg.WithdrawalLimit, d.Logger))

	return nil
}
