package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/jmheath/books/internal/httpapi"
	"github.com/jmheath/books/internal/ledger"
	"github.com/jmheath/books/internal/storage/memory"
	pgstore "github.com/jmheath/books/internal/storage/postgres"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := buildLoggerFromEnv()
	slog.SetDefault(logger)

	var store httpapi.Store
	var closeFn func()

	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		pg, err := pgstore.Open(ctx, dsn)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = pg.Close
		store = pg
		logger.Info("storage backend: postgres")
	} else {
		mem := memory.New()
		if devSeedEnabled() {
			seedChart(mem, logger)
		}
		store = mem
		logger.Info("storage backend: memory")
	}

	addr := strings.TrimSpace(os.Getenv("ADDR"))
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.New(store, logger).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("books service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

func devSeedEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEV_SEED"))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// seedChart loads a minimal chart of accounts for local runs.
func seedChart(store *memory.Store, l *slog.Logger) {
	now := time.Now().UTC()
	accounts := []ledger.Account{
		{Number: 1000, Name: "Checking", Type: ledger.AccountTypeAsset, Subtype: "current_asset"},
		{Number: 1100, Name: "Accounts Receivable", Type: ledger.AccountTypeAsset, Subtype: "current_asset"},
		{Number: 2000, Name: "Accounts Payable", Type: ledger.AccountTypeLiability, Subtype: "current_liability"},
		{Number: 3000, Name: "Owner's Equity", Type: ledger.AccountTypeEquity, Subtype: "equity", System: true},
		{Number: 4000, Name: "Consulting Revenue", Type: ledger.AccountTypeRevenue, Subtype: "operating_revenue"},
		{Number: 5000, Name: "Office Expenses", Type: ledger.AccountTypeExpense, Subtype: "operating_expense"},
	}
	for i := range accounts {
		a := &accounts[i]
		a.ID = uuid.New()
		a.NormalBalance = ledger.NormalBalanceFor(a.Type)
		a.Currency = "USD"
		a.Active = true
		a.CreatedAt = now
		a.UpdatedAt = now
		store.SeedAccount(*a)
		l.Info("DEV seed account", "number", a.Number, "name", a.Name, "id", a.ID.String())
	}
}

// parseLogLevel maps env values to slog.Leveler.
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLoggerFromEnv() *slog.Logger {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))
	format := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
