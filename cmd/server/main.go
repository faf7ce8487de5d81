package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bill-tracker/internal/config"
	"bill-tracker/internal/handlers"
	"bill-tracker/internal/ledger"
	applog "bill-tracker/internal/log"
	"bill-tracker/internal/models"
	"bill-tracker/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logCfg := applog.DefaultConfig()
	logCfg.Level = applog.ParseLevel(cfg.LogLevel)
	logCfg.Format = cfg.LogFormat
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	var kv storage.KV
	if cfg.Ephemeral {
		logger.Warn("ephemeral mode: expenses are not persisted")
		kv = storage.NewMemoryKV()
	} else {
		db, err := storage.NewDB(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		kv = db
		if at, err := db.UpdatedAt(context.Background(), cfg.StorageKey); err == nil {
			logger.Info("opened expense store", "db", cfg.DBPath, "last_saved", at)
		} else if !errors.Is(err, storage.ErrKeyNotFound) {
			logger.Warn("reading store timestamp", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := storage.NewExpenseStore(kv, cfg.StorageKey, logger)
	l := ledger.New(ctx, store, ledger.WithLogger(logger))
	l.Subscribe(func(expenses []models.Expense) {
		logger.Debug("expenses changed", "count", len(expenses))
	})
	h := handlers.NewHandlers(l, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.LogRequests(setupRouter(h)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "db", cfg.DBPath, "expenses", l.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupRouter(h *handlers.Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/expenses", http.StatusFound)
	})
	mux.HandleFunc("GET /categories", h.Categories)
	mux.HandleFunc("GET /expenses", h.ListExpenses)
	mux.HandleFunc("POST /expenses", h.CreateExpense)
	mux.HandleFunc("GET /expenses/{id}", h.GetExpense)
	mux.HandleFunc("PUT /expenses/{id}", h.UpdateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", h.DeleteExpense)
	mux.HandleFunc("POST /expenses/{id}/toggle", h.TogglePaid)
	mux.HandleFunc("GET /statistics", h.Statistics)
	mux.HandleFunc("GET /export.xlsx", h.Export)

	return mux
}
