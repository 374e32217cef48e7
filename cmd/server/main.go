package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/billsplit/billsplit/internal/auth"
	"github.com/billsplit/billsplit/internal/config"
	"github.com/billsplit/billsplit/internal/handler"
	"github.com/billsplit/billsplit/internal/notify"
	"github.com/billsplit/billsplit/internal/observability"
	"github.com/billsplit/billsplit/internal/service"
	"github.com/billsplit/billsplit/internal/storage/sqlite"
	"github.com/billsplit/billsplit/pkg/logging"
)

func main() {
	cfg := config.Load()
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))
	logger := slog.Default()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)
	notifier := notify.NewLogNotifier()
	metrics := observability.NewMetrics()

	svcs := handler.Services{
		Auth:       service.NewAuthService(authenticator, jwtManager, store, logger),
		Group:      service.NewGroupService(store, notifier, logger),
		Expense:    service.NewExpenseService(store, notifier, logger),
		Settlement: service.NewSettlementService(store, notifier, logger),
		Balance:    service.NewBalanceService(store, metrics, logger),
	}

	router := handler.NewRouter(svcs, jwtManager, metrics, cfg.AllowedOrigin, logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
