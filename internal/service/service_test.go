package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/billsplit/billsplit/internal/auth"
	"github.com/billsplit/billsplit/internal/models"
	"github.com/billsplit/billsplit/internal/notify"
	"github.com/billsplit/billsplit/internal/observability"
	"github.com/billsplit/billsplit/internal/storage/sqlite"
)

// testEnv wires every service against one temp-file SQLite store.
type testEnv struct {
	store      *sqlite.SQLiteStore
	auth       *AuthService
	groups     *GroupService
	expenses   *ExpenseService
	settlement *SettlementService
	balances   *BalanceService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "billsplit-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := notify.NewLogNotifier()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)

	return &testEnv{
		store:      store,
		auth:       NewAuthService(authenticator, jwtManager, store, logger),
		groups:     NewGroupService(store, notifier, logger),
		expenses:   NewExpenseService(store, notifier, logger),
		settlement: NewSettlementService(store, notifier, logger),
		balances:   NewBalanceService(store, observability.NewMetrics(), logger),
	}
}

func (e *testEnv) registerUser(t *testing.T, name, email string) *models.User {
	t.Helper()

	user, _, err := e.auth.Register(context.Background(), email, name, "password123")
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return user
}

func (e *testEnv) createGroup(t *testing.T, creator *models.User, name string, invites ...string) *GroupDetail {
	t.Helper()

	detail, err := e.groups.CreateGroup(context.Background(), creator.ID, name, "", invites)
	if err != nil {
		t.Fatalf("CreateGroup(%s) failed: %v", name, err)
	}
	return detail
}
