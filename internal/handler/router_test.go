package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/billsplit/billsplit/internal/auth"
	"github.com/billsplit/billsplit/internal/notify"
	"github.com/billsplit/billsplit/internal/observability"
	"github.com/billsplit/billsplit/internal/service"
	"github.com/billsplit/billsplit/internal/storage/sqlite"
)

func newTestServer(t *testing.T) *httptest.Server {
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
	metrics := observability.NewMetrics()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)

	svcs := Services{
		Auth:       service.NewAuthService(authenticator, jwtManager, store, logger),
		Group:      service.NewGroupService(store, notifier, logger),
		Expense:    service.NewExpenseService(store, notifier, logger),
		Settlement: service.NewSettlementService(store, notifier, logger),
		Balance:    service.NewBalanceService(store, metrics, logger),
	}

	srv := httptest.NewServer(NewRouter(svcs, jwtManager, metrics, "*", logger))
	t.Cleanup(srv.Close)
	return srv
}

// doJSON sends a JSON request and decodes the response body into out (when
// out is non-nil).
func doJSON(t *testing.T, method, url, token string, body, out any) int {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func registerTestUser(t *testing.T, srv *httptest.Server, name, email string) (userID int64, token string) {
	t.Helper()

	var resp authResponse
	status := doJSON(t, http.MethodPost, srv.URL+"/v1/auth/register", "", registerRequest{
		Email: email, Name: name, Password: "password123",
	}, &resp)
	if status != http.StatusCreated {
		t.Fatalf("Register returned status %d", status)
	}
	return resp.User.ID, resp.Token
}

func TestAuthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	_, token := registerTestUser(t, srv, "Alice", "alice@example.com")
	if token == "" {
		t.Fatal("Expected a token from registration")
	}

	var resp authResponse
	status := doJSON(t, http.MethodPost, srv.URL+"/v1/auth/login", "", loginRequest{
		Email: "alice@example.com", Password: "password123",
	}, &resp)
	if status != http.StatusOK {
		t.Fatalf("Login returned status %d", status)
	}
	if resp.User.Name != "Alice" {
		t.Errorf("User name mismatch: got %s", resp.User.Name)
	}

	status = doJSON(t, http.MethodPost, srv.URL+"/v1/auth/login", "", loginRequest{
		Email: "alice@example.com", Password: "wrong",
	}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("Expected 401 for bad password, got %d", status)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	if status := doJSON(t, http.MethodGet, srv.URL+"/v1/groups", "", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", status)
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/v1/groups", "not-a-token", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("Expected 401 with garbage token, got %d", status)
	}
}

func TestGroupExpenseBalanceFlow(t *testing.T) {
	srv := newTestServer(t)

	aliceID, aliceToken := registerTestUser(t, srv, "Alice", "alice@example.com")
	bobID, bobToken := registerTestUser(t, srv, "Bob", "bob@example.com")

	// Alice creates a group inviting bob and a pending carol.
	var group groupDetailView
	status := doJSON(t, http.MethodPost, srv.URL+"/v1/groups", aliceToken, createGroupRequest{
		Name:         "Trip",
		MemberEmails: []string{"bob@example.com", "carol@example.com"},
	}, &group)
	if status != http.StatusCreated {
		t.Fatalf("Create group returned status %d", status)
	}
	if len(group.Members) != 2 || len(group.PendingMembers) != 1 {
		t.Fatalf("Expected 2 members + 1 pending, got %d + %d", len(group.Members), len(group.PendingMembers))
	}

	groupURL := srv.URL + "/v1/groups/" + group.ID

	// Bob sees the group.
	var groups []groupView
	if status := doJSON(t, http.MethodGet, srv.URL+"/v1/groups", bobToken, nil, &groups); status != http.StatusOK {
		t.Fatalf("List groups returned status %d", status)
	}
	if len(groups) != 1 {
		t.Fatalf("Expected bob to see 1 group, got %d", len(groups))
	}

	// Alice records an expense split across all three.
	var expense expenseView
	status = doJSON(t, http.MethodPost, groupURL+"/expenses", aliceToken, createExpenseRequest{
		Description: "Hotel",
		Amount:      90.0,
		SplitType:   "EQUAL",
		Participants: []participantRequest{
			{UserID: aliceID},
			{UserID: bobID},
			{Email: "carol@example.com"},
		},
	}, &expense)
	if status != http.StatusCreated {
		t.Fatalf("Create expense returned status %d", status)
	}
	if len(expense.Shares) != 2 || len(expense.PendingShares) != 1 {
		t.Fatalf("Expected 2 + 1 shares, got %d + %d", len(expense.Shares), len(expense.PendingShares))
	}

	// Balances: alice +60, bob -30, pending carol -30.
	var balances balancesResponse
	if status := doJSON(t, http.MethodGet, groupURL+"/balances", bobToken, nil, &balances); status != http.StatusOK {
		t.Fatalf("Balances returned status %d", status)
	}
	if len(balances.Balances) != 3 {
		t.Fatalf("Expected 3 balance entries, got %d", len(balances.Balances))
	}
	byKey := make(map[string]balanceEntryView)
	for _, entry := range balances.Balances {
		byKey[entry.Participant] = entry
	}
	if entry := byKey[fmt.Sprintf("%d", aliceID)]; entry.Balance != 60.0 {
		t.Errorf("Alice balance = %.2f, want 60.00", entry.Balance)
	}
	carolEntry, ok := byKey["pending-carol@example.com"]
	if !ok {
		t.Fatal("Expected a pending-carol@example.com entry")
	}
	if !carolEntry.IsPending || carolEntry.Balance != -30.0 {
		t.Errorf("Carol entry = %+v, want pending with balance -30.00", carolEntry)
	}

	// The plan pays everything back to alice.
	var plan planResponse
	if status := doJSON(t, http.MethodGet, groupURL+"/settlements/plan", aliceToken, nil, &plan); status != http.StatusOK {
		t.Fatalf("Plan returned status %d", status)
	}
	if len(plan.Plan) != 2 {
		t.Fatalf("Expected 2 plan entries, got %d", len(plan.Plan))
	}
	for _, entry := range plan.Plan {
		if entry.To != fmt.Sprintf("%d", aliceID) {
			t.Errorf("Expected alice as plan recipient, got %s", entry.To)
		}
	}

	// Bob settles up and the history shows it.
	var settlement settlementView
	status = doJSON(t, http.MethodPost, groupURL+"/settlements", bobToken, recordSettlementRequest{
		FromUserID: bobID, ToUserID: aliceID, Amount: 30.0, Message: "hotel share",
	}, &settlement)
	if status != http.StatusCreated {
		t.Fatalf("Record settlement returned status %d", status)
	}

	var history []settlementView
	if status := doJSON(t, http.MethodGet, groupURL+"/settlements", aliceToken, nil, &history); status != http.StatusOK {
		t.Fatalf("List settlements returned status %d", status)
	}
	if len(history) != 1 || history[0].Message != "hotel share" {
		t.Fatalf("Unexpected settlement history: %+v", history)
	}

	// Only the admin can delete the settlement.
	if status := doJSON(t, http.MethodDelete, groupURL+"/settlements/"+settlement.ID, bobToken, nil, nil); status != http.StatusForbidden {
		t.Errorf("Expected 403 for member delete, got %d", status)
	}
	if status := doJSON(t, http.MethodDelete, groupURL+"/settlements/"+settlement.ID, aliceToken, nil, nil); status != http.StatusNoContent {
		t.Errorf("Expected 204 for admin delete, got %d", status)
	}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	srv := newTestServer(t)

	if status := doJSON(t, http.MethodGet, srv.URL+"/healthz", "", nil, nil); status != http.StatusOK {
		t.Errorf("healthz returned status %d", status)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics returned status %d", resp.StatusCode)
	}
}

func TestGroupAccessControl(t *testing.T) {
	srv := newTestServer(t)

	_, aliceToken := registerTestUser(t, srv, "Alice", "alice@example.com")
	_, malloryToken := registerTestUser(t, srv, "Mallory", "mallory@example.com")

	var group groupDetailView
	status := doJSON(t, http.MethodPost, srv.URL+"/v1/groups", aliceToken, createGroupRequest{Name: "Private"}, &group)
	if status != http.StatusCreated {
		t.Fatalf("Create group returned status %d", status)
	}

	if status := doJSON(t, http.MethodGet, srv.URL+"/v1/groups/"+group.ID, malloryToken, nil, nil); status != http.StatusForbidden {
		t.Errorf("Expected 403 for outsider, got %d", status)
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/v1/groups/"+group.ID+"/balances", malloryToken, nil, nil); status != http.StatusForbidden {
		t.Errorf("Expected 403 for outsider balances, got %d", status)
	}
}
