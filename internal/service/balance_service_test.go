package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/billsplit/billsplit/internal/engine"
	"github.com/billsplit/billsplit/internal/models"
)

func TestBalancesEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.registerUser(t, "Alice", "alice@example.com")
	bob := env.registerUser(t, "Bob", "bob@example.com")
	group := env.createGroup(t, alice, "Trip", "bob@example.com", "carol@example.com")

	// Alice pays 90 split equally three ways (carol still pending).
	_, err := env.expenses.CreateExpense(ctx, group.Group.ID, alice.ID, ExpenseInput{
		Description: "Groceries",
		Amount:      90.0,
		SplitType:   models.SplitEqual,
		Participants: []ParticipantInput{
			{UserID: alice.ID},
			{UserID: bob.ID},
			{Email: "carol@example.com"},
		},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	res, err := env.balances.Balances(ctx, group.Group.ID, bob.ID)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	if res.ShareFailures != 0 || res.UnknownSettlementRefs != 0 {
		t.Errorf("Expected clean run, got failures=%d unknown=%d", res.ShareFailures, res.UnknownSettlementRefs)
	}
	if len(res.Keys) != 3 {
		t.Fatalf("Expected 3 roster entries, got %d", len(res.Keys))
	}

	get := func(key engine.ParticipantKey) *engine.BalanceEntry {
		entry, ok := res.Balances[key]
		if !ok {
			t.Fatalf("Missing balance entry for %s", key)
		}
		return entry
	}

	aliceEntry := get(engine.RegisteredKey(alice.ID))
	if math.Abs(aliceEntry.Balance-60.0) > 0.01 {
		t.Errorf("Alice balance = %.2f, want 60.00", aliceEntry.Balance)
	}
	bobEntry := get(engine.RegisteredKey(bob.ID))
	if math.Abs(bobEntry.Balance-(-30.0)) > 0.01 {
		t.Errorf("Bob balance = %.2f, want -30.00", bobEntry.Balance)
	}
	carolEntry := get(engine.PendingKey("carol@example.com"))
	if !carolEntry.IsPending {
		t.Error("Expected carol flagged pending")
	}
	if math.Abs(carolEntry.Balance-(-30.0)) > 0.01 {
		t.Errorf("Carol balance = %.2f, want -30.00", carolEntry.Balance)
	}

	// Zero-sum across the group.
	var total float64
	for _, key := range res.Keys {
		total += res.Balances[key].Balance
	}
	if math.Abs(total) > 0.01 {
		t.Errorf("Balances sum to %.4f, want 0", total)
	}

	// Bob settles his debt; his balance returns to zero.
	_, err = env.settlement.RecordSettlement(ctx, group.Group.ID, bob.ID, SettlementInput{
		FromUserID: bob.ID,
		ToUserID:   alice.ID,
		Amount:     30.0,
		Message:    "paying back groceries",
	})
	if err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}

	res, err = env.balances.Balances(ctx, group.Group.ID, bob.ID)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	if math.Abs(res.Balances[engine.RegisteredKey(bob.ID)].Balance) > 0.01 {
		t.Errorf("Bob balance after settlement = %.2f, want 0", res.Balances[engine.RegisteredKey(bob.ID)].Balance)
	}
	if math.Abs(res.Balances[engine.RegisteredKey(alice.ID)].Balance-30.0) > 0.01 {
		t.Errorf("Alice balance after settlement = %.2f, want 30.00", res.Balances[engine.RegisteredKey(alice.ID)].Balance)
	}
}

func TestBalancesExcludeDeletedExpenses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.registerUser(t, "Alice", "alice@example.com")
	bob := env.registerUser(t, "Bob", "bob@example.com")
	group := env.createGroup(t, alice, "Trip", "bob@example.com")

	detail, err := env.expenses.CreateExpense(ctx, group.Group.ID, alice.ID, ExpenseInput{
		Description:  "Mistake",
		Amount:       50.0,
		SplitType:    models.SplitEqual,
		Participants: []ParticipantInput{{UserID: alice.ID}, {UserID: bob.ID}},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if err := env.expenses.DeleteExpense(ctx, group.Group.ID, detail.Expense.ID, alice.ID); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}

	res, err := env.balances.Balances(ctx, group.Group.ID, alice.ID)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	for _, key := range res.Keys {
		if math.Abs(res.Balances[key].Balance) > 0.01 {
			t.Errorf("Participant %s has balance %.2f after the only expense was deleted", key, res.Balances[key].Balance)
		}
	}
}

func TestPlanEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.registerUser(t, "Alice", "alice@example.com")
	bob := env.registerUser(t, "Bob", "bob@example.com")
	carol := env.registerUser(t, "Carol", "carol@example.com")
	group := env.createGroup(t, alice, "Trip", "bob@example.com", "carol@example.com")

	_, err := env.expenses.CreateExpense(ctx, group.Group.ID, alice.ID, ExpenseInput{
		Description: "Hotel",
		Amount:      90.0,
		SplitType:   models.SplitEqual,
		Participants: []ParticipantInput{
			{UserID: alice.ID}, {UserID: bob.ID}, {UserID: carol.ID},
		},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	plan, res, err := env.balances.Plan(ctx, group.Group.ID, alice.ID)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(plan) != 2 {
		t.Fatalf("Expected 2 plan entries (bob and carol pay alice), got %d", len(plan))
	}
	for _, entry := range plan {
		if entry.To != engine.RegisteredKey(alice.ID) {
			t.Errorf("Expected alice as recipient, got %s", entry.To)
		}
		if math.Abs(entry.Amount-30.0) > 0.01 {
			t.Errorf("Plan amount = %.2f, want 30.00", entry.Amount)
		}
	}
	if res.ShareFailures != 0 {
		t.Errorf("Expected no share failures, got %d", res.ShareFailures)
	}
}

func TestSettlementValidationAndDeletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.registerUser(t, "Alice", "alice@example.com")
	bob := env.registerUser(t, "Bob", "bob@example.com")
	outsider := env.registerUser(t, "Mallory", "mallory@example.com")
	group := env.createGroup(t, alice, "Trip", "bob@example.com")

	// Invalid inputs.
	if _, err := env.settlement.RecordSettlement(ctx, group.Group.ID, alice.ID, SettlementInput{FromUserID: alice.ID, ToUserID: bob.ID, Amount: 0}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero amount, got %v", err)
	}
	if _, err := env.settlement.RecordSettlement(ctx, group.Group.ID, alice.ID, SettlementInput{FromUserID: alice.ID, ToUserID: alice.ID, Amount: 10}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for self-payment, got %v", err)
	}
	if _, err := env.settlement.RecordSettlement(ctx, group.Group.ID, alice.ID, SettlementInput{FromUserID: alice.ID, ToUserID: outsider.ID, Amount: 10}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for non-member recipient, got %v", err)
	}

	settlement, err := env.settlement.RecordSettlement(ctx, group.Group.ID, bob.ID, SettlementInput{
		FromUserID: bob.ID, ToUserID: alice.ID, Amount: 12.5, ProofURL: "https://example.com/r.png",
	})
	if err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}

	// Only admins delete settlements.
	if err := env.settlement.DeleteSettlement(ctx, group.Group.ID, settlement.ID, bob.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden for member delete, got %v", err)
	}
	if err := env.settlement.DeleteSettlement(ctx, group.Group.ID, settlement.ID, alice.ID); err != nil {
		t.Fatalf("DeleteSettlement by admin failed: %v", err)
	}

	settlements, err := env.settlement.ListSettlements(ctx, group.Group.ID, alice.ID)
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(settlements) != 0 {
		t.Errorf("Expected empty history after delete, got %d", len(settlements))
	}
}
