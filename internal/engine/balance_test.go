package engine

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func twoMembers() []Member {
	return []Member{
		{ID: 1, Name: "Alice", Email: "alice@example.com"},
		{ID: 2, Name: "Bob", Email: "bob@example.com"},
	}
}

func expense(id string, amount float64, payerID int64, splitType string, shares ...RawShare) ExpenseInput {
	return ExpenseInput{
		Expense: RawExpense{ID: id, Amount: amount, PayerID: payerID, SplitType: splitType},
		Shares:  shares,
	}
}

func TestComputeBalances(t *testing.T) {
	tests := []struct {
		name         string
		snap         Snapshot
		validateFunc func(t *testing.T, res Result)
	}{
		{
			name: "two members one equal expense",
			snap: Snapshot{
				Members: twoMembers(),
				Expenses: []ExpenseInput{
					expense("e1", 100, 1, "EQUAL", RawShare{UserID: 1, AmountOwed: 50}, RawShare{UserID: 2, AmountOwed: 50}),
				},
			},
			validateFunc: func(t *testing.T, res Result) {
				alice := res.Balances[RegisteredKey(1)]
				bob := res.Balances[RegisteredKey(2)]
				if math.Abs(alice.Balance-50) > 0.01 {
					t.Errorf("Alice balance = %v, want 50", alice.Balance)
				}
				if math.Abs(bob.Balance+50) > 0.01 {
					t.Errorf("Bob balance = %v, want -50", bob.Balance)
				}
				if math.Abs(alice.Paid-100) > 0.01 || math.Abs(alice.Owed-50) > 0.01 {
					t.Errorf("Alice paid/owed = %v/%v, want 100/50", alice.Paid, alice.Owed)
				}
			},
		},
		{
			name: "three members ninety split three ways",
			snap: Snapshot{
				Members: append(twoMembers(), Member{ID: 3, Name: "Charlie", Email: "charlie@example.com"}),
				Expenses: []ExpenseInput{
					expense("e1", 90, 1, "EQUAL",
						RawShare{UserID: 1, AmountOwed: 30},
						RawShare{UserID: 2, AmountOwed: 30},
						RawShare{UserID: 3, AmountOwed: 30}),
				},
			},
			validateFunc: func(t *testing.T, res Result) {
				if math.Abs(res.Balances[RegisteredKey(1)].Balance-60) > 0.01 {
					t.Errorf("Alice balance = %v, want 60", res.Balances[RegisteredKey(1)].Balance)
				}
				for _, id := range []int64{2, 3} {
					if math.Abs(res.Balances[RegisteredKey(id)].Balance+30) > 0.01 {
						t.Errorf("user %d balance = %v, want -30", id, res.Balances[RegisteredKey(id)].Balance)
					}
				}
			},
		},
		{
			name: "settlement zeroes both sides",
			snap: Snapshot{
				Members: twoMembers(),
				Expenses: []ExpenseInput{
					expense("e1", 100, 1, "EQUAL", RawShare{UserID: 1, AmountOwed: 50}, RawShare{UserID: 2, AmountOwed: 50}),
				},
				Settlements: []SettlementRecord{
					{From: RegisteredKey(2), To: RegisteredKey(1), Amount: 50},
				},
			},
			validateFunc: func(t *testing.T, res Result) {
				for _, id := range []int64{1, 2} {
					if b := res.Balances[RegisteredKey(id)].Balance; math.Abs(b) > 0.01 {
						t.Errorf("user %d balance = %v, want 0", id, b)
					}
				}
			},
		},
		{
			name: "pending share marker with custom split",
			snap: Snapshot{
				Members: []Member{{ID: 1, Name: "Alice", Email: "alice@example.com"}},
				Pending: []Pending{{Email: "x@y.com"}},
				Expenses: []ExpenseInput{
					{Expense: RawExpense{
						ID: "e1", Amount: 20, PayerID: 1, SplitType: "CUSTOM",
						Description: "Trip (Pending shares: x@y.com:20)",
					}},
				},
			},
			validateFunc: func(t *testing.T, res Result) {
				pendingEntry := res.Balances[PendingKey("x@y.com")]
				if pendingEntry == nil {
					t.Fatal("pending member missing from balance map")
				}
				if math.Abs(pendingEntry.Balance+20) > 0.01 {
					t.Errorf("pending balance = %v, want -20", pendingEntry.Balance)
				}
				if math.Abs(res.Balances[RegisteredKey(1)].Balance-20) > 0.01 {
					t.Errorf("Alice balance = %v, want 20", res.Balances[RegisteredKey(1)].Balance)
				}
			},
		},
		{
			name: "deleted expenses are ignored",
			snap: Snapshot{
				Members: twoMembers(),
				Expenses: []ExpenseInput{
					func() ExpenseInput {
						in := expense("e1", 100, 1, "EQUAL", RawShare{UserID: 1, AmountOwed: 50}, RawShare{UserID: 2, AmountOwed: 50})
						deletedAt := int64(1700000000)
						in.Expense.DeletedAt = &deletedAt
						return in
					}(),
				},
			},
			validateFunc: func(t *testing.T, res Result) {
				for _, id := range []int64{1, 2} {
					entry := res.Balances[RegisteredKey(id)]
					if entry.Paid != 0 || entry.Owed != 0 || entry.Balance != 0 {
						t.Errorf("user %d has activity from a deleted expense: %+v", id, entry)
					}
				}
			},
		},
		{
			name: "zero activity participants still appear",
			snap: Snapshot{
				Members: twoMembers(),
				Pending: []Pending{{Email: "carol@example.com", Name: "Carol"}},
			},
			validateFunc: func(t *testing.T, res Result) {
				if len(res.Balances) != 3 {
					t.Fatalf("balance map has %d entries, want 3", len(res.Balances))
				}
				if len(res.Keys) != 3 {
					t.Fatalf("key order has %d entries, want 3", len(res.Keys))
				}
				// Registered members come before pending ones.
				if !res.Keys[2].IsPending() {
					t.Error("pending member not last in roster order")
				}
			},
		},
		{
			name: "failed share fetch drops owed but keeps paid",
			snap: Snapshot{
				Members: twoMembers(),
				Expenses: []ExpenseInput{
					{
						Expense:   RawExpense{ID: "e1", Amount: 80, PayerID: 1, SplitType: "EQUAL"},
						SharesErr: errors.New("shares unavailable"),
					},
					expense("e2", 20, 2, "EQUAL", RawShare{UserID: 1, AmountOwed: 10}, RawShare{UserID: 2, AmountOwed: 10}),
				},
			},
			validateFunc: func(t *testing.T, res Result) {
				if res.ShareFailures != 1 {
					t.Errorf("share failures = %d, want 1", res.ShareFailures)
				}
				alice := res.Balances[RegisteredKey(1)]
				if math.Abs(alice.Paid-80) > 0.01 {
					t.Errorf("Alice paid = %v, want 80 despite failed share fetch", alice.Paid)
				}
				if math.Abs(alice.Owed-10) > 0.01 {
					t.Errorf("Alice owed = %v, want only the healthy expense's 10", alice.Owed)
				}
			},
		},
		{
			name: "settlement with unknown participant is ignored and reported",
			snap: Snapshot{
				Members: twoMembers(),
				Settlements: []SettlementRecord{
					{From: RegisteredKey(99), To: RegisteredKey(1), Amount: 10},
				},
			},
			validateFunc: func(t *testing.T, res Result) {
				if res.UnknownSettlementRefs != 1 {
					t.Errorf("unknown refs = %d, want 1", res.UnknownSettlementRefs)
				}
			},
		},
		{
			name: "overshooting settlement flips signs",
			snap: Snapshot{
				Members: twoMembers(),
				Expenses: []ExpenseInput{
					expense("e1", 100, 1, "EQUAL", RawShare{UserID: 1, AmountOwed: 50}, RawShare{UserID: 2, AmountOwed: 50}),
				},
				Settlements: []SettlementRecord{
					{From: RegisteredKey(2), To: RegisteredKey(1), Amount: 80},
				},
			},
			validateFunc: func(t *testing.T, res Result) {
				if math.Abs(res.Balances[RegisteredKey(2)].Balance-30) > 0.01 {
					t.Errorf("Bob balance = %v, want +30 after over-payment", res.Balances[RegisteredKey(2)].Balance)
				}
				if math.Abs(res.Balances[RegisteredKey(1)].Balance+30) > 0.01 {
					t.Errorf("Alice balance = %v, want -30 after over-payment", res.Balances[RegisteredKey(1)].Balance)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validateFunc(t, ComputeBalances(tt.snap))
		})
	}
}

// The core correctness property: when every share is known, balances sum to
// zero (within Epsilon) before settlements are applied.
func TestZeroSumInvariant(t *testing.T) {
	snap := Snapshot{
		Members: append(twoMembers(), Member{ID: 3, Name: "Charlie", Email: "charlie@example.com"}),
		Pending: []Pending{{Email: "dana@example.com", Name: "Dana"}},
		Expenses: []ExpenseInput{
			expense("e1", 100, 1, "EQUAL",
				RawShare{UserID: 1, AmountOwed: 33.34},
				RawShare{UserID: 2, AmountOwed: 33.33},
				RawShare{UserID: 3, AmountOwed: 33.33}),
			expense("e2", 45.5, 2, "CUSTOM",
				RawShare{UserID: 1, AmountOwed: 20.5},
				RawShare{UserID: 3, AmountOwed: 25}),
			{Expense: RawExpense{
				ID: "e3", Amount: 60, PayerID: 3, SplitType: "CUSTOM",
				Description: "Hotel (Pending shares: dana@example.com:60)",
			}},
		},
	}

	res := ComputeBalances(snap)
	var sum float64
	for _, entry := range res.Balances {
		sum += entry.Balance
	}
	if math.Abs(sum) > Epsilon {
		t.Errorf("balances sum to %v, want within %v of 0", sum, Epsilon)
	}
}

func TestSettlementNeutrality(t *testing.T) {
	base := Snapshot{
		Members: append(twoMembers(), Member{ID: 3, Name: "Charlie", Email: "charlie@example.com"}),
		Expenses: []ExpenseInput{
			expense("e1", 90, 1, "EQUAL",
				RawShare{UserID: 1, AmountOwed: 30},
				RawShare{UserID: 2, AmountOwed: 30},
				RawShare{UserID: 3, AmountOwed: 30}),
		},
	}
	before := ComputeBalances(base)

	withSettlement := base
	withSettlement.Settlements = []SettlementRecord{
		{From: RegisteredKey(2), To: RegisteredKey(1), Amount: 12.5},
	}
	after := ComputeBalances(withSettlement)

	for key, entry := range after.Balances {
		want := before.Balances[key].Balance
		switch key {
		case RegisteredKey(2):
			want += 12.5
		case RegisteredKey(1):
			want -= 12.5
		}
		if math.Abs(entry.Balance-want) > 0.01 {
			t.Errorf("balance[%v] = %v, want %v", key, entry.Balance, want)
		}
	}
}

func TestComputeBalancesIdempotent(t *testing.T) {
	snap := Snapshot{
		Members: twoMembers(),
		Pending: []Pending{{Email: "x@y.com"}},
		Expenses: []ExpenseInput{
			expense("e1", 100, 1, "EQUAL", RawShare{UserID: 1, AmountOwed: 50}, RawShare{UserID: 2, AmountOwed: 50}),
		},
		Settlements: []SettlementRecord{
			{From: RegisteredKey(2), To: RegisteredKey(1), Amount: 25},
		},
	}

	first := ComputeBalances(snap)
	second := ComputeBalances(snap)

	if !reflect.DeepEqual(first.Keys, second.Keys) {
		t.Error("roster order differs between runs")
	}
	for key, entry := range first.Balances {
		other := second.Balances[key]
		if !reflect.DeepEqual(*entry, *other) {
			t.Errorf("entry %v differs between runs: %+v vs %+v", key, entry, other)
		}
	}
}
