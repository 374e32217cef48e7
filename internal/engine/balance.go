package engine

// Epsilon is the tolerance below which a balance or transaction amount is
// treated as zero throughout the engine.
const Epsilon = 0.01

// ExpenseInput pairs a raw expense with its share records as fetched by the
// caller. SharesErr records a failed share fetch for this one expense: the
// expense's paid contribution still counts, its owed contribution is
// dropped, and the run is reported as degraded.
type ExpenseInput struct {
	Expense       RawExpense
	Shares        []RawShare
	PendingShares []RawPendingShare
	SharesErr     error
}

// SettlementRecord is a recorded payment as the engine applies it.
type SettlementRecord struct {
	From   ParticipantKey
	To     ParticipantKey
	Amount float64
}

// Snapshot is one captured, immutable input set for a balance computation.
// Aggregation never runs against a partially assembled snapshot; callers
// collect every input first.
type Snapshot struct {
	Members     []Member
	Pending     []Pending
	Expenses    []ExpenseInput
	Settlements []SettlementRecord
}

// BalanceEntry is the derived position of one participant.
type BalanceEntry struct {
	Key       ParticipantKey
	Name      string
	Email     string
	IsPending bool

	// Paid is the total this participant paid across non-deleted expenses.
	Paid float64
	// Owed is the total this participant owes across non-deleted expenses.
	Owed float64
	// Balance is Paid minus Owed, adjusted by recorded settlements.
	// Positive means the participant is owed money, negative means they owe.
	Balance float64
}

// BalanceMap holds one entry per roster participant.
type BalanceMap map[ParticipantKey]*BalanceEntry

// Result is the output of one aggregation run.
type Result struct {
	Balances BalanceMap

	// Keys lists the participants in roster order (registered, then
	// pending); the map alone loses that ordering.
	Keys []ParticipantKey

	// ShareFailures counts expenses whose owed contribution was dropped
	// because their share fetch failed. When non-zero the balances are
	// best-effort: that expense's paid side still counted, so the zero-sum
	// property does not hold for this run.
	ShareFailures int

	// UnknownSettlementRefs counts settlements that referenced a
	// participant key missing from the roster on either side. Such
	// settlements adjust only the side that resolves; a non-zero count
	// means the roster and settlement history are inconsistent.
	UnknownSettlementRefs int
}

// ComputeBalances folds a snapshot into one BalanceEntry per roster
// participant. Every participant appears, even with zero activity, so that
// settlements referencing them resolve and "all settled up" renders
// correctly. The computation is deterministic and recomputed from scratch
// on every call.
func ComputeBalances(snap Snapshot) Result {
	reg := NewRegistry(snap.Members, snap.Pending)

	res := Result{
		Balances: make(BalanceMap, reg.Len()),
		Keys:     reg.Keys(),
	}
	for _, key := range reg.Keys() {
		p, _ := reg.Get(key)
		res.Balances[key] = &BalanceEntry{
			Key:       key,
			Name:      p.Name,
			Email:     p.Email,
			IsPending: p.IsPending,
		}
	}

	normalized := make([]NormalizedExpense, 0, len(snap.Expenses))
	failed := make([]bool, 0, len(snap.Expenses))
	for _, in := range snap.Expenses {
		if in.Expense.Deleted() {
			continue
		}
		normalized = append(normalized, Normalize(in.Expense, in.Shares, in.PendingShares, reg))
		failed = append(failed, in.SharesErr != nil)
	}

	// Paid side first, for every non-deleted expense.
	for _, exp := range normalized {
		if entry, ok := res.Balances[exp.Payer]; ok {
			entry.Paid += exp.Amount
		}
	}

	// Owed side. An expense whose shares could not be fetched keeps its
	// paid contribution but drops its owed contribution; this is the
	// documented degraded mode, not an error.
	for i, exp := range normalized {
		if failed[i] {
			res.ShareFailures++
			continue
		}
		for _, share := range exp.Shares {
			if entry, ok := res.Balances[share.Participant]; ok {
				entry.Owed += share.AmountOwed
			}
		}
	}

	for _, entry := range res.Balances {
		entry.Balance = entry.Paid - entry.Owed
	}

	// Settlements, in the order provided: the debtor's balance moves up
	// toward zero, the creditor's down toward zero. Overshoot is legal and
	// shows up as a sign flip.
	for _, s := range snap.Settlements {
		fromEntry, fromOK := res.Balances[s.From]
		toEntry, toOK := res.Balances[s.To]
		if fromOK {
			fromEntry.Balance += s.Amount
		}
		if toOK {
			toEntry.Balance -= s.Amount
		}
		if !fromOK || !toOK {
			res.UnknownSettlementRefs++
		}
	}

	return res
}
