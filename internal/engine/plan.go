package engine

import (
	"math"
	"sort"
)

// PlanEntry is one suggested transaction in a settlement plan.
type PlanEntry struct {
	From      ParticipantKey
	FromName  string
	FromEmail string
	// FromIsPending flags a debtor without an account; consumers must not
	// let such a member be settled through the app until they register.
	FromIsPending bool

	To          ParticipantKey
	ToName      string
	ToEmail     string
	ToIsPending bool

	// Amount is rounded to 2 decimal places.
	Amount float64
}

// PlanSettlements produces an ordered list of transactions that would bring
// every balance in the map to within Epsilon of zero. It uses a greedy
// largest-creditor/largest-debtor matching heuristic (a min-cash-flow
// approximation, not an optimal minimum-transaction solver). The planner is
// a pure function of the balance map and is safe to recompute on demand.
func PlanSettlements(balances BalanceMap) []PlanEntry {
	type working struct {
		entry   *BalanceEntry
		balance float64
	}

	var creditors, debtors []*working
	for _, entry := range balances {
		w := &working{entry: entry, balance: entry.Balance}
		switch {
		case entry.Balance > Epsilon:
			creditors = append(creditors, w)
		case entry.Balance < -Epsilon:
			debtors = append(debtors, w)
		}
	}

	// Largest credit first, largest debt (most negative) first. Ties break
	// by key so one run always orders the same way.
	sort.Slice(creditors, func(i, j int) bool {
		if creditors[i].balance != creditors[j].balance {
			return creditors[i].balance > creditors[j].balance
		}
		return creditors[i].entry.Key.String() < creditors[j].entry.Key.String()
	})
	sort.Slice(debtors, func(i, j int) bool {
		if debtors[i].balance != debtors[j].balance {
			return debtors[i].balance < debtors[j].balance
		}
		return debtors[i].entry.Key.String() < debtors[j].entry.Key.String()
	})

	var plan []PlanEntry
	ci, di := 0, 0
	for ci < len(creditors) && di < len(debtors) {
		creditor := creditors[ci]
		debtor := debtors[di]

		if math.Abs(creditor.balance) < Epsilon {
			ci++
			continue
		}
		if math.Abs(debtor.balance) < Epsilon {
			di++
			continue
		}

		amount := round2(math.Min(creditor.balance, -debtor.balance))
		if amount > Epsilon {
			plan = append(plan, PlanEntry{
				From:          debtor.entry.Key,
				FromName:      debtor.entry.Name,
				FromEmail:     debtor.entry.Email,
				FromIsPending: debtor.entry.IsPending,
				To:            creditor.entry.Key,
				ToName:        creditor.entry.Name,
				ToEmail:       creditor.entry.Email,
				ToIsPending:   creditor.entry.IsPending,
				Amount:        amount,
			})

			// Re-round the residuals so floating drift cannot accumulate
			// across iterations.
			creditor.balance = round2(creditor.balance - amount)
			debtor.balance = round2(debtor.balance + amount)

			if math.Abs(creditor.balance) < Epsilon {
				ci++
			}
			if math.Abs(debtor.balance) < Epsilon {
				di++
			}
		} else {
			// Rounding dead-end: advance both cursors to guarantee
			// termination.
			ci++
			di++
		}
	}

	return plan
}

// round2 rounds to 2 decimal places.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
