package engine

import (
	"regexp"
	"strconv"
	"strings"
)

// SplitType describes how an expense was divided.
type SplitType string

const (
	SplitEqual  SplitType = "EQUAL"
	SplitCustom SplitType = "CUSTOM"
)

// RawExpense is one purchase event as supplied by the caller, before payer
// and share resolution. Legacy rows may encode a pending payer or pending
// shares as markers inside Description; new rows carry them in the typed
// PendingPayerEmail and pending-share fields instead.
type RawExpense struct {
	ID          string
	Amount      float64
	Description string

	// PayerID is the registered payer (or the recording proxy user when a
	// pending member actually paid).
	PayerID int64

	// PendingPayerEmail, when set, identifies the pending member who paid.
	// It takes precedence over any legacy payer marker in Description.
	PendingPayerEmail string

	SplitType string
	CreatedAt int64
	DeletedAt *int64
}

// Deleted reports whether the expense is soft-deleted.
func (e RawExpense) Deleted() bool { return e.DeletedAt != nil }

// RawShare is one registered participant's stored portion of an expense.
type RawShare struct {
	UserID     int64
	AmountOwed float64
}

// RawPendingShare is one pending member's typed portion of an expense.
type RawPendingShare struct {
	Email      string
	AmountOwed float64
}

// Share attributes part of a normalized expense to one participant.
type Share struct {
	Participant ParticipantKey
	AmountOwed  float64
}

// NormalizedExpense is a raw expense with an explicit payer reference, an
// explicit share list, and the display description with legacy markers
// stripped.
type NormalizedExpense struct {
	ID          string
	Amount      float64
	Description string
	SplitType   SplitType
	Payer       ParticipantKey
	Shares      []Share
	CreatedAt   int64
	DeletedAt   *int64
}

// Deleted reports whether the expense is soft-deleted.
func (e NormalizedExpense) Deleted() bool { return e.DeletedAt != nil }

// Legacy description markers. The original data model encoded pending payer
// and pending shares as structured substrings inside the free-text
// description; these survive only as a migration path for old rows.
var (
	pendingPayerPattern  = regexp.MustCompile(`(?i)\(Paid by:\s*([^)]+?)\s*-\s*Pending\)`)
	pendingSharesPattern = regexp.MustCompile(`(?i)\(Pending shares:\s*([^)]+)\)`)
)

// Normalize converts a raw expense and its stored share records into a
// NormalizedExpense against the given registry. It is a pure transform:
// malformed legacy markers degrade to "no pending info" for that field, and
// individually unparseable pending-share pairs are skipped without failing
// the expense.
func Normalize(raw RawExpense, shares []RawShare, pendingShares []RawPendingShare, reg *Registry) NormalizedExpense {
	norm := NormalizedExpense{
		ID:          raw.ID,
		Amount:      raw.Amount,
		Description: stripMarkers(raw.Description),
		SplitType:   SplitType(strings.ToUpper(strings.TrimSpace(raw.SplitType))),
		CreatedAt:   raw.CreatedAt,
		DeletedAt:   raw.DeletedAt,
	}

	norm.Payer = resolvePayer(raw, reg)

	switch norm.SplitType {
	case SplitEqual:
		// The authoritative split, including any rounding remainder policy,
		// was computed once at creation time; never re-derive it here.
		for _, s := range shares {
			key := RegisteredKey(s.UserID)
			if s.AmountOwed > 0 && reg.Contains(key) {
				norm.Shares = append(norm.Shares, Share{Participant: key, AmountOwed: s.AmountOwed})
			}
		}
		norm.Shares = append(norm.Shares, resolvePendingShares(raw, pendingShares, reg)...)
	case SplitCustom:
		norm.Shares = append(norm.Shares, resolvePendingShares(raw, pendingShares, reg)...)
		for _, s := range shares {
			key := RegisteredKey(s.UserID)
			if reg.Contains(key) {
				norm.Shares = append(norm.Shares, Share{Participant: key, AmountOwed: s.AmountOwed})
			}
		}
	}

	return norm
}

// resolvePayer picks the payer reference: the typed pending payer if set,
// then a legacy payer marker, then the explicit registered payer.
func resolvePayer(raw RawExpense, reg *Registry) ParticipantKey {
	if raw.PendingPayerEmail != "" {
		key := PendingKey(raw.PendingPayerEmail)
		if reg.Contains(key) {
			return key
		}
	}
	if m := pendingPayerPattern.FindStringSubmatch(raw.Description); m != nil {
		if p, ok := reg.FindPending(m[1]); ok {
			return p.Key
		}
		// Unresolvable marker: fall back to the registered payer.
	}
	return RegisteredKey(raw.PayerID)
}

// resolvePendingShares merges the typed pending shares with any legacy
// marker pairs. When typed shares exist they are the source of truth and
// the marker is ignored, so migrated rows are never double counted.
func resolvePendingShares(raw RawExpense, pendingShares []RawPendingShare, reg *Registry) []Share {
	var out []Share
	if len(pendingShares) > 0 {
		for _, ps := range pendingShares {
			key := PendingKey(ps.Email)
			if ps.AmountOwed > 0 && reg.Contains(key) {
				out = append(out, Share{Participant: key, AmountOwed: ps.AmountOwed})
			}
		}
		return out
	}

	m := pendingSharesPattern.FindStringSubmatch(raw.Description)
	if m == nil {
		return nil
	}
	for _, pair := range strings.Split(m[1], ",") {
		email, amountStr, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(amountStr), 64)
		if err != nil || amount <= 0 {
			continue
		}
		key := PendingKey(email)
		if !reg.Contains(key) {
			continue
		}
		out = append(out, Share{Participant: key, AmountOwed: amount})
	}
	return out
}

// stripMarkers returns the display description: the original text with the
// legacy pending markers removed.
func stripMarkers(description string) string {
	s := pendingPayerPattern.ReplaceAllString(description, "")
	s = pendingSharesPattern.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
