package engine

import (
	"fmt"
	"strings"
)

// keyKind discriminates the two participant variants.
type keyKind uint8

const (
	kindRegistered keyKind = iota + 1
	kindPending
)

// ParticipantKey identifies a person who can owe or be owed money within a
// group. It is a tagged variant: a registered participant wraps a numeric
// user id, a pending (invited but unregistered) participant wraps an email
// address. Keys are comparable and usable as map keys. A registered and a
// pending participant are never the same key even if their emails match;
// promotion of a pending invite to an account happens outside the engine.
type ParticipantKey struct {
	kind   keyKind
	userID int64
	email  string
}

// RegisteredKey returns the key for a registered user.
func RegisteredKey(userID int64) ParticipantKey {
	return ParticipantKey{kind: kindRegistered, userID: userID}
}

// PendingKey returns the key for a pending member. Emails are compared
// case-insensitively, so the key is normalized to lower case.
func PendingKey(email string) ParticipantKey {
	return ParticipantKey{kind: kindPending, email: strings.ToLower(strings.TrimSpace(email))}
}

// IsPending reports whether the key denotes a pending member.
func (k ParticipantKey) IsPending() bool { return k.kind == kindPending }

// IsZero reports whether the key is the zero value (no participant).
func (k ParticipantKey) IsZero() bool { return k.kind == 0 }

// UserID returns the wrapped user id for a registered key.
func (k ParticipantKey) UserID() (int64, bool) {
	if k.kind != kindRegistered {
		return 0, false
	}
	return k.userID, true
}

// PendingEmail returns the wrapped email for a pending key.
func (k ParticipantKey) PendingEmail() (string, bool) {
	if k.kind != kindPending {
		return "", false
	}
	return k.email, true
}

// String renders the key as its stable wire form: the decimal user id for
// registered participants, "pending-<email>" for pending ones.
func (k ParticipantKey) String() string {
	switch k.kind {
	case kindRegistered:
		return fmt.Sprintf("%d", k.userID)
	case kindPending:
		return "pending-" + k.email
	default:
		return ""
	}
}

// MarshalText lets a ParticipantKey serve as a JSON object key.
func (k ParticipantKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Member is a registered group member as the engine sees it.
type Member struct {
	ID    int64
	Name  string
	Email string
}

// Pending is an invited-but-unregistered group member.
type Pending struct {
	Email string
	Name  string
}

// Participant is one addressable entry in the registry.
type Participant struct {
	Key       ParticipantKey
	Name      string
	Email     string
	IsPending bool
}

// Registry normalizes registered and pending members into one addressable
// space with a uniform key. Iteration order is roster order: registered
// members first, then pending members.
type Registry struct {
	order   []ParticipantKey
	entries map[ParticipantKey]Participant
}

// NewRegistry builds a registry from the two rosters. Duplicate keys are
// kept once, first occurrence wins.
func NewRegistry(members []Member, pending []Pending) *Registry {
	r := &Registry{entries: make(map[ParticipantKey]Participant, len(members)+len(pending))}
	for _, m := range members {
		key := RegisteredKey(m.ID)
		if _, ok := r.entries[key]; ok {
			continue
		}
		r.entries[key] = Participant{Key: key, Name: m.Name, Email: m.Email}
		r.order = append(r.order, key)
	}
	for _, p := range pending {
		key := PendingKey(p.Email)
		if _, ok := r.entries[key]; ok {
			continue
		}
		name := p.Name
		if name == "" {
			name = p.Email
		}
		r.entries[key] = Participant{Key: key, Name: name, Email: p.Email, IsPending: true}
		r.order = append(r.order, key)
	}
	return r
}

// Len returns the number of participants in the registry.
func (r *Registry) Len() int { return len(r.order) }

// Keys returns all participant keys in roster order.
func (r *Registry) Keys() []ParticipantKey { return r.order }

// Get looks up a participant by key.
func (r *Registry) Get(key ParticipantKey) (Participant, bool) {
	p, ok := r.entries[key]
	return p, ok
}

// Contains reports whether the key belongs to the roster.
func (r *Registry) Contains(key ParticipantKey) bool {
	_, ok := r.entries[key]
	return ok
}

// FindPending resolves a legacy payer marker: it matches a pending member
// whose name or email equals the given text.
func (r *Registry) FindPending(nameOrEmail string) (Participant, bool) {
	nameOrEmail = strings.TrimSpace(nameOrEmail)
	for _, key := range r.order {
		p := r.entries[key]
		if !p.IsPending {
			continue
		}
		if p.Name == nameOrEmail || strings.EqualFold(p.Email, nameOrEmail) {
			return p, true
		}
	}
	return Participant{}, false
}
