package handler

import (
	"github.com/billsplit/billsplit/internal/engine"
	"github.com/billsplit/billsplit/internal/models"
	"github.com/billsplit/billsplit/internal/service"
)

// JSON views of the domain records. Keeping them here decouples the wire
// shape from the storage shape.

type userView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type memberView struct {
	UserID   int64  `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	JoinedAt int64  `json:"joined_at"`
}

type pendingMemberView struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	InvitedBy int64  `json:"invited_by"`
	InvitedAt int64  `json:"invited_at"`
}

type groupView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url,omitempty"`
	CreatedBy int64  `json:"created_by"`
	CreatedAt int64  `json:"created_at"`
}

type groupDetailView struct {
	groupView
	Members        []memberView        `json:"members"`
	PendingMembers []pendingMemberView `json:"pending_members"`
}

type shareView struct {
	UserID     int64   `json:"user_id"`
	AmountOwed float64 `json:"amount_owed"`
}

type pendingShareView struct {
	Email      string  `json:"email"`
	AmountOwed float64 `json:"amount_owed"`
}

type expenseView struct {
	ID                string             `json:"id"`
	GroupID           string             `json:"group_id"`
	Description       string             `json:"description"`
	Amount            float64            `json:"amount"`
	PaidBy            int64              `json:"paid_by"`
	PendingPayerEmail string             `json:"pending_payer_email,omitempty"`
	SplitType         string             `json:"split_type"`
	CreatedAt         int64              `json:"created_at"`
	Deleted           bool               `json:"deleted"`
	Shares            []shareView        `json:"shares"`
	PendingShares     []pendingShareView `json:"pending_shares,omitempty"`
}

type settlementView struct {
	ID         string  `json:"id"`
	GroupID    string  `json:"group_id"`
	FromUserID int64   `json:"from_user_id"`
	ToUserID   int64   `json:"to_user_id"`
	Amount     float64 `json:"amount"`
	Message    string  `json:"message,omitempty"`
	ProofURL   string  `json:"proof_url,omitempty"`
	SettledAt  int64   `json:"settled_at"`
	CreatedBy  int64   `json:"created_by"`
}

type balanceEntryView struct {
	Participant string  `json:"participant"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	IsPending   bool    `json:"is_pending"`
	Paid        float64 `json:"paid"`
	Owed        float64 `json:"owed"`
	Balance     float64 `json:"balance"`
}

type balancesResponse struct {
	Balances              []balanceEntryView `json:"balances"`
	ShareFailures         int                `json:"share_failures"`
	UnknownSettlementRefs int                `json:"unknown_settlement_refs"`
}

type planEntryView struct {
	From          string  `json:"from"`
	FromName      string  `json:"from_name"`
	FromIsPending bool    `json:"from_is_pending"`
	To            string  `json:"to"`
	ToName        string  `json:"to_name"`
	ToIsPending   bool    `json:"to_is_pending"`
	Amount        float64 `json:"amount"`
}

type planResponse struct {
	Plan                  []planEntryView `json:"plan"`
	ShareFailures         int             `json:"share_failures"`
	UnknownSettlementRefs int             `json:"unknown_settlement_refs"`
}

func toUserView(u *models.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toGroupView(g *models.Group) groupView {
	return groupView{
		ID:        g.ID,
		Name:      g.Name,
		ImageURL:  g.ImageURL,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
	}
}

func toGroupDetailView(d *service.GroupDetail) groupDetailView {
	view := groupDetailView{
		groupView:      toGroupView(d.Group),
		Members:        make([]memberView, 0, len(d.Members)),
		PendingMembers: make([]pendingMemberView, 0, len(d.Pending)),
	}
	for _, m := range d.Members {
		view.Members = append(view.Members, memberView{
			UserID:   m.UserID,
			Name:     m.User.Name,
			Email:    m.User.Email,
			Role:     string(m.Role),
			JoinedAt: m.JoinedAt,
		})
	}
	for _, p := range d.Pending {
		view.PendingMembers = append(view.PendingMembers, pendingMemberView{
			Email:     p.Email,
			Name:      p.Name,
			InvitedBy: p.InvitedBy,
			InvitedAt: p.InvitedAt,
		})
	}
	return view
}

func toExpenseView(d *service.ExpenseDetail) expenseView {
	view := expenseView{
		ID:                d.Expense.ID,
		GroupID:           d.Expense.GroupID,
		Description:       d.Expense.Description,
		Amount:            d.Expense.Amount,
		PaidBy:            d.Expense.PaidBy,
		PendingPayerEmail: d.Expense.PendingPayerEmail,
		SplitType:         string(d.Expense.SplitType),
		CreatedAt:         d.Expense.CreatedAt,
		Deleted:           d.Expense.Deleted(),
		Shares:            make([]shareView, 0, len(d.Shares)),
	}
	for _, sh := range d.Shares {
		view.Shares = append(view.Shares, shareView{UserID: sh.UserID, AmountOwed: sh.AmountOwed})
	}
	for _, sh := range d.PendingShares {
		view.PendingShares = append(view.PendingShares, pendingShareView{Email: sh.Email, AmountOwed: sh.AmountOwed})
	}
	return view
}

func toSettlementView(s *models.Settlement) settlementView {
	return settlementView{
		ID:         s.ID,
		GroupID:    s.GroupID,
		FromUserID: s.FromUserID,
		ToUserID:   s.ToUserID,
		Amount:     s.Amount,
		Message:    s.Message,
		ProofURL:   s.ProofURL,
		SettledAt:  s.SettledAt,
		CreatedBy:  s.CreatedBy,
	}
}

func toBalancesResponse(res *engine.Result) balancesResponse {
	out := balancesResponse{
		Balances:              make([]balanceEntryView, 0, len(res.Keys)),
		ShareFailures:         res.ShareFailures,
		UnknownSettlementRefs: res.UnknownSettlementRefs,
	}
	for _, key := range res.Keys {
		entry := res.Balances[key]
		out.Balances = append(out.Balances, balanceEntryView{
			Participant: key.String(),
			Name:        entry.Name,
			Email:       entry.Email,
			IsPending:   entry.IsPending,
			Paid:        entry.Paid,
			Owed:        entry.Owed,
			Balance:     entry.Balance,
		})
	}
	return out
}

func toPlanResponse(plan []engine.PlanEntry, res *engine.Result) planResponse {
	out := planResponse{
		Plan:                  make([]planEntryView, 0, len(plan)),
		ShareFailures:         res.ShareFailures,
		UnknownSettlementRefs: res.UnknownSettlementRefs,
	}
	for _, entry := range plan {
		out.Plan = append(out.Plan, planEntryView{
			From:          entry.From.String(),
			FromName:      entry.FromName,
			FromIsPending: entry.FromIsPending,
			To:            entry.To.String(),
			ToName:        entry.ToName,
			ToIsPending:   entry.ToIsPending,
			Amount:        entry.Amount,
		})
	}
	return out
}
