package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/billsplit/billsplit/internal/middleware"
	"github.com/billsplit/billsplit/internal/models"
	"github.com/billsplit/billsplit/internal/service"
)

type participantRequest struct {
	UserID int64   `json:"user_id,omitempty"`
	Email  string  `json:"email,omitempty"`
	Amount float64 `json:"amount,omitempty"`
}

type createExpenseRequest struct {
	Description       string               `json:"description"`
	Amount            float64              `json:"amount"`
	SplitType         string               `json:"split_type"`
	PaidBy            int64                `json:"paid_by,omitempty"`
	PendingPayerEmail string               `json:"pending_payer_email,omitempty"`
	Participants      []participantRequest `json:"participants"`
}

func createExpenseHandler(expenseSvc *service.ExpenseService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createExpenseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		in := service.ExpenseInput{
			Description:       req.Description,
			Amount:            req.Amount,
			SplitType:         models.SplitType(req.SplitType),
			PaidBy:            req.PaidBy,
			PendingPayerEmail: req.PendingPayerEmail,
			Participants:      make([]service.ParticipantInput, 0, len(req.Participants)),
		}
		for _, p := range req.Participants {
			in.Participants = append(in.Participants, service.ParticipantInput{
				UserID: p.UserID,
				Email:  p.Email,
				Amount: p.Amount,
			})
		}

		detail, err := expenseSvc.CreateExpense(r.Context(), chi.URLParam(r, "groupID"), middleware.GetUserID(r.Context()), in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, toExpenseView(detail))
	}
}

func listExpensesHandler(expenseSvc *service.ExpenseService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		details, err := expenseSvc.ListExpenses(r.Context(), chi.URLParam(r, "groupID"), middleware.GetUserID(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		views := make([]expenseView, 0, len(details))
		for _, d := range details {
			views = append(views, toExpenseView(d))
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func deleteExpenseHandler(expenseSvc *service.ExpenseService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := expenseSvc.DeleteExpense(r.Context(),
			chi.URLParam(r, "groupID"),
			chi.URLParam(r, "expenseID"),
			middleware.GetUserID(r.Context()),
		)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
