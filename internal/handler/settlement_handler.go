package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/billsplit/billsplit/internal/middleware"
	"github.com/billsplit/billsplit/internal/service"
)

type recordSettlementRequest struct {
	FromUserID int64   `json:"from_user_id"`
	ToUserID   int64   `json:"to_user_id"`
	Amount     float64 `json:"amount"`
	Message    string  `json:"message,omitempty"`
	ProofURL   string  `json:"proof_url,omitempty"`
}

func recordSettlementHandler(settlementSvc *service.SettlementService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordSettlementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		settlement, err := settlementSvc.RecordSettlement(r.Context(), chi.URLParam(r, "groupID"), middleware.GetUserID(r.Context()), service.SettlementInput{
			FromUserID: req.FromUserID,
			ToUserID:   req.ToUserID,
			Amount:     req.Amount,
			Message:    req.Message,
			ProofURL:   req.ProofURL,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, toSettlementView(settlement))
	}
}

func listSettlementsHandler(settlementSvc *service.SettlementService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settlements, err := settlementSvc.ListSettlements(r.Context(), chi.URLParam(r, "groupID"), middleware.GetUserID(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		views := make([]settlementView, 0, len(settlements))
		for _, s := range settlements {
			views = append(views, toSettlementView(s))
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func deleteSettlementHandler(settlementSvc *service.SettlementService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := settlementSvc.DeleteSettlement(r.Context(),
			chi.URLParam(r, "groupID"),
			chi.URLParam(r, "settlementID"),
			middleware.GetUserID(r.Context()),
		)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func getBalancesHandler(balanceSvc *service.BalanceService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := balanceSvc.Balances(r.Context(), chi.URLParam(r, "groupID"), middleware.GetUserID(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, toBalancesResponse(res))
	}
}

func getPlanHandler(balanceSvc *service.BalanceService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, res, err := balanceSvc.Plan(r.Context(), chi.URLParam(r, "groupID"), middleware.GetUserID(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, toPlanResponse(plan, res))
	}
}
