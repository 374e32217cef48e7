// Package handler exposes the JSON HTTP API.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/billsplit/billsplit/internal/auth"
	"github.com/billsplit/billsplit/internal/middleware"
	"github.com/billsplit/billsplit/internal/observability"
	"github.com/billsplit/billsplit/internal/service"
)

// Services bundles everything the router serves.
type Services struct {
	Auth       *service.AuthService
	Group      *service.GroupService
	Expense    *service.ExpenseService
	Settlement *service.SettlementService
	Balance    *service.BalanceService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, jwtManager *auth.JWTManager, metrics *observability.Metrics, allowedOrigin string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(metrics))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(allowedOrigin))

	// Operational endpoints
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/register", registerHandler(svcs.Auth, logger))
		r.Post("/auth/login", loginHandler(svcs.Auth, logger))

		// Everything below requires a session token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(jwtManager))

			r.Post("/groups", createGroupHandler(svcs.Group, logger))
			r.Get("/groups", listGroupsHandler(svcs.Group, logger))
			r.Get("/groups/{groupID}", getGroupHandler(svcs.Group, logger))
			r.Put("/groups/{groupID}", updateGroupHandler(svcs.Group, logger))

			r.Post("/groups/{groupID}/members", inviteMemberHandler(svcs.Group, logger))
			r.Delete("/groups/{groupID}/members/{userID}", removeMemberHandler(svcs.Group, logger))
			r.Get("/groups/{groupID}/pending-members", listPendingMembersHandler(svcs.Group, logger))
			r.Delete("/groups/{groupID}/pending-members", removePendingMemberHandler(svcs.Group, logger))

			r.Post("/groups/{groupID}/expenses", createExpenseHandler(svcs.Expense, logger))
			r.Get("/groups/{groupID}/expenses", listExpensesHandler(svcs.Expense, logger))
			r.Delete("/groups/{groupID}/expenses/{expenseID}", deleteExpenseHandler(svcs.Expense, logger))

			r.Get("/groups/{groupID}/balances", getBalancesHandler(svcs.Balance, logger))
			r.Get("/groups/{groupID}/settlements/plan", getPlanHandler(svcs.Balance, logger))

			r.Post("/groups/{groupID}/settlements", recordSettlementHandler(svcs.Settlement, logger))
			r.Get("/groups/{groupID}/settlements", listSettlementsHandler(svcs.Settlement, logger))
			r.Delete("/groups/{groupID}/settlements/{settlementID}", deleteSettlementHandler(svcs.Settlement, logger))
		})
	})

	return r
}
