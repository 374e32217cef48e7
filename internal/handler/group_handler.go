package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/billsplit/billsplit/internal/middleware"
	"github.com/billsplit/billsplit/internal/service"
)

type createGroupRequest struct {
	Name         string   `json:"name"`
	ImageURL     string   `json:"image_url"`
	MemberEmails []string `json:"member_emails"`
}

type updateGroupRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

type inviteMemberRequest struct {
	Email string `json:"email"`
}

func createGroupHandler(groupSvc *service.GroupService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createGroupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		detail, err := groupSvc.CreateGroup(r.Context(), middleware.GetUserID(r.Context()), req.Name, req.ImageURL, req.MemberEmails)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, toGroupDetailView(detail))
	}
}

func listGroupsHandler(groupSvc *service.GroupService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := groupSvc.ListGroups(r.Context(), middleware.GetUserID(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		views := make([]groupView, 0, len(groups))
		for _, g := range groups {
			views = append(views, toGroupView(g))
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func getGroupHandler(groupSvc *service.GroupService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := groupSvc.GetGroup(r.Context(), chi.URLParam(r, "groupID"), middleware.GetUserID(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, toGroupDetailView(detail))
	}
}

func updateGroupHandler(groupSvc *service.GroupService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateGroupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		group, err := groupSvc.UpdateGroup(r.Context(), chi.URLParam(r, "groupID"), middleware.GetUserID(r.Context()), req.Name, req.ImageURL)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, toGroupView(group))
	}
}

func inviteMemberHandler(groupSvc *service.GroupService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req inviteMemberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		detail, err := groupSvc.InviteMember(r.Context(), chi.URLParam(r, "groupID"), middleware.GetUserID(r.Context()), req.Email)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, toGroupDetailView(detail))
	}
}

func removeMemberHandler(groupSvc *service.GroupService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		err = groupSvc.RemoveMember(r.Context(), chi.URLParam(r, "groupID"), middleware.GetUserID(r.Context()), targetID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listPendingMembersHandler(groupSvc *service.GroupService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := groupSvc.GetGroup(r.Context(), chi.URLParam(r, "groupID"), middleware.GetUserID(r.Context()))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		views := make([]pendingMemberView, 0, len(detail.Pending))
		for _, p := range detail.Pending {
			views = append(views, pendingMemberView{
				Email:     p.Email,
				Name:      p.Name,
				InvitedBy: p.InvitedBy,
				InvitedAt: p.InvitedAt,
			})
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func removePendingMemberHandler(groupSvc *service.GroupService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if email == "" {
			writeError(w, http.StatusBadRequest, "email query parameter is required")
			return
		}

		err := groupSvc.RemovePendingMember(r.Context(), chi.URLParam(r, "groupID"), middleware.GetUserID(r.Context()), email)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
