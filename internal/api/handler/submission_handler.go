package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tle_judge/internal/api/middleware"
	"tle_judge/internal/app/service"
	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
)

type SubmissionService interface {
	CreateSubmission(ctx context.Context, userID string, req service.CreateSubmissionRequest) (*model.Submission, error)
	GetSubmission(ctx context.Context, id, viewerID string, isAdmin bool) (*model.Submission, error)
	ListUserSubmissions(ctx context.Context, userID string, filter model.SubmissionFilter) ([]model.Submission, error)
	GetUserStats(ctx context.Context, userID string) (model.UserStats, error)
	RequeueSubmission(ctx context.Context, id, viewerID string, isAdmin bool) (*model.Submission, error)
}

type SubmissionHandler struct {
	submissionService SubmissionService
}

func NewSubmissionHandler(ss SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator) // All submission routes require auth
	r.Post("/", h.createSubmission)
	r.Get("/me", h.mySubmissions)
	r.Get("/me/stats", h.myStats)
	r.Get("/{submissionID}", h.getSubmission)
	r.Post("/{submissionID}/requeue", h.requeueSubmission)
}

func viewer(r *http.Request) (string, bool) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	role, _ := middleware.GetUserRoleFromContext(r.Context())
	return userID, role == model.RoleAdmin
}

func (h *SubmissionHandler) createSubmission(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateSubmissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	submission, err := h.submissionService.CreateSubmission(r.Context(), userID, req)
	if err != nil {
		// Stored but not queued: the client gets the id and can requeue.
		if submission != nil && errors.Is(err, common.ErrServiceUnavailable) {
			common.RespondWithJSON(w, http.StatusServiceUnavailable, submission)
			return
		}
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusAccepted, submission) // Accepted (202) as it's async
}

func (h *SubmissionHandler) mySubmissions(w http.ResponseWriter, r *http.Request) {
	userID, _ := viewer(r)
	filter := model.SubmissionFilter{
		ProblemID: r.URL.Query().Get("problem_id"),
		Status:    model.SubmissionStatus(r.URL.Query().Get("status")),
	}
	subs, err := h.submissionService.ListUserSubmissions(r.Context(), userID, filter)
	if err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subs)
}

func (h *SubmissionHandler) myStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := viewer(r)
	stats, err := h.submissionService.GetUserStats(r.Context(), userID)
	if err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *SubmissionHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin := viewer(r)
	sub, err := h.submissionService.GetSubmission(r.Context(), chi.URLParam(r, "submissionID"), userID, isAdmin)
	if err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) requeueSubmission(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin := viewer(r)
	sub, err := h.submissionService.RequeueSubmission(r.Context(), chi.URLParam(r, "submissionID"), userID, isAdmin)
	if err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusAccepted, sub)
}
