package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tle_judge/internal/api/middleware"
	"tle_judge/internal/app/service"
	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
)

type ProblemService interface {
	CreateProblem(ctx context.Context, userID string, req service.CreateProblemRequest) (*model.Problem, error)
	GetProblem(ctx context.Context, idOrSlug string) (*model.Problem, error)
	UpdateProblem(ctx context.Context, idOrSlug string, req service.UpdateProblemRequest) (*model.Problem, error)
	DeleteProblem(ctx context.Context, idOrSlug string) error
	ListProblems(ctx context.Context, page, pageSize int, filter model.ProblemFilter) ([]model.Problem, int, error)
	AddTestcases(ctx context.Context, problemID string, inputs []service.TestcaseInput) ([]model.Testcase, error)
	ListTestcases(ctx context.Context, problemID string, includeHidden bool) ([]model.Testcase, error)
}

type ProblemHandler struct {
	problemService ProblemService
}

func NewProblemHandler(ps ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: ps}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProblems)                      // GET /api/v1/problems
	r.Get("/{problemRef}", h.getProblem)            // GET /api/v1/problems/two-sum
	r.Get("/{problemRef}/testcases", h.listSamples) // public test cases only

	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(middleware.Authenticator)
		adminRouter.Use(middleware.AdminOnly)
		adminRouter.Post("/", h.createProblem)
		adminRouter.Put("/{problemRef}", h.updateProblem)
		adminRouter.Delete("/{problemRef}", h.deleteProblem)
		adminRouter.Post("/{problemRef}/testcases", h.addTestcases)
		adminRouter.Get("/{problemRef}/testcases/all", h.listAllTestcases)
	})
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateProblemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	problem, err := h.problemService.CreateProblem(r.Context(), userID, req)
	if err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

// Paginated response structure
type PaginatedProblemsResponse struct {
	Problems []model.Problem `json:"problems"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parsePositiveInt(q.Get("page"), 1)
	pageSize := parsePositiveInt(q.Get("pageSize"), 20)
	if pageSize > 100 {
		pageSize = 20
	}

	filter := model.ProblemFilter{
		Difficulty: model.ProblemDifficulty(q.Get("difficulty")),
		Tags:       parseCommaSeparated(q["tags"]),
	}
	problems, total, err := h.problemService.ListProblems(r.Context(), page, pageSize, filter)
	if err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, PaginatedProblemsResponse{
		Problems: problems,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (h *ProblemHandler) updateProblem(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProblemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	problem, err := h.problemService.UpdateProblem(r.Context(), chi.URLParam(r, "problemRef"), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) deleteProblem(w http.ResponseWriter, r *http.Request) {
	if err := h.problemService.DeleteProblem(r.Context(), chi.URLParam(r, "problemRef")); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := h.problemService.GetProblem(r.Context(), chi.URLParam(r, "problemRef"))
	if err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) listSamples(w http.ResponseWriter, r *http.Request) {
	h.listTestcases(w, r, false)
}

func (h *ProblemHandler) listAllTestcases(w http.ResponseWriter, r *http.Request) {
	h.listTestcases(w, r, true)
}

func (h *ProblemHandler) listTestcases(w http.ResponseWriter, r *http.Request, includeHidden bool) {
	testcases, err := h.problemService.ListTestcases(r.Context(), chi.URLParam(r, "problemRef"), includeHidden)
	if err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, testcases)
}

func (h *ProblemHandler) addTestcases(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Testcases []service.TestcaseInput `json:"testcases"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	added, err := h.problemService.AddTestcases(r.Context(), chi.URLParam(r, "problemRef"), req.Testcases)
	if err != nil {
		respondErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, added)
}
