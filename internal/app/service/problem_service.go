package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug" // For slug generation
	"go.uber.org/zap"

	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
	"tle_judge/internal/domain/repository"
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
	db          *sql.DB // For transactions
	log         *zap.Logger
}

func NewProblemService(problemRepo repository.ProblemRepository, db *sql.DB, log *zap.Logger) *ProblemService {
	return &ProblemService{problemRepo: problemRepo, db: db, log: log.Named("problems")}
}

type TestcaseInput struct {
	Input          string  `json:"input"`
	ExpectedOutput string  `json:"expected_output"`
	IsPublic       bool    `json:"is_public"`
	TimeLimit      float64 `json:"time_limit"`   // seconds, 0 means default
	MemoryLimit    int     `json:"memory_limit"` // KB, 0 means default
}

type CreateProblemRequest struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Difficulty  model.ProblemDifficulty `json:"difficulty"`
	Tags        []string                `json:"tags"`
	Testcases   []TestcaseInput         `json:"testcases"`
}

// UpdateProblemRequest carries the fields to change; nil leaves a field as is.
type UpdateProblemRequest struct {
	Title       *string                  `json:"title,omitempty"`
	Description *string                  `json:"description,omitempty"`
	Difficulty  *model.ProblemDifficulty `json:"difficulty,omitempty"`
	Tags        *[]string                `json:"tags,omitempty"`
}

func (s *ProblemService) CreateProblem(ctx context.Context, userID string, req CreateProblemRequest) (*model.Problem, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, common.Errorf("title and description are required: %w", common.ErrValidation)
	}
	if req.Difficulty == "" {
		req.Difficulty = model.DifficultyMedium
	}
	if !req.Difficulty.Valid() {
		return nil, common.Errorf("unknown difficulty %q: %w", req.Difficulty, common.ErrValidation)
	}
	problemSlug := slug.Make(req.Title)
	if problemSlug == "" {
		return nil, common.Errorf("title %q does not produce a slug: %w", req.Title, common.ErrValidation)
	}

	problem := &model.Problem{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Slug:        problemSlug,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		Tags:        normalizeTags(req.Tags),
		CreatedByID: &userID,
	}
	testcases := buildTestcases(problem.ID, req.Testcases, 0)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := s.problemRepo.CreateProblem(ctx, tx, problem); err != nil {
		return nil, common.Errorf("failed to create problem in DB: %w", err)
	}
	if len(testcases) > 0 {
		if err := s.problemRepo.AddTestcases(ctx, tx, problem.ID, testcases); err != nil {
			return nil, common.Errorf("failed to add test cases to problem: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	if len(testcases) == 0 {
		s.log.Warn("problem created without test cases; submissions will be judged InternalError",
			zap.String("problem_id", problem.ID))
	}
	problem.Samples = publicOnly(testcases)
	return problem, nil
}

// UpdateProblem applies the non-nil fields of req. A new title re-derives the slug.
func (s *ProblemService) UpdateProblem(ctx context.Context, idOrSlug string, req UpdateProblemRequest) (*model.Problem, error) {
	problem, err := s.resolve(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		newSlug := slug.Make(title)
		if title == "" || newSlug == "" {
			return nil, common.Errorf("title %q does not produce a slug: %w", *req.Title, common.ErrValidation)
		}
		problem.Title, problem.Slug = title, newSlug
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, common.Errorf("description cannot be empty: %w", common.ErrValidation)
		}
		problem.Description = *req.Description
	}
	if req.Difficulty != nil {
		if !req.Difficulty.Valid() {
			return nil, common.Errorf("unknown difficulty %q: %w", *req.Difficulty, common.ErrValidation)
		}
		problem.Difficulty = *req.Difficulty
	}
	if req.Tags != nil {
		problem.Tags = normalizeTags(*req.Tags)
	}

	if err := s.problemRepo.UpdateProblem(ctx, nil, problem); err != nil {
		return nil, err
	}
	s.log.Info("problem updated", zap.String("problem_id", problem.ID), zap.String("slug", problem.Slug))
	return problem, nil
}

func (s *ProblemService) DeleteProblem(ctx context.Context, idOrSlug string) error {
	problem, err := s.resolve(ctx, idOrSlug)
	if err != nil {
		return err
	}
	if err := s.problemRepo.DeleteProblem(ctx, problem.ID); err != nil {
		return err
	}
	s.log.Info("problem deleted", zap.String("problem_id", problem.ID))
	return nil
}

func (s *ProblemService) resolve(ctx context.Context, idOrSlug string) (*model.Problem, error) {
	problem, err := s.problemRepo.FindProblemByID(ctx, idOrSlug)
	if errors.Is(err, common.ErrNotFound) {
		problem, err = s.problemRepo.FindProblemBySlug(ctx, idOrSlug)
	}
	return problem, err
}

// GetProblem looks the problem up by id, then by slug, and attaches its public test cases.
func (s *ProblemService) GetProblem(ctx context.Context, idOrSlug string) (*model.Problem, error) {
	problem, err := s.resolve(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	samples, err := s.problemRepo.GetPublicTestcases(ctx, problem.ID)
	if err != nil {
		s.log.Warn("failed to fetch samples", zap.String("problem_id", problem.ID), zap.Error(err))
		samples = []model.Testcase{}
	}
	problem.Samples = samples
	return problem, nil
}

// ListProblems pages through problems. Tags are normalized like stored tags
// before matching, so "Dynamic Programming" finds "dynamic-programming".
func (s *ProblemService) ListProblems(ctx context.Context, page, pageSize int, filter model.ProblemFilter) ([]model.Problem, int, error) {
	if filter.Difficulty != "" && !filter.Difficulty.Valid() {
		return nil, 0, common.Errorf("unknown difficulty %q: %w", filter.Difficulty, common.ErrValidation)
	}
	filter.Tags = normalizeTags(filter.Tags)
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	return s.problemRepo.ListProblems(ctx, pageSize, offset, filter)
}

// AddTestcases appends test cases after the existing ones, keeping judging order stable.
func (s *ProblemService) AddTestcases(ctx context.Context, problemID string, inputs []TestcaseInput) ([]model.Testcase, error) {
	if len(inputs) == 0 {
		return nil, common.Errorf("at least one test case is required: %w", common.ErrValidation)
	}
	if _, err := s.problemRepo.FindProblemByID(ctx, problemID); err != nil {
		return nil, err
	}
	existing, err := s.problemRepo.GetTestcasesByProblemID(ctx, problemID)
	if err != nil {
		return nil, common.Errorf("failed to load test cases: %w", err)
	}
	testcases := buildTestcases(problemID, inputs, len(existing))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.problemRepo.AddTestcases(ctx, tx, problemID, testcases); err != nil {
		return nil, common.Errorf("failed to add test cases: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}
	return testcases, nil
}

func (s *ProblemService) ListTestcases(ctx context.Context, problemID string, includeHidden bool) ([]model.Testcase, error) {
	if _, err := s.problemRepo.FindProblemByID(ctx, problemID); err != nil {
		return nil, err
	}
	if includeHidden {
		return s.problemRepo.GetTestcasesByProblemID(ctx, problemID)
	}
	return s.problemRepo.GetPublicTestcases(ctx, problemID)
}

func buildTestcases(problemID string, inputs []TestcaseInput, firstOrder int) []model.Testcase {
	out := make([]model.Testcase, 0, len(inputs))
	for i, in := range inputs {
		tc := model.Testcase{
			ID:             uuid.NewString(),
			ProblemID:      problemID,
			Input:          in.Input,
			ExpectedOutput: in.ExpectedOutput,
			IsPublic:       in.IsPublic,
			TimeLimit:      in.TimeLimit,
			MemoryLimit:    in.MemoryLimit,
			SortOrder:      firstOrder + i,
		}
		tc.ApplyDefaults()
		out = append(out, tc)
	}
	return out
}

func publicOnly(testcases []model.Testcase) []model.Testcase {
	out := []model.Testcase{}
	for _, tc := range testcases {
		if tc.IsPublic {
			out = append(out, tc)
		}
	}
	return out
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := []string{}
	for _, t := range tags {
		t = slug.Make(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
