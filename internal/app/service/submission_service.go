package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
	"tle_judge/internal/domain/repository"
)

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	queue          Enqueuer
	log            *zap.Logger
}

func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	queue Enqueuer,
	log *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: subRepo,
		problemRepo:    probRepo,
		queue:          queue,
		log:            log.Named("submissions"),
	}
}

type CreateSubmissionRequest struct {
	ProblemID  string `json:"problem_id"`
	LanguageID int    `json:"language_id"`
	Code       string `json:"code"`
}

// CreateSubmission stores a Pending submission and queues it for evaluation.
// If the queue push fails the submission is still stored and can be requeued.
func (s *SubmissionService) CreateSubmission(ctx context.Context, userID string, req CreateSubmissionRequest) (*model.Submission, error) {
	if req.ProblemID == "" || strings.TrimSpace(req.Code) == "" {
		return nil, common.Errorf("problem_id and code are required: %w", common.ErrValidation)
	}
	if req.LanguageID <= 0 {
		return nil, common.Errorf("language_id must be positive: %w", common.ErrValidation)
	}

	problem, err := s.problemRepo.FindProblemByID(ctx, req.ProblemID)
	if err != nil {
		return nil, common.Errorf("problem not found: %w", err)
	}

	submission := &model.Submission{
		ID:                uuid.NewString(),
		UserID:            userID,
		ProblemID:         problem.ID,
		LanguageID:        req.LanguageID,
		Code:              req.Code,
		Status:            model.StatusPending,
		StatusDescription: string(model.StatusPending),
	}
	if err := s.submissionRepo.CreateSubmission(ctx, nil, submission); err != nil {
		return nil, common.Errorf("failed to create submission: %w", err)
	}

	if err := s.queue.Enqueue(ctx, submission.ID); err != nil {
		s.log.Error("submission stored but not queued", zap.String("submission_id", submission.ID), zap.Error(err))
		return submission, common.Errorf("submission %s was saved but could not be queued: %w", submission.ID, common.ErrServiceUnavailable)
	}

	s.log.Info("submission created",
		zap.String("submission_id", submission.ID),
		zap.String("user_id", userID),
		zap.String("problem_id", problem.ID),
		zap.Int("language_id", req.LanguageID),
	)
	return submission, nil
}

// GetSubmission returns a submission visible to the viewer: its owner or an admin.
func (s *SubmissionService) GetSubmission(ctx context.Context, id, viewerID string, isAdmin bool) (*model.Submission, error) {
	sub, err := s.submissionRepo.GetSubmissionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.UserID != viewerID && !isAdmin {
		return nil, common.Errorf("submission %s belongs to another user: %w", id, common.ErrForbidden)
	}
	return sub, nil
}

func (s *SubmissionService) ListUserSubmissions(ctx context.Context, userID string, filter model.SubmissionFilter) ([]model.Submission, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, common.Errorf("unknown status %q: %w", filter.Status, common.ErrValidation)
	}
	return s.submissionRepo.ListSubmissionsByUser(ctx, userID, filter)
}

func (s *SubmissionService) GetUserStats(ctx context.Context, userID string) (model.UserStats, error) {
	return s.submissionRepo.GetUserStats(ctx, userID)
}

// RequeueSubmission pushes a still Pending submission back onto the queue,
// typically after the execution service was unreachable.
func (s *SubmissionService) RequeueSubmission(ctx context.Context, id, viewerID string, isAdmin bool) (*model.Submission, error) {
	sub, err := s.GetSubmission(ctx, id, viewerID, isAdmin)
	if err != nil {
		return nil, err
	}
	if sub.Status.IsTerminal() {
		return nil, common.Errorf("submission %s is %s: %w", id, sub.Status, common.ErrAlreadyJudged)
	}
	if err := s.queue.Enqueue(ctx, sub.ID); err != nil {
		return nil, common.Errorf("failed to requeue submission: %w", err)
	}
	s.log.Info("submission requeued", zap.String("submission_id", sub.ID))
	return sub, nil
}
