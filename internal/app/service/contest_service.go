package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
	"tle_judge/internal/domain/repository"
	"tle_judge/internal/domain/scoring"
)

type ContestService struct {
	contestRepo    repository.ContestRepository
	problemRepo    repository.ProblemRepository
	submissionRepo repository.SubmissionRepository
	db             *sql.DB
	log            *zap.Logger
	now            func() time.Time
}

func NewContestService(
	contestRepo repository.ContestRepository,
	probRepo repository.ProblemRepository,
	subRepo repository.SubmissionRepository,
	db *sql.DB,
	log *zap.Logger,
) *ContestService {
	return &ContestService{
		contestRepo:    contestRepo,
		problemRepo:    probRepo,
		submissionRepo: subRepo,
		db:             db,
		log:            log.Named("contests"),
		now:            time.Now,
	}
}

type ContestRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	ProblemIDs  []string  `json:"problem_ids"`
}

func (s *ContestService) validate(ctx context.Context, req ContestRequest) ([]string, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, common.Errorf("title is required: %w", common.ErrValidation)
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() || !req.StartTime.Before(req.EndTime) {
		return nil, common.ErrInvalidContestWindow
	}

	seen := make(map[string]struct{}, len(req.ProblemIDs))
	ids := []string{}
	for _, id := range req.ProblemIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, err := s.problemRepo.FindProblemByID(ctx, id); err != nil {
			return nil, common.Errorf("contest problem %s: %w", id, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *ContestService) CreateContest(ctx context.Context, req ContestRequest) (*model.Contest, error) {
	problemIDs, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}
	contest := &model.Contest{
		ID:             uuid.NewString(),
		Title:          req.Title,
		Description:    req.Description,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		ProblemIDs:     problemIDs,
		ParticipantIDs: []string{},
	}
	if err := s.inTx(ctx, func(tx *sql.Tx) error {
		return s.contestRepo.CreateContest(ctx, tx, contest)
	}); err != nil {
		return nil, common.Errorf("failed to create contest: %w", err)
	}
	contest.Status = contest.StatusAt(s.now())
	s.log.Info("contest created", zap.String("contest_id", contest.ID), zap.Int("problems", len(problemIDs)))
	return contest, nil
}

// UpdateContest replaces the contest's fields and problem set.
func (s *ContestService) UpdateContest(ctx context.Context, id string, req ContestRequest) (*model.Contest, error) {
	problemIDs, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}
	contest, err := s.contestRepo.FindContestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	contest.Title = req.Title
	contest.Description = req.Description
	contest.StartTime = req.StartTime
	contest.EndTime = req.EndTime
	contest.ProblemIDs = problemIDs

	if err := s.inTx(ctx, func(tx *sql.Tx) error {
		return s.contestRepo.UpdateContest(ctx, tx, contest)
	}); err != nil {
		return nil, common.Errorf("failed to update contest: %w", err)
	}
	contest.Status = contest.StatusAt(s.now())
	return contest, nil
}

func (s *ContestService) DeleteContest(ctx context.Context, id string) error {
	return s.contestRepo.DeleteContest(ctx, id)
}

func (s *ContestService) GetContest(ctx context.Context, id string) (*model.Contest, error) {
	contest, err := s.contestRepo.FindContestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	contest.Status = contest.StatusAt(s.now())
	return contest, nil
}

// ListContests filters by derived status; an empty status lists every contest.
func (s *ContestService) ListContests(ctx context.Context, status model.ContestStatus) ([]model.Contest, error) {
	if status != "" && !status.Valid() {
		return nil, common.Errorf("unknown contest status %q: %w", status, common.ErrValidation)
	}
	now := s.now()
	contests, err := s.contestRepo.ListContests(ctx, status, now)
	if err != nil {
		return nil, err
	}
	for i := range contests {
		contests[i].Status = contests[i].StatusAt(now)
	}
	return contests, nil
}

// RegisterForContest adds the user to the participant set. A duplicate
// registration is reported before a closed contest.
func (s *ContestService) RegisterForContest(ctx context.Context, contestID, userID string) error {
	contest, err := s.contestRepo.FindContestByID(ctx, contestID)
	if err != nil {
		return err
	}
	if contest.HasParticipant(userID) {
		return common.Errorf("user %s in contest %s: %w", userID, contestID, common.ErrAlreadyRegistered)
	}
	if contest.StatusAt(s.now()) == model.ContestPast {
		return common.Errorf("contest %s: %w", contestID, common.ErrContestEnded)
	}
	if err := s.contestRepo.AddParticipant(ctx, contestID, userID); err != nil {
		return err
	}
	s.log.Info("user registered", zap.String("contest_id", contestID), zap.String("user_id", userID))
	return nil
}

// ComputeLeaderboard recomputes the standings from the stored accepted
// submissions of the contest's participants on the contest's problems.
func (s *ContestService) ComputeLeaderboard(ctx context.Context, contestID string) ([]model.LeaderboardEntry, error) {
	if _, err := s.contestRepo.FindContestByID(ctx, contestID); err != nil {
		return nil, err
	}
	accepted, err := s.submissionRepo.ListAcceptedForContest(ctx, contestID)
	if err != nil {
		return nil, common.Errorf("failed to load accepted submissions: %w", err)
	}
	return scoring.Rank(accepted), nil
}

func (s *ContestService) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
