package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
	"tle_judge/internal/domain/repository"
	"tle_judge/internal/domain/verdict"
)

// Executor runs one test case on the execution service and waits for the result.
type Executor interface {
	Execute(ctx context.Context, req model.ExecutionRequest) (model.ExecutionResult, error)
}

type EvaluationOptions struct {
	AcceptedStatusID int
	// Concurrency bounds in-flight execution requests per submission.
	Concurrency int
	// StopOnFirstFailure skips test cases ordered after a known failure.
	StopOnFirstFailure bool
}

type EvaluationService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	executor       Executor
	opts           EvaluationOptions
	log            *zap.Logger
	now            func() time.Time
}

func NewEvaluationService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	executor Executor,
	opts EvaluationOptions,
	log *zap.Logger,
) *EvaluationService {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &EvaluationService{
		submissionRepo: subRepo,
		problemRepo:    probRepo,
		executor:       executor,
		opts:           opts,
		log:            log.Named("evaluation"),
		now:            time.Now,
	}
}

// ProcessSubmission runs a Pending submission against every test case of its
// problem and persists the terminal verdict.
//
// A problem without test cases moves the submission to InternalError and the
// call fails with common.ErrNoTestCases. Execution service failures leave the
// submission Pending and are returned wrapping common.ErrExecutionService.
func (s *EvaluationService) ProcessSubmission(ctx context.Context, submissionID string) (*model.Submission, error) {
	sub, err := s.submissionRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status.IsTerminal() {
		return nil, fmt.Errorf("submission %s is %s: %w", sub.ID, sub.Status, common.ErrAlreadyJudged)
	}
	log := s.log.With(zap.String("submission_id", sub.ID), zap.String("problem_id", sub.ProblemID))

	testcases, err := s.problemRepo.GetTestcasesByProblemID(ctx, sub.ProblemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load test cases: %w", err)
	}
	if len(testcases) == 0 {
		log.Error("problem has no test cases")
		if err := s.complete(ctx, sub, verdict.NoTestcases()); err != nil {
			return nil, err
		}
		return sub, fmt.Errorf("problem %s: %w", sub.ProblemID, common.ErrNoTestCases)
	}

	start := s.now()
	results, err := s.runBatch(ctx, sub, testcases)
	if err != nil {
		log.Warn("execution failed, submission left pending", zap.Error(err))
		return nil, err
	}

	v, err := verdict.Collapse(results, s.opts.AcceptedStatusID)
	if err != nil {
		return nil, fmt.Errorf("submission %s: %w", sub.ID, err)
	}
	if err := s.complete(ctx, sub, v); err != nil {
		return nil, err
	}

	log.Info("submission judged",
		zap.String("status", string(v.Status)),
		zap.Float64("runtime", v.Runtime),
		zap.Int("memory", v.Memory),
		zap.Int("testcases", len(testcases)),
		zap.Duration("took", s.now().Sub(start)),
	)
	return sub, nil
}

func (s *EvaluationService) complete(ctx context.Context, sub *model.Submission, v model.Verdict) error {
	judgedAt := s.now()
	if err := s.submissionRepo.CompleteSubmission(ctx, sub.ID, v, judgedAt); err != nil {
		return fmt.Errorf("failed to store verdict: %w", err)
	}
	sub.Status = v.Status
	sub.StatusDescription = v.Description
	sub.Runtime = v.Runtime
	sub.Memory = v.Memory
	sub.ErrorMessage = v.ErrorMessage
	sub.JudgedAt = &judgedAt
	return nil
}

// runBatch executes the test cases with bounded concurrency. Results are
// stored by test case index so the returned slice is in test case order.
// Entries left nil were skipped because an earlier test case already failed.
func (s *EvaluationService) runBatch(ctx context.Context, sub *model.Submission, testcases []model.Testcase) ([]*model.ExecutionResult, error) {
	results := make([]*model.ExecutionResult, len(testcases))

	var firstFailure atomic.Int64
	firstFailure.Store(int64(len(testcases)))
	skip := func(i int) bool {
		return s.opts.StopOnFirstFailure && int64(i) > firstFailure.Load()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, tc := range testcases {
		if skip(i) {
			break
		}
		g.Go(func() error {
			if skip(i) {
				return nil
			}
			res, err := s.executor.Execute(gctx, executionRequest(sub, tc))
			if err != nil {
				return fmt.Errorf("test case %d (%s): %w", i, tc.ID, err)
			}
			results[i] = &res
			if res.StatusID != s.opts.AcceptedStatusID {
				lowerTo(&firstFailure, int64(i))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func lowerTo(v *atomic.Int64, n int64) {
	for {
		cur := v.Load()
		if n >= cur || v.CompareAndSwap(cur, n) {
			return
		}
	}
}

func executionRequest(sub *model.Submission, tc model.Testcase) model.ExecutionRequest {
	tc.ApplyDefaults()
	return model.ExecutionRequest{
		SourceCode:     []byte(sub.Code),
		LanguageID:     sub.LanguageID,
		Stdin:          []byte(tc.Input),
		ExpectedOutput: []byte(tc.ExpectedOutput),
		TimeLimit:      tc.TimeLimit,
		MemoryLimit:    tc.MemoryLimit,
	}
}
