package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
)

// Processor judges one submission.
type Processor interface {
	ProcessSubmission(ctx context.Context, submissionID string) (*model.Submission, error)
}

type Options struct {
	Queue       string
	LockPrefix  string
	LockTTL     time.Duration // also bounds a single evaluation
	Workers     int
	PollTimeout time.Duration
}

// releaseLock deletes the lock only while it still holds our token.
var releaseLock = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

type EvaluationWorker struct {
	rdb       *redis.Client
	processor Processor
	opts      Options
	log       *zap.Logger
}

func NewEvaluationWorker(rdb *redis.Client, processor Processor, opts Options, log *zap.Logger) *EvaluationWorker {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 5 * time.Second
	}
	return &EvaluationWorker{rdb: rdb, processor: processor, opts: opts, log: log.Named("worker")}
}

// Start runs the consumer loops and blocks until ctx is cancelled and every
// in-flight evaluation has finished.
func (w *EvaluationWorker) Start(ctx context.Context) {
	w.log.Info("evaluation worker started",
		zap.String("queue", w.opts.Queue),
		zap.Int("workers", w.opts.Workers),
	)
	var wg sync.WaitGroup
	for n := 0; n < w.opts.Workers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx, n)
		}()
	}
	wg.Wait()
	w.log.Info("evaluation worker stopped")
}

func (w *EvaluationWorker) loop(ctx context.Context, n int) {
	log := w.log.With(zap.Int("loop", n))
	for {
		if ctx.Err() != nil {
			return
		}
		res, err := w.rdb.BRPop(ctx, w.opts.PollTimeout, w.opts.Queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			log.Error("failed to pop from queue", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		// res is [queue, value]
		if len(res) < 2 || res[1] == "" {
			log.Warn("queue returned an empty submission id")
			continue
		}
		if retry := w.handle(ctx, res[1]); retry {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// handle evaluates one submission under its lock. An evaluation already
// started is allowed to finish after ctx is cancelled. It reports true when
// redis failed and the caller should back off.
func (w *EvaluationWorker) handle(ctx context.Context, submissionID string) bool {
	log := w.log.With(zap.String("submission_id", submissionID))
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.opts.LockTTL)
	defer cancel()

	key := w.opts.LockPrefix + submissionID
	token := uuid.NewString()
	ok, err := w.rdb.SetNX(runCtx, key, token, w.opts.LockTTL).Result()
	if err != nil {
		log.Error("failed to acquire evaluation lock", zap.Error(err))
		w.pushBack(runCtx, log, submissionID)
		return true
	}
	if !ok {
		log.Info("submission is already being evaluated, dropping duplicate")
		return false
	}
	defer func() {
		deleted, err := releaseLock.Run(runCtx, w.rdb, []string{key}, token).Int64()
		if err != nil {
			log.Error("failed to release evaluation lock", zap.Error(err))
		} else if deleted == 0 {
			log.Warn("evaluation lock expired before release")
		}
	}()

	sub, err := w.processor.ProcessSubmission(runCtx, submissionID)
	switch {
	case err == nil:
		log.Info("evaluation finished", zap.String("status", string(sub.Status)))
	case errors.Is(err, common.ErrNoTestCases):
		log.Error("problem has no test cases", zap.Error(err))
	case errors.Is(err, common.ErrAlreadyJudged), errors.Is(err, common.ErrNotFound):
		log.Warn("skipping submission", zap.Error(err))
	case errors.Is(err, common.ErrExecutionService):
		log.Error("execution service failed, submission left pending", zap.Error(err))
	default:
		log.Error("evaluation failed", zap.Error(err))
	}
	return false
}

// pushBack returns a popped id to the consuming end of the queue so it is
// the next one picked up.
func (w *EvaluationWorker) pushBack(ctx context.Context, log *zap.Logger, submissionID string) {
	if err := w.rdb.RPush(ctx, w.opts.Queue, submissionID).Err(); err != nil {
		log.Error("submission stays pending and needs a manual requeue", zap.Error(err))
		return
	}
	log.Warn("submission returned to the queue")
}
