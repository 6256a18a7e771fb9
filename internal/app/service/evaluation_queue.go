package service

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tle_judge/internal/common"
)

// Enqueuer hands a submission id to the evaluation workers.
type Enqueuer interface {
	Enqueue(ctx context.Context, submissionID string) error
}

// EvaluationQueue is a redis list of submission ids. Producers LPUSH,
// workers BRPOP, so ids are served in arrival order.
type EvaluationQueue struct {
	rdb  *redis.Client
	name string
	log  *zap.Logger
}

func NewEvaluationQueue(rdb *redis.Client, name string, log *zap.Logger) *EvaluationQueue {
	return &EvaluationQueue{rdb: rdb, name: name, log: log.Named("queue")}
}

func (q *EvaluationQueue) Name() string { return q.name }

func (q *EvaluationQueue) Enqueue(ctx context.Context, submissionID string) error {
	if err := q.rdb.LPush(ctx, q.name, submissionID).Err(); err != nil {
		return common.Errorf("failed to push submission %s to queue %s: %w", submissionID, q.name, err)
	}
	q.log.Debug("submission enqueued", zap.String("submission_id", submissionID))
	return nil
}

func (q *EvaluationQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.name).Result()
}
