package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
	"tle_judge/internal/domain/repository"
)

type queueDepth interface {
	Len(ctx context.Context) (int64, error)
}

type AdminService struct {
	statsRepo repository.StatsRepository
	queue     queueDepth
	log       *zap.Logger
}

func NewAdminService(statsRepo repository.StatsRepository, queue queueDepth, log *zap.Logger) *AdminService {
	return &AdminService{statsRepo: statsRepo, queue: queue, log: log.Named("admin")}
}

// GetStats reports platform totals and the evaluation backlog. QueueDepth is
// -1 when Redis cannot be reached; the database counts still come back.
func (s *AdminService) GetStats(ctx context.Context) (model.PlatformStats, error) {
	var (
		stats model.PlatformStats
		depth int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.statsRepo.PlatformCounts(gctx)
		return err
	})
	g.Go(func() error {
		n, err := s.queue.Len(gctx)
		if err != nil {
			s.log.Warn("failed to read queue depth", zap.Error(err))
			n = -1
		}
		depth = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.PlatformStats{}, common.Errorf("failed to collect platform stats: %w", err)
	}
	stats.QueueDepth = depth
	return stats, nil
}
