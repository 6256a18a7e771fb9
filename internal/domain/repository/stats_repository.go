package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tle_judge/internal/domain/model"
)

type StatsRepository interface {
	// PlatformCounts fills every PlatformStats field except QueueDepth.
	PlatformCounts(ctx context.Context) (model.PlatformStats, error)
}

type pgStatsRepository struct {
	db *sql.DB
}

func NewPgStatsRepository(db *sql.DB) StatsRepository {
	return &pgStatsRepository{db: db}
}

func (r *pgStatsRepository) PlatformCounts(ctx context.Context) (model.PlatformStats, error) {
	query := `SELECT
	              (SELECT COUNT(*) FROM users),
	              (SELECT COUNT(*) FROM problems),
	              (SELECT COUNT(*) FROM contests),
	              (SELECT COUNT(*) FROM submissions),
	              (SELECT COUNT(*) FROM submissions WHERE status = 'Pending')`
	var s model.PlatformStats
	err := r.db.QueryRowContext(ctx, query).Scan(&s.Users, &s.Problems, &s.Contests, &s.Submissions, &s.PendingSubmissions)
	if err != nil {
		return model.PlatformStats{}, fmt.Errorf("pgStatsRepository.PlatformCounts: %w", err)
	}
	return s, nil
}
