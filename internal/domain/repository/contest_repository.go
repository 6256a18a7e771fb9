package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
)

type ContestRepository interface {
	CreateContest(ctx context.Context, tx *sql.Tx, contest *model.Contest) error
	UpdateContest(ctx context.Context, tx *sql.Tx, contest *model.Contest) error
	DeleteContest(ctx context.Context, id string) error
	FindContestByID(ctx context.Context, id string) (*model.Contest, error)
	ListContests(ctx context.Context, status model.ContestStatus, now time.Time) ([]model.Contest, error)
	// AddParticipant fails with common.ErrAlreadyRegistered on a duplicate.
	AddParticipant(ctx context.Context, contestID, userID string) error
}

type pgContestRepository struct {
	db *sql.DB
}

func NewPgContestRepository(db *sql.DB) ContestRepository {
	return &pgContestRepository{db: db}
}

func (r *pgContestRepository) CreateContest(ctx context.Context, tx *sql.Tx, c *model.Contest) error {
	db := conn(r.db, tx)
	query := `INSERT INTO contests (id, title, description, start_time, end_time)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at`
	if err := db.QueryRowContext(ctx, query, c.ID, c.Title, c.Description, c.StartTime, c.EndTime).Scan(&c.CreatedAt); err != nil {
		return fmt.Errorf("pgContestRepository.CreateContest: %w", err)
	}
	return r.insertProblems(ctx, db, c.ID, c.ProblemIDs)
}

func (r *pgContestRepository) UpdateContest(ctx context.Context, tx *sql.Tx, c *model.Contest) error {
	db := conn(r.db, tx)
	query := `UPDATE contests SET title = $2, description = $3, start_time = $4, end_time = $5 WHERE id = $1`
	res, err := db.ExecContext(ctx, query, c.ID, c.Title, c.Description, c.StartTime, c.EndTime)
	if err != nil {
		return fmt.Errorf("pgContestRepository.UpdateContest: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("contest %s: %w", c.ID, common.ErrNotFound)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM contest_problems WHERE contest_id = $1`, c.ID); err != nil {
		return fmt.Errorf("pgContestRepository.UpdateContest clear problems: %w", err)
	}
	return r.insertProblems(ctx, db, c.ID, c.ProblemIDs)
}

func (r *pgContestRepository) insertProblems(ctx context.Context, db dbtx, contestID string, problemIDs []string) error {
	for i, pid := range problemIDs {
		_, err := db.ExecContext(ctx,
			`INSERT INTO contest_problems (contest_id, problem_id, position) VALUES ($1, $2, $3)`,
			contestID, pid, i)
		if err != nil {
			return fmt.Errorf("pgContestRepository.insertProblems: %w", err)
		}
	}
	return nil
}

func (r *pgContestRepository) DeleteContest(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgContestRepository.DeleteContest: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("contest %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *pgContestRepository) FindContestByID(ctx context.Context, id string) (*model.Contest, error) {
	c := &model.Contest{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, start_time, end_time, created_at FROM contests WHERE id = $1`, id,
	).Scan(&c.ID, &c.Title, &c.Description, &c.StartTime, &c.EndTime, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contest %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgContestRepository.FindContestByID: %w", err)
	}

	if c.ProblemIDs, err = r.ids(ctx,
		`SELECT problem_id FROM contest_problems WHERE contest_id = $1 ORDER BY position ASC`, id); err != nil {
		return nil, err
	}
	if c.ParticipantIDs, err = r.ids(ctx,
		`SELECT user_id FROM contest_participants WHERE contest_id = $1 ORDER BY registered_at ASC`, id); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *pgContestRepository) ids(ctx context.Context, query, contestID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.ids: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgContestRepository.ids scan: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ListContests returns contests newest first. An empty status means all.
// Problem and participant ids are not loaded.
func (r *pgContestRepository) ListContests(ctx context.Context, status model.ContestStatus, now time.Time) ([]model.Contest, error) {
	query := `SELECT id, title, description, start_time, end_time, created_at FROM contests`
	args := []any{}
	switch status {
	case model.ContestUpcoming:
		query += ` WHERE start_time > $1`
		args = append(args, now)
	case model.ContestOngoing:
		query += ` WHERE start_time <= $1 AND end_time >= $1`
		args = append(args, now)
	case model.ContestPast:
		query += ` WHERE end_time < $1`
		args = append(args, now)
	}
	query += ` ORDER BY start_time DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.ListContests: %w", err)
	}
	defer rows.Close()

	contests := []model.Contest{}
	for rows.Next() {
		var c model.Contest
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.StartTime, &c.EndTime, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgContestRepository.ListContests scan: %w", err)
		}
		contests = append(contests, c)
	}
	return contests, rows.Err()
}

func (r *pgContestRepository) AddParticipant(ctx context.Context, contestID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contest_participants (contest_id, user_id) VALUES ($1, $2)`, contestID, userID)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("user %s in contest %s: %w", userID, contestID, common.ErrAlreadyRegistered)
		}
		return fmt.Errorf("pgContestRepository.AddParticipant: %w", err)
	}
	return nil
}
