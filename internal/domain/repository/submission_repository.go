package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)
	// CompleteSubmission writes a terminal verdict onto a Pending submission.
	// It fails with common.ErrAlreadyJudged when the submission left Pending before.
	CompleteSubmission(ctx context.Context, id string, v model.Verdict, judgedAt time.Time) error
	ListSubmissionsByUser(ctx context.Context, userID string, filter model.SubmissionFilter) ([]model.Submission, error)
	GetUserStats(ctx context.Context, userID string) (model.UserStats, error)
	// ListAcceptedForContest returns accepted submissions on the contest's problems
	// by its participants, oldest first.
	ListAcceptedForContest(ctx context.Context, contestID string) ([]model.AcceptedSubmission, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

const submissionColumns = `id, user_id, problem_id, code, language_id, status, status_description,
	runtime, memory, error_message, created_at, judged_at`

func scanSubmission(row interface{ Scan(...any) error }) (*model.Submission, error) {
	sub := &model.Submission{}
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.ProblemID, &sub.Code, &sub.LanguageID, &sub.Status, &sub.StatusDescription,
		&sub.Runtime, &sub.Memory, &sub.ErrorMessage, &sub.CreatedAt, &sub.JudgedAt,
	)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *pgSubmissionRepository) CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	query := `INSERT INTO submissions (id, user_id, problem_id, code, language_id, status, status_description)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query,
		sub.ID, sub.UserID, sub.ProblemID, sub.Code, sub.LanguageID, sub.Status, sub.StatusDescription,
	).Scan(&sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmission: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("submission %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID: %w", err)
	}
	return sub, nil
}

func (r *pgSubmissionRepository) CompleteSubmission(ctx context.Context, id string, v model.Verdict, judgedAt time.Time) error {
	if !v.Status.IsTerminal() {
		return fmt.Errorf("pgSubmissionRepository.CompleteSubmission: status %q is not terminal: %w", v.Status, common.ErrValidation)
	}
	query := `UPDATE submissions
	          SET status = $2, status_description = $3, runtime = $4, memory = $5, error_message = $6, judged_at = $7
	          WHERE id = $1 AND status = 'Pending'`
	res, err := r.db.ExecContext(ctx, query, id, v.Status, v.Description, v.Runtime, v.Memory, v.ErrorMessage, judgedAt)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CompleteSubmission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CompleteSubmission: %w", err)
	}
	if n == 1 {
		return nil
	}

	var status model.SubmissionStatus
	err = r.db.QueryRowContext(ctx, `SELECT status FROM submissions WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("submission %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CompleteSubmission: %w", err)
	}
	return fmt.Errorf("submission %s is %s: %w", id, status, common.ErrAlreadyJudged)
}

func (r *pgSubmissionRepository) ListSubmissionsByUser(ctx context.Context, userID string, filter model.SubmissionFilter) ([]model.Submission, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + submissionColumns + ` FROM submissions WHERE user_id = $1`)
	args := []any{userID}
	if filter.ProblemID != "" {
		args = append(args, filter.ProblemID)
		sb.WriteString(" AND problem_id = $" + strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		sb.WriteString(" AND status = $" + strconv.Itoa(len(args)))
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC")

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListSubmissionsByUser: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListSubmissionsByUser scan: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (r *pgSubmissionRepository) GetUserStats(ctx context.Context, userID string) (model.UserStats, error) {
	query := `SELECT COUNT(*),
	                 COUNT(*) FILTER (WHERE status = 'Accepted'),
	                 COUNT(DISTINCT problem_id) FILTER (WHERE status = 'Accepted')
	          FROM submissions WHERE user_id = $1`
	var stats model.UserStats
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&stats.TotalSubmissions, &stats.AcceptedSubmissions, &stats.ProblemsSolved)
	if err != nil {
		return model.UserStats{}, fmt.Errorf("pgSubmissionRepository.GetUserStats: %w", err)
	}
	return stats, nil
}

func (r *pgSubmissionRepository) ListAcceptedForContest(ctx context.Context, contestID string) ([]model.AcceptedSubmission, error) {
	query := `SELECT s.id, s.user_id, u.username, s.problem_id, s.created_at
	          FROM submissions s
	          JOIN contest_problems cp ON cp.problem_id = s.problem_id AND cp.contest_id = $1
	          JOIN contest_participants cpt ON cpt.user_id = s.user_id AND cpt.contest_id = $1
	          JOIN users u ON u.id = s.user_id
	          WHERE s.status = 'Accepted'
	          ORDER BY s.created_at ASC, s.id ASC`
	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListAcceptedForContest: %w", err)
	}
	defer rows.Close()

	var out []model.AcceptedSubmission
	for rows.Next() {
		var a model.AcceptedSubmission
		if err := rows.Scan(&a.SubmissionID, &a.UserID, &a.Username, &a.ProblemID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListAcceptedForContest scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
