package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
)

type ProblemRepository interface {
	CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	FindProblemByID(ctx context.Context, id string) (*model.Problem, error)
	FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error)
	// UpdateProblem rewrites the editable columns; created_by and created_at never change.
	UpdateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	// DeleteProblem removes the problem. Test cases, submissions and contest
	// slots go with it through ON DELETE CASCADE.
	DeleteProblem(ctx context.Context, id string) error
	ListProblems(ctx context.Context, limit, offset int, filter model.ProblemFilter) ([]model.Problem, int, error)

	AddTestcases(ctx context.Context, tx *sql.Tx, problemID string, testcases []model.Testcase) error
	// GetTestcasesByProblemID returns every test case in judging order.
	GetTestcasesByProblemID(ctx context.Context, problemID string) ([]model.Testcase, error)
	GetPublicTestcases(ctx context.Context, problemID string) ([]model.Testcase, error)
}

type pgProblemRepository struct {
	db    *sql.DB
	types *pgtype.Map
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db, types: pgtype.NewMap()}
}

const problemColumns = `id, title, slug, description, difficulty, tags, created_by, created_at`

func (r *pgProblemRepository) scanProblem(row interface{ Scan(...any) error }) (*model.Problem, error) {
	p := &model.Problem{}
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.Difficulty, r.types.SQLScanner(&p.Tags), &p.CreatedByID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p, nil
}

func (r *pgProblemRepository) CreateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	query := `INSERT INTO problems (id, title, slug, description, difficulty, tags, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at`
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	err := conn(r.db, tx).QueryRowContext(ctx, query, p.ID, p.Title, p.Slug, p.Description, p.Difficulty, tags, p.CreatedByID).
		Scan(&p.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("problem with slug %q already exists: %w", p.Slug, common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) UpdateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	query := `UPDATE problems SET title = $1, slug = $2, description = $3, difficulty = $4, tags = $5
	          WHERE id = $6`
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	res, err := conn(r.db, tx).ExecContext(ctx, query, p.Title, p.Slug, p.Description, p.Difficulty, tags, p.ID)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("problem with slug %q already exists: %w", p.Slug, common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.UpdateProblem: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("problem %s: %w", p.ID, common.ErrNotFound)
	}
	return nil
}

func (r *pgProblemRepository) DeleteProblem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM problems WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.DeleteProblem: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("problem %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *pgProblemRepository) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	return r.findOne(ctx, "FindProblemByID", `SELECT `+problemColumns+` FROM problems WHERE id = $1`, id)
}

func (r *pgProblemRepository) FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	return r.findOne(ctx, "FindProblemBySlug", `SELECT `+problemColumns+` FROM problems WHERE slug = $1`, slug)
}

func (r *pgProblemRepository) findOne(ctx context.Context, op, query string, arg any) (*model.Problem, error) {
	p, err := r.scanProblem(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("problem %s: %w", arg, common.ErrNotFound)
		}
		return nil, fmt.Errorf("pgProblemRepository.%s: %w", op, err)
	}
	return p, nil
}

func (r *pgProblemRepository) ListProblems(ctx context.Context, limit, offset int, filter model.ProblemFilter) ([]model.Problem, int, error) {
	var conds []string
	args := []any{}
	if filter.Difficulty != "" {
		args = append(args, filter.Difficulty)
		conds = append(conds, "difficulty = $"+strconv.Itoa(len(args)))
	}
	if len(filter.Tags) > 0 {
		args = append(args, filter.Tags)
		conds = append(conds, "tags && $"+strconv.Itoa(len(args))+"::text[]")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems count: %w", err)
	}

	args = append(args, limit, offset)
	query := `SELECT ` + problemColumns + ` FROM problems` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		p, err := r.scanProblem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems scan: %w", err)
		}
		problems = append(problems, *p)
	}
	return problems, total, rows.Err()
}

func (r *pgProblemRepository) AddTestcases(ctx context.Context, tx *sql.Tx, problemID string, testcases []model.Testcase) error {
	query := `INSERT INTO testcases (id, problem_id, input, expected_output, is_public, time_limit, memory_limit, sort_order)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	db := conn(r.db, tx)
	for _, tc := range testcases {
		if _, err := db.ExecContext(ctx, query,
			tc.ID, problemID, tc.Input, tc.ExpectedOutput, tc.IsPublic, tc.TimeLimit, tc.MemoryLimit, tc.SortOrder,
		); err != nil {
			return fmt.Errorf("pgProblemRepository.AddTestcases: %w", err)
		}
	}
	return nil
}

func (r *pgProblemRepository) GetTestcasesByProblemID(ctx context.Context, problemID string) ([]model.Testcase, error) {
	return r.listTestcases(ctx, problemID, false)
}

func (r *pgProblemRepository) GetPublicTestcases(ctx context.Context, problemID string) ([]model.Testcase, error) {
	return r.listTestcases(ctx, problemID, true)
}

func (r *pgProblemRepository) listTestcases(ctx context.Context, problemID string, publicOnly bool) ([]model.Testcase, error) {
	query := `SELECT id, problem_id, input, expected_output, is_public, time_limit, memory_limit, sort_order, created_at
	          FROM testcases WHERE problem_id = $1`
	if publicOnly {
		query += ` AND is_public`
	}
	query += ` ORDER BY sort_order ASC, created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.listTestcases: %w", err)
	}
	defer rows.Close()

	testcases := []model.Testcase{}
	for rows.Next() {
		var tc model.Testcase
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &tc.Input, &tc.ExpectedOutput, &tc.IsPublic,
			&tc.TimeLimit, &tc.MemoryLimit, &tc.SortOrder, &tc.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.listTestcases scan: %w", err)
		}
		testcases = append(testcases, tc)
	}
	return testcases, rows.Err()
}
