package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// textArrays lets []string arguments through the way the pgx stdlib driver does.
type textArrays struct{}

func (textArrays) ConvertValue(v any) (driver.Value, error) {
	if s, ok := v.([]string); ok {
		return s, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newArrayMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(textArrays{}))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var completeQuery = regexp.QuoteMeta(`UPDATE submissions`)

func acceptedVerdict() model.Verdict {
	return model.Verdict{Status: model.StatusAccepted, Description: "Accepted", Runtime: 0.12, Memory: 2048}
}

func TestCompleteSubmission_WritesPending(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgSubmissionRepository(db)

	mock.ExpectExec(completeQuery).
		WithArgs("s1", "Accepted", "Accepted", 0.12, 2048, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CompleteSubmission(context.Background(), "s1", acceptedVerdict(), time.Now())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteSubmission_AlreadyJudged(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgSubmissionRepository(db)

	mock.ExpectExec(completeQuery).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM submissions WHERE id = $1`)).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("WrongAnswer"))

	err := repo.CompleteSubmission(context.Background(), "s1", acceptedVerdict(), time.Now())
	assert.ErrorIs(t, err, common.ErrAlreadyJudged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteSubmission_Missing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgSubmissionRepository(db)

	mock.ExpectExec(completeQuery).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM submissions`)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	err := repo.CompleteSubmission(context.Background(), "nope", acceptedVerdict(), time.Now())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCompleteSubmission_RejectsPendingVerdict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgSubmissionRepository(db)

	err := repo.CompleteSubmission(context.Background(), "s1", model.Verdict{Status: model.StatusPending}, time.Now())
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSubmissionByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgSubmissionRepository(db)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	cols := []string{"id", "user_id", "problem_id", "code", "language_id", "status", "status_description",
		"runtime", "memory", "error_message", "created_at", "judged_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM submissions WHERE id = $1`)).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("s1", "u1", "p1", "print(1)", 71, "Pending", "Pending", 0.0, 0, nil, created, nil))

	sub, err := repo.GetSubmissionByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, sub.Status)
	assert.Equal(t, 71, sub.LanguageID)
	assert.Nil(t, sub.ErrorMessage)
	assert.Nil(t, sub.JudgedAt)
	assert.Equal(t, created, sub.CreatedAt)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM submissions WHERE id = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(cols))
	_, err = repo.GetSubmissionByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListSubmissionsByUser_Filters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgSubmissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1 AND problem_id = $2 AND status = $3 ORDER BY created_at DESC`)).
		WithArgs("u1", "p1", "Accepted").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.ListSubmissionsByUser(context.Background(), "u1",
		model.SubmissionFilter{ProblemID: "p1", Status: model.StatusAccepted})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAcceptedForContest(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgSubmissionRepository(db)
	at := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	// Both joins scope the rows to the contest: its problems and its participants.
	mock.ExpectQuery(
		`FROM submissions s ` +
			`JOIN contest_problems cp ON cp\.problem_id = s\.problem_id AND cp\.contest_id = \$1 ` +
			`JOIN contest_participants cpt ON cpt\.user_id = s\.user_id AND cpt\.contest_id = \$1 ` +
			`JOIN users u ON u\.id = s\.user_id ` +
			`WHERE s\.status = 'Accepted' ` +
			`ORDER BY s\.created_at ASC`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "username", "problem_id", "created_at"}).
			AddRow("s1", "u1", "alice", "p1", at).
			AddRow("s2", "u2", "bob", "p1", at.Add(time.Minute)))

	got, err := repo.ListAcceptedForContest(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].Username)
	assert.Equal(t, at.Add(time.Minute), got[1].CreatedAt)
}

func TestFindProblemBySlug(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)

	cols := []string{"id", "title", "slug", "description", "difficulty", "tags", "created_by", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM problems WHERE slug = $1`)).
		WithArgs("two-sum").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("p1", "Two Sum", "two-sum", "desc", "Easy", "{arrays,hashing}", nil, time.Now()))

	p, err := repo.FindProblemBySlug(context.Background(), "two-sum")
	require.NoError(t, err)
	assert.Equal(t, model.DifficultyEasy, p.Difficulty)
	assert.Equal(t, []string{"arrays", "hashing"}, p.Tags)
	assert.Nil(t, p.CreatedByID)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM problems WHERE id = $1`)).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows(cols))
	_, err = repo.FindProblemByID(context.Background(), "gone")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListProblems_DifficultyAndTags(t *testing.T) {
	db, mock := newArrayMock(t)
	repo := NewPgProblemRepository(db)
	filter := model.ProblemFilter{Difficulty: model.DifficultyMedium, Tags: []string{"graphs", "dp"}}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM problems WHERE difficulty = $1 AND tags && $2::text[]`)).
		WithArgs(model.DifficultyMedium, []string{"graphs", "dp"}).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE difficulty = $1 AND tags && $2::text[] ORDER BY created_at DESC LIMIT $3 OFFSET $4`)).
		WithArgs(model.DifficultyMedium, []string{"graphs", "dp"}, 10, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "description", "difficulty", "tags", "created_by", "created_at"}).
			AddRow("p1", "Paths", "paths", "desc", "Medium", "{graphs}", nil, time.Now()))

	list, total, err := repo.ListProblems(context.Background(), 10, 20, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"graphs"}, list[0].Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProblems_Unfiltered(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)

	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM problems$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM problems ORDER BY created_at DESC LIMIT $1 OFFSET $2`)).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "description", "difficulty", "tags", "created_by", "created_at"}))

	list, total, err := repo.ListProblems(context.Background(), 20, 0, model.ProblemFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, list)
}

func TestUpdateProblem(t *testing.T) {
	db, mock := newArrayMock(t)
	repo := NewPgProblemRepository(db)
	p := &model.Problem{ID: "p1", Title: "Two Sum II", Slug: "two-sum-ii", Description: "d", Difficulty: model.DifficultyEasy}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE problems SET title = $1, slug = $2, description = $3, difficulty = $4, tags = $5 WHERE id = $6`)).
		WithArgs("Two Sum II", "two-sum-ii", "d", model.DifficultyEasy, []string{}, "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateProblem(context.Background(), nil, p))

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE problems`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, repo.UpdateProblem(context.Background(), nil, p), common.ErrConflict)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE problems`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateProblem(context.Background(), nil, p), common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProblem(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM problems WHERE id = $1`)).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteProblem(context.Background(), "p1"))

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM problems`)).
		WithArgs("p9").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeleteProblem(context.Background(), "p9"), common.ErrNotFound)
}

func TestGetTestcasesByProblemID_Order(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgProblemRepository(db)

	cols := []string{"id", "problem_id", "input", "expected_output", "is_public", "time_limit", "memory_limit", "sort_order", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY sort_order ASC, created_at ASC, id ASC`)).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("t1", "p1", "1 2", "3", true, 2.0, 128000, 0, time.Now()).
			AddRow("t2", "p1", "5 5", "10", false, 1.0, 65536, 1, time.Now()))

	tcs, err := repo.GetTestcasesByProblemID(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, tcs, 2)
	assert.Equal(t, "t1", tcs[0].ID)
	assert.Equal(t, 65536, tcs[1].MemoryLimit)

	mock.ExpectQuery(regexp.QuoteMeta(`AND is_public ORDER BY`)).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(cols))
	public, err := repo.GetPublicTestcases(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, public)
	assert.NotNil(t, public)
}

func TestAddParticipant_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgContestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO contest_participants`)).
		WithArgs("c1", "u1").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.AddParticipant(context.Background(), "c1", "u1")
	assert.ErrorIs(t, err, common.ErrAlreadyRegistered)
}

func TestCreateContest_InTransaction(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgContestRepository(db)
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO contests`)).
		WithArgs("c1", "Round 1", "", start, start.Add(time.Hour)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(start))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO contest_problems`)).
		WithArgs("c1", "p2", 0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO contest_problems`)).
		WithArgs("c1", "p1", 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	c := &model.Contest{ID: "c1", Title: "Round 1", StartTime: start, EndTime: start.Add(time.Hour), ProblemIDs: []string{"p2", "p1"}}
	require.NoError(t, repo.CreateContest(context.Background(), tx, c))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindContestByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgContestRepository(db)
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM contests WHERE id = $1`)).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "start_time", "end_time", "created_at"}).
			AddRow("c1", "Round 1", "", start, start.Add(time.Hour), start))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT problem_id FROM contest_problems`)).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"problem_id"}).AddRow("p2").AddRow("p1"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM contest_participants`)).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	c, err := repo.FindContestByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, c.ProblemIDs)
	assert.Empty(t, c.ParticipantIDs)
}

func TestDeleteContest_Missing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgContestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM contests`)).
		WithArgs("c9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.DeleteContest(context.Background(), "c9"), common.ErrNotFound)
}

func TestListContests_Ongoing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgContestRepository(db)
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE start_time <= $1 AND end_time >= $1`)).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "start_time", "end_time", "created_at"}))

	got, err := repo.ListContests(context.Background(), model.ContestOngoing, now)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestUserCreate_Conflict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &model.User{ID: "u1", Username: "alice", Email: "a@x.io", Role: model.RoleUser})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestPlatformCounts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPgStatsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`(SELECT COUNT(*) FROM submissions WHERE status = 'Pending')`)).
		WillReturnRows(sqlmock.NewRows([]string{"users", "problems", "contests", "submissions", "pending"}).
			AddRow(12, 40, 3, 900, 7))

	got, err := repo.PlatformCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.PlatformStats{Users: 12, Problems: 40, Contests: 3, Submissions: 900, PendingSubmissions: 7}, got)
}
