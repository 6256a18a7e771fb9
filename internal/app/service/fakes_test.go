package service

import (
	"context"
	"database/sql"
	"slices"
	"sort"
	"sync"
	"time"

	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
)

type fakeSubmissionRepo struct {
	mu        sync.Mutex
	subs      map[string]*model.Submission
	completed int

	// used by ListAcceptedForContest
	contests  *fakeContestRepo
	usernames map[string]string
}

func newFakeSubmissionRepo(subs ...*model.Submission) *fakeSubmissionRepo {
	r := &fakeSubmissionRepo{subs: map[string]*model.Submission{}}
	for _, s := range subs {
		r.subs[s.ID] = s
	}
	return r
}

func (r *fakeSubmissionRepo) CreateSubmission(_ context.Context, _ *sql.Tx, sub *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub.CreatedAt = time.Now()
	cp := *sub
	r.subs[sub.ID] = &cp
	return nil
}

func (r *fakeSubmissionRepo) GetSubmissionByID(_ context.Context, id string) (*model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubmissionRepo) CompleteSubmission(_ context.Context, id string, v model.Verdict, judgedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return common.ErrNotFound
	}
	if s.Status != model.StatusPending {
		return common.ErrAlreadyJudged
	}
	r.completed++
	s.Status = v.Status
	s.StatusDescription = v.Description
	s.Runtime = v.Runtime
	s.Memory = v.Memory
	s.ErrorMessage = v.ErrorMessage
	s.JudgedAt = &judgedAt
	return nil
}

func (r *fakeSubmissionRepo) ListSubmissionsByUser(_ context.Context, userID string, filter model.SubmissionFilter) ([]model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Submission{}
	for _, s := range r.subs {
		if s.UserID != userID {
			continue
		}
		if filter.ProblemID != "" && s.ProblemID != filter.ProblemID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeSubmissionRepo) GetUserStats(_ context.Context, userID string) (model.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var st model.UserStats
	solved := map[string]bool{}
	for _, s := range r.subs {
		if s.UserID != userID {
			continue
		}
		st.TotalSubmissions++
		if s.Status == model.StatusAccepted {
			st.AcceptedSubmissions++
			solved[s.ProblemID] = true
		}
	}
	st.ProblemsSolved = len(solved)
	return st, nil
}

func (r *fakeSubmissionRepo) ListAcceptedForContest(ctx context.Context, contestID string) ([]model.AcceptedSubmission, error) {
	contest, err := r.contests.FindContestByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.AcceptedSubmission{}
	for _, s := range r.subs {
		if s.Status != model.StatusAccepted || !slices.Contains(contest.ProblemIDs, s.ProblemID) || !contest.HasParticipant(s.UserID) {
			continue
		}
		out = append(out, model.AcceptedSubmission{
			SubmissionID: s.ID, UserID: s.UserID, Username: r.usernames[s.UserID], ProblemID: s.ProblemID, CreatedAt: s.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].SubmissionID < out[j].SubmissionID
	})
	return out, nil
}

func (r *fakeSubmissionRepo) status(id string) model.SubmissionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subs[id].Status
}

type fakeProblemRepo struct {
	mu        sync.Mutex
	problems  map[string]*model.Problem
	testcases map[string][]model.Testcase
}

func newFakeProblemRepo(problems ...*model.Problem) *fakeProblemRepo {
	r := &fakeProblemRepo{problems: map[string]*model.Problem{}, testcases: map[string][]model.Testcase{}}
	for _, p := range problems {
		r.problems[p.ID] = p
	}
	return r
}

func (r *fakeProblemRepo) CreateProblem(_ context.Context, _ *sql.Tx, p *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.problems {
		if existing.Slug == p.Slug {
			return common.ErrConflict
		}
	}
	cp := *p
	r.problems[p.ID] = &cp
	return nil
}

func (r *fakeProblemRepo) FindProblemByID(_ context.Context, id string) (*model.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.problems[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProblemRepo) FindProblemBySlug(_ context.Context, slug string) (*model.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.problems {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeProblemRepo) UpdateProblem(_ context.Context, _ *sql.Tx, p *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.problems[p.ID]; !ok {
		return common.ErrNotFound
	}
	for id, existing := range r.problems {
		if id != p.ID && existing.Slug == p.Slug {
			return common.ErrConflict
		}
	}
	cp := *p
	r.problems[p.ID] = &cp
	return nil
}

func (r *fakeProblemRepo) DeleteProblem(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.problems[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.problems, id)
	delete(r.testcases, id)
	return nil
}

func (r *fakeProblemRepo) ListProblems(_ context.Context, limit, offset int, filter model.ProblemFilter) ([]model.Problem, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := []model.Problem{}
	for _, p := range r.problems {
		if filter.Difficulty != "" && p.Difficulty != filter.Difficulty {
			continue
		}
		if len(filter.Tags) > 0 && !slices.ContainsFunc(filter.Tags, func(t string) bool { return slices.Contains(p.Tags, t) }) {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *fakeProblemRepo) AddTestcases(_ context.Context, _ *sql.Tx, problemID string, tcs []model.Testcase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.testcases[problemID] = append(r.testcases[problemID], tcs...)
	return nil
}

func (r *fakeProblemRepo) GetTestcasesByProblemID(_ context.Context, problemID string) ([]model.Testcase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Testcase{}, r.testcases[problemID]...), nil
}

func (r *fakeProblemRepo) GetPublicTestcases(_ context.Context, problemID string) ([]model.Testcase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Testcase{}
	for _, tc := range r.testcases[problemID] {
		if tc.IsPublic {
			out = append(out, tc)
		}
	}
	return out, nil
}

type fakeContestRepo struct {
	mu       sync.Mutex
	contests map[string]*model.Contest
}

func newFakeContestRepo(contests ...*model.Contest) *fakeContestRepo {
	r := &fakeContestRepo{contests: map[string]*model.Contest{}}
	for _, c := range contests {
		r.contests[c.ID] = c
	}
	return r
}

func (r *fakeContestRepo) CreateContest(_ context.Context, _ *sql.Tx, c *model.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.contests[c.ID] = &cp
	return nil
}

func (r *fakeContestRepo) UpdateContest(_ context.Context, _ *sql.Tx, c *model.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contests[c.ID]; !ok {
		return common.ErrNotFound
	}
	cp := *c
	r.contests[c.ID] = &cp
	return nil
}

func (r *fakeContestRepo) DeleteContest(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contests[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.contests, id)
	return nil
}

func (r *fakeContestRepo) FindContestByID(_ context.Context, id string) (*model.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *c
	cp.ParticipantIDs = append([]string{}, c.ParticipantIDs...)
	return &cp, nil
}

func (r *fakeContestRepo) ListContests(_ context.Context, status model.ContestStatus, now time.Time) ([]model.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Contest{}
	for _, c := range r.contests {
		if status == "" || c.StatusAt(now) == status {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeContestRepo) AddParticipant(_ context.Context, contestID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[contestID]
	if !ok {
		return common.ErrNotFound
	}
	if c.HasParticipant(userID) {
		return common.ErrAlreadyRegistered
	}
	c.ParticipantIDs = append(c.ParticipantIDs, userID)
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return common.ErrConflict
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username })
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}

type fakeQueue struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (q *fakeQueue) Enqueue(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}
