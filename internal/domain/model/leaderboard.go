package model

import "time"

type LeaderboardEntry struct {
	Rank             int       `json:"rank"`
	UserID           string    `json:"user_id"`
	Username         string    `json:"username"`
	Score            int       `json:"score"`
	ProblemsSolved   int       `json:"problems_solved"`
	SolvedProblemIDs []string  `json:"solved_problem_ids"`
	LastAcceptedAt   time.Time `json:"last_accepted_at"`
}

// AcceptedSubmission is the projection the leaderboard folds over.
type AcceptedSubmission struct {
	SubmissionID string
	UserID       string
	Username     string
	ProblemID    string
	CreatedAt    time.Time
}
