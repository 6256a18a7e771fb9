package model

import (
	"time"
)

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"
)

func (d ProblemDifficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

const (
	DefaultTimeLimitSeconds = 2.0
	DefaultMemoryLimitKb    = 128000
)

type Problem struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Description string            `json:"description"`
	Difficulty  ProblemDifficulty `json:"difficulty"`
	Tags        []string          `json:"tags"`
	CreatedByID *string           `json:"created_by_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Samples     []Testcase        `json:"samples,omitempty"` // public test cases only
}

// ProblemFilter narrows a problem listing. A problem matches Tags when it
// carries at least one of them.
type ProblemFilter struct {
	Difficulty ProblemDifficulty
	Tags       []string
}

type Testcase struct {
	ID             string    `json:"id"`
	ProblemID      string    `json:"problem_id"`
	Input          string    `json:"input"`
	ExpectedOutput string    `json:"expected_output"`
	IsPublic       bool      `json:"is_public"`
	TimeLimit      float64   `json:"time_limit"`   // seconds
	MemoryLimit    int       `json:"memory_limit"` // KB
	SortOrder      int       `json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
}

// ApplyDefaults fills zero limits with the platform defaults.
func (tc *Testcase) ApplyDefaults() {
	if tc.TimeLimit <= 0 {
		tc.TimeLimit = DefaultTimeLimitSeconds
	}
	if tc.MemoryLimit <= 0 {
		tc.MemoryLimit = DefaultMemoryLimitKb
	}
}
