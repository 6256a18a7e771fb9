package model

import "time"

type SubmissionStatus string

const (
	StatusPending           SubmissionStatus = "Pending"
	StatusAccepted          SubmissionStatus = "Accepted"
	StatusWrongAnswer       SubmissionStatus = "WrongAnswer"
	StatusTimeLimitExceeded SubmissionStatus = "TimeLimitExceeded"
	StatusCompilationError  SubmissionStatus = "CompilationError"
	StatusRuntimeError      SubmissionStatus = "RuntimeError"
	StatusInternalError     SubmissionStatus = "InternalError"
)

// IsTerminal reports whether no further transition may leave s.
func (s SubmissionStatus) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusWrongAnswer, StatusTimeLimitExceeded,
		StatusCompilationError, StatusRuntimeError, StatusInternalError:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s SubmissionStatus) Valid() bool {
	return s == StatusPending || s.IsTerminal()
}

// Label is the human readable form used when the execution service gave none.
func (s SubmissionStatus) Label() string {
	switch s {
	case StatusWrongAnswer:
		return "Wrong Answer"
	case StatusTimeLimitExceeded:
		return "Time Limit Exceeded"
	case StatusCompilationError:
		return "Compilation Error"
	case StatusRuntimeError:
		return "Runtime Error"
	case StatusInternalError:
		return "Internal Error"
	}
	return string(s)
}

type Submission struct {
	ID                string           `json:"id"`
	UserID            string           `json:"user_id"`
	ProblemID         string           `json:"problem_id"`
	Code              string           `json:"code"`
	LanguageID        int              `json:"language_id"`
	Status            SubmissionStatus `json:"status"`
	StatusDescription string           `json:"status_description"` // execution service wording, e.g. "Runtime Error (NZEC)"
	Runtime           float64          `json:"runtime"`            // seconds, as reported by the execution service
	Memory            int              `json:"memory"`             // KB
	ErrorMessage      *string          `json:"error_message,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	JudgedAt          *time.Time       `json:"judged_at,omitempty"`
}

// Verdict is the terminal outcome written onto a Pending submission.
type Verdict struct {
	Status       SubmissionStatus
	Description  string
	Runtime      float64
	Memory       int
	ErrorMessage *string
}

type SubmissionFilter struct {
	ProblemID string
	Status    SubmissionStatus
}

type UserStats struct {
	TotalSubmissions    int `json:"total_submissions"`
	AcceptedSubmissions int `json:"accepted_submissions"`
	ProblemsSolved      int `json:"problems_solved"`
}
