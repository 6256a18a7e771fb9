// Package verdict turns raw execution service results into submission verdicts.
//
// Map is the per-test-case mapper; Collapse folds an ordered list of results
// into the single terminal verdict of a submission. Both are pure.
package verdict

import (
	"errors"

	"tle_judge/internal/domain/model"
)

// Judge0 status ids for the non-accepted outcomes.
const (
	statusWrongAnswer       = 4
	statusTimeLimitExceeded = 5
	statusCompilationError  = 6
	statusRuntimeFirst      = 7 // SIGSEGV
	statusRuntimeLast       = 12 // Other
)

// ErrNotInspected is returned when Collapse reaches a result that was never produced.
var ErrNotInspected = errors.New("verdict: test case result missing before first failure")

// Outcome is the mapped form of one test case result.
type Outcome struct {
	Accepted    bool
	Status      model.SubmissionStatus
	Description string
	Runtime     float64
	Memory      int
	Diagnostic  *string // nil when accepted
}

// Map classifies r. acceptedID is the execution service's canonical accepted code.
func Map(r model.ExecutionResult, acceptedID int) Outcome {
	out := Outcome{
		Accepted:    r.StatusID == acceptedID,
		Description: r.StatusDescription,
		Runtime:     r.Time,
		Memory:      r.Memory,
	}
	if out.Accepted {
		out.Status = model.StatusAccepted
		return out
	}

	out.Status = statusFor(r.StatusID)
	if out.Description == "" {
		out.Description = out.Status.Label()
	}
	out.Diagnostic = diagnostic(r, out.Description)
	return out
}

func statusFor(id int) model.SubmissionStatus {
	switch {
	case id == statusWrongAnswer:
		return model.StatusWrongAnswer
	case id == statusTimeLimitExceeded:
		return model.StatusTimeLimitExceeded
	case id == statusCompilationError:
		return model.StatusCompilationError
	case id >= statusRuntimeFirst && id <= statusRuntimeLast:
		return model.StatusRuntimeError
	default:
		return model.StatusInternalError
	}
}

// diagnostic picks stderr, then compile output, then the service message,
// then the status description. Empty strings count as absent.
func diagnostic(r model.ExecutionResult, description string) *string {
	for _, s := range []*string{r.Stderr, r.CompileOutput, r.Message} {
		if s != nil && *s != "" {
			v := *s
			return &v
		}
	}
	return &description
}

// Collapse scans results in test case order and stops at the first
// non-accepted one, which decides the verdict. Runtime and memory are the
// maxima over the accepted results inspected before stopping.
//
// A nil entry is a test case that was never executed; reaching one is an
// error because it means execution was skipped ahead of the deciding failure.
func Collapse(results []*model.ExecutionResult, acceptedID int) (model.Verdict, error) {
	v := model.Verdict{
		Status:      model.StatusAccepted,
		Description: model.StatusAccepted.Label(),
	}
	for _, r := range results {
		if r == nil {
			return model.Verdict{}, ErrNotInspected
		}
		o := Map(*r, acceptedID)
		if !o.Accepted {
			v.Status = o.Status
			v.Description = o.Description
			v.ErrorMessage = o.Diagnostic
			break
		}
		if o.Runtime > v.Runtime {
			v.Runtime = o.Runtime
		}
		if o.Memory > v.Memory {
			v.Memory = o.Memory
		}
	}
	return v, nil
}

// NoTestcases is the verdict for a problem that has nothing to run against.
func NoTestcases() model.Verdict {
	msg := "No test cases found for this problem"
	return model.Verdict{
		Status:       model.StatusInternalError,
		Description:  model.StatusInternalError.Label(),
		ErrorMessage: &msg,
	}
}
