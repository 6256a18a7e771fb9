package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict") // e.g., username already exists
	ErrInternalServer     = errors.New("internal server error")
	ErrValidation         = errors.New("validation failed")
	ErrServiceUnavailable = errors.New("service unavailable")

	// Evaluation
	ErrNoTestCases      = errors.New("no test cases found for problem")
	ErrExecutionService = errors.New("execution service error") // transport failure or malformed response
	ErrAlreadyJudged    = errors.New("submission already has a verdict")

	// Contests
	ErrAlreadyRegistered    = errors.New("already registered for this contest")
	ErrContestEnded         = errors.New("contest has ended")
	ErrInvalidContestWindow = errors.New("contest start time must be before end time")
)

type errorKind struct {
	err    error
	status int
	code   string
}

// Checked in order; the first match wins.
var errorKinds = []errorKind{
	{ErrNotFound, http.StatusNotFound, "not_found"},
	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{ErrForbidden, http.StatusForbidden, "forbidden"},
	{ErrContestEnded, http.StatusForbidden, "contest_ended"},
	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{ErrValidation, http.StatusBadRequest, "validation_failed"},
	{ErrInvalidContestWindow, http.StatusBadRequest, "invalid_contest_window"},
	{ErrAlreadyRegistered, http.StatusConflict, "already_registered"},
	{ErrAlreadyJudged, http.StatusConflict, "already_judged"},
	{ErrConflict, http.StatusConflict, "conflict"},
	{ErrExecutionService, http.StatusBadGateway, "execution_service_error"},
	{ErrServiceUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
	{ErrNoTestCases, http.StatusUnprocessableEntity, "no_test_cases"},
}

func kindOf(err error) errorKind {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k
		}
	}
	if IsUniqueViolation(err) {
		return errorKind{status: http.StatusConflict, code: "conflict"}
	}
	return errorKind{status: http.StatusInternalServerError, code: "internal_error"}
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return kindOf(err).status
}

// ErrorCode is the stable, machine readable name of err's kind.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	return kindOf(err).code
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
