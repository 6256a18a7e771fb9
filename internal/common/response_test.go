package common

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeGlobalLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondWithDomainError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithDomainError(rec, fmt.Errorf("user u1 in contest c1: %w", ErrAlreadyRegistered))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeError(t, rec)
	assert.Equal(t, "already_registered", body.Code)
	assert.Contains(t, body.Error, "contest c1")
}

func TestRespondWithDomainError_HidesInternalDetail(t *testing.T) {
	logs := observeGlobalLogs(t)
	rec := httptest.NewRecorder()
	RespondWithDomainError(rec, fmt.Errorf("pgSubmissionRepository.GetUserStats: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "internal_error", body.Code)
	assert.Equal(t, ErrInternalServer.Error(), body.Error)
	require.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

func TestRespondWithJSON_MarshalFailure(t *testing.T) {
	logs := observeGlobalLogs(t)
	rec := httptest.NewRecorder()
	RespondWithJSON(rec, http.StatusOK, map[string]float64{"runtime": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeError(t, rec).Code)
	assert.Equal(t, 1, logs.FilterMessage("failed to marshal response").Len())
}

func TestRespondWithError_NoCode(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, http.StatusUnauthorized, "Authorization token required")

	assert.JSONEq(t, `{"error":"Authorization token required"}`, rec.Body.String())
}
