package common

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

var marshalFailure = []byte(`{"error":"internal server error","code":"internal_error"}`)

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithDomainError answers with err's status and code. Server side
// failures are logged and their text is not sent to the client.
func RespondWithDomainError(w http.ResponseWriter, err error) {
	status := HTTPStatusFromError(err)
	body := ErrorResponse{Error: err.Error(), Code: ErrorCode(err)}
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
		body.Error = ErrInternalServer.Error()
	}
	RespondWithJSON(w, status, body)
}

func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("failed to marshal response",
			zap.String("payload", fmt.Sprintf("%T", payload)), zap.Error(err))
		code, response = http.StatusInternalServerError, marshalFailure
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		zap.L().Debug("client went away before the response was written", zap.Error(err))
	}
}
