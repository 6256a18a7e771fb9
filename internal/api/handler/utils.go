package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"tle_judge/internal/common"
)

func parsePositiveInt(s string, defaultVal int) int {
	if val, err := strconv.Atoi(s); err == nil && val > 0 {
		return val
	}
	return defaultVal
}

// parseCommaSeparated accepts both ?tags=a,b and ?tags=a&tags=b.
func parseCommaSeparated(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

func respondErr(w http.ResponseWriter, err error) {
	common.RespondWithDomainError(w, err)
}
