package judge0

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"tle_judge/internal/common"
	"tle_judge/internal/domain/model"
)

// Judge0 ids that never describe a finished run.
const (
	statusInQueue    = 1
	statusProcessing = 2
)

type Client struct {
	baseURL   string
	authToken string
	http      *http.Client
	log       *zap.Logger
}

func NewClient(baseURL, authToken string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		http:      &http.Client{Timeout: timeout},
		log:       log,
	}
}

type submissionRequest struct {
	SourceCode     string   `json:"source_code"`
	LanguageID     int      `json:"language_id"`
	Stdin          string   `json:"stdin"`
	ExpectedOutput *string  `json:"expected_output,omitempty"`
	CPUTimeLimit   *float64 `json:"cpu_time_limit,omitempty"`
	MemoryLimit    *int     `json:"memory_limit,omitempty"`
}

type submissionResponse struct {
	Status *struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
	Time          json.RawMessage `json:"time"`
	Memory        *int            `json:"memory"`
	Stdout        *string         `json:"stdout"`
	Stderr        *string         `json:"stderr"`
	CompileOutput *string         `json:"compile_output"`
	Message       *string         `json:"message"`
}

// Execute runs a single test case and waits for its verdict.
func (c *Client) Execute(ctx context.Context, req model.ExecutionRequest) (model.ExecutionResult, error) {
	payload := submissionRequest{
		SourceCode: encode(req.SourceCode),
		LanguageID: req.LanguageID,
		Stdin:      encode(req.Stdin),
	}
	if req.ExpectedOutput != nil {
		exp := encode(req.ExpectedOutput)
		payload.ExpectedOutput = &exp
	}
	if req.TimeLimit > 0 {
		payload.CPUTimeLimit = &req.TimeLimit
	}
	if req.MemoryLimit > 0 {
		payload.MemoryLimit = &req.MemoryLimit
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return model.ExecutionResult{}, fmt.Errorf("judge0: marshal request: %w", err)
	}

	var resp submissionResponse
	if err := c.do(ctx, http.MethodPost, "/submissions?base64_encoded=true&wait=true", body, &resp); err != nil {
		return model.ExecutionResult{}, err
	}
	return resp.toResult()
}

// Languages lists the execution service's language registry.
func (c *Client) Languages(ctx context.Context) ([]model.Language, error) {
	var langs []model.Language
	if err := c.do(ctx, http.MethodGet, "/languages", nil, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("judge0: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		httpReq.Header.Set("X-Auth-Token", c.authToken)
	}

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("judge0: %s %s: %v: %w", method, path, err, common.ErrExecutionService)
	}
	defer httpResp.Body.Close()

	c.log.Debug("judge0 call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return fmt.Errorf("judge0: %s %s returned %d: %s: %w",
			method, path, httpResp.StatusCode, strings.TrimSpace(string(snippet)), common.ErrExecutionService)
	}
	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("judge0: decode response: %v: %w", err, common.ErrExecutionService)
	}
	return nil
}

func (r submissionResponse) toResult() (model.ExecutionResult, error) {
	if r.Status == nil || r.Status.ID <= 0 {
		return model.ExecutionResult{}, fmt.Errorf("judge0: response has no status: %w", common.ErrExecutionService)
	}
	if r.Status.ID == statusInQueue || r.Status.ID == statusProcessing {
		return model.ExecutionResult{}, fmt.Errorf("judge0: run not finished (status %d): %w", r.Status.ID, common.ErrExecutionService)
	}
	if strings.TrimSpace(r.Status.Description) == "" {
		return model.ExecutionResult{}, fmt.Errorf("judge0: status %d has no description: %w", r.Status.ID, common.ErrExecutionService)
	}

	runtime, err := parseTime(r.Time)
	if err != nil {
		return model.ExecutionResult{}, fmt.Errorf("judge0: %v: %w", err, common.ErrExecutionService)
	}
	// time and memory are null when the run never started (compile errors).
	res := model.ExecutionResult{
		StatusID:          r.Status.ID,
		StatusDescription: r.Status.Description,
		Time:              runtime,
	}
	if r.Memory != nil {
		res.Memory = *r.Memory
	}

	fields := []struct {
		name string
		in   *string
		out  **string
	}{
		{"stdout", r.Stdout, &res.Stdout},
		{"stderr", r.Stderr, &res.Stderr},
		{"compile_output", r.CompileOutput, &res.CompileOutput},
		{"message", r.Message, &res.Message},
	}
	for _, f := range fields {
		if f.in == nil {
			continue
		}
		decoded, err := decode(*f.in)
		if err != nil {
			return model.ExecutionResult{}, fmt.Errorf("judge0: field %s: %v: %w", f.name, err, common.ErrExecutionService)
		}
		*f.out = &decoded
	}
	return res, nil
}

// parseTime accepts Judge0's string seconds ("0.012"), a bare number, or null.
func parseTime(raw json.RawMessage) (float64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, fmt.Errorf("invalid time %s", s)
		}
		s = str
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return v, nil
}

func encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// decode tolerates the line breaks Judge0 inserts into long base64 values.
func decode(s string) (string, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	b, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
