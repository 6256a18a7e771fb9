package model

// ExecutionRequest is one (source, language, stdin) run against the execution service.
type ExecutionRequest struct {
	SourceCode     []byte
	LanguageID     int
	Stdin          []byte
	ExpectedOutput []byte // nil when no comparison is wanted
	TimeLimit      float64
	MemoryLimit    int
}

// ExecutionResult is a validated execution service response for a single run.
type ExecutionResult struct {
	StatusID          int
	StatusDescription string
	Time              float64 // seconds
	Memory            int     // KB
	Stdout            *string
	Stderr            *string
	CompileOutput     *string
	Message           *string
}
