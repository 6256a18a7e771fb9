package model

// PlatformStats is the admin dashboard summary.
type PlatformStats struct {
	Users              int   `json:"users"`
	Problems           int   `json:"problems"`
	Contests           int   `json:"contests"`
	Submissions        int   `json:"submissions"`
	PendingSubmissions int   `json:"pending_submissions"`
	QueueDepth         int64 `json:"queue_depth"`
}
