package model

import "time"

type MonitorStatus string

const (
	MonitorIdle     MonitorStatus = "idle"
	MonitorChecking MonitorStatus = "monitoring"
	MonitorErrored  MonitorStatus = "error"
)

// CommitInfo describes the newest commit reported by the optimizer backend.
type CommitInfo struct {
	SHA     string `json:"sha"`
	Author  string `json:"author"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Date    string `json:"date"`
	URL     string `json:"url"`
	TreeSHA string `json:"tree_sha"`
}

// CheckResult is the optimizer backend's answer to a single repository check.
type CheckResult struct {
	Success      bool        `json:"success"`
	HasNewPush   bool        `json:"has_new_push"`
	LatestCommit *CommitInfo `json:"latest_commit,omitempty"`
	PreviousSHA  string      `json:"previous_sha,omitempty"`
	PRCreated    bool        `json:"pr_created"`
	PRURL        string      `json:"pr_url,omitempty"`
	PRNumber     int         `json:"pr_number,omitempty"`
	Message      string      `json:"message,omitempty"`
}

// MonitorState is the monitor's view of the watched repository.
// Counters reset only on process restart; nothing here is persisted.
type MonitorState struct {
	IsActive          bool          `json:"is_active"`
	RepoURL           string        `json:"repo_url"`
	LastKnownSHA      string        `json:"last_known_sha"`
	TotalChecks       int64         `json:"total_checks"`
	NewPushesDetected int64         `json:"new_pushes_detected"`
	PRsCreated        int64         `json:"prs_created"`
	LastCheckAt       *time.Time    `json:"last_check_at"`
	Status            MonitorStatus `json:"status"`
	LatestCommit      *CommitInfo   `json:"latest_commit,omitempty"`
	LastResult        *CheckResult  `json:"last_result,omitempty"`
}

type LogSeverity string

const (
	LogInfo    LogSeverity = "info"
	LogSuccess LogSeverity = "success"
	LogError   LogSeverity = "error"
)

type LogEntry struct {
	Timestamp time.Time   `json:"timestamp"`
	Message   string      `json:"message"`
	Severity  LogSeverity `json:"severity"`
}
