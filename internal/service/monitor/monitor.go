package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/codeyogi-ai/backend/internal/model"
)

const (
	// DefaultInterval is the fixed polling cadence between repository checks.
	DefaultInterval = 60 * time.Second

	// DefaultCheckTimeout bounds a single optimizer backend call; a hung
	// request must not leave the monitor stuck in "monitoring".
	DefaultCheckTimeout = 30 * time.Second

	// logCapacity bounds the in-memory log ring; older entries are dropped.
	logCapacity = 20
)

var (
	ErrEmptyRepoURL  = errors.New("repository URL is empty")
	ErrNotConfigured = errors.New("no repository configured")
	ErrCheckInFlight = errors.New("check already in flight")
)

type checkClient interface {
	CheckAndOptimize(ctx context.Context, repoURL, lastKnownSHA, githubToken string) (*model.CheckResult, error)
}

// Config is the monitoring target. LastKnownSHA and AuthToken are optional.
type Config struct {
	RepoURL      string
	LastKnownSHA string
	AuthToken    string
}

// ConfigUpdate shallow-merges into the current config; nil fields are left alone.
type ConfigUpdate struct {
	RepoURL      *string
	LastKnownSHA *string
	AuthToken    *string
}

// Monitor polls the optimizer backend for new pushes to one repository.
// Checks are single-flight: a check requested while another is outstanding
// is rejected rather than run concurrently.
type Monitor struct {
	client       checkClient
	interval     time.Duration
	checkTimeout time.Duration

	mu        sync.Mutex
	cancel    context.CancelFunc
	gen       uint64 // bumped on Start/Stop; results from a stale generation are dropped
	inFlight  bool
	authToken string
	state     model.MonitorState
	logs      []model.LogEntry
}

func New(client checkClient, interval, checkTimeout time.Duration) *Monitor {
	return &Monitor{
		client:       client,
		interval:     interval,
		checkTimeout: checkTimeout,
		state:        model.MonitorState{Status: model.MonitorIdle},
	}
}

// Start applies the config, performs one immediate check, and arms the
// polling loop. Starting while already active replaces the previous loop
// so two loops never poll side by side.
// The goroutine uses a context derived from context.Background so it
// survives after the calling HTTP request completes.
func (m *Monitor) Start(cfg Config) error {
	m.mu.Lock()

	if strings.TrimSpace(cfg.RepoURL) == "" {
		m.appendLog(model.LogError, "Cannot start monitoring: repository URL is empty")
		m.mu.Unlock()
		return ErrEmptyRepoURL
	}

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	monCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.gen++

	m.state.IsActive = true
	m.state.RepoURL = cfg.RepoURL
	m.state.LastKnownSHA = cfg.LastKnownSHA
	m.authToken = cfg.AuthToken
	m.state.Status = model.MonitorChecking
	m.appendLog(model.LogInfo, "Monitoring started")
	m.mu.Unlock()

	go m.run(monCtx)
	return nil
}

// Stop cancels the polling loop. Idempotent: stopping an inactive monitor
// only adds a log line. A check already in flight completes but its result
// is dropped (the generation it belongs to is gone).
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	m.state.IsActive = false
	m.state.Status = model.MonitorIdle
	m.appendLog(model.LogInfo, "Monitoring stopped")
}

// CheckNow runs a single on-demand check, independent of the timer.
func (m *Monitor) CheckNow(ctx context.Context) error {
	return m.check(ctx)
}

// UpdateConfig merges the given fields without touching the polling loop.
func (m *Monitor) UpdateConfig(update ConfigUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if update.RepoURL != nil {
		m.state.RepoURL = *update.RepoURL
	}
	if update.LastKnownSHA != nil {
		m.state.LastKnownSHA = *update.LastKnownSHA
	}
	if update.AuthToken != nil {
		m.authToken = *update.AuthToken
	}
}

// IsActive reports whether the polling loop is armed.
func (m *Monitor) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.IsActive
}

// Snapshot returns a copy of the monitor state. The auth token never
// leaves the monitor.
func (m *Monitor) Snapshot() model.MonitorState {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.state
	if s.LastCheckAt != nil {
		t := *s.LastCheckAt
		s.LastCheckAt = &t
	}
	if s.LatestCommit != nil {
		c := *s.LatestCommit
		s.LatestCommit = &c
	}
	if s.LastResult != nil {
		r := *s.LastResult
		if r.LatestCommit != nil {
			c := *r.LatestCommit
			r.LatestCommit = &c
		}
		s.LastResult = &r
	}
	return s
}

// Logs returns a copy of the bounded log ring, oldest first.
func (m *Monitor) Logs() []model.LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.LogEntry, len(m.logs))
	copy(out, m.logs)
	return out
}

func (m *Monitor) run(ctx context.Context) {
	slog.Info("monitor loop started", "interval", m.interval)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("monitor loop panicked", "error", r, "stack", string(debug.Stack()))
			m.mu.Lock()
			m.cancel = nil
			m.gen++
			m.inFlight = false
			m.state.IsActive = false
			m.state.Status = model.MonitorErrored
			m.appendLog(model.LogError, fmt.Sprintf("Monitoring halted by panic: %v", r))
			m.mu.Unlock()
		}
	}()

	m.check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

// check runs one request/response cycle against the optimizer backend.
// A failed check degrades status to error but never stops the loop; the
// next tick retries at the fixed interval.
func (m *Monitor) check(ctx context.Context) error {
	m.mu.Lock()
	if m.state.RepoURL == "" {
		m.appendLog(model.LogError, "Cannot check repository: no repository configured")
		m.mu.Unlock()
		return ErrNotConfigured
	}
	if m.inFlight {
		m.appendLog(model.LogInfo, "Check already in flight, skipping")
		m.mu.Unlock()
		return ErrCheckInFlight
	}
	m.inFlight = true
	gen := m.gen
	repoURL := m.state.RepoURL
	lastSHA := m.state.LastKnownSHA
	token := m.authToken
	now := time.Now()
	m.state.Status = model.MonitorChecking
	m.state.TotalChecks++
	m.state.LastCheckAt = &now
	m.appendLog(model.LogInfo, "Checking repository for new pushes...")
	m.mu.Unlock()

	checkCtx, cancel := context.WithTimeout(ctx, m.checkTimeout)
	defer cancel()

	result, err := m.client.CheckAndOptimize(checkCtx, repoURL, lastSHA, token)
	if err == nil && !result.Success {
		err = fmt.Errorf("backend reported failure: %s", result.Message)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false

	if m.gen != gen {
		// Stopped or restarted while this check was in flight.
		return nil
	}

	if err != nil {
		m.state.Status = model.MonitorErrored
		m.appendLog(model.LogError, fmt.Sprintf("Check failed: %v", err))
		slog.Error("repository check failed", "repo_url", repoURL, "error", err)
		return err
	}

	m.state.Status = model.MonitorIdle
	m.state.LatestCommit = result.LatestCommit
	m.state.LastResult = result

	if !result.HasNewPush {
		m.appendLog(model.LogInfo, "No new pushes detected")
		return nil
	}

	m.state.NewPushesDetected++
	if result.LatestCommit != nil {
		// The only place the checkpoint SHA advances.
		m.state.LastKnownSHA = result.LatestCommit.SHA
	}
	msg := result.Message
	if msg == "" {
		msg = "New push detected"
	}
	m.appendLog(model.LogSuccess, msg)

	if result.PRCreated {
		m.state.PRsCreated++
		m.appendLog(model.LogSuccess, fmt.Sprintf("PR #%d created: %s", result.PRNumber, result.PRURL))
		slog.Info("pull request created", "repo_url", repoURL, "pr_number", result.PRNumber)
	}
	return nil
}

// appendLog must be called with m.mu held.
func (m *Monitor) appendLog(severity model.LogSeverity, message string) {
	m.logs = append(m.logs, model.LogEntry{
		Timestamp: time.Now(),
		Message:   message,
		Severity:  severity,
	})
	if len(m.logs) > logCapacity {
		m.logs = m.logs[len(m.logs)-logCapacity:]
	}
}
