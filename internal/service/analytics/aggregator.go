package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/codeyogi-ai/backend/internal/model"
	"github.com/codeyogi-ai/backend/internal/repository"
)

const (
	// mergeRetryLimit bounds the re-read/re-merge loop when a concurrent
	// save wins the version check first.
	mergeRetryLimit = 3

	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

var ErrMergeContention = errors.New("aggregate merge retries exhausted")

type sessionStore interface {
	Append(ctx context.Context, session *model.OptimizationSession) error
	ListRecent(ctx context.Context, userID string, limit int) ([]model.OptimizationSession, error)
}

type aggregateStore interface {
	Get(ctx context.Context, userID string) (*model.AggregatedMetrics, error)
	Create(ctx context.Context, agg *model.AggregatedMetrics) error
	Update(ctx context.Context, agg *model.AggregatedMetrics) error
}

// Aggregator records each optimization session and folds its metrics into
// the per-user aggregate the dashboard reads. It holds no durable cache;
// every merge re-reads the current aggregate before writing.
type Aggregator struct {
	sessions   sessionStore
	aggregates aggregateStore
	now        func() time.Time
}

func New(sessions sessionStore, aggregates aggregateStore) *Aggregator {
	return &Aggregator{
		sessions:   sessions,
		aggregates: aggregates,
		now:        time.Now,
	}
}

// SaveSessionMetrics appends the session to the user's immutable log, then
// merges it into the aggregate. The first session for a user creates the
// aggregate from the session's raw values. A version conflict on the write
// triggers a re-read and re-merge, up to mergeRetryLimit attempts.
//
// The session append and the merge are not one transaction: if the merge
// fails the session is already recorded, and the error is returned to the
// caller to surface or retry.
func (a *Aggregator) SaveSessionMetrics(ctx context.Context, session *model.OptimizationSession) error {
	if session.UserID == "" {
		return errors.New("user id is required")
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = a.now()

	if err := a.sessions.Append(ctx, session); err != nil {
		return fmt.Errorf("append session: %w", err)
	}

	for attempt := 1; attempt <= mergeRetryLimit; attempt++ {
		agg, err := a.aggregates.Get(ctx, session.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			err = a.aggregates.Create(ctx, a.firstAggregate(session))
			if errors.Is(err, repository.ErrDuplicate) {
				// Another save created the aggregate first; merge into it.
				continue
			}
			if err != nil {
				return fmt.Errorf("create aggregate: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("read aggregate: %w", err)
		}

		a.merge(agg, session)

		err = a.aggregates.Update(ctx, agg)
		if errors.Is(err, repository.ErrVersionConflict) {
			slog.Info("aggregate version conflict, retrying merge",
				"user_id", session.UserID, "attempt", attempt)
			continue
		}
		if err != nil {
			return fmt.Errorf("write aggregate: %w", err)
		}
		return nil
	}
	return ErrMergeContention
}

// GetAggregatedAnalytics returns the user's aggregate, or
// repository.ErrNotFound when no session has ever been saved.
func (a *Aggregator) GetAggregatedAnalytics(ctx context.Context, userID string) (*model.AggregatedMetrics, error) {
	return a.aggregates.Get(ctx, userID)
}

// GetRecentOptimizations returns the user's most recent sessions,
// newest first. A non-positive limit defaults to 10; the cap is 100.
func (a *Aggregator) GetRecentOptimizations(ctx context.Context, userID string, limit int) ([]model.OptimizationSession, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return a.sessions.ListRecent(ctx, userID, limit)
}

func (a *Aggregator) firstAggregate(s *model.OptimizationSession) *model.AggregatedMetrics {
	now := a.now()
	agg := &model.AggregatedMetrics{
		UserID:                   s.UserID,
		TotalOptimizations:       1,
		TotalAICompletions:       int64(s.AICompletions),
		TotalFilesOptimized:      int64(s.FilesOptimized),
		TotalSecurityIssuesFixed: int64(s.SecurityIssuesFixed),
		TotalCO2SavedGrams:       s.CO2SavedGrams,
		AverageAIConfidenceScore: s.AIConfidenceScore,
		DailyOptimizations: []model.DailyBucket{
			{Date: now.Format("2006-01-02"), Count: 1, CO2Saved: s.CO2SavedGrams},
		},
		MonthlyMetrics: []model.MonthlyBucket{
			{Month: now.Format("2006-01"), Optimizations: 1, Performance: s.PerformanceScore, CO2Saved: s.CO2SavedGrams},
		},
		FirstOptimization: now,
		LastOptimization:  now,
	}
	if s.Language != "" {
		agg.LanguagesOptimized = []string{s.Language}
	}
	if s.OptimizationType != "" {
		agg.OptimizationTypes = []string{s.OptimizationType}
	}
	return agg
}

// merge folds one session into the aggregate in place.
// FirstOptimization is never touched once set.
func (a *Aggregator) merge(agg *model.AggregatedMetrics, s *model.OptimizationSession) {
	now := a.now()

	prior := float64(agg.TotalOptimizations)
	agg.TotalOptimizations++
	agg.TotalAICompletions += int64(s.AICompletions)
	agg.TotalFilesOptimized += int64(s.FilesOptimized)
	agg.TotalSecurityIssuesFixed += int64(s.SecurityIssuesFixed)
	agg.TotalCO2SavedGrams += s.CO2SavedGrams

	// Weighted running average over the pre-merge session count.
	agg.AverageAIConfidenceScore = (agg.AverageAIConfidenceScore*prior + s.AIConfidenceScore) / (prior + 1)

	agg.LanguagesOptimized = appendUnique(agg.LanguagesOptimized, s.Language)
	agg.OptimizationTypes = appendUnique(agg.OptimizationTypes, s.OptimizationType)

	upsertDaily(&agg.DailyOptimizations, now.Format("2006-01-02"), s.CO2SavedGrams)
	upsertMonthly(&agg.MonthlyMetrics, now.Format("2006-01"), s.PerformanceScore, s.CO2SavedGrams)

	agg.LastOptimization = now
}

func appendUnique(list []string, value string) []string {
	if value == "" {
		return list
	}
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

func upsertDaily(buckets *[]model.DailyBucket, date string, co2 float64) {
	for i := len(*buckets) - 1; i >= 0; i-- {
		if (*buckets)[i].Date == date {
			(*buckets)[i].Count++
			(*buckets)[i].CO2Saved += co2
			return
		}
	}
	*buckets = append(*buckets, model.DailyBucket{Date: date, Count: 1, CO2Saved: co2})
}

func upsertMonthly(buckets *[]model.MonthlyBucket, month string, performance, co2 float64) {
	for i := len(*buckets) - 1; i >= 0; i-- {
		if (*buckets)[i].Month == month {
			(*buckets)[i].Optimizations++
			(*buckets)[i].CO2Saved += co2
			// Performance is a simple two-way average with the stored
			// value, not weighted by the bucket count.
			(*buckets)[i].Performance = ((*buckets)[i].Performance + performance) / 2
			return
		}
	}
	*buckets = append(*buckets, model.MonthlyBucket{
		Month: month, Optimizations: 1, Performance: performance, CO2Saved: co2,
	})
}
