package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeyogi-ai/backend/internal/model"
)

type AggregateRepository struct {
	pool *pgxpool.Pool
}

func NewAggregateRepository(pool *pgxpool.Pool) *AggregateRepository {
	return &AggregateRepository{pool: pool}
}

func (r *AggregateRepository) Get(ctx context.Context, userID string) (*model.AggregatedMetrics, error) {
	var (
		agg         model.AggregatedMetrics
		dailyJSON   []byte
		monthlyJSON []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, total_optimizations, total_ai_completions,
			total_files_optimized, total_security_issues_fixed, total_co2_saved_grams,
			average_ai_confidence_score, languages_optimized, optimization_types,
			daily_optimizations, monthly_metrics,
			first_optimization, last_optimization, version
		FROM aggregated_metrics WHERE user_id = $1`,
		userID,
	).Scan(
		&agg.UserID, &agg.TotalOptimizations, &agg.TotalAICompletions,
		&agg.TotalFilesOptimized, &agg.TotalSecurityIssuesFixed, &agg.TotalCO2SavedGrams,
		&agg.AverageAIConfidenceScore, &agg.LanguagesOptimized, &agg.OptimizationTypes,
		&dailyJSON, &monthlyJSON,
		&agg.FirstOptimization, &agg.LastOptimization, &agg.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(dailyJSON, &agg.DailyOptimizations); err != nil {
		return nil, fmt.Errorf("decode daily buckets: %w", err)
	}
	if err := json.Unmarshal(monthlyJSON, &agg.MonthlyMetrics); err != nil {
		return nil, fmt.Errorf("decode monthly buckets: %w", err)
	}
	return &agg, nil
}

func (r *AggregateRepository) Create(ctx context.Context, agg *model.AggregatedMetrics) error {
	dailyJSON, monthlyJSON, err := encodeBuckets(agg)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO aggregated_metrics
			(user_id, total_optimizations, total_ai_completions,
			 total_files_optimized, total_security_issues_fixed, total_co2_saved_grams,
			 average_ai_confidence_score, languages_optimized, optimization_types,
			 daily_optimizations, monthly_metrics,
			 first_optimization, last_optimization, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1)`,
		agg.UserID, agg.TotalOptimizations, agg.TotalAICompletions,
		agg.TotalFilesOptimized, agg.TotalSecurityIssuesFixed, agg.TotalCO2SavedGrams,
		agg.AverageAIConfidenceScore, agg.LanguagesOptimized, agg.OptimizationTypes,
		dailyJSON, monthlyJSON,
		agg.FirstOptimization, agg.LastOptimization,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// Update writes the merged record back, guarded by the version read by Get.
// A concurrent merge that committed first leaves zero rows matching and the
// caller re-reads and re-merges.
func (r *AggregateRepository) Update(ctx context.Context, agg *model.AggregatedMetrics) error {
	dailyJSON, monthlyJSON, err := encodeBuckets(agg)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE aggregated_metrics SET
			total_optimizations = $2,
			total_ai_completions = $3,
			total_files_optimized = $4,
			total_security_issues_fixed = $5,
			total_co2_saved_grams = $6,
			average_ai_confidence_score = $7,
			languages_optimized = $8,
			optimization_types = $9,
			daily_optimizations = $10,
			monthly_metrics = $11,
			last_optimization = $12,
			version = version + 1
		WHERE user_id = $1 AND version = $13`,
		agg.UserID, agg.TotalOptimizations, agg.TotalAICompletions,
		agg.TotalFilesOptimized, agg.TotalSecurityIssuesFixed, agg.TotalCO2SavedGrams,
		agg.AverageAIConfidenceScore, agg.LanguagesOptimized, agg.OptimizationTypes,
		dailyJSON, monthlyJSON,
		agg.LastOptimization, agg.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func encodeBuckets(agg *model.AggregatedMetrics) (daily, monthly []byte, err error) {
	daily, err = json.Marshal(agg.DailyOptimizations)
	if err != nil {
		return nil, nil, fmt.Errorf("encode daily buckets: %w", err)
	}
	monthly, err = json.Marshal(agg.MonthlyMetrics)
	if err != nil {
		return nil, nil, fmt.Errorf("encode monthly buckets: %w", err)
	}
	return daily, monthly, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
