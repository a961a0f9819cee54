package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeyogi-ai/backend/internal/model"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Append(ctx context.Context, s *model.OptimizationSession) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO optimization_sessions
			(id, user_id, ai_completions, files_optimized, security_issues_fixed,
			 co2_saved_grams, ai_confidence_score, performance_score,
			 language, optimization_type, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.UserID, s.AICompletions, s.FilesOptimized, s.SecurityIssuesFixed,
		s.CO2SavedGrams, s.AIConfidenceScore, s.PerformanceScore,
		s.Language, s.OptimizationType, s.Payload, s.CreatedAt,
	)
	return err
}

// ListRecent returns the user's newest sessions first.
func (r *SessionRepository) ListRecent(ctx context.Context, userID string, limit int) ([]model.OptimizationSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, ai_completions, files_optimized, security_issues_fixed,
			co2_saved_grams, ai_confidence_score, performance_score,
			language, optimization_type, payload, created_at
		FROM optimization_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.OptimizationSession
	for rows.Next() {
		var s model.OptimizationSession
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.AICompletions, &s.FilesOptimized, &s.SecurityIssuesFixed,
			&s.CO2SavedGrams, &s.AIConfidenceScore, &s.PerformanceScore,
			&s.Language, &s.OptimizationType, &s.Payload, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
