package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OptimizationSession is one completed optimization action's metrics.
// Rows are append-only; nothing updates a session after it is written.
type OptimizationSession struct {
	ID                  uuid.UUID       `json:"id"`
	UserID              string          `json:"user_id"`
	AICompletions       int             `json:"ai_completions"`
	FilesOptimized      int             `json:"files_optimized"`
	SecurityIssuesFixed int             `json:"security_issues_fixed"`
	CO2SavedGrams       float64         `json:"co2_saved_grams"`
	AIConfidenceScore   float64         `json:"ai_confidence_score"`
	PerformanceScore    float64         `json:"performance_score"`
	Language            string          `json:"language,omitempty"`
	OptimizationType    string          `json:"optimization_type,omitempty"`
	Payload             json.RawMessage `json:"payload,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}
