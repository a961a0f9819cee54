package model

import "time"

// DailyBucket is one calendar day's roll-up, keyed by "YYYY-MM-DD".
type DailyBucket struct {
	Date     string  `json:"date"`
	Count    int     `json:"count"`
	CO2Saved float64 `json:"co2_saved"`
}

// MonthlyBucket is one calendar month's roll-up, keyed by "YYYY-MM".
type MonthlyBucket struct {
	Month         string  `json:"month"`
	Optimizations int     `json:"optimizations"`
	Performance   float64 `json:"performance"`
	CO2Saved      float64 `json:"co2_saved"`
}

// AggregatedMetrics is the single denormalized per-user summary the
// dashboard reads, maintained by merging one session at a time.
type AggregatedMetrics struct {
	UserID                   string          `json:"user_id"`
	TotalOptimizations       int64           `json:"total_optimizations"`
	TotalAICompletions       int64           `json:"total_ai_completions"`
	TotalFilesOptimized      int64           `json:"total_files_optimized"`
	TotalSecurityIssuesFixed int64           `json:"total_security_issues_fixed"`
	TotalCO2SavedGrams       float64         `json:"total_co2_saved_grams"`
	AverageAIConfidenceScore float64         `json:"average_ai_confidence_score"`
	LanguagesOptimized       []string        `json:"languages_optimized"`
	OptimizationTypes        []string        `json:"optimization_types"`
	DailyOptimizations       []DailyBucket   `json:"daily_optimizations"`
	MonthlyMetrics           []MonthlyBucket `json:"monthly_metrics"`
	FirstOptimization        time.Time       `json:"first_optimization"`
	LastOptimization         time.Time       `json:"last_optimization"`

	// Version guards read-modify-write merges; not exposed over the API.
	Version int64 `json:"-"`
}
