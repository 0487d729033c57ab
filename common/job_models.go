package common

import (
	"time"

	"gorm.io/gorm"
)

// Run kinds
const (
	RunKindSeed     = "seed"
	RunKindDefaults = "defaults"
	RunKindLoad     = "load"
)

// Run statuses
const (
	RunStatusProcessing = "processing"
	RunStatusCompleted  = "completed"
	RunStatusPartial    = "partial" // at least one phase failed, output still written
	RunStatusFailed     = "failed"
)

// RunModel tracks one conversion run
type RunModel struct {
	ID           string     `gorm:"primaryKey;type:text" json:"id"`
	Kind         string     `gorm:"not null;index" json:"kind"` // seed, defaults, load
	Status       string     `gorm:"not null" json:"status"`     // processing, completed, partial, failed
	OutputPath   string     `gorm:"index" json:"output_path,omitempty"`
	OutputDigest string     `json:"output_digest,omitempty"` // hex blake2b-256 of the written module
	Unchanged    bool       `gorm:"not null;default:false" json:"unchanged"`
	RankingCount int        `gorm:"default:0" json:"ranking_count"`
	LiveCount    int        `gorm:"default:0" json:"live_count"`
	Errors       string     `gorm:"type:text" json:"-"` // JSON array of PhaseError
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ApiMetric tracks API performance metrics
type ApiMetric struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RequestID  string    `gorm:"not null" json:"request_id"`
	Endpoint   string    `gorm:"not null" json:"endpoint"`
	Method     string    `gorm:"not null" json:"method"`
	StatusCode int       `gorm:"not null" json:"status_code"`
	DurationMs int       `gorm:"not null" json:"duration_ms"`
	Errors     string    `gorm:"type:text" json:"errors,omitempty"` // JSON errors
	Timestamp  time.Time `gorm:"not null" json:"timestamp"`
}

func (RunModel) TableName() string  { return "conversion_runs" }
func (ApiMetric) TableName() string { return "api_metrics" }

// AutoMigrateRuns creates run ledger and metrics tables
func AutoMigrateRuns(conn *gorm.DB) error {
	return conn.AutoMigrate(&RunModel{}, &ApiMetric{})
}
