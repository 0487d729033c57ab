package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrRunNotFound is returned when no run has the requested id
var ErrRunNotFound = errors.New("run not found")

// RunError is the failure of one phase of a run
type RunError struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
}

// RunSummary is what a finished conversion reports to the ledger
type RunSummary struct {
	Kind         string
	OutputPath   string
	OutputDigest string
	Written      bool
	RankingCount int
	LiveCount    int
	Errors       []RunError
	StartedAt    time.Time
}

// RunStore persists conversion runs
type RunStore struct {
	db *gorm.DB
}

// NewRunStore migrates the ledger tables and returns a store over conn
func NewRunStore(conn *gorm.DB) (*RunStore, error) {
	if err := AutoMigrateRuns(conn); err != nil {
		return nil, fmt.Errorf("migrate run ledger: %w", err)
	}
	return &RunStore{db: conn}, nil
}

// Record stores a finished run. Unchanged is set when the digest matches the
// previous written run of the same kind and output path.
func (s *RunStore) Record(ctx context.Context, summary RunSummary) (*RunModel, error) {
	now := time.Now()
	startedAt := summary.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}

	run := RunModel{
		ID:           uuid.New().String(),
		Kind:         summary.Kind,
		Status:       runStatus(summary),
		OutputPath:   summary.OutputPath,
		OutputDigest: summary.OutputDigest,
		RankingCount: summary.RankingCount,
		LiveCount:    summary.LiveCount,
		CreatedAt:    startedAt,
		CompletedAt:  &now,
	}

	if len(summary.Errors) > 0 {
		data, err := json.Marshal(summary.Errors)
		if err != nil {
			return nil, err
		}
		run.Errors = string(data)
	}

	if summary.Written && summary.OutputDigest != "" {
		previous, err := s.LastDigest(ctx, summary.Kind, summary.OutputPath)
		if err != nil {
			return nil, err
		}
		run.Unchanged = previous == summary.OutputDigest
	}

	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	return &run, nil
}

// LastDigest returns the output digest of the latest written run, "" if none
func (s *RunStore) LastDigest(ctx context.Context, kind, outputPath string) (string, error) {
	var runs []RunModel
	err := s.db.WithContext(ctx).
		Where("kind = ? AND output_path = ? AND output_digest <> ''", kind, outputPath).
		Order("created_at DESC").
		Limit(1).
		Find(&runs).Error
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", nil
	}
	return runs[0].OutputDigest, nil
}

// List returns the most recent runs first
func (s *RunStore) List(ctx context.Context, limit int) ([]RunModel, error) {
	if limit <= 0 {
		limit = 50
	}
	runs := []RunModel{}
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// Get returns a single run by id
func (s *RunStore) Get(ctx context.Context, id string) (*RunModel, error) {
	var run RunModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// ErrorList decodes the stored phase errors
func (m RunModel) ErrorList() []RunError {
	if m.Errors == "" {
		return nil
	}
	var errs []RunError
	if err := json.Unmarshal([]byte(m.Errors), &errs); err != nil {
		return []RunError{{Phase: "ledger", Message: err.Error()}}
	}
	return errs
}

func runStatus(summary RunSummary) string {
	switch {
	case len(summary.Errors) == 0:
		return RunStatusCompleted
	case summary.Written:
		return RunStatusPartial
	default:
		return RunStatusFailed
	}
}
