// Package audit persists one row per handled collection request. It records
// routing facts only: never tokens, never records.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/cms-gateway/pkg/database"
)

// RequestLog is one audited gateway request.
type RequestLog struct {
	ID         uint      `gorm:"primaryKey"`
	RequestID  string    `gorm:"size:36;index"`
	CreatedAt  time.Time `gorm:"index"`
	ProviderID string    `gorm:"index"`
	Collection string    `gorm:"index"`

	// Outcome is "ok", "validation" or "transport".
	Outcome    string
	StatusCode int
	TotalItems int
	DurationMs int64
	Error      string
}

// Recorder is the write side used by the gateway.
type Recorder interface {
	Record(ctx context.Context, entry *RequestLog) error
}

// Store is a gorm-backed Recorder.
type Store struct {
	db     *gorm.DB
	logger hclog.Logger
}

var _ Recorder = (*Store)(nil)

// Open connects to the configured database and migrates the schema.
func Open(cfg database.Config, logger hclog.Logger) (*Store, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("audit")

	db, err := database.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}
	return New(db, logger)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB, logger hclog.Logger) (*Store, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if err := db.AutoMigrate(&RequestLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate audit schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Record inserts entry.
func (s *Store) Record(ctx context.Context, entry *RequestLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record request %s: %w", entry.RequestID, err)
	}
	return nil
}

// Recent returns the newest entries first, optionally for one provider.
func (s *Store) Recent(ctx context.Context, providerID string, limit int) ([]RequestLog, error) {
	if limit <= 0 {
		limit = 50
	}

	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if providerID != "" {
		q = q.Where("provider_id = ?", providerID)
	}

	var logs []RequestLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return logs, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return database.Close(s.db)
}
