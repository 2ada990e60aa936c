package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/kotae/internal/common"
	"github.com/ternarybob/kotae/internal/models"
)

// DefaultAuditListLimit caps ListRecent when no limit is given
const DefaultAuditListLimit = 50

// AuditStorage persists answered questions in Badger
type AuditStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAuditStorage creates audit storage over an open database. Close closes db.
func NewAuditStorage(db *BadgerDB, logger arbor.ILogger) *AuditStorage {
	return &AuditStorage{
		db:     db,
		logger: logger,
	}
}

// OpenAuditStorage opens the database from config and wraps it
func OpenAuditStorage(logger arbor.ILogger, config *common.BadgerConfig) (*AuditStorage, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", config.Path).Msg("Audit storage initialized")
	return NewAuditStorage(db, logger), nil
}

// SaveAnswer stores a record, replacing any record with the same ID
func (s *AuditStorage) SaveAnswer(ctx context.Context, record *models.AnswerRecord) error {
	if record.ID == "" {
		return fmt.Errorf("answer record ID is required")
	}
	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save answer record: %w", err)
	}
	s.logger.Debug().Str("record_id", record.ID).Str("mode", string(record.Mode)).Msg("Answer record saved")
	return nil
}

// ListRecent returns up to limit records, newest first
func (s *AuditStorage) ListRecent(ctx context.Context, limit int) ([]models.AnswerRecord, error) {
	if limit <= 0 {
		limit = DefaultAuditListLimit
	}

	var records []models.AnswerRecord
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse().Limit(limit)
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list answer records: %w", err)
	}
	return records, nil
}

// Prune deletes records created before cutoff and returns how many were removed
func (s *AuditStorage) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	query := badgerhold.Where("CreatedAt").Lt(cutoff)
	count, err := s.db.Store().Count(&models.AnswerRecord{}, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count expired answer records: %w", err)
	}
	if count == 0 {
		return 0, nil
	}
	if err := s.db.Store().DeleteMatching(&models.AnswerRecord{}, badgerhold.Where("CreatedAt").Lt(cutoff)); err != nil {
		return 0, fmt.Errorf("failed to delete expired answer records: %w", err)
	}
	return int(count), nil
}

// Maintain prunes records older than retention and reclaims disk space.
// A zero retention keeps every record.
func (s *AuditStorage) Maintain(ctx context.Context, retention time.Duration) error {
	pruned := 0
	if retention > 0 {
		var err error
		if pruned, err = s.Prune(ctx, time.Now().Add(-retention)); err != nil {
			return err
		}
	}

	rewritten, err := s.db.RunGC(0.5)
	if err != nil {
		return err
	}

	s.logger.Info().
		Int("pruned", pruned).
		Int("vlog_rewritten", rewritten).
		Msg("Audit storage maintenance complete")
	return nil
}

// Close closes the underlying database
func (s *AuditStorage) Close() error {
	return s.db.Close()
}
