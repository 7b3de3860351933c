package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/sahalsk/kuttappan/internal/interfaces"
	"github.com/sahalsk/kuttappan/internal/models"
)

// TranscriptStorage persists chat transcripts in badgerhold
type TranscriptStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTranscriptStorage creates a transcript storage instance
func NewTranscriptStorage(db *BadgerDB, logger arbor.ILogger) *TranscriptStorage {
	return &TranscriptStorage{db: db, logger: logger}
}

// Save inserts one transcript record.
func (s *TranscriptStorage) Save(t *models.Transcript) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("transcript requires an ID")
	}

	if err := s.db.Store().Insert(t.ID, t); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}

	s.logger.Trace().Str("id", t.ID).Str("intent", t.Intent).Msg("Transcript saved")
	return nil
}

// Recent returns up to limit transcripts, newest first.
func (s *TranscriptStorage) Recent(limit int) ([]*models.Transcript, error) {
	if limit < 1 {
		limit = 50
	}

	var transcripts []*models.Transcript
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse().Limit(limit)
	if err := s.db.Store().Find(&transcripts, query); err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}

	return transcripts, nil
}

var _ interfaces.TranscriptStorage = (*TranscriptStorage)(nil)
