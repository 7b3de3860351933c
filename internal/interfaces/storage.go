package interfaces

import "github.com/sahalsk/kuttappan/internal/models"

// TranscriptStorage persists chat transcripts locally for the site owner.
// Failures here must never fail a user-facing request.
type TranscriptStorage interface {
	Save(t *models.Transcript) error
	Recent(limit int) ([]*models.Transcript, error)
}

// StorageManager owns the local database connection and the typed stores
// hanging off it.
type StorageManager interface {
	TranscriptStorage() TranscriptStorage
	Close() error
}
