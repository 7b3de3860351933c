package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/sahalsk/kuttappan/internal/common"
	"github.com/sahalsk/kuttappan/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db          *BadgerDB
	transcripts interfaces.TranscriptStorage
	logger      arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:          db,
		transcripts: NewTranscriptStorage(db, logger),
		logger:      logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// TranscriptStorage returns the transcript storage interface
func (m *Manager) TranscriptStorage() interfaces.TranscriptStorage {
	return m.transcripts
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		m.logger.Debug().Msg("Closing Badger storage manager")
		return m.db.Close()
	}
	return nil
}
