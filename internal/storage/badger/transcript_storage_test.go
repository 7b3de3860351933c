package badger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/sahalsk/kuttappan/internal/common"
	"github.com/sahalsk/kuttappan/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	db, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{
		Path:    t.TempDir(),
		Enabled: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTranscriptSaveAndRecent(t *testing.T) {
	db := newTestDB(t)
	storage := NewTranscriptStorage(db, arbor.NewLogger())

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, storage.Save(&models.Transcript{
			ID:        common.NewTranscriptID(),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			ClientKey: "1.2.3.4",
			Intent:    string(models.IntentStandard),
			Question:  "question",
		}))
	}

	recent, err := storage.Recent(3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.True(t, recent[0].CreatedAt.After(recent[1].CreatedAt), "newest first")
	assert.True(t, recent[1].CreatedAt.After(recent[2].CreatedAt))
}

func TestTranscriptSaveRequiresID(t *testing.T) {
	db := newTestDB(t)
	storage := NewTranscriptStorage(db, arbor.NewLogger())

	assert.Error(t, storage.Save(&models.Transcript{}))
	assert.Error(t, storage.Save(nil))
}
