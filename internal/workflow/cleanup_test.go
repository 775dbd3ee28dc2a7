package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"admix-studio/internal/queue"
	"admix-studio/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCleanup(db *records, media *fakeMedia, now time.Time) (expiredA, expiredB, fresh uuid.UUID) {
	expiredA, expiredB, fresh = uuid.New(), uuid.New(), uuid.New()

	db.speeches[expiredA] = &models.SpeechJob{ID: expiredA, AudioKey: "speeches/u/speech-a.mp3", ExpiresAt: now.Add(-time.Hour)}
	db.speeches[expiredB] = &models.SpeechJob{ID: expiredB, AudioLocation: "https://cdn.test/speeches/u/speech-b.mp3", ExpiresAt: now.Add(-48 * time.Hour)}
	db.speeches[fresh] = &models.SpeechJob{ID: fresh, AudioKey: "speeches/u/speech-c.mp3", ExpiresAt: now.Add(time.Hour)}
	for _, key := range []string{"speeches/u/speech-a.mp3", "speeches/u/speech-b.mp3", "speeches/u/speech-c.mp3"} {
		media.objects[key] = []byte("x")
	}

	old, recent, unvoiced := uuid.New(), uuid.New(), uuid.New()
	db.scripts[old] = &models.Script{ID: old, IsVoiceGenerated: true, UpdatedAt: now.Add(-11 * 24 * time.Hour)}
	db.scripts[recent] = &models.Script{ID: recent, IsVoiceGenerated: true, UpdatedAt: now.Add(-24 * time.Hour)}
	db.scripts[unvoiced] = &models.Script{ID: unvoiced, UpdatedAt: now.Add(-30 * 24 * time.Hour)}
	return
}

func newCleanup(db *records, media *fakeMedia, now time.Time) *CleanupWorkflow {
	w := NewCleanupWorkflow(db, db, media)
	w.now = func() time.Time { return now }
	return w
}

func TestCleanupWorkflowDeletesExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 2, 0, 0, 0, time.UTC)
	db, media := newRecords(), newFakeMedia()
	_, _, fresh := seedCleanup(db, media, now)

	exec := NewExecutor(NewMemoryStore(), 3)
	exec.Register(newCleanup(db, media, now).Definition())

	out, err := exec.Execute(context.Background(), newEvent(t, uuid.NewString(), queue.EventCleanup, nil, 1))
	require.NoError(t, err)

	result := out.(*CleanupResult)
	assert.Equal(t, int64(1), result.ScriptsDeleted)
	assert.Equal(t, int64(2), result.SpeechesDeleted)
	assert.Equal(t, "2024-05-01T02:00:00Z", result.Timestamp)

	assert.Len(t, db.speeches, 1)
	assert.Contains(t, db.speeches, fresh)
	assert.Len(t, db.scripts, 2)
	assert.ElementsMatch(t, []string{"speeches/u/speech-a.mp3", "speeches/u/speech-b.mp3"}, media.deleted)
	assert.Contains(t, media.objects, "speeches/u/speech-c.mp3")
}

func TestCleanupWorkflowToleratesStorageFailure(t *testing.T) {
	now := time.Now()
	db, media := newRecords(), newFakeMedia()
	seedCleanup(db, media, now)
	media.failDelete["speeches/u/speech-a.mp3"] = errors.New("access denied")

	exec := NewExecutor(NewMemoryStore(), 3)
	exec.Register(newCleanup(db, media, now).Definition())

	out, err := exec.Execute(context.Background(), newEvent(t, uuid.NewString(), queue.EventCleanup, nil, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.(*CleanupResult).SpeechesDeleted)
	assert.Len(t, db.speeches, 1)
}

func TestCleanupWorkflowStepsAreIsolated(t *testing.T) {
	now := time.Now()
	db, media := newRecords(), newFakeMedia()
	seedCleanup(db, media, now)
	db.failScriptDelete = errors.New("scripts table locked")

	store := NewMemoryStore()
	exec := NewExecutor(store, 3)
	exec.Register(newCleanup(db, media, now).Definition())

	runID := uuid.NewString()
	_, err := exec.Execute(context.Background(), newEvent(t, runID, queue.EventCleanup, nil, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete-old-scripts")
	assert.Len(t, db.speeches, 1, "speech sweep runs even when the script sweep fails")
	assert.Equal(t, models.RunFailed, runStatus(t, store, runID))

	db.failScriptDelete = nil
	require.NoError(t, store.UpdateRun(context.Background(), runID, models.RunRunning, nil, ""))
	out, err := exec.Execute(context.Background(), newEvent(t, runID, queue.EventCleanup, nil, 2))
	require.NoError(t, err)

	result := out.(*CleanupResult)
	assert.Equal(t, int64(1), result.ScriptsDeleted)
	assert.Equal(t, int64(2), result.SpeechesDeleted, "memoized sweep result is replayed")
	assert.Equal(t, 1, store.Steps(runID, "delete-expired-speeches"))
}
