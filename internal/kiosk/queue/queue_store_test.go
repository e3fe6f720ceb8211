package queue

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go-presensi/internal/event"
	"go-presensi/internal/shared/connection"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func testPayload(key string, capturedAt time.Time) event.EventPayload {
	return event.EventPayload{
		IdempotencyKey:   key,
		TenantID:         uuid.New().String(),
		BranchID:         uuid.New().String(),
		SubjectType:      event.SubjectLearner,
		SubjectUserID:    uuid.New().String(),
		EventType:        event.TypeCheckIn,
		Source:           event.SourceKioskScan,
		CapturedAtDevice: capturedAt,
	}
}

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	db, err := connection.OpenLocalSQLite(path)
	assert.NoError(t, err)
	store, err := NewStore(db)
	assert.NoError(t, err)
	return store
}

func TestStore_EnqueueSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kiosk.db")
	now := time.Now().UTC()

	store := openStore(t, path)
	assert.NoError(t, store.Enqueue(ctx, testPayload("k-1", now)))
	assert.Equal(t, int64(1), store.Count())

	// Proses "restart": buka ulang file yang sama
	reopened := openStore(t, path)
	items, err := reopened.GetAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "k-1", items[0].IdempotencyKey)
	assert.Equal(t, int64(1), reopened.Count())
}

func TestStore_FIFOOrder(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "kiosk.db"))
	now := time.Now().UTC()

	assert.NoError(t, store.Enqueue(ctx, testPayload("k-1", now)))
	assert.NoError(t, store.Enqueue(ctx, testPayload("k-2", now.Add(time.Second))))
	assert.NoError(t, store.Enqueue(ctx, testPayload("k-3", now.Add(2*time.Second))))

	items, err := store.GetAll(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"k-1", "k-2", "k-3"}, []string{
		items[0].IdempotencyKey, items[1].IdempotencyKey, items[2].IdempotencyKey,
	})
}

func TestStore_EnqueueSameKeyIsNoop(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "kiosk.db"))
	p := testPayload("k-repeat", time.Now().UTC())

	assert.NoError(t, store.Enqueue(ctx, p))
	assert.NoError(t, store.Enqueue(ctx, p))

	items, _ := store.GetAll(ctx)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(1), store.Count())
}

func TestStore_DequeueExactlyOne(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "kiosk.db"))
	now := time.Now().UTC()

	assert.NoError(t, store.Enqueue(ctx, testPayload("k-1", now)))
	assert.NoError(t, store.Enqueue(ctx, testPayload("k-2", now)))

	assert.NoError(t, store.Dequeue(ctx, "k-1"))
	assert.Equal(t, int64(1), store.Count())

	// No-op untuk key yang tidak ada
	assert.NoError(t, store.Dequeue(ctx, "k-missing"))
	assert.Equal(t, int64(1), store.Count())
}

func TestStore_RejectedExcludedButRetained(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "kiosk.db"))
	now := time.Now().UTC()

	assert.NoError(t, store.Enqueue(ctx, testPayload("k-good", now)))
	assert.NoError(t, store.Enqueue(ctx, testPayload("k-bad", now)))
	assert.NoError(t, store.MarkRejected(ctx, "k-bad", "Subject User Id is invalid"))

	// Batch push berikutnya tidak membawa item rejected
	items, _ := store.GetAll(ctx)
	assert.Len(t, items, 1)
	assert.Equal(t, "k-good", items[0].IdempotencyKey)
	assert.Equal(t, int64(1), store.Count())

	// Tapi operator tetap bisa melihatnya
	rejected, err := store.ListRejected(ctx)
	assert.NoError(t, err)
	assert.Len(t, rejected, 1)
	assert.Equal(t, "k-bad", rejected[0].IdempotencyKey)
	assert.Equal(t, "Subject User Id is invalid", rejected[0].RejectReason)
}

func TestStore_DequeueSkipsRejectedRows(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "kiosk.db"))
	now := time.Now().UTC()

	assert.NoError(t, store.Enqueue(ctx, testPayload("k-bad", now)))
	assert.NoError(t, store.MarkRejected(ctx, "k-bad", "bad payload"))
	assert.Equal(t, int64(0), store.Count())

	// Dequeue pada key yang sudah rejected: baris tetap ada untuk operator
	// dan counter pending tidak boleh turun dua kali
	assert.NoError(t, store.Dequeue(ctx, "k-bad"))
	assert.Equal(t, int64(0), store.Count())

	rejected, err := store.ListRejected(ctx)
	assert.NoError(t, err)
	assert.Len(t, rejected, 1)
}

func TestStore_DiscardOnlyRejected(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "kiosk.db"))
	now := time.Now().UTC()

	assert.NoError(t, store.Enqueue(ctx, testPayload("k-live", now)))
	assert.NoError(t, store.Enqueue(ctx, testPayload("k-bad", now)))
	assert.NoError(t, store.MarkRejected(ctx, "k-bad", "bad"))

	// Item live tidak bisa dibuang lewat jalur discard
	assert.Error(t, store.Discard(ctx, "k-live"))
	assert.NoError(t, store.Discard(ctx, "k-bad"))

	rejected, _ := store.ListRejected(ctx)
	assert.Empty(t, rejected)
}

func TestStore_LastQueuedEventType(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "kiosk.db"))
	now := time.Now().UTC()

	subjectID := uuid.New().String()
	in := testPayload("k-in", now)
	in.SubjectUserID = subjectID
	out := testPayload("k-out", now.Add(time.Minute))
	out.SubjectUserID = subjectID
	out.EventType = event.TypeCheckOut

	assert.NoError(t, store.Enqueue(ctx, in))
	last, err := store.LastQueuedEventType(ctx, subjectID, now)
	assert.NoError(t, err)
	assert.Equal(t, event.TypeCheckIn, last)

	assert.NoError(t, store.Enqueue(ctx, out))
	last, _ = store.LastQueuedEventType(ctx, subjectID, now)
	assert.Equal(t, event.TypeCheckOut, last)

	other, _ := store.LastQueuedEventType(ctx, uuid.New().String(), now)
	assert.Empty(t, other)
}
