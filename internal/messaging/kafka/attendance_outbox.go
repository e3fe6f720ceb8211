package kafka

import (
	"context"
	"database/sql"
	"encoding/json"

	"go-presensi/internal/event"
	"go-presensi/internal/events"

	"github.com/google/uuid"
)

// AppendAttendanceRecorded menulis baris outbox untuk satu event presensi
// yang baru tersimpan (status created), di dalam transaksi yang sama dengan
// insert event-nya. Semua surface ingest (scan, sync push, register manual)
// memakai helper ini supaya trigger recompute seragam; commit tetap di caller.
func AppendAttendanceRecorded(
	ctx context.Context,
	tx *sql.Tx,
	repo OutboxRepository,
	requestID string,
	stored *event.AttendanceEvent,
) error {
	if repo == nil {
		return nil
	}

	payload, err := json.Marshal(events.AttendanceRecordedEvent{
		EventType:     "attendance_recorded",
		RequestID:     requestID,
		TenantID:      stored.TenantID.String(),
		BranchID:      stored.BranchID.String(),
		SubjectType:   stored.SubjectType,
		SubjectUserID: stored.SubjectUserID.String(),
		Date:          stored.CapturedAtDevice.Format("2006-01-02"),
		OccurredAt:    stored.ReceivedAt,
	})
	if err != nil {
		return err
	}

	return repo.WithTx(tx).Create(ctx, OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     requestID,
		AggregateType: "attendance_event",
		AggregateID:   stored.SubjectUserID.String(),
		EventType:     "attendance_recorded",
		Topic:         events.AttendanceRecordedTopic,
		Payload:       payload,
		Status:        OutboxStatusPending,
	})
}
