package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-presensi/internal/events"
	"go-presensi/internal/summary"
	summaryerrors "go-presensi/internal/summary/errors"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeAttendanceRecorded me-recompute ringkasan harian setiap ada event
// presensi baru. Aman terhadap delivery ganda maupun out-of-order: recompute
// membangun ulang state turunan dari seluruh event hari itu, bukan increment.
func ConsumeAttendanceRecorded(
	ctx context.Context,
	reader *kafkago.Reader,
	summaryService summary.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.attendance_recorded")
	log.Info("attendance recorded consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("attendance recorded consumer stopped")
				return
			}
			log.Error("fetch attendance recorded message failed", zap.Error(err))
			continue
		}

		var event events.AttendanceRecordedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode attendance_recorded event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		date, err := time.Parse("2006-01-02", event.Date)
		if err != nil {
			log.Error("attendance_recorded event has invalid date",
				zap.String("date", event.Date),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		_, err = summaryService.Recompute(
			ctx,
			event.TenantID,
			event.BranchID,
			event.SubjectType,
			event.SubjectUserID,
			date,
		)
		if err != nil {
			if errors.Is(err, summaryerrors.ErrPolicyNotFound) {
				// Cabang belum punya policy: tidak ada yang bisa dihitung,
				// jangan retry selamanya
				log.Warn("skip recompute, no policy for branch",
					zap.String("branch_id", event.BranchID),
					zap.String("subject_type", event.SubjectType),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			log.Error("recompute summary failed",
				zap.String("subject_user_id", event.SubjectUserID),
				zap.String("date", event.Date),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit attendance recorded message failed", zap.Error(err))
			continue
		}

		log.Info("summary recomputed from attendance_recorded event",
			zap.String("subject_user_id", event.SubjectUserID),
			zap.String("date", event.Date),
		)
	}
}
