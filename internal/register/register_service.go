package register

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go-presensi/internal/event"
	"go-presensi/internal/messaging/kafka"
	"go-presensi/internal/shared/apperror"
	"go-presensi/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=register_service.go -destination=mock/register_service_mock.go -package=mock
type Service interface {
	// CreateEntry mencatat klaim register manual sebagai AttendanceEvent
	// bersumber MANUAL_REGISTER. Klaim yang bertentangan dengan data gerbang
	// akan muncul sebagai flag register_conflict di ringkasan, diselesaikan
	// manusia lewat exception review.
	CreateEntry(ctx context.Context, tenantID, actorID string, req CreateRegisterEntryRequest) (RegisterEntryResponse, error)
}

type service struct {
	db        *sql.DB
	eventRepo event.Repository
	outbox    kafka.OutboxRepository
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(db *sql.DB, eventRepo event.Repository, outboxRepo kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("register.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("register.service")
	}
	return &service{
		db:        db,
		eventRepo: eventRepo,
		outbox:    outboxRepo,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    l,
	}
}

func (s *service) CreateEntry(ctx context.Context, tenantID, actorID string, req CreateRegisterEntryRequest) (RegisterEntryResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	tenantUUID, err := uuid.Parse(tenantID)
	if err != nil {
		return RegisterEntryResponse{}, apperror.InvalidField("Tenant Id")
	}
	branchUUID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return RegisterEntryResponse{}, apperror.InvalidField("Branch Id")
	}
	subjectUUID, err := uuid.Parse(req.SubjectUserID)
	if err != nil {
		return RegisterEntryResponse{}, apperror.InvalidField("Subject User Id")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return RegisterEntryResponse{}, apperror.InvalidField("Date")
	}
	if req.SubjectType != event.SubjectLearner && req.SubjectType != event.SubjectStaff {
		return RegisterEntryResponse{}, apperror.InvalidField("Subject Type")
	}

	// Konvensi: klaim PRESENT = MANUAL_REGISTER CHECK_IN, klaim ABSENT =
	// MANUAL_REGISTER CHECK_OUT tanpa CHECK_IN. Policy engine membaca ada
	// tidaknya CHECK_IN register sebagai klaim kehadiran.
	var eventType string
	switch req.Claim {
	case ClaimPresent:
		eventType = event.TypeCheckIn
	case ClaimAbsent:
		eventType = event.TypeCheckOut
	default:
		return RegisterEntryResponse{}, apperror.InvalidField("Claim")
	}

	// Key deterministik per (subject, tanggal, klaim): submit ulang register
	// yang sama menjadi duplicate, bukan event baru
	key := fmt.Sprintf("manreg-%s-%s-%s", subjectUUID, req.Date, req.Claim)

	row := &event.AttendanceEvent{
		IdempotencyKey:   key,
		TenantID:         tenantUUID,
		BranchID:         branchUUID,
		SubjectType:      req.SubjectType,
		SubjectUserID:    subjectUUID,
		EventType:        eventType,
		Source:           event.SourceManualRegister,
		CapturedAtDevice: time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		ReceivedAt:       s.now(),
	}

	// Klaim dan baris outbox commit bersama supaya recompute ringkasan
	// tidak pernah tertinggal dari klaim yang sudah tersimpan
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RegisterEntryResponse{}, err
	}
	defer tx.Rollback()

	stored, created, err := s.eventRepo.WithTx(tx).UpsertByIdempotencyKey(ctx, row)
	if err != nil {
		s.logger.Error("register entry persist failed",
			zap.String("request_id", rid),
			zap.Error(err),
		)
		return RegisterEntryResponse{}, err
	}

	if created {
		if err := kafka.AppendAttendanceRecorded(ctx, tx, s.outbox, rid, stored); err != nil {
			s.logger.Error("register outbox append failed",
				zap.String("idempotency_key", stored.IdempotencyKey),
				zap.Error(err),
			)
			return RegisterEntryResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return RegisterEntryResponse{}, err
	}

	s.logger.Info("manual register entry recorded",
		zap.String("request_id", rid),
		zap.String("actor_id", actorID),
		zap.String("subject_user_id", req.SubjectUserID),
		zap.String("claim", req.Claim),
		zap.Bool("duplicate", !created),
	)

	return RegisterEntryResponse{
		IdempotencyKey: stored.IdempotencyKey,
		SubjectUserID:  req.SubjectUserID,
		Date:           req.Date,
		Claim:          req.Claim,
		Duplicate:      !created,
	}, nil
}
