package sync

import (
	"context"
	"database/sql"
	"time"

	"go-presensi/internal/device"
	"go-presensi/internal/event"
	"go-presensi/internal/messaging/kafka"
	"go-presensi/internal/policy"
	"go-presensi/internal/shared/apperror"
	"go-presensi/internal/shared/contextutil"
	"go-presensi/internal/subject"

	"go.uber.org/zap"
)

//go:generate mockgen -source=sync_service.go -destination=mock/sync_service_mock.go -package=mock
type Service interface {
	// Push menerima batch event dari antrian lokal device. Hasil per item:
	// created / duplicate / rejected. Duplicate tetap acknowledge supaya
	// device berani dequeue; rejected dikembalikan dengan alasan dan TIDAK
	// dianggap tersimpan.
	Push(ctx context.Context, deviceCode string, req PushRequest) (PushResponse, error)
	Pull(ctx context.Context, branchID string) (PullResponse, error)
}

type service struct {
	db          *sql.DB
	eventRepo   event.Repository
	deviceRepo  device.Repository
	policyRepo  policy.Repository
	subjectRepo subject.Repository
	outbox      kafka.OutboxRepository
	now         func() time.Time
	logger      *zap.Logger
}

func NewService(
	db *sql.DB,
	eventRepo event.Repository,
	deviceRepo device.Repository,
	policyRepo policy.Repository,
	subjectRepo subject.Repository,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("sync.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("sync.service")
	}
	return &service{
		db:          db,
		eventRepo:   eventRepo,
		deviceRepo:  deviceRepo,
		policyRepo:  policyRepo,
		subjectRepo: subjectRepo,
		outbox:      outboxRepo,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      l,
	}
}

func (s *service) Push(ctx context.Context, deviceCode string, req PushRequest) (PushResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	now := s.now()

	s.logger.Info("push batch received",
		zap.String("request_id", rid),
		zap.String("device_code", deviceCode),
		zap.Int("items", len(req.Events)),
	)

	results := make([]PushItemResult, 0, len(req.Events))
	for _, payload := range req.Events {
		res, err := s.pushOne(ctx, rid, deviceCode, payload, now)
		if err != nil {
			// Gangguan storage itu transient: gagalkan seluruh batch dengan
			// 5xx supaya device menahan antrian dan retry, bukan menandai
			// item valid sebagai rejected permanen
			return PushResponse{}, err
		}
		results = append(results, res)
	}

	// Batch yang sampai = bukti device hidup; duplicate per item tetap
	// side-effect free
	if err := s.deviceRepo.TouchHeartbeat(ctx, deviceCode, now); err != nil {
		s.logger.Warn("push heartbeat update failed",
			zap.String("device_code", deviceCode),
			zap.Error(err),
		)
	}

	return PushResponse{Status: "ok", Results: results}, nil
}

// pushOne menyimpan satu item. Rejected hanya untuk payload yang tidak lolos
// validasi; kegagalan storage dikembalikan sebagai error supaya batch-nya
// gagal utuh dan device mencoba lagi.
func (s *service) pushOne(ctx context.Context, rid, deviceCode string, payload event.EventPayload, now time.Time) (PushItemResult, error) {
	row, err := event.ValidatePayload(payload, now)
	if err != nil {
		return PushItemResult{
			IdempotencyKey: payload.IdempotencyKey,
			Status:         ItemStatusRejected,
			Reason:         err.Error(),
		}, nil
	}
	row.DeviceCode = &deviceCode
	row.ReceivedAt = now

	// Event dan baris outbox commit bersama per item
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PushItemResult{}, apperror.ErrStorageFailure
	}
	defer tx.Rollback()

	stored, created, err := s.eventRepo.WithTx(tx).UpsertByIdempotencyKey(ctx, row)
	if err != nil {
		s.logger.Error("push item persist failed",
			zap.String("request_id", rid),
			zap.String("idempotency_key", payload.IdempotencyKey),
			zap.Error(err),
		)
		return PushItemResult{}, apperror.ErrStorageFailure
	}

	if created {
		if err := kafka.AppendAttendanceRecorded(ctx, tx, s.outbox, rid, stored); err != nil {
			s.logger.Error("push outbox append failed",
				zap.String("idempotency_key", stored.IdempotencyKey),
				zap.Error(err),
			)
			return PushItemResult{}, apperror.ErrStorageFailure
		}
	}

	if err := tx.Commit(); err != nil {
		return PushItemResult{}, apperror.ErrStorageFailure
	}

	status := ItemStatusCreated
	if !created {
		status = ItemStatusDuplicate
	}
	return PushItemResult{
		IdempotencyKey: stored.IdempotencyKey,
		Status:         status,
	}, nil
}

func (s *service) Pull(ctx context.Context, branchID string) (PullResponse, error) {
	policies, err := s.policyRepo.ListByBranch(ctx, branchID)
	if err != nil {
		s.logger.Error("pull policies failed", zap.Error(err))
		return PullResponse{}, err
	}

	devices, err := s.deviceRepo.ListByBranch(ctx, branchID)
	if err != nil {
		s.logger.Error("pull devices failed", zap.Error(err))
		return PullResponse{}, err
	}

	subjects, err := s.subjectRepo.ListActiveByBranch(ctx, branchID)
	if err != nil {
		s.logger.Error("pull roster failed", zap.Error(err))
		return PullResponse{}, err
	}

	resp := PullResponse{
		Policies: make([]policy.PolicyResponse, len(policies)),
		Devices:  device.MapToListResponse(devices),
		Roster:   make([]RosterEntry, len(subjects)),
	}
	for i, p := range policies {
		resp.Policies[i] = policy.MapToResponse(p)
	}
	for i, sub := range subjects {
		resp.Roster[i] = RosterEntry{
			SubjectUserID: sub.UserID.String(),
			SubjectType:   sub.SubjectType,
			FullName:      sub.FullName,
			Grade:         sub.Grade,
			ClassName:     sub.ClassName,
			QRToken:       sub.QRToken,
			PINCode:       sub.PINCode,
		}
	}
	return resp, nil
}

