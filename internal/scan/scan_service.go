package scan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go-presensi/internal/event"
	"go-presensi/internal/messaging/kafka"
	"go-presensi/internal/policy"
	scanerrors "go-presensi/internal/scan/errors"
	"go-presensi/internal/shared/contextutil"
	"go-presensi/internal/subject"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=scan_service.go -destination=mock/scan_service_mock.go -package=mock
type Service interface {
	// ProcessScan menangani satu scan kiosk online: resolve subjek, cek blokir,
	// tentukan CHECK_IN/CHECK_OUT, simpan event, dan kembalikan instruksi
	// tampilan untuk kiosk.
	ProcessScan(ctx context.Context, tenantID, branchID, deviceCode string, req ScanRequest) (ScanResponse, error)
}

type service struct {
	db          *sql.DB
	eventRepo   event.Repository
	subjectRepo subject.Repository
	policyRepo  policy.Repository
	outbox      kafka.OutboxRepository
	now         func() time.Time
	logger      *zap.Logger
}

func NewService(
	db *sql.DB,
	eventRepo event.Repository,
	subjectRepo subject.Repository,
	policyRepo policy.Repository,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("scan.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("scan.service")
	}
	return &service{
		db:          db,
		eventRepo:   eventRepo,
		subjectRepo: subjectRepo,
		policyRepo:  policyRepo,
		outbox:      outboxRepo,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      l,
	}
}

func (s *service) ProcessScan(ctx context.Context, tenantID, branchID, deviceCode string, req ScanRequest) (ScanResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	now := s.now()

	subj, err := s.resolveSubject(ctx, branchID, req)
	if err != nil {
		return ScanResponse{}, err
	}

	// Subjek diblokir: tampilkan alasan, JANGAN catat event
	block, err := s.subjectRepo.ActiveBlock(ctx, subj.UserID.String(), now)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return ScanResponse{}, err
	}
	if block != nil {
		s.logger.Info("scan blocked",
			zap.String("request_id", rid),
			zap.String("subject_user_id", subj.UserID.String()),
			zap.String("device_code", deviceCode),
		)
		return ScanResponse{
			Status:      ResultBlocked,
			LearnerName: subj.FullName,
			Grade:       deref(subj.Grade),
			ClassName:   deref(subj.ClassName),
			Blocked:     true,
			BlockReason: block.Reason,
		}, nil
	}

	eventType := s.nextEventType(ctx, tenantID, subj.UserID.String(), now)

	resp := ScanResponse{
		Status:      ResultSuccess,
		EventType:   eventType,
		LearnerName: subj.FullName,
		Grade:       deref(subj.Grade),
		ClassName:   deref(subj.ClassName),
	}

	// Checkout jauh sebelum jam pulang: butuh data penjemput terverifikasi
	if eventType == event.TypeCheckOut && s.isEarlyLeave(ctx, branchID, subj.SubjectType, now) {
		permit, err := s.subjectRepo.PermitForDate(ctx, subj.UserID.String(), now)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return ScanResponse{}, err
		}
		if permit != nil {
			resp.Status = ResultEarlyLeave
			resp.EarlyLeave = true
			resp.PickupPersonName = permit.PickupPersonName
			resp.PickupPersonRelation = permit.PickupPersonRelation
		}
	}

	row := &event.AttendanceEvent{
		IdempotencyKey:   fmt.Sprintf("scan-%s-%s", deviceCode, uuid.NewString()),
		TenantID:         subj.TenantID,
		BranchID:         subj.BranchID,
		SubjectType:      subj.SubjectType,
		SubjectUserID:    subj.UserID,
		EventType:        eventType,
		Source:           event.SourceKioskScan,
		CapturedAtDevice: now,
		QRToken:          nilIfEmpty(req.QRToken),
		DeviceCode:       &deviceCode,
		ReceivedAt:       now,
	}

	// Event dan baris outbox commit bersama: event tanpa trigger recompute
	// berarti summary hari itu tidak pernah terbentuk
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ScanResponse{}, err
	}
	defer tx.Rollback()

	stored, created, err := s.eventRepo.WithTx(tx).UpsertByIdempotencyKey(ctx, row)
	if err != nil {
		s.logger.Error("scan persist event failed",
			zap.String("request_id", rid),
			zap.Error(err),
		)
		return ScanResponse{}, err
	}
	resp.IdempotencyKey = stored.IdempotencyKey

	if created {
		if err := kafka.AppendAttendanceRecorded(ctx, tx, s.outbox, rid, stored); err != nil {
			s.logger.Error("scan outbox append failed",
				zap.String("idempotency_key", stored.IdempotencyKey),
				zap.Error(err),
			)
			return ScanResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return ScanResponse{}, err
	}

	s.logger.Info("scan recorded",
		zap.String("request_id", rid),
		zap.String("subject_user_id", subj.UserID.String()),
		zap.String("event_type", eventType),
		zap.String("device_code", deviceCode),
		zap.String("result", resp.Status),
	)
	return resp, nil
}

func (s *service) resolveSubject(ctx context.Context, branchID string, req ScanRequest) (*subject.Subject, error) {
	switch {
	case req.QRToken != "":
		subj, err := s.subjectRepo.FindByQRToken(ctx, req.QRToken)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, scanerrors.ErrUnknownToken
			}
			return nil, err
		}
		return subj, nil
	case req.PINCode != "":
		subj, err := s.subjectRepo.FindByPIN(ctx, branchID, req.PINCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, scanerrors.ErrUnknownPIN
			}
			return nil, err
		}
		return subj, nil
	default:
		return nil, scanerrors.ErrMissingCredential
	}
}

// nextEventType: toggle dari event terakhir hari ini. Belum ada event atau
// terakhir CHECK_OUT berarti CHECK_IN.
func (s *service) nextEventType(ctx context.Context, tenantID, subjectUserID string, now time.Time) string {
	last, err := s.eventRepo.LastForSubjectOnDate(ctx, tenantID, subjectUserID, now)
	if err != nil || last == nil {
		return event.TypeCheckIn
	}
	if last.EventType == event.TypeCheckIn {
		return event.TypeCheckOut
	}
	return event.TypeCheckIn
}

func (s *service) isEarlyLeave(ctx context.Context, branchID, subjectType string, now time.Time) bool {
	pol, err := s.policyRepo.FindByBranchAndSubjectType(ctx, branchID, subjectType)
	if err != nil {
		return false
	}
	parsed, err := time.Parse("15:04", pol.EndTime)
	if err != nil {
		return false
	}
	y, m, d := now.Date()
	endAt := time.Date(y, m, d, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
	boundary := endAt.Add(-time.Duration(pol.GraceMinutes) * time.Minute)
	return now.Before(boundary)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
