package summary

import (
	"context"
	"errors"
	"time"

	"go-presensi/internal/event"
	"go-presensi/internal/policy"
	"go-presensi/internal/shared/apperror"
	"go-presensi/internal/shared/contextutil"
	summaryerrors "go-presensi/internal/summary/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=summary_service.go -destination=mock/summary_service_mock.go -package=mock
type Service interface {
	Recompute(ctx context.Context, tenantID, branchID, subjectType, subjectUserID string, date time.Time) (SummaryResponse, error)
	ListByBranchAndDate(ctx context.Context, branchID, subjectType string, date time.Time) ([]SummaryResponse, error)
	ListExceptions(ctx context.Context, branchID, flagName string) ([]SummaryResponse, error)
	Resolve(ctx context.Context, id, actorID string, req ResolveRequest) (SummaryResponse, error)
}

type service struct {
	repo       Repository
	eventRepo  event.Repository
	policyRepo policy.Repository
	now        func() time.Time
	logger     *zap.Logger
}

func NewService(repo Repository, eventRepo event.Repository, policyRepo policy.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("summary.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("summary.service")
	}
	return &service{
		repo:       repo,
		eventRepo:  eventRepo,
		policyRepo: policyRepo,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     l,
	}
}

// Recompute menghitung ulang ringkasan satu (subject, tanggal) dari event
// mentah. Dipanggil setiap event baru masuk untuk hari itu (via consumer)
// dan saat policy berubah. Ringkasan yang sudah di-override tidak pernah
// kehilangan status override-nya karena recompute.
func (s *service) Recompute(ctx context.Context, tenantID, branchID, subjectType, subjectUserID string, date time.Time) (SummaryResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("recompute summary requested",
		zap.String("request_id", rid),
		zap.String("subject_user_id", subjectUserID),
		zap.String("date", date.Format("2006-01-02")),
	)

	pol, err := s.policyRepo.FindByBranchAndSubjectType(ctx, branchID, subjectType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SummaryResponse{}, summaryerrors.ErrPolicyNotFound
		}
		s.logger.Error("recompute load policy failed", zap.Error(err))
		return SummaryResponse{}, err
	}

	dayEvents, err := s.eventRepo.ListBySubjectAndDate(ctx, tenantID, subjectUserID, date)
	if err != nil {
		s.logger.Error("recompute load events failed", zap.Error(err))
		return SummaryResponse{}, err
	}

	eval := policy.Evaluate(*pol, date, dayEvents, s.now())

	existing, err := s.repo.FindBySubjectAndDate(ctx, subjectUserID, date)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return SummaryResponse{}, err
	}

	if existing != nil && existing.Flags.Has(policy.FlagOverridden) {
		// Override manusia tetap otoritatif: refresh data turunan saja
		existing.EarliestCheckIn = eval.EarliestCheckIn
		existing.LatestCheckOut = eval.LatestCheckOut
		existing.LateMinutes = eval.LateMinutes
		existing.Flags = eval.Flags.With(policy.FlagOverridden)
		if err := s.repo.Update(ctx, existing); err != nil {
			s.logger.Error("recompute update overridden summary failed", zap.Error(err))
			return SummaryResponse{}, err
		}
		return mapToResponse(*existing), nil
	}

	row := &AttendanceSummary{
		ID:              uuid.New(),
		TenantID:        uuid.MustParse(tenantID),
		BranchID:        uuid.MustParse(branchID),
		SubjectType:     subjectType,
		SubjectUserID:   uuid.MustParse(subjectUserID),
		SummaryDate:     dateOnly(date),
		Status:          eval.Status,
		EarliestCheckIn: eval.EarliestCheckIn,
		LatestCheckOut:  eval.LatestCheckOut,
		LateMinutes:     eval.LateMinutes,
		Flags:           eval.Flags,
	}
	if existing != nil {
		row.ID = existing.ID
	}

	if err := s.repo.Upsert(ctx, row); err != nil {
		s.logger.Error("recompute upsert summary failed", zap.Error(err))
		return SummaryResponse{}, err
	}

	s.logger.Info("summary recomputed",
		zap.String("request_id", rid),
		zap.String("subject_user_id", subjectUserID),
		zap.String("status", row.Status),
		zap.String("flags", row.Flags.String()),
	)
	return mapToResponse(*row), nil
}

func (s *service) ListByBranchAndDate(ctx context.Context, branchID, subjectType string, date time.Time) ([]SummaryResponse, error) {
	rows, err := s.repo.ListByBranchAndDate(ctx, branchID, subjectType, date)
	if err != nil {
		s.logger.Error("list summaries failed", zap.Error(err))
		return nil, err
	}
	res := make([]SummaryResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res, nil
}

func (s *service) ListExceptions(ctx context.Context, branchID, flagName string) ([]SummaryResponse, error) {
	var flag policy.Flag
	if flagName != "" {
		parsed, ok := policy.ParseFlagName(flagName)
		if !ok {
			return nil, summaryerrors.ErrInvalidStatus
		}
		flag = parsed
	}

	rows, err := s.repo.ListExceptions(ctx, branchID, flag)
	if err != nil {
		s.logger.Error("list exceptions failed", zap.Error(err))
		return nil, err
	}
	res := make([]SummaryResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res, nil
}

// Resolve menutup satu exception dengan keputusan manusia. Event mentah tidak
// disentuh; hanya status otoritatif untuk pelaporan yang berubah.
func (s *service) Resolve(ctx context.Context, id, actorID string, req ResolveRequest) (SummaryResponse, error) {
	if !validStatus(req.NewStatus) {
		return SummaryResponse{}, summaryerrors.ErrInvalidStatus
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SummaryResponse{}, summaryerrors.ErrSummaryNotFound
		}
		return SummaryResponse{}, err
	}

	if row.Flags.Has(policy.FlagOverridden) {
		return SummaryResponse{}, summaryerrors.ErrAlreadyOverridden
	}
	if !row.Flags.IsException() {
		return SummaryResponse{}, summaryerrors.ErrNotAnException
	}

	now := s.now()
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return SummaryResponse{}, apperror.InvalidField("Actor Id")
	}

	row.Status = req.NewStatus
	row.Flags = row.Flags.With(policy.FlagOverridden)
	row.OverrideReason = &req.Reason
	row.OverriddenBy = &actor
	row.OverriddenAt = &now

	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("resolve exception persist failed", zap.Error(err))
		return SummaryResponse{}, err
	}

	s.logger.Info("exception resolved",
		zap.String("summary_id", row.ID.String()),
		zap.String("new_status", req.NewStatus),
		zap.String("resolved_by", actorID),
	)
	return mapToResponse(*row), nil
}

func validStatus(status string) bool {
	switch status {
	case policy.StatusPresent, policy.StatusAbsent, policy.StatusLate,
		policy.StatusEarlyPickup, policy.StatusUnknown:
		return true
	default:
		return false
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
