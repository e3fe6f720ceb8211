package summary

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go-presensi/internal/event"
	"go-presensi/internal/policy"
	summaryerrors "go-presensi/internal/summary/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeRepo struct {
	upsertFn               func(ctx context.Context, s *AttendanceSummary) error
	findByIDFn             func(ctx context.Context, id string) (*AttendanceSummary, error)
	findBySubjectAndDateFn func(ctx context.Context, subjectUserID string, date time.Time) (*AttendanceSummary, error)
	listByBranchAndDateFn  func(ctx context.Context, branchID, subjectType string, date time.Time) ([]AttendanceSummary, error)
	listExceptionsFn       func(ctx context.Context, branchID string, flag policy.Flag) ([]AttendanceSummary, error)
	updateFn               func(ctx context.Context, s *AttendanceSummary) error
}

func (f *fakeRepo) Upsert(ctx context.Context, s *AttendanceSummary) error { return f.upsertFn(ctx, s) }
func (f *fakeRepo) FindByID(ctx context.Context, id string) (*AttendanceSummary, error) {
	return f.findByIDFn(ctx, id)
}
func (f *fakeRepo) FindBySubjectAndDate(ctx context.Context, subjectUserID string, date time.Time) (*AttendanceSummary, error) {
	return f.findBySubjectAndDateFn(ctx, subjectUserID, date)
}
func (f *fakeRepo) ListByBranchAndDate(ctx context.Context, branchID, subjectType string, date time.Time) ([]AttendanceSummary, error) {
	return f.listByBranchAndDateFn(ctx, branchID, subjectType, date)
}
func (f *fakeRepo) ListExceptions(ctx context.Context, branchID string, flag policy.Flag) ([]AttendanceSummary, error) {
	return f.listExceptionsFn(ctx, branchID, flag)
}
func (f *fakeRepo) Update(ctx context.Context, s *AttendanceSummary) error { return f.updateFn(ctx, s) }

type fakeEventRepo struct {
	listBySubjectAndDateFn func(ctx context.Context, tenantID, subjectUserID string, date time.Time) ([]event.AttendanceEvent, error)
}

func (f *fakeEventRepo) WithTx(tx *sql.Tx) event.Repository { return f }
func (f *fakeEventRepo) UpsertByIdempotencyKey(ctx context.Context, e *event.AttendanceEvent) (*event.AttendanceEvent, bool, error) {
	return nil, false, nil
}
func (f *fakeEventRepo) FindByIdempotencyKey(ctx context.Context, key string) (*event.AttendanceEvent, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeEventRepo) ListBySubjectAndDate(ctx context.Context, tenantID, subjectUserID string, date time.Time) ([]event.AttendanceEvent, error) {
	return f.listBySubjectAndDateFn(ctx, tenantID, subjectUserID, date)
}
func (f *fakeEventRepo) ListByBranchAndDate(ctx context.Context, branchID, subjectType string, date time.Time) ([]event.AttendanceEvent, error) {
	return nil, nil
}
func (f *fakeEventRepo) LastForSubjectOnDate(ctx context.Context, tenantID, subjectUserID string, date time.Time) (*event.AttendanceEvent, error) {
	return nil, gorm.ErrRecordNotFound
}

type fakePolicyRepo struct {
	findFn func(ctx context.Context, branchID, subjectType string) (*policy.AttendancePolicy, error)
}

func (f *fakePolicyRepo) FindByBranchAndSubjectType(ctx context.Context, branchID, subjectType string) (*policy.AttendancePolicy, error) {
	return f.findFn(ctx, branchID, subjectType)
}
func (f *fakePolicyRepo) ListByBranch(ctx context.Context, branchID string) ([]policy.AttendancePolicy, error) {
	return nil, nil
}
func (f *fakePolicyRepo) Upsert(ctx context.Context, p *policy.AttendancePolicy) error { return nil }

func defaultPolicy() *policy.AttendancePolicy {
	return &policy.AttendancePolicy{
		WorkingDays:                  "12345",
		StartTime:                    "07:30",
		EndTime:                      "15:00",
		GraceMinutes:                 10,
		OvertimeGraceMinutes:         30,
		LateThresholdMinutes:         120,
		MissingCheckoutCutoffMinutes: 240,
		AntiPassbackMinutes:          5,
	}
}

// Senin
var testDate = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func TestService_Recompute_NewSummary(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New().String()
	branchID := uuid.New().String()
	subjectID := uuid.New().String()

	var saved *AttendanceSummary
	repo := &fakeRepo{
		findBySubjectAndDateFn: func(ctx context.Context, sid string, date time.Time) (*AttendanceSummary, error) {
			return nil, gorm.ErrRecordNotFound
		},
		upsertFn: func(ctx context.Context, s *AttendanceSummary) error {
			saved = s
			return nil
		},
	}
	eventRepo := &fakeEventRepo{
		listBySubjectAndDateFn: func(ctx context.Context, tid, sid string, date time.Time) ([]event.AttendanceEvent, error) {
			return []event.AttendanceEvent{
				{
					EventType:        event.TypeCheckIn,
					Source:           event.SourceKioskScan,
					CapturedAtDevice: time.Date(2025, 6, 2, 7, 42, 0, 0, time.UTC),
				},
				{
					EventType:        event.TypeCheckOut,
					Source:           event.SourceKioskScan,
					CapturedAtDevice: time.Date(2025, 6, 2, 15, 1, 0, 0, time.UTC),
				},
			}, nil
		},
	}
	policyRepo := &fakePolicyRepo{
		findFn: func(ctx context.Context, bid, st string) (*policy.AttendancePolicy, error) {
			return defaultPolicy(), nil
		},
	}

	svc := NewService(repo, eventRepo, policyRepo)
	resp, err := svc.Recompute(ctx, tenantID, branchID, event.SubjectLearner, subjectID, testDate)

	assert.NoError(t, err)
	assert.Equal(t, policy.StatusLate, resp.Status)
	assert.Equal(t, 2, resp.LateMinutes)
	assert.NotNil(t, saved)
	assert.Equal(t, subjectID, saved.SubjectUserID.String())
}

func TestService_Recompute_PolicyMissing(t *testing.T) {
	repo := &fakeRepo{}
	eventRepo := &fakeEventRepo{}
	policyRepo := &fakePolicyRepo{
		findFn: func(ctx context.Context, bid, st string) (*policy.AttendancePolicy, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := NewService(repo, eventRepo, policyRepo)
	_, err := svc.Recompute(context.Background(), uuid.New().String(), uuid.New().String(), event.SubjectLearner, uuid.New().String(), testDate)
	assert.ErrorIs(t, err, summaryerrors.ErrPolicyNotFound)
}

func TestService_Recompute_PreservesOverride(t *testing.T) {
	ctx := context.Background()
	subjectID := uuid.New()
	reason := "verified by homeroom teacher"

	existing := &AttendanceSummary{
		ID:             uuid.New(),
		SubjectUserID:  subjectID,
		SummaryDate:    testDate,
		Status:         policy.StatusPresent,
		Flags:          policy.FlagMissingCheckout.With(policy.FlagOverridden),
		OverrideReason: &reason,
	}

	var updated *AttendanceSummary
	repo := &fakeRepo{
		findBySubjectAndDateFn: func(ctx context.Context, sid string, date time.Time) (*AttendanceSummary, error) {
			return existing, nil
		},
		updateFn: func(ctx context.Context, s *AttendanceSummary) error {
			updated = s
			return nil
		},
		upsertFn: func(ctx context.Context, s *AttendanceSummary) error {
			t.Fatal("overridden summary must be updated, not re-upserted")
			return nil
		},
	}
	eventRepo := &fakeEventRepo{
		listBySubjectAndDateFn: func(ctx context.Context, tid, sid string, date time.Time) ([]event.AttendanceEvent, error) {
			return nil, nil
		},
	}
	policyRepo := &fakePolicyRepo{
		findFn: func(ctx context.Context, bid, st string) (*policy.AttendancePolicy, error) {
			return defaultPolicy(), nil
		},
	}

	svc := NewService(repo, eventRepo, policyRepo)
	resp, err := svc.Recompute(ctx, uuid.New().String(), uuid.New().String(), event.SubjectLearner, subjectID.String(), testDate)

	assert.NoError(t, err)
	// Status override manusia tetap otoritatif meski event baru bilang lain
	assert.Equal(t, policy.StatusPresent, resp.Status)
	assert.True(t, resp.Overridden)
	assert.NotNil(t, updated)
	assert.True(t, updated.Flags.Has(policy.FlagOverridden))
}

func TestService_Resolve_Finality(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New().String()
	row := &AttendanceSummary{
		ID:            uuid.New(),
		SubjectUserID: uuid.New(),
		SummaryDate:   testDate,
		Status:        policy.StatusAbsent,
		Flags:         policy.FlagRegisterConflict,
	}

	var updated *AttendanceSummary
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id string) (*AttendanceSummary, error) {
			return row, nil
		},
		updateFn: func(ctx context.Context, s *AttendanceSummary) error {
			updated = s
			return nil
		},
	}

	svc := NewService(repo, &fakeEventRepo{}, &fakePolicyRepo{})
	resp, err := svc.Resolve(ctx, row.ID.String(), actorID, ResolveRequest{
		Reason:    "parent confirmed sick leave",
		NewStatus: policy.StatusPresent,
	})

	assert.NoError(t, err)
	assert.Equal(t, policy.StatusPresent, resp.Status)
	assert.True(t, resp.Overridden)
	assert.Equal(t, "parent confirmed sick leave", *updated.OverrideReason)
	assert.NotNil(t, updated.OverriddenAt)
	// Sudah overridden: hilang dari daftar exception
	assert.False(t, updated.Flags.IsException())
}

func TestService_Resolve_AlreadyOverridden(t *testing.T) {
	row := &AttendanceSummary{
		ID:    uuid.New(),
		Flags: policy.FlagMissingCheckout.With(policy.FlagOverridden),
	}
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id string) (*AttendanceSummary, error) {
			return row, nil
		},
	}

	svc := NewService(repo, &fakeEventRepo{}, &fakePolicyRepo{})
	_, err := svc.Resolve(context.Background(), row.ID.String(), uuid.New().String(), ResolveRequest{
		Reason:    "second attempt",
		NewStatus: policy.StatusPresent,
	})
	assert.ErrorIs(t, err, summaryerrors.ErrAlreadyOverridden)
}

func TestService_Resolve_NotAnException(t *testing.T) {
	row := &AttendanceSummary{ID: uuid.New(), Flags: 0}
	repo := &fakeRepo{
		findByIDFn: func(ctx context.Context, id string) (*AttendanceSummary, error) {
			return row, nil
		},
	}

	svc := NewService(repo, &fakeEventRepo{}, &fakePolicyRepo{})
	_, err := svc.Resolve(context.Background(), row.ID.String(), uuid.New().String(), ResolveRequest{
		Reason:    "nothing to fix",
		NewStatus: policy.StatusPresent,
	})
	assert.ErrorIs(t, err, summaryerrors.ErrNotAnException)
}

func TestService_Resolve_InvalidStatus(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeEventRepo{}, &fakePolicyRepo{})
	_, err := svc.Resolve(context.Background(), uuid.New().String(), uuid.New().String(), ResolveRequest{
		Reason:    "typo",
		NewStatus: "MAYBE",
	})
	assert.ErrorIs(t, err, summaryerrors.ErrInvalidStatus)
}

func TestService_ListExceptions_UnknownFlag(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeEventRepo{}, &fakePolicyRepo{})
	_, err := svc.ListExceptions(context.Background(), uuid.New().String(), "bogus_flag")
	assert.Error(t, err)
}
