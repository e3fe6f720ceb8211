package scan

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"go-presensi/internal/event"
	"go-presensi/internal/messaging/kafka"
	"go-presensi/internal/policy"
	scanerrors "go-presensi/internal/scan/errors"
	"go-presensi/internal/subject"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeSubjectRepo struct {
	subject *subject.Subject
	block   *subject.SubjectBlock
	permit  *subject.EarlyLeavePermit
}

func (f *fakeSubjectRepo) FindByQRToken(ctx context.Context, qrToken string) (*subject.Subject, error) {
	if f.subject == nil || f.subject.QRToken != qrToken {
		return nil, gorm.ErrRecordNotFound
	}
	return f.subject, nil
}
func (f *fakeSubjectRepo) FindByPIN(ctx context.Context, branchID, pin string) (*subject.Subject, error) {
	if f.subject == nil || f.subject.PINCode == nil || *f.subject.PINCode != pin {
		return nil, gorm.ErrRecordNotFound
	}
	return f.subject, nil
}
func (f *fakeSubjectRepo) ListActiveByBranch(ctx context.Context, branchID string) ([]subject.Subject, error) {
	return nil, nil
}
func (f *fakeSubjectRepo) ActiveBlock(ctx context.Context, subjectUserID string, at time.Time) (*subject.SubjectBlock, error) {
	if f.block == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.block, nil
}
func (f *fakeSubjectRepo) PermitForDate(ctx context.Context, subjectUserID string, date time.Time) (*subject.EarlyLeavePermit, error) {
	if f.permit == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.permit, nil
}

type fakeEventRepo struct {
	stored []*event.AttendanceEvent
	last   *event.AttendanceEvent
}

func (f *fakeEventRepo) WithTx(tx *sql.Tx) event.Repository { return f }
func (f *fakeEventRepo) UpsertByIdempotencyKey(ctx context.Context, e *event.AttendanceEvent) (*event.AttendanceEvent, bool, error) {
	e.ID = uuid.New()
	f.stored = append(f.stored, e)
	return e, true, nil
}
func (f *fakeEventRepo) FindByIdempotencyKey(ctx context.Context, key string) (*event.AttendanceEvent, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeEventRepo) ListBySubjectAndDate(ctx context.Context, tenantID, subjectUserID string, date time.Time) ([]event.AttendanceEvent, error) {
	return nil, nil
}
func (f *fakeEventRepo) ListByBranchAndDate(ctx context.Context, branchID, subjectType string, date time.Time) ([]event.AttendanceEvent, error) {
	return nil, nil
}
func (f *fakeEventRepo) LastForSubjectOnDate(ctx context.Context, tenantID, subjectUserID string, date time.Time) (*event.AttendanceEvent, error) {
	if f.last == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.last, nil
}

type fakePolicyRepo struct {
	policy *policy.AttendancePolicy
}

func (f *fakePolicyRepo) FindByBranchAndSubjectType(ctx context.Context, branchID, subjectType string) (*policy.AttendancePolicy, error) {
	if f.policy == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.policy, nil
}
func (f *fakePolicyRepo) ListByBranch(ctx context.Context, branchID string) ([]policy.AttendancePolicy, error) {
	return nil, nil
}
func (f *fakePolicyRepo) Upsert(ctx context.Context, p *policy.AttendancePolicy) error { return nil }

type fakeOutbox struct {
	created  []kafka.OutboxEvent
	failWith error
}

func (f *fakeOutbox) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }
func (f *fakeOutbox) Create(ctx context.Context, e kafka.OutboxEvent) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.created = append(f.created, e)
	return nil
}
func (f *fakeOutbox) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutbox) MarkSent(ctx context.Context, id string) error           { return nil }
func (f *fakeOutbox) MarkFailed(ctx context.Context, id, reason string) error { return nil }

func testSubject() *subject.Subject {
	grade := "5"
	className := "5B"
	pin := "482913"
	return &subject.Subject{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		BranchID:    uuid.New(),
		UserID:      uuid.New(),
		SubjectType: event.SubjectLearner,
		FullName:    "Ahmad Fauzi",
		Grade:       &grade,
		ClassName:   &className,
		QRToken:     "qr-ahmad",
		PINCode:     &pin,
		IsActive:    true,
	}
}

func TestService_ProcessScan_CheckInToggle(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	subj := testSubject()
	subjectRepo := &fakeSubjectRepo{subject: subj}
	eventRepo := &fakeEventRepo{}
	outbox := &fakeOutbox{}

	svc := NewService(db, eventRepo, subjectRepo, &fakePolicyRepo{}, outbox).(*service)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.ProcessScan(context.Background(), subj.TenantID.String(), subj.BranchID.String(), "GATE-01",
		ScanRequest{QRToken: "qr-ahmad"})

	assert.NoError(t, err)
	assert.Equal(t, ResultSuccess, resp.Status)
	assert.Equal(t, event.TypeCheckIn, resp.EventType)
	assert.Equal(t, "Ahmad Fauzi", resp.LearnerName)
	assert.NotEmpty(t, resp.IdempotencyKey)
	assert.Len(t, eventRepo.stored, 1)
	assert.Len(t, outbox.created, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_ProcessScan_TogglesToCheckout(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	subj := testSubject()
	eventRepo := &fakeEventRepo{
		last: &event.AttendanceEvent{EventType: event.TypeCheckIn},
	}
	svc := NewService(db, eventRepo, &fakeSubjectRepo{subject: subj}, &fakePolicyRepo{}, &fakeOutbox{}).(*service)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.ProcessScan(context.Background(), subj.TenantID.String(), subj.BranchID.String(), "GATE-01",
		ScanRequest{QRToken: "qr-ahmad"})

	assert.NoError(t, err)
	assert.Equal(t, event.TypeCheckOut, resp.EventType)
}

func TestService_ProcessScan_BlockedRecordsNothing(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	subj := testSubject()
	subjectRepo := &fakeSubjectRepo{
		subject: subj,
		block:   &subject.SubjectBlock{Reason: "administrative hold"},
	}
	eventRepo := &fakeEventRepo{}
	outbox := &fakeOutbox{}

	svc := NewService(db, eventRepo, subjectRepo, &fakePolicyRepo{}, outbox).(*service)
	resp, err := svc.ProcessScan(context.Background(), subj.TenantID.String(), subj.BranchID.String(), "GATE-01",
		ScanRequest{QRToken: "qr-ahmad"})

	assert.NoError(t, err)
	assert.Equal(t, ResultBlocked, resp.Status)
	assert.True(t, resp.Blocked)
	assert.Equal(t, "administrative hold", resp.BlockReason)
	// Tidak ada event, tidak ada outbox
	assert.Empty(t, eventRepo.stored)
	assert.Empty(t, outbox.created)
}

func TestService_ProcessScan_EarlyLeaveWithPermit(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	subj := testSubject()
	subjectRepo := &fakeSubjectRepo{
		subject: subj,
		permit: &subject.EarlyLeavePermit{
			PickupPersonName:     "Ibu Ratna",
			PickupPersonRelation: "mother",
			Verified:             true,
		},
	}
	eventRepo := &fakeEventRepo{
		last: &event.AttendanceEvent{EventType: event.TypeCheckIn},
	}
	policyRepo := &fakePolicyRepo{policy: &policy.AttendancePolicy{
		StartTime:    "07:30",
		EndTime:      "15:00",
		GraceMinutes: 10,
	}}

	svc := NewService(db, eventRepo, subjectRepo, policyRepo, &fakeOutbox{}).(*service)
	// 11:00 = jauh sebelum 14:50 (end - grace)
	svc.now = func() time.Time { return time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC) }

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.ProcessScan(context.Background(), subj.TenantID.String(), subj.BranchID.String(), "GATE-01",
		ScanRequest{QRToken: "qr-ahmad"})

	assert.NoError(t, err)
	assert.Equal(t, ResultEarlyLeave, resp.Status)
	assert.True(t, resp.EarlyLeave)
	assert.Equal(t, "Ibu Ratna", resp.PickupPersonName)
	assert.Equal(t, "mother", resp.PickupPersonRelation)
	// Event checkout tetap tercatat
	assert.Len(t, eventRepo.stored, 1)
	assert.Equal(t, event.TypeCheckOut, eventRepo.stored[0].EventType)
}

func TestService_ProcessScan_OutboxFailureRollsBack(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	subj := testSubject()
	outbox := &fakeOutbox{failWith: errors.New("outbox insert failed")}
	svc := NewService(db, &fakeEventRepo{}, &fakeSubjectRepo{subject: subj}, &fakePolicyRepo{}, outbox).(*service)

	// Event dan baris outbox satu transaksi: gagal menulis outbox berarti
	// insert event ikut batal, bukan event yatim tanpa recompute
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.ProcessScan(context.Background(), subj.TenantID.String(), subj.BranchID.String(), "GATE-01",
		ScanRequest{QRToken: "qr-ahmad"})

	assert.Error(t, err)
	assert.Empty(t, outbox.created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_ProcessScan_UnknownToken(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	svc := NewService(db, &fakeEventRepo{}, &fakeSubjectRepo{}, &fakePolicyRepo{}, &fakeOutbox{}).(*service)
	_, err := svc.ProcessScan(context.Background(), uuid.New().String(), uuid.New().String(), "GATE-01",
		ScanRequest{QRToken: "qr-nobody"})
	assert.ErrorIs(t, err, scanerrors.ErrUnknownToken)
}

func TestService_ProcessScan_MissingCredential(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	svc := NewService(db, &fakeEventRepo{}, &fakeSubjectRepo{}, &fakePolicyRepo{}, &fakeOutbox{}).(*service)
	_, err := svc.ProcessScan(context.Background(), uuid.New().String(), uuid.New().String(), "GATE-01", ScanRequest{})
	assert.ErrorIs(t, err, scanerrors.ErrMissingCredential)
}

func TestService_ProcessScan_PINLookup(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	subj := testSubject()
	svc := NewService(db, &fakeEventRepo{}, &fakeSubjectRepo{subject: subj}, &fakePolicyRepo{}, &fakeOutbox{}).(*service)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.ProcessScan(context.Background(), subj.TenantID.String(), subj.BranchID.String(), "GATE-01",
		ScanRequest{PINCode: "482913"})

	assert.NoError(t, err)
	assert.Equal(t, ResultSuccess, resp.Status)
}
