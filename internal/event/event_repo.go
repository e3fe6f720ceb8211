package event

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=event_repo.go -destination=mock/event_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	// UpsertByIdempotencyKey menyimpan event baru, atau mengembalikan baris
	// lama kalau key sudah pernah tersimpan. created=false artinya duplicate.
	UpsertByIdempotencyKey(ctx context.Context, e *AttendanceEvent) (*AttendanceEvent, bool, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*AttendanceEvent, error)
	ListBySubjectAndDate(ctx context.Context, tenantID, subjectUserID string, date time.Time) ([]AttendanceEvent, error)
	ListByBranchAndDate(ctx context.Context, branchID, subjectType string, date time.Time) ([]AttendanceEvent, error)
	LastForSubjectOnDate(ctx context.Context, tenantID, subjectUserID string, date time.Time) (*AttendanceEvent, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx mengikat seluruh query repo ke transaksi caller, supaya insert event
// dan baris outbox bisa commit atau rollback bersama.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: tx}), &gorm.Config{})
	if err != nil {
		return r
	}
	return &repository{db: db}
}

func (r *repository) UpsertByIdempotencyKey(ctx context.Context, e *AttendanceEvent) (*AttendanceEvent, bool, error) {
	// DO NOTHING pada konflik key: duplicate tidak membatalkan transaksi
	// yang sedang membawa baris outbox
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(e)
	if res.Error != nil {
		if isUniqueKeyViolation(res.Error) {
			existing, findErr := r.FindByIdempotencyKey(ctx, e.IdempotencyKey)
			if findErr != nil {
				return nil, false, res.Error
			}
			return existing, false, nil
		}
		return nil, false, res.Error
	}

	if res.RowsAffected == 0 {
		// At-least-once delivery: key sudah ada, kembalikan baris tersimpan
		existing, findErr := r.FindByIdempotencyKey(ctx, e.IdempotencyKey)
		if findErr != nil {
			return nil, false, findErr
		}
		return existing, false, nil
	}
	return e, true, nil
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, key string) (*AttendanceEvent, error) {
	var e AttendanceEvent
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) ListBySubjectAndDate(ctx context.Context, tenantID, subjectUserID string, date time.Time) ([]AttendanceEvent, error) {
	var rows []AttendanceEvent
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where("subject_user_id = ?", subjectUserID).
		Where("captured_at_device >= ? AND captured_at_device < ?", dayStart(date), dayStart(date).Add(24*time.Hour)).
		Order("captured_at_device ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByBranchAndDate(ctx context.Context, branchID, subjectType string, date time.Time) ([]AttendanceEvent, error) {
	var rows []AttendanceEvent
	q := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Where("captured_at_device >= ? AND captured_at_device < ?", dayStart(date), dayStart(date).Add(24*time.Hour))
	if subjectType != "" {
		q = q.Where("subject_type = ?", subjectType)
	}
	err := q.Order("captured_at_device ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) LastForSubjectOnDate(ctx context.Context, tenantID, subjectUserID string, date time.Time) (*AttendanceEvent, error) {
	var e AttendanceEvent
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where("subject_user_id = ?", subjectUserID).
		Where("captured_at_device >= ? AND captured_at_device < ?", dayStart(date), dayStart(date).Add(24*time.Hour)).
		Order("captured_at_device DESC, id DESC").
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isUniqueKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "uq_attendance_events_idem_key"
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "idem_key")
}
