package summary

import (
	"context"
	"time"

	"go-presensi/internal/policy"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=summary_repo.go -destination=mock/summary_repo_mock.go -package=mock
type Repository interface {
	Upsert(ctx context.Context, s *AttendanceSummary) error
	FindByID(ctx context.Context, id string) (*AttendanceSummary, error)
	FindBySubjectAndDate(ctx context.Context, subjectUserID string, date time.Time) (*AttendanceSummary, error)
	ListByBranchAndDate(ctx context.Context, branchID, subjectType string, date time.Time) ([]AttendanceSummary, error)
	ListExceptions(ctx context.Context, branchID string, flag policy.Flag) ([]AttendanceSummary, error)
	Update(ctx context.Context, s *AttendanceSummary) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Upsert(ctx context.Context, s *AttendanceSummary) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "subject_user_id"}, {Name: "summary_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "earliest_check_in", "latest_check_out",
				"late_minutes", "flags", "updated_at",
			}),
		}).
		Create(s).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*AttendanceSummary, error) {
	var s AttendanceSummary
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) FindBySubjectAndDate(ctx context.Context, subjectUserID string, date time.Time) (*AttendanceSummary, error) {
	var s AttendanceSummary
	err := r.db.WithContext(ctx).
		Where("subject_user_id = ?", subjectUserID).
		Where("summary_date = ?", date.Format("2006-01-02")).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListByBranchAndDate(ctx context.Context, branchID, subjectType string, date time.Time) ([]AttendanceSummary, error) {
	var rows []AttendanceSummary
	q := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Where("summary_date = ?", date.Format("2006-01-02"))
	if subjectType != "" {
		q = q.Where("subject_type = ?", subjectType)
	}
	err := q.Order("subject_user_id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) ListExceptions(ctx context.Context, branchID string, flag policy.Flag) ([]AttendanceSummary, error) {
	var rows []AttendanceSummary
	q := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Where("flags <> 0").
		Where("flags & ? = 0", int(policy.FlagOverridden))
	if flag != 0 {
		q = q.Where("flags & ? <> 0", int(flag))
	}
	err := q.Order("summary_date DESC, subject_user_id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, s *AttendanceSummary) error {
	return r.db.WithContext(ctx).Save(s).Error
}
