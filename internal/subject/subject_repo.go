package subject

import (
	"context"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=subject_repo.go -destination=mock/subject_repo_mock.go -package=mock
type Repository interface {
	FindByQRToken(ctx context.Context, qrToken string) (*Subject, error)
	FindByPIN(ctx context.Context, branchID, pin string) (*Subject, error)
	ListActiveByBranch(ctx context.Context, branchID string) ([]Subject, error)
	ActiveBlock(ctx context.Context, subjectUserID string, at time.Time) (*SubjectBlock, error)
	PermitForDate(ctx context.Context, subjectUserID string, date time.Time) (*EarlyLeavePermit, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByQRToken(ctx context.Context, qrToken string) (*Subject, error) {
	var s Subject
	err := r.db.WithContext(ctx).
		Where("qr_token = ?", qrToken).
		Where("is_active = true").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) FindByPIN(ctx context.Context, branchID, pin string) (*Subject, error) {
	var s Subject
	err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Where("pin_code = ?", pin).
		Where("is_active = true").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListActiveByBranch(ctx context.Context, branchID string) ([]Subject, error) {
	var rows []Subject
	err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Where("is_active = true").
		Order("full_name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ActiveBlock(ctx context.Context, subjectUserID string, at time.Time) (*SubjectBlock, error) {
	var b SubjectBlock
	err := r.db.WithContext(ctx).
		Where("subject_user_id = ?", subjectUserID).
		Where("starts_at <= ?", at).
		Where("ends_at IS NULL OR ends_at > ?", at).
		Order("starts_at DESC").
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) PermitForDate(ctx context.Context, subjectUserID string, date time.Time) (*EarlyLeavePermit, error) {
	var p EarlyLeavePermit
	err := r.db.WithContext(ctx).
		Where("subject_user_id = ?", subjectUserID).
		Where("permit_date = ?", date.Format("2006-01-02")).
		Where("verified = true").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
