package policy

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=policy_repo.go -destination=mock/policy_repo_mock.go -package=mock
type Repository interface {
	FindByBranchAndSubjectType(ctx context.Context, branchID, subjectType string) (*AttendancePolicy, error)
	ListByBranch(ctx context.Context, branchID string) ([]AttendancePolicy, error)
	Upsert(ctx context.Context, p *AttendancePolicy) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByBranchAndSubjectType(ctx context.Context, branchID, subjectType string) (*AttendancePolicy, error) {
	var p AttendancePolicy
	err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Where("subject_type = ?", subjectType).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListByBranch(ctx context.Context, branchID string) ([]AttendancePolicy, error) {
	var rows []AttendancePolicy
	err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order("subject_type ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Upsert(ctx context.Context, p *AttendancePolicy) error {
	existing, err := r.FindByBranchAndSubjectType(ctx, p.BranchID.String(), p.SubjectType)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return r.db.WithContext(ctx).Create(p).Error
		}
		return err
	}
	p.ID = existing.ID
	return r.db.WithContext(ctx).Save(p).Error
}
