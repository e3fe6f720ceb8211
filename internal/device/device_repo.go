package device

import (
	"context"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=device_repo.go -destination=mock/device_repo_mock.go -package=mock
type Repository interface {
	Create(ctx context.Context, d *Device) error
	FindByCode(ctx context.Context, deviceCode string) (*Device, error)
	ListByBranch(ctx context.Context, branchID string) ([]Device, error)
	TouchHeartbeat(ctx context.Context, deviceCode string, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, d *Device) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *repository) FindByCode(ctx context.Context, deviceCode string) (*Device, error) {
	var d Device
	err := r.db.WithContext(ctx).
		Where("device_code = ?", deviceCode).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repository) ListByBranch(ctx context.Context, branchID string) ([]Device, error) {
	var rows []Device
	err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order("device_code ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) TouchHeartbeat(ctx context.Context, deviceCode string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Device{}).
		Where("device_code = ?", deviceCode).
		Updates(map[string]any{
			"last_heartbeat_at": at,
			"updated_at":        at,
		}).Error
}
