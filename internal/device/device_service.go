package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	deviceerrors "go-presensi/internal/device/errors"
	"go-presensi/internal/shared/apperror"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	liveKeyPrefix = "device:alive:"
	liveTTL       = 3 * time.Minute
)

func liveKey(deviceCode string) string {
	return liveKeyPrefix + deviceCode
}

//go:generate mockgen -source=device_service.go -destination=mock/device_service_mock.go -package=mock
type Service interface {
	Register(ctx context.Context, req RegisterDeviceRequest) (RegisterDeviceResponse, error)
	Heartbeat(ctx context.Context, req HeartbeatRequest) (DeviceResponse, error)
	// Authenticate memverifikasi device_code + api key; dipakai middleware
	// untuk endpoint scan & sync.
	Authenticate(ctx context.Context, deviceCode, apiKey string) (*Device, error)
	ListByBranch(ctx context.Context, branchID string) ([]DeviceResponse, error)
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	now    func() time.Time
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("device.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("device.service")
	}
	return &service{
		repo:   repo,
		rdb:    rdb,
		now:    func() time.Time { return time.Now().UTC() },
		logger: l,
	}
}

// Register mendaftarkan kiosk pada kontak pertama. API key dibuat sekali dan
// hanya hash-nya yang disimpan; key plaintext dikembalikan sekali di respons.
func (s *service) Register(ctx context.Context, req RegisterDeviceRequest) (RegisterDeviceResponse, error) {
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		return RegisterDeviceResponse{}, apperror.InvalidField("Tenant Id")
	}
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return RegisterDeviceResponse{}, apperror.InvalidField("Branch Id")
	}

	if _, err := s.repo.FindByCode(ctx, req.DeviceCode); err == nil {
		return RegisterDeviceResponse{}, deviceerrors.ErrDeviceCodeTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return RegisterDeviceResponse{}, err
	}

	apiKey := fmt.Sprintf("dk_%s", uuid.NewString())
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return RegisterDeviceResponse{}, err
	}

	scanPoint := req.ScanPointType
	if scanPoint == "" {
		scanPoint = ScanPointGate
	}

	row := &Device{
		ID:            uuid.New(),
		TenantID:      tenantID,
		BranchID:      branchID,
		DeviceCode:    req.DeviceCode,
		LocationLabel: req.LocationLabel,
		ScanPointType: scanPoint,
		APIKeyHash:    string(hash),
		IsActive:      true,
	}

	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("register device persist failed", zap.Error(err))
		return RegisterDeviceResponse{}, err
	}

	s.logger.Info("device registered",
		zap.String("device_code", row.DeviceCode),
		zap.String("branch_id", row.BranchID.String()),
		zap.String("scan_point_type", row.ScanPointType),
	)

	return RegisterDeviceResponse{
		DeviceResponse: mapToResponse(*row),
		APIKey:         apiKey,
	}, nil
}

func (s *service) Heartbeat(ctx context.Context, req HeartbeatRequest) (DeviceResponse, error) {
	row, err := s.repo.FindByCode(ctx, req.DeviceCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DeviceResponse{}, deviceerrors.ErrDeviceNotFound
		}
		return DeviceResponse{}, err
	}

	now := s.now()
	if err := s.repo.TouchHeartbeat(ctx, req.DeviceCode, now); err != nil {
		s.logger.Error("heartbeat persist failed", zap.Error(err))
		return DeviceResponse{}, err
	}
	row.LastHeartbeatAt = &now

	// Mirror liveness ke Redis dengan TTL untuk dashboard status kiosk
	if s.rdb != nil {
		if err := s.rdb.Set(ctx, liveKey(req.DeviceCode), now.Format(time.RFC3339), liveTTL).Err(); err != nil {
			s.logger.Warn("heartbeat redis mirror failed",
				zap.String("device_code", req.DeviceCode),
				zap.Error(err),
			)
		}
	}

	if req.QueueDepth > 0 {
		s.logger.Info("device reports queued events",
			zap.String("device_code", req.DeviceCode),
			zap.Int("queue_depth", req.QueueDepth),
		)
	}

	return mapToResponse(*row), nil
}

func (s *service) Authenticate(ctx context.Context, deviceCode, apiKey string) (*Device, error) {
	row, err := s.repo.FindByCode(ctx, deviceCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, deviceerrors.ErrDeviceNotFound
		}
		return nil, err
	}

	if !row.IsActive {
		return nil, deviceerrors.ErrDeviceInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.APIKeyHash), []byte(apiKey)); err != nil {
		return nil, deviceerrors.ErrInvalidAPIKey
	}

	return row, nil
}

func (s *service) ListByBranch(ctx context.Context, branchID string) ([]DeviceResponse, error) {
	rows, err := s.repo.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return MapToListResponse(rows), nil
}
