// Package roster menyimpan salinan lokal direktori subjek cabang, direfresh
// dari /sync/pull. Kiosk memakainya untuk resolusi QR/PIN saat jaringan mati.
package roster

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Entry struct {
	SubjectUserID string  `gorm:"size:40;primaryKey"`
	SubjectType   string  `gorm:"size:10;not null"`
	FullName      string  `gorm:"size:120;not null"`
	Grade         *string `gorm:"size:20"`
	ClassName     *string `gorm:"size:60"`
	QRToken       string  `gorm:"size:100;uniqueIndex;not null"`
	PINCode       *string `gorm:"size:12;index"`
	SyncedAt      time.Time
}

func (Entry) TableName() string {
	return "kiosk_roster"
}

type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewStore(db *gorm.DB, logger ...*zap.Logger) (*Store, error) {
	l := zap.L().Named("kiosk.roster")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("kiosk.roster")
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &Store{db: db, logger: l}, nil
}

// Replace mengganti seluruh isi roster dengan snapshot hasil pull terakhir.
func (s *Store) Replace(ctx context.Context, entries []Entry) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Entry{}).Error; err != nil {
			return err
		}
		for i := range entries {
			entries[i].SyncedAt = now
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
}

func (s *Store) ByQRToken(ctx context.Context, qrToken string) (*Entry, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("qr_token = ?", qrToken).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) ByPIN(ctx context.Context, pin string) (*Entry, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("pin_code = ?", pin).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Entry{}).Count(&n).Error
	return n, err
}
