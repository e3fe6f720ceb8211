package connection

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenLocalSQLite membuka database SQLite lokal untuk antrian kiosk.
// WAL + busy_timeout supaya loop capture dan task sync bisa saling tunggu
// tanpa error "database is locked".
func OpenLocalSQLite(path string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open local sqlite %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// Satu koneksi saja: serialisasi tulis di level pool, bukan di SQLite
	sqlDB.SetMaxOpenConns(1)

	log.Println("✅ Local queue database opened")
	return db, nil
}
