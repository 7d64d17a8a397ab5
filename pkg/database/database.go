// Package database wires the relational store adapter (RSA, spec.md §2):
// connection pooling, migrations, and the schema extensions (pgvector
// extension, generated tsvector column, GIN index) that plain GORM
// AutoMigrate cannot express.
package database

import (
	"fmt"
	"log"

	"github.com/SkyAerope/Brainpile/pkg/database/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// Init opens the PostgreSQL connection, runs migrations, and makes the
// connection available via DB(). Call this once at startup.
func Init(databaseURL string) {
	gormLogger := logger.Default.LogMode(logger.Warn)

	conn, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL database: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)

	if err := migrate(conn); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Printf("Successfully connected to PostgreSQL database")
	db = conn
}

// DB returns the process-wide GORM connection. Panics if Init has not run.
func DB() *gorm.DB {
	if db == nil {
		log.Fatal("Database not initialized. Call database.Init() first.")
	}
	return db
}

// SetDB overrides the process-wide connection. Used by tests against an
// ephemeral database.
func SetDB(conn *gorm.DB) {
	db = conn
}

// migrate runs GORM's schema autogeneration for the four domain tables, then
// layers on the raw-SQL extensions GORM cannot express: the pgvector
// extension, the generated searchable_text tsvector column, and its GIN
// index backing the C3 lexical recall channel (spec.md §4.6).
func migrate(conn *gorm.DB) error {
	if err := conn.Exec(`CREATE EXTENSION IF NOT EXISTS vector`).Error; err != nil {
		return fmt.Errorf("enable pgvector extension: %w", err)
	}

	if err := conn.AutoMigrate(
		&models.Entity{},
		&models.Tag{},
		&models.Task{},
		&models.Item{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	if err := conn.Exec(`
		ALTER TABLE items ADD COLUMN IF NOT EXISTS searchable_tsv tsvector
		GENERATED ALWAYS AS (to_tsvector('simple', coalesce(searchable_text, ''))) STORED
	`).Error; err != nil {
		return fmt.Errorf("add searchable_tsv column: %w", err)
	}

	if err := conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_items_searchable_tsv ON items USING GIN (searchable_tsv)
	`).Error; err != nil {
		return fmt.Errorf("create tsvector index: %w", err)
	}

	return nil
}

// Health reports the connectivity and pool status of the relational store.
func Health() map[string]string {
	stats := make(map[string]string)

	sqlDB, err := db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("failed to get sql.DB: %v", err)
		return stats
	}

	if err := sqlDB.Ping(); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	dbStats := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)
	return stats
}

// Close terminates the database connection.
func Close() error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	log.Println("Closing database connection")
	return sqlDB.Close()
}
