package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flexbet/FlexCodeBot-Go/bot"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Repository provides access to the bot state database: processed-message
// dedup marks, conversion history and counters.
type Repository struct {
	db *gorm.DB
}

// NewSQLiteRepository creates a repository backed by SQLite.
func NewSQLiteRepository(dsn string, gormLogger logger.Interface) (*Repository, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn required")
	}

	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	dbDir := filepath.Dir(dsn)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 gormLogger,
	})
	if err != nil {
		return nil, err
	}

	if err := applySQLitePragmas(db); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&ProcessedMessageModel{}, &ConversionRecordModel{}, &BotStatModel{}); err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Repository{db: db}, nil
}

// ConfigurePool updates the database connection pool settings.
func (r *Repository) ConfigurePool(maxOpen, maxIdle int, maxLifetime time.Duration) error {
	if r == nil || r.db == nil {
		return errors.New("repository not configured")
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	if maxOpen >= 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle >= 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime >= 0 {
		sqlDB.SetConnMaxLifetime(maxLifetime)
	}
	return nil
}

// MarkProcessed records that a message was handled. Marking the same
// message twice is a no-op.
func (r *Repository) MarkProcessed(ctx context.Context, transport, kind, messageID string) error {
	if r == nil || r.db == nil {
		return errors.New("repository not configured")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "transport"},
			{Name: "kind"},
			{Name: "message_id"},
		},
		DoNothing: true,
	}).Create(&ProcessedMessageModel{
		Transport: transport,
		Kind:      kind,
		MessageID: messageID,
	}).Error
}

// IsProcessed reports whether a message was already handled.
func (r *Repository) IsProcessed(ctx context.Context, transport, kind, messageID string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("repository not configured")
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&ProcessedMessageModel{}).
		Where("transport = ? AND kind = ? AND message_id = ?", transport, kind, messageID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// LoadProcessed returns the most recently marked message IDs for one
// transport and message kind, newest first. Sessions use it to warm their
// in-memory dedup set after a restart.
func (r *Repository) LoadProcessed(ctx context.Context, transport, kind string, limit int) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("repository not configured")
	}
	if limit <= 0 {
		limit = 1000
	}

	var ids []string
	err := r.db.WithContext(ctx).Model(&ProcessedMessageModel{}).
		Where("transport = ? AND kind = ?", transport, kind).
		Order("id DESC").
		Limit(limit).
		Pluck("message_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// SaveConversion appends one history entry and fills in the assigned ID and
// creation time.
func (r *Repository) SaveConversion(ctx context.Context, rec *bot.ConversionRecord) error {
	if r == nil || r.db == nil {
		return errors.New("repository not configured")
	}
	if rec == nil {
		return errors.New("nil conversion record")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := toModel(rec)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		rec.ID = model.ID
		rec.CreatedAt = model.CreatedAt
		return nil
	})
}

// RecentConversions returns the latest history entries, newest first.
func (r *Repository) RecentConversions(ctx context.Context, limit int) ([]bot.ConversionRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("repository not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	var models []ConversionRecordModel
	err := r.db.WithContext(ctx).Model(&ConversionRecordModel{}).
		Order("id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	records := make([]bot.ConversionRecord, 0, len(models))
	for _, model := range models {
		records = append(records, toInternal(model))
	}
	return records, nil
}

// IncrStat adds delta to a named counter, creating it on first use.
func (r *Repository) IncrStat(ctx context.Context, key string, delta int64) error {
	if r == nil || r.db == nil {
		return errors.New("repository not configured")
	}
	if delta == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&BotStatModel{}).Where("key = ?", key).UpdateColumn("value", gorm.Expr("value + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Create(&BotStatModel{Key: key, Value: delta}).Error
	})
}

// GetStat returns a named counter, zero when it was never incremented.
func (r *Repository) GetStat(ctx context.Context, key string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("repository not configured")
	}
	var stat BotStatModel
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&stat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return stat.Value, nil
}

// StatsSnapshot returns all counters keyed by name.
func (r *Repository) StatsSnapshot(ctx context.Context) (map[string]int64, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("repository not configured")
	}
	var stats []BotStatModel
	if err := r.db.WithContext(ctx).Find(&stats).Error; err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(stats))
	for _, stat := range stats {
		result[stat.Key] = stat.Value
	}
	return result, nil
}

// CountProcessed returns total dedup marks for one transport.
func (r *Repository) CountProcessed(ctx context.Context, transport string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("repository not configured")
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&ProcessedMessageModel{}).
		Where("transport = ?", transport).
		Count(&count).Error
	return count, err
}

func applySQLitePragmas(db *gorm.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-64000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, stmt := range pragmas {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	return sqlDB.Close()
}
