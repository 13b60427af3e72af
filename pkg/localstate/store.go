// Package localstate is the gateway's stand-in for the browser's local
// storage: one JSON blob per storage key, persisted synchronously on every
// mutation so a restart reconstructs client state exactly.
package localstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/bucketcart/storefront-gateway/pkg/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Entry is a single storage slot.
type Entry struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     []byte
	UpdatedAt time.Time
}

// TableName keeps the table name stable across gorm naming strategies.
func (Entry) TableName() string {
	return "state_entries"
}

// Store reads and writes JSON-encoded entries keyed by storage key.
type Store struct {
	conn *gorm.DB
}

// Open boots the state database and migrates the entries table.
func Open(cfg config.StateConfig) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("state path is required")
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	if err := conn.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrating state db: %w", err)
	}

	return &Store{conn: conn}, nil
}

// Put marshals value and upserts it under key in the same call.
func (s *Store) Put(ctx context.Context, key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("storage key is required")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	entry := Entry{Key: key, Value: raw, UpdatedAt: time.Now().UTC()}
	return s.conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}

// Get unmarshals the entry at key into dest. The boolean reports presence.
func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	var entry Entry
	err := s.conn.WithContext(ctx).First(&entry, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(entry.Value, dest); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// Delete removes the entry at key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.conn.WithContext(ctx).Delete(&Entry{}, "key = ?", key).Error
}

// DeleteOlderThan evicts entries under prefix not touched since cutoff and
// reports how many were removed.
func (s *Store) DeleteOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int64, error) {
	res := s.conn.WithContext(ctx).
		Where("key LIKE ? AND updated_at < ?", prefix+"%", cutoff).
		Delete(&Entry{})
	return res.RowsAffected, res.Error
}

// Ping verifies the datasource is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the pooled connections.
func (s *Store) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
