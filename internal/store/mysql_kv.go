package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nebula-chat/internal/model"
)

type MySQLKV struct {
	db *gorm.DB
}

func NewMySQLKV(db *gorm.DB) *MySQLKV {
	return &MySQLKV{db: db}
}

func (r *MySQLKV) Get(ctx context.Context, key string) (string, bool, error) {
	var entry model.KVEntry
	if err := r.db.WithContext(ctx).Where("`key` = ?", key).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get kv entry failed: %w", err)
	}
	return entry.Value, true, nil
}

func (r *MySQLKV) Set(ctx context.Context, key, value string) error {
	entry := model.KVEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("upsert kv entry failed: %w", err)
	}
	return nil
}
