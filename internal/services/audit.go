package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"koalbot_console/internal/models"
)

// AuditLog stores what operators changed through the console. A nil database
// disables it: every method is then a no-op.
type AuditLog struct {
	db *gorm.DB
}

// NewAuditLog creates an audit log over db, which may be nil
func NewAuditLog(db *gorm.DB) *AuditLog {
	return &AuditLog{db: db}
}

// Enabled reports whether entries are persisted
func (a *AuditLog) Enabled() bool {
	return a != nil && a.db != nil
}

// Record stores one entry
func (a *AuditLog) Record(ctx context.Context, entry models.AuditEntry) error {
	if !a.Enabled() {
		return nil
	}
	if err := a.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first
func (a *AuditLog) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if !a.Enabled() {
		return nil, nil
	}
	var entries []models.AuditEntry
	err := a.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load audit entries: %w", err)
	}
	return entries, nil
}

// Prune permanently deletes entries created before cutoff
func (a *AuditLog) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if !a.Enabled() {
		return 0, nil
	}
	res := a.db.WithContext(ctx).Unscoped().Where("created_at < ?", cutoff).Delete(&models.AuditEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune audit entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}
