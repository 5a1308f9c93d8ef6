package models

import (
	"time"

	"gorm.io/gorm"
)

// AuditAction is the kind of change made from the console
type AuditAction string

const (
	AuditActionLogin  AuditAction = "login"
	AuditActionLogout AuditAction = "logout"
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionToggle AuditAction = "toggle"
	AuditActionDelete AuditAction = "delete"
)

// AuditEntry records one mutating action performed through the console
type AuditEntry struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Actor    string      `gorm:"type:varchar(255);index" json:"actor"`
	Action   AuditAction `gorm:"type:varchar(20)" json:"action"`
	Entity   string      `gorm:"type:varchar(50)" json:"entity"`
	EntityID string      `gorm:"type:varchar(100)" json:"entity_id"`
	Success  bool        `json:"success"`
	Detail   string      `gorm:"type:text" json:"detail"`
}
