package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"koalbot_console/internal/services"
)

// PruneAuditTaskDef deletes audit entries older than the retention window
type PruneAuditTaskDef struct {
	audit     *services.AuditLog
	retention time.Duration
	now       func() time.Time
}

// NewPruneAuditTaskDef creates the task over audit
func NewPruneAuditTaskDef(audit *services.AuditLog, retention time.Duration) *PruneAuditTaskDef {
	return &PruneAuditTaskDef{audit: audit, retention: retention, now: time.Now}
}

// TaskID returns the unique identifier for this task
func (t *PruneAuditTaskDef) TaskID() string {
	return "prune_audit_log"
}

// HandleExecution removes old entries. The "retention_hours" argument overrides
// the configured retention.
func (t *PruneAuditTaskDef) HandleExecution(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	retention := t.retention
	switch v := args["retention_hours"].(type) {
	case int:
		retention = time.Duration(v) * time.Hour
	case float64:
		retention = time.Duration(v * float64(time.Hour))
	}
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %s", retention)
	}

	cutoff := t.now().Add(-retention)
	deleted, err := t.audit.Prune(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	log.Printf("[Task: prune_audit_log] Deleted %d entries older than %s", deleted, cutoff.Format(time.RFC3339))

	return map[string]interface{}{
		"status":  "success",
		"deleted": deleted,
		"cutoff":  cutoff,
	}, nil
}

// PruneAuditTask is the instance registered by DefineTasks
var PruneAuditTask *PruneAuditTaskDef
