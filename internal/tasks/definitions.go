package tasks

import (
	"time"

	"koalbot_console/internal/services"
)

// DefineTasks registers all available tasks
func DefineTasks(audit *services.AuditLog, retention time.Duration) {
	PruneAuditTask = NewPruneAuditTaskDef(audit, retention)
	RegisterHandler(PruneAuditTask.TaskID(), PruneAuditTask.HandleExecution)
}
