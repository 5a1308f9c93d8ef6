package tasks

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// TaskHandler is the function signature for a task handler
// It takes context and arguments, and returns a result map and error
type TaskHandler func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error)

// Registry stores the mapping of task names to handlers
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]TaskHandler
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]TaskHandler)}
}

// GlobalRegistry is the default global registry
var GlobalRegistry = NewRegistry()

// Register adds a handler for a task name
func (r *Registry) Register(name string, handler TaskHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// Get retrieves a handler for a task name
func (r *Registry) Get(name string) (TaskHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[name]
	return handler, ok
}

// Execute runs the handler of job, retrying up to job.MaxAttempt times
func (r *Registry) Execute(ctx context.Context, job Job) (map[string]interface{}, error) {
	handler, ok := r.Get(job.TaskName)
	if !ok {
		return nil, fmt.Errorf("task handler not found for: %s", job.TaskName)
	}

	attempts := job.MaxAttempt
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := handler(ctx, job.Arguments)
		if err == nil {
			return result, nil
		}
		lastErr = err
		log.Printf("Task %s failed (attempt %d/%d): %v", job.TaskName, attempt, attempts, err)
	}
	return nil, fmt.Errorf("task %s failed after %d attempts: %w", job.TaskName, attempts, lastErr)
}

// RegisterHandler is a helper to register to the global registry
func RegisterHandler(name string, handler TaskHandler) {
	GlobalRegistry.Register(name, handler)
}

// GetHandler is a helper to get from the global registry
func GetHandler(name string) (TaskHandler, bool) {
	return GlobalRegistry.Get(name)
}
