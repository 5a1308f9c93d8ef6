package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/teambition/rrule-go"
)

// Job is a task run on a recurring RFC 5545 schedule
type Job struct {
	TaskName   string
	Rule       string
	Arguments  map[string]interface{}
	MaxAttempt int
}

// NextRun returns the first occurrence of rule strictly after after
func NextRun(rule string, after time.Time) (time.Time, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q: %w", rule, err)
	}
	r.DTStart(after)
	return r.After(after, false), nil
}

// Run executes job at every occurrence of its rule until ctx is done or the
// rule has no occurrence left
func (r *Registry) Run(ctx context.Context, job Job) error {
	for {
		next, err := NextRun(job.Rule, time.Now())
		if err != nil {
			return err
		}
		if next.IsZero() {
			log.Printf("Schedule of %s has no further occurrence", job.TaskName)
			return nil
		}
		log.Printf("Next run of %s at %s", job.TaskName, next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		result, err := r.Execute(ctx, job)
		if err != nil {
			log.Printf("Task %s failed: %v", job.TaskName, err)
			continue
		}
		log.Printf("Task %s completed successfully: %v", job.TaskName, result)
	}
}
