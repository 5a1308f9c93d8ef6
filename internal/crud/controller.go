// Package crud holds the view model behind every paginated entity page: the rows
// currently shown, the pagination window, the search term and per-row update state.
package crud

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"koalbot_console/internal/models"
)

var (
	// ErrRowBusy is returned when a row already has an update in flight
	ErrRowBusy = errors.New("row is being updated")
	// ErrRowNotFound is returned when the row is not part of the current page
	ErrRowNotFound = errors.New("row not found")
)

// Logger is the subset of echo.Logger the controller needs
type Logger interface {
	Errorf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Errorf(string, ...interface{}) {}

// Query selects one page of an entity list
type Query struct {
	Page   int
	Limit  int
	Search string
}

// Source is the backend side of an entity
type Source[T any] interface {
	List(ctx context.Context, q Query) (models.Page[T], error)
	Create(ctx context.Context, payload any) error
	Update(ctx context.Context, id string, patch map[string]any) error
	Delete(ctx context.Context, id string) error
}

// Entity describes how the controller reads and writes a record type
type Entity[T any] struct {
	Name      string
	ID        func(T) string
	Active    func(T) bool
	SetActive func(T, bool) T
}

// Status is the page-level activity
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSaving  Status = "saving"
)

// Snapshot is a consistent copy of the controller state for rendering
type Snapshot[T any] struct {
	Rows       []T
	Pagination models.Pagination
	Search     string
	Status     Status
	Updating   map[string]bool
}

// Busy reports whether the row with id has an update in flight
func (s Snapshot[T]) Busy(id string) bool {
	return s.Updating[id]
}

// Controller is safe for concurrent use. The lock is never held across a backend call.
type Controller[T any] struct {
	source       Source[T]
	entity       Entity[T]
	logger       Logger
	defaultLimit int

	mu         sync.Mutex
	rows       []T
	pagination models.Pagination
	search     string
	saving     int
	updating   map[string]bool
	fields     map[string]*Optimistic[bool]

	// issued is the sequence of the newest list request, resolved the newest one
	// that returned and applied the newest one whose rows are shown.
	issued   uint64
	resolved uint64
	applied  uint64
}

// NewController creates an empty view model
func NewController[T any](source Source[T], entity Entity[T], defaultLimit int, logger Logger) *Controller[T] {
	if logger == nil {
		logger = nopLogger{}
	}
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &Controller[T]{
		source:       source,
		entity:       entity,
		logger:       logger,
		defaultLimit: defaultLimit,
		pagination:   models.Pagination{Page: 1, Limit: defaultLimit, Pages: 1},
		updating:     make(map[string]bool),
		fields:       make(map[string]*Optimistic[bool]),
	}
}

// Query returns the window currently shown
func (c *Controller[T]) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Query{Page: c.pagination.Page, Limit: c.pagination.Limit, Search: c.search}
}

// Load fetches one page. Only a response newer than the one on screen replaces it;
// on failure the last good rows stay and the error is returned.
func (c *Controller[T]) Load(ctx context.Context, page, limit int, search string) error {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = c.defaultLimit
	}

	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.search = search
	c.mu.Unlock()

	res, err := c.source.List(ctx, Query{Page: page, Limit: limit, Search: search})

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq > c.resolved {
		c.resolved = seq
	}
	if err != nil {
		c.logger.Errorf("failed to load %s: %v", c.entity.Name, err)
		return fmt.Errorf("load %s: %w", c.entity.Name, err)
	}
	if seq <= c.applied {
		return nil
	}

	c.applied = seq
	c.rows = append([]T(nil), res.Data...)
	c.pagination = res.Pagination
	if c.pagination.Limit < 1 {
		c.pagination.Limit = limit
	}
	for id, f := range c.fields {
		if f.State() != Pending {
			delete(c.fields, id)
		}
	}
	return nil
}

// Refresh reloads the current window
func (c *Controller[T]) Refresh(ctx context.Context) error {
	q := c.Query()
	return c.Load(ctx, q.Page, q.Limit, q.Search)
}

// Search reloads page 1 for a new search term
func (c *Controller[T]) Search(ctx context.Context, search string) error {
	return c.Load(ctx, 1, c.Query().Limit, search)
}

// GoTo loads another page with the current search and limit
func (c *Controller[T]) GoTo(ctx context.Context, page int) error {
	q := c.Query()
	return c.Load(ctx, page, q.Limit, q.Search)
}

// SetLimit changes the page size and goes back to page 1
func (c *Controller[T]) SetLimit(ctx context.Context, limit int) error {
	return c.Load(ctx, 1, limit, c.Query().Search)
}

// Toggle flips the active flag of one row optimistically. The row shows next
// right away and goes back to its previous value if the backend rejects it.
func (c *Controller[T]) Toggle(ctx context.Context, id string, next bool) error {
	c.mu.Lock()
	if c.updating[id] {
		c.mu.Unlock()
		return ErrRowBusy
	}
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrRowNotFound
	}
	field := Begin(c.entity.Active(c.rows[idx]), next)
	c.fields[id] = field
	c.updating[id] = true
	c.rows[idx] = c.entity.SetActive(c.rows[idx], next)
	c.mu.Unlock()

	err := c.source.Update(ctx, id, map[string]any{"active": next})

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.updating, id)

	var value bool
	if err != nil {
		value = field.Revert()
	} else {
		value = field.Commit()
	}
	if idx := c.indexOf(id); idx >= 0 {
		c.rows[idx] = c.entity.SetActive(c.rows[idx], value)
	}

	if err != nil {
		c.logger.Errorf("failed to toggle %s %s: %v", c.entity.Name, id, err)
		return fmt.Errorf("toggle %s %s: %w", c.entity.Name, id, err)
	}
	return nil
}

// Transition returns the last optimistic transition of a row's active flag
func (c *Controller[T]) Transition(id string) (Optimistic[bool], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.fields[id]
	if !ok {
		return Optimistic[bool]{}, false
	}
	return *f, true
}

// Create sends payload to the backend and, on success, reloads page 1 with the
// current search term. The new record only shows up if it matches that term.
// Only the backend call decides the outcome: a failed reload keeps the old rows.
func (c *Controller[T]) Create(ctx context.Context, payload any) error {
	c.beginSave()
	err := c.source.Create(ctx, payload)
	c.endSave()
	if err != nil {
		c.logger.Errorf("failed to create %s: %v", c.entity.Name, err)
		return fmt.Errorf("create %s: %w", c.entity.Name, err)
	}

	c.reloadFirstPage(ctx)
	return nil
}

// Update sends a partial update and reloads page 1. An empty patch is a no-op.
// As with Create, a failed reload does not fail the update.
func (c *Controller[T]) Update(ctx context.Context, id string, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}

	c.beginSave()
	err := c.source.Update(ctx, id, patch)
	c.endSave()
	if err != nil {
		c.logger.Errorf("failed to update %s %s: %v", c.entity.Name, id, err)
		return fmt.Errorf("update %s %s: %w", c.entity.Name, id, err)
	}

	c.reloadFirstPage(ctx)
	return nil
}

// reloadFirstPage refreshes page 1 after a saved mutation. Load already logs failures.
func (c *Controller[T]) reloadFirstPage(ctx context.Context) {
	q := c.Query()
	_ = c.Load(ctx, 1, q.Limit, q.Search)
}

// Delete removes a row after the backend confirms. On failure the row stays.
func (c *Controller[T]) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.updating[id] {
		c.mu.Unlock()
		return ErrRowBusy
	}
	c.updating[id] = true
	c.mu.Unlock()

	err := c.source.Delete(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.updating, id)
	if err != nil {
		c.logger.Errorf("failed to delete %s %s: %v", c.entity.Name, id, err)
		return fmt.Errorf("delete %s %s: %w", c.entity.Name, id, err)
	}
	if idx := c.indexOf(id); idx >= 0 {
		c.rows = append(c.rows[:idx:idx], c.rows[idx+1:]...)
	}
	delete(c.fields, id)
	return nil
}

// Row returns the row with id from the current page
func (c *Controller[T]) Row(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexOf(id); idx >= 0 {
		return c.rows[idx], true
	}
	var zero T
	return zero, false
}

// Snapshot copies the state for rendering
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	updating := make(map[string]bool, len(c.updating))
	for id := range c.updating {
		updating[id] = true
	}

	status := StatusIdle
	switch {
	case c.saving > 0:
		status = StatusSaving
	case c.resolved < c.issued:
		status = StatusLoading
	}

	return Snapshot[T]{
		Rows:       append([]T(nil), c.rows...),
		Pagination: c.pagination,
		Search:     c.search,
		Status:     status,
		Updating:   updating,
	}
}

func (c *Controller[T]) beginSave() {
	c.mu.Lock()
	c.saving++
	c.mu.Unlock()
}

func (c *Controller[T]) endSave() {
	c.mu.Lock()
	c.saving--
	c.mu.Unlock()
}

// indexOf must be called with mu held
func (c *Controller[T]) indexOf(id string) int {
	for i, row := range c.rows {
		if c.entity.ID(row) == id {
			return i
		}
	}
	return -1
}
