package crud

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koalbot_console/internal/models"
)

type item struct {
	ID     string
	Name   string
	Active bool
}

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var itemEntity = Entity[item]{
	Name:   "item",
	ID:     func(i item) string { return i.ID },
	Active: func(i item) bool { return i.Active },
	SetActive: func(i item, v bool) item {
		i.Active = v
		return i
	},
}

// fakeSource answers List from a fixed data set. Calls block on gate when it is set.
type fakeSource struct {
	mu        sync.Mutex
	items     []item
	queries   []Query
	patches   map[string][]map[string]any
	createErr error
	updateErr error
	deleteErr error
	listErr   error
	gate      chan struct{}
	entered   chan struct{}
}

func newFakeSource(n int) *fakeSource {
	f := &fakeSource{patches: make(map[string][]map[string]any)}
	for i := 1; i <= n; i++ {
		f.items = append(f.items, item{ID: strconv.Itoa(i), Name: "item " + strconv.Itoa(i), Active: i%2 == 1})
	}
	return f
}

func (f *fakeSource) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeSource) List(_ context.Context, q Query) (models.Page[item], error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.listErr != nil {
		return models.Page[item]{}, f.listErr
	}

	var matched []item
	for _, it := range f.items {
		if q.Search == "" || strings.Contains(it.Name, q.Search) {
			matched = append(matched, it)
		}
	}
	start := (q.Page - 1) * q.Limit
	end := start + q.Limit
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}
	pages := (len(matched) + q.Limit - 1) / q.Limit
	return models.Page[item]{
		Data:       matched[start:end],
		Pagination: models.Pagination{Page: q.Page, Limit: q.Limit, Total: len(matched), Pages: pages, Search: q.Search},
	}, nil
}

func (f *fakeSource) Create(_ context.Context, payload any) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append([]item{payload.(item)}, f.items...)
	return nil
}

func (f *fakeSource) Update(_ context.Context, id string, patch map[string]any) error {
	f.wait()
	f.mu.Lock()
	f.patches[id] = append(f.patches[id], patch)
	f.mu.Unlock()
	return f.updateErr
}

func (f *fakeSource) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, it := range f.items {
		if it.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	return nil
}

func TestLoadAppliesPage(t *testing.T) {
	src := newFakeSource(25)
	c := NewController[item](src, itemEntity, 10, nil)

	require.NoError(t, c.Load(context.Background(), 2, 10, ""))

	snap := c.Snapshot()
	assert.Len(t, snap.Rows, 10)
	assert.Equal(t, "11", snap.Rows[0].ID)
	assert.Equal(t, 25, snap.Pagination.Total)
	assert.Equal(t, 3, snap.Pagination.Pages)
	assert.Equal(t, StatusIdle, snap.Status)

	require.NoError(t, c.SetLimit(context.Background(), 20))
	assert.Equal(t, Query{Page: 1, Limit: 20}, c.Query())

	require.NoError(t, c.GoTo(context.Background(), 2))
	assert.Len(t, c.Snapshot().Rows, 5)
}

func TestLoadFailureKeepsRows(t *testing.T) {
	src := newFakeSource(3)
	c := NewController[item](src, itemEntity, 10, nil)
	require.NoError(t, c.Load(context.Background(), 1, 10, ""))

	src.listErr = errors.New("boom")
	err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, src.listErr)
	assert.Len(t, c.Snapshot().Rows, 3)
}

// blockingList holds each List call until its own release channel is closed
type blockingList struct {
	*fakeSource
	release map[string]chan struct{}
}

func (b *blockingList) List(ctx context.Context, q Query) (models.Page[item], error) {
	if ch, ok := b.release[q.Search]; ok {
		<-ch
	}
	return b.fakeSource.List(ctx, q)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	src := &blockingList{
		fakeSource: newFakeSource(9),
		release:    map[string]chan struct{}{"item 1": make(chan struct{}), "item 2": make(chan struct{})},
	}
	c := NewController[item](src, itemEntity, 10, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Search(context.Background(), "item 1")
	}()

	// wait until the first search is in flight before starting the second
	require.Eventually(t, func() bool { return c.Snapshot().Status == StatusLoading }, timeout, tick)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Search(context.Background(), "item 2")
	}()
	require.Eventually(t, func() bool { return c.Snapshot().Search == "item 2" }, timeout, tick)

	// newer answer first, then the older one
	close(src.release["item 2"])
	require.Eventually(t, func() bool {
		rows := c.Snapshot().Rows
		return len(rows) == 1 && rows[0].Name == "item 2"
	}, timeout, tick)
	close(src.release["item 1"])
	wg.Wait()

	snap := c.Snapshot()
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "item 2", snap.Rows[0].Name)
	assert.Equal(t, "item 2", snap.Search)
	assert.Equal(t, StatusIdle, snap.Status)
}

func TestToggleCommits(t *testing.T) {
	src := newFakeSource(3)
	c := NewController[item](src, itemEntity, 10, nil)
	require.NoError(t, c.Load(context.Background(), 1, 10, ""))

	require.NoError(t, c.Toggle(context.Background(), "2", true))

	row, ok := c.Row("2")
	require.True(t, ok)
	assert.True(t, row.Active)
	assert.Equal(t, []map[string]any{{"active": true}}, src.patches["2"])

	tr, ok := c.Transition("2")
	require.True(t, ok)
	assert.Equal(t, Settled, tr.State())
	assert.False(t, tr.Previous())
}

func TestToggleRevertsOnFailure(t *testing.T) {
	src := newFakeSource(3)
	src.updateErr = errors.New("nope")
	src.gate = make(chan struct{})
	src.entered = make(chan struct{}, 1)
	c := NewController[item](src, itemEntity, 10, nil)
	require.NoError(t, c.Load(context.Background(), 1, 10, ""))
	siblings := c.Snapshot().Rows[1:]

	done := make(chan error, 1)
	go func() { done <- c.Toggle(context.Background(), "1", false) }()
	<-src.entered

	// in flight: the new value is shown and the row is busy
	snap := c.Snapshot()
	assert.True(t, snap.Busy("1"))
	assert.False(t, snap.Rows[0].Active)
	tr, _ := c.Transition("1")
	assert.Equal(t, Pending, tr.State())
	assert.ErrorIs(t, c.Toggle(context.Background(), "1", true), ErrRowBusy)
	assert.ErrorIs(t, c.Delete(context.Background(), "1"), ErrRowBusy)

	close(src.gate)
	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, src.updateErr)

	snap = c.Snapshot()
	assert.False(t, snap.Busy("1"))
	assert.True(t, snap.Rows[0].Active)
	assert.Equal(t, siblings, snap.Rows[1:])
	assert.Empty(t, src.patches["2"])
	assert.Empty(t, src.patches["3"])
	tr, _ = c.Transition("1")
	assert.Equal(t, Reverted, tr.State())
	assert.True(t, tr.Value())
}

// rowGates holds each Update until the gate of that row id is closed
type rowGates struct {
	*fakeSource
	gates   map[string]chan struct{}
	entered chan string
	fail    map[string]bool
}

func (g *rowGates) Update(ctx context.Context, id string, patch map[string]any) error {
	g.entered <- id
	<-g.gates[id]
	if g.fail[id] {
		return errors.New("rejected " + id)
	}
	return g.fakeSource.Update(ctx, id, patch)
}

func TestToggleRowsAreIndependent(t *testing.T) {
	src := &rowGates{
		fakeSource: newFakeSource(3),
		gates:      map[string]chan struct{}{"1": make(chan struct{}), "2": make(chan struct{})},
		entered:    make(chan string, 2),
		fail:       map[string]bool{"1": true},
	}
	c := NewController[item](src, itemEntity, 10, nil)
	require.NoError(t, c.Load(context.Background(), 1, 10, ""))
	before := c.Snapshot().Rows

	first := make(chan error, 1)
	second := make(chan error, 1)
	go func() { first <- c.Toggle(context.Background(), "1", false) }()
	go func() { second <- c.Toggle(context.Background(), "2", true) }()
	<-src.entered
	<-src.entered

	// both rows are in flight at the same time
	snap := c.Snapshot()
	assert.True(t, snap.Busy("1"))
	assert.True(t, snap.Busy("2"))
	assert.False(t, snap.Busy("3"))

	// the second row settles while the first is still pending
	close(src.gates["2"])
	require.NoError(t, <-second)
	tr, _ := c.Transition("1")
	assert.Equal(t, Pending, tr.State())
	tr, _ = c.Transition("2")
	assert.Equal(t, Settled, tr.State())

	close(src.gates["1"])
	require.Error(t, <-first)

	after := c.Snapshot().Rows
	assert.Equal(t, before[0].Active, after[0].Active)
	assert.True(t, after[1].Active)
	assert.Equal(t, before[2], after[2])
}

func TestToggleUnknownRow(t *testing.T) {
	c := NewController[item](newFakeSource(1), itemEntity, 10, nil)
	require.NoError(t, c.Load(context.Background(), 1, 10, ""))
	assert.ErrorIs(t, c.Toggle(context.Background(), "99", true), ErrRowNotFound)
}

func TestCreateReloadsFirstPageWithSearch(t *testing.T) {
	src := newFakeSource(30)
	c := NewController[item](src, itemEntity, 10, nil)
	require.NoError(t, c.Load(context.Background(), 3, 10, ""))
	require.NoError(t, c.Search(context.Background(), "item 2"))
	require.NoError(t, c.GoTo(context.Background(), 2))

	require.NoError(t, c.Create(context.Background(), item{ID: "new", Name: "fresh"}))

	last := src.queries[len(src.queries)-1]
	assert.Equal(t, Query{Page: 1, Limit: 10, Search: "item 2"}, last)
	_, found := c.Row("new")
	assert.False(t, found, "new record does not match the active search")

	require.NoError(t, c.Search(context.Background(), ""))
	_, found = c.Row("new")
	assert.True(t, found)
}

func TestCreateFailureKeepsState(t *testing.T) {
	src := newFakeSource(3)
	src.createErr = errors.New("duplicate")
	c := NewController[item](src, itemEntity, 10, nil)
	require.NoError(t, c.Load(context.Background(), 1, 10, ""))
	calls := len(src.queries)

	err := c.Create(context.Background(), item{ID: "x"})
	assert.ErrorIs(t, err, src.createErr)
	assert.Len(t, src.queries, calls)
	assert.Equal(t, StatusIdle, c.Snapshot().Status)
}

func TestMutationSurvivesReloadFailure(t *testing.T) {
	src := newFakeSource(3)
	c := NewController[item](src, itemEntity, 10, nil)
	require.NoError(t, c.Load(context.Background(), 1, 10, ""))

	src.listErr = errors.New("list timeout")

	require.NoError(t, c.Create(context.Background(), item{ID: "new", Name: "fresh"}))
	assert.Equal(t, "new", src.items[0].ID)

	require.NoError(t, c.Update(context.Background(), "2", map[string]any{"name": "renamed"}))
	assert.Equal(t, []map[string]any{{"name": "renamed"}}, src.patches["2"])

	snap := c.Snapshot()
	assert.Len(t, snap.Rows, 3, "the last good page stays on screen")
	assert.Equal(t, StatusIdle, snap.Status)
}

func TestUpdateEmptyPatchIsNoop(t *testing.T) {
	src := newFakeSource(3)
	c := NewController[item](src, itemEntity, 10, nil)
	require.NoError(t, c.Update(context.Background(), "1", map[string]any{}))
	assert.Empty(t, src.patches)
	assert.Empty(t, src.queries)
}

func TestDelete(t *testing.T) {
	src := newFakeSource(3)
	c := NewController[item](src, itemEntity, 10, nil)
	require.NoError(t, c.Load(context.Background(), 1, 10, ""))

	src.deleteErr = errors.New("in use")
	assert.Error(t, c.Delete(context.Background(), "2"))
	_, ok := c.Row("2")
	assert.True(t, ok)

	src.deleteErr = nil
	require.NoError(t, c.Delete(context.Background(), "2"))
	_, ok = c.Row("2")
	assert.False(t, ok)
	assert.Len(t, c.Snapshot().Rows, 2)
}

func TestOptimistic(t *testing.T) {
	o := Begin("a", "b")
	assert.Equal(t, Pending, o.State())
	assert.Equal(t, "b", o.Value())
	assert.Equal(t, "a", o.Revert())
	assert.Equal(t, Reverted, o.State())

	n := Begin(1, 2)
	assert.Equal(t, 2, n.Commit())
	assert.Equal(t, "settled", n.State().String())
}

func TestRegistry(t *testing.T) {
	built := 0
	r := NewRegistry(func(scope string) *Controller[item] {
		built++
		return NewController[item](newFakeSource(0), itemEntity, 10, nil)
	})

	a := r.For("s1", "stockity")
	assert.Same(t, a, r.For("s1", "stockity"))
	assert.NotSame(t, a, r.For("s1", "binomo"))
	assert.NotSame(t, a, r.For("s2", "stockity"))
	assert.Equal(t, 3, built)

	r.Drop("s1")
	assert.Equal(t, 1, r.Len())
	assert.NotSame(t, a, r.For("s1", "stockity"))
}

func TestRegistrySweepsIdleControllers(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	r := NewRegistry(func(string) *Controller[item] {
		return NewController[item](newFakeSource(0), itemEntity, 10, nil)
	})
	r.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		r.For("abandoned-"+strconv.Itoa(i), "")
	}
	now = now.Add(30 * time.Minute)
	active := r.For("active", "stockity")

	now = now.Add(40 * time.Minute)
	assert.Equal(t, 100, r.Sweep(time.Hour))
	assert.Equal(t, 1, r.Len())
	assert.Same(t, active, r.For("active", "stockity"))

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, r.Sweep(time.Hour))
	assert.Equal(t, 0, r.Len())
}
