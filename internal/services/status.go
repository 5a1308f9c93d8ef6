package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// HealthChecker probes the backend
type HealthChecker interface {
	Health(ctx context.Context) error
}

// BackendStatus is one observation of the backend
type BackendStatus struct {
	Online    bool      `json:"online"`
	Timestamp time.Time `json:"ts"`
}

// StatusMonitor polls the backend health endpoint and fans the result out to subscribers
type StatusMonitor struct {
	checker  HealthChecker
	interval time.Duration

	mu     sync.RWMutex
	last   BackendStatus
	nextID int
	subs   map[int]chan BackendStatus
}

// NewStatusMonitor creates a monitor polling every interval. The backend is
// assumed online until the first check says otherwise.
func NewStatusMonitor(checker HealthChecker, interval time.Duration) *StatusMonitor {
	return &StatusMonitor{
		checker:  checker,
		interval: interval,
		last:     BackendStatus{Online: true, Timestamp: time.Now()},
		subs:     make(map[int]chan BackendStatus),
	}
}

// Run polls until ctx is done
func (m *StatusMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check probes the backend once and notifies subscribers
func (m *StatusMonitor) Check(ctx context.Context) BackendStatus {
	checkCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	err := m.checker.Health(checkCtx)
	status := BackendStatus{Online: err == nil, Timestamp: time.Now()}

	m.mu.Lock()
	changed := m.last.Online != status.Online
	m.last = status
	subs := make([]chan BackendStatus, 0, len(m.subs))
	for _, ch := range m.subs {
		subs = append(subs, ch)
	}
	m.mu.Unlock()

	if changed {
		if err != nil {
			log.Printf("Backend went offline: %v", err)
		} else {
			log.Println("Backend is back online")
		}
	}

	for _, ch := range subs {
		// keep only the newest status for slow readers
		select {
		case ch <- status:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- status:
			default:
			}
		}
	}
	return status
}

// Current returns the last observed status
func (m *StatusMonitor) Current() BackendStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Subscribe returns a channel receiving every status and a func to unsubscribe
func (m *StatusMonitor) Subscribe() (<-chan BackendStatus, func()) {
	ch := make(chan BackendStatus, 1)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.mu.Unlock()

	return ch, func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}
