// Package session keeps the signed-in operator's profile next to their bearer token.
//
// The token itself lives in the browser cookie; the profile is mirrored into a Store
// keyed by a hash of the token so every handler reads the same value for a request.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"koalbot_console/internal/models"
)

// ErrNotFound is returned when no profile is stored for a token
var ErrNotFound = errors.New("session not found")

// Store key prefixes for the cached profile. The legacy prefix is read but never written.
const (
	ProfilePrefix       = "pm-user:"
	LegacyProfilePrefix = "pm_user:"
)

// Profile is the cached view of the signed-in operator
type Profile struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	RoleName string `json:"role_name,omitempty"`
}

// RoleLabel returns the role, falling back to the older role_name field
func (p Profile) RoleLabel() string {
	if p.Role != "" {
		return p.Role
	}
	return p.RoleName
}

// IsAdmin reports whether the cached role is admin
func (p Profile) IsAdmin() bool {
	return p.RoleLabel() == models.RoleAdmin
}

// Session pairs a bearer token with the operator it belongs to
type Session struct {
	Token string
	User  Profile
}

// Key returns the store key of the session
func (s Session) Key() string {
	return Key(s.Token)
}

// Key derives the opaque store key of a token
func Key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:16])
}

// Store persists profiles
type Store interface {
	Load(ctx context.Context, key string) (Profile, error)
	Save(ctx context.Context, key string, p Profile, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EventKind says what happened to a session
type EventKind int

const (
	Created EventKind = iota + 1
	Cleared
)

func (k EventKind) String() string {
	switch k {
	case Created:
		return "created"
	case Cleared:
		return "cleared"
	}
	return "unknown"
}

// Event is delivered to subscribers after a session changes
type Event struct {
	Kind    EventKind
	Key     string
	Session Session
}

// Manager is the process-wide session store
type Manager struct {
	store Store
	ttl   time.Duration

	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

// NewManager creates a manager persisting profiles in store for ttl
func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		subs:  make(map[int]func(Event)),
	}
}

// TTL is how long a profile is kept
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Get returns the session for token
func (m *Manager) Get(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNotFound
	}
	key := Key(token)

	p, err := m.store.Load(ctx, ProfilePrefix+key)
	if errors.Is(err, ErrNotFound) {
		p, err = m.store.Load(ctx, LegacyProfilePrefix+key)
	}
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: p}, nil
}

// Set stores the profile of a freshly signed-in session
func (m *Manager) Set(ctx context.Context, s Session) error {
	if s.Token == "" {
		return fmt.Errorf("set session: empty token")
	}
	if err := m.store.Save(ctx, ProfilePrefix+s.Key(), s.User, m.ttl); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	m.publish(Event{Kind: Created, Key: s.Key(), Session: s})
	return nil
}

// Clear forgets the session of token under both the current and legacy keys
func (m *Manager) Clear(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	key := Key(token)
	if err := m.store.Delete(ctx, ProfilePrefix+key, LegacyProfilePrefix+key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	m.publish(Event{Kind: Cleared, Key: key, Session: Session{Token: token}})
	return nil
}

// Subscribe registers fn for every session event. The returned func unsubscribes.
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) publish(ev Event) {
	m.mu.RLock()
	fns := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
