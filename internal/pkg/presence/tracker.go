// Package presence tracks short-lived "user is typing" signals per chat scope.
package presence

import (
	"sort"
	"sync"
	"time"
)

// DefaultTTL is how long a typing signal stays fresh
const DefaultTTL = 5 * time.Second

// Typist is one fresh typing entry as reported to readers
type Typist struct {
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	LastSignal time.Time `json:"lastSignal"`
}

type entry struct {
	name string
	at   time.Time
}

// Tracker is an in-memory map scope -> user -> last signal. Nothing is persisted.
type Tracker struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	scopes map[string]map[string]entry
}

// NewTracker creates a tracker; ttl <= 0 uses DefaultTTL and a nil clock uses time.Now
func NewTracker(ttl time.Duration, now func() time.Time) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Tracker{ttl: ttl, now: now, scopes: make(map[string]map[string]entry)}
}

// TTL returns the staleness window
func (t *Tracker) TTL() time.Duration {
	return t.ttl
}

// Set records or clears a typing signal
func (t *Tracker) Set(scope, userID, name string, typing bool) {
	if !typing {
		t.Clear(scope, userID)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	users, ok := t.scopes[scope]
	if !ok {
		users = make(map[string]entry)
		t.scopes[scope] = users
	}
	users[userID] = entry{name: name, at: t.now()}
}

// Clear removes one user's signal
func (t *Tracker) Clear(scope, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	users, ok := t.scopes[scope]
	if !ok {
		return
	}
	delete(users, userID)
	if len(users) == 0 {
		delete(t.scopes, scope)
	}
}

// Drop forgets a whole scope (deleted event)
func (t *Tracker) Drop(scope string) {
	t.mu.Lock()
	delete(t.scopes, scope)
	t.mu.Unlock()
}

// Typing prunes stale entries of scope and returns the fresh ones except the
// requester's own, oldest signal first.
func (t *Tracker) Typing(scope, requesterID string) []Typist {
	t.mu.Lock()
	defer t.mu.Unlock()

	users, ok := t.scopes[scope]
	if !ok {
		return []Typist{}
	}

	now := t.now()
	result := make([]Typist, 0, len(users))
	for id, e := range users {
		if now.Sub(e.at) > t.ttl {
			delete(users, id)
			continue
		}
		if id == requesterID {
			continue
		}
		result = append(result, Typist{UserID: id, Name: e.name, LastSignal: e.at})
	}
	if len(users) == 0 {
		delete(t.scopes, scope)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].LastSignal.Equal(result[j].LastSignal) {
			return result[i].UserID < result[j].UserID
		}
		return result[i].LastSignal.Before(result[j].LastSignal)
	})
	return result
}
