package jsonstore

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultSaveTimeout = 10 * time.Second

// Mirror writes collection snapshots to a Repository in the background.
//
// Each collection has at most one writer goroutine. Enqueueing while a write
// is in flight replaces the pending snapshot, so writes of one collection are
// strictly ordered and the last enqueued snapshot is always the last written.
type Mirror struct {
	repo        Repository
	logger      zerolog.Logger
	saveTimeout time.Duration

	mu     sync.Mutex
	idle   *sync.Cond
	active int
	queues map[string]*writeQueue
	closed bool

	// OnError is called after a failed save; the snapshot is dropped
	OnError func(name string, err error)
}

type writeQueue struct {
	pending []byte
	dirty   bool
	running bool
}

// NewMirror creates a mirror over repo
func NewMirror(repo Repository, logger zerolog.Logger) *Mirror {
	m := &Mirror{
		repo:        repo,
		logger:      logger,
		saveTimeout: defaultSaveTimeout,
		queues:      make(map[string]*writeQueue),
	}
	m.idle = sync.NewCond(&m.mu)
	return m
}

// SetSaveTimeout bounds every background save; non-positive values are ignored
func (m *Mirror) SetSaveTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.saveTimeout = d
	m.mu.Unlock()
}

// Repository returns the underlying repository
func (m *Mirror) Repository() Repository {
	return m.repo
}

// Enqueue schedules data as the next content of collection name.
// It never blocks on I/O.
func (m *Mirror) Enqueue(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		m.logger.Warn().Str("collection", name).Msg("Mirror closed, dropping snapshot")
		return
	}

	q, ok := m.queues[name]
	if !ok {
		q = &writeQueue{}
		m.queues[name] = q
	}
	q.pending = data
	q.dirty = true

	if !q.running {
		q.running = true
		m.active++
		go m.drain(name, q)
	}
}

func (m *Mirror) drain(name string, q *writeQueue) {
	for {
		m.mu.Lock()
		if !q.dirty {
			q.running = false
			m.active--
			if m.active == 0 {
				m.idle.Broadcast()
			}
			m.mu.Unlock()
			return
		}
		data := q.pending
		q.pending = nil
		q.dirty = false
		timeout := m.saveTimeout
		m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err := m.repo.Save(ctx, name, data)
		cancel()

		if err != nil {
			m.logger.Error().Err(err).Str("collection", name).Msg("Failed to persist collection")
			if m.OnError != nil {
				m.OnError(name, err)
			}
			continue
		}
		m.logger.Debug().Str("collection", name).Int("bytes", len(data)).Msg("Collection persisted")
	}
}

// Flush blocks until every queued snapshot has been written or ctx ends
func (m *Mirror) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.mu.Lock()
		for m.active > 0 {
			m.idle.Wait()
		}
		m.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes pending writes and rejects further snapshots
func (m *Mirror) Close(ctx context.Context) error {
	err := m.Flush(ctx)
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return err
}
