package observer

import (
	"context"
	"fmt"
	"sync"

	"github.com/campaignflow/engine/internal/infrastructure/logger"
)

// ObserverManager fans an Event out to every registered Observer without
// letting a slow or panicking observer hold up the others, or an event
// storm spawn unbounded concurrent deliveries.
type ObserverManager struct {
	observers []Observer
	logger    *logger.Logger
	mu        sync.RWMutex

	// sem bounds how many observer deliveries run concurrently; sized by
	// WithBufferSize (default 100).
	sem chan struct{}
}

// ManagerOption configures ObserverManager
type ManagerOption func(*ObserverManager)

// WithLogger sets the logger for the manager
func WithLogger(l *logger.Logger) ManagerOption {
	return func(m *ObserverManager) {
		m.logger = l
	}
}

// WithBufferSize caps how many observer deliveries may run concurrently.
func WithBufferSize(size int) ManagerOption {
	return func(m *ObserverManager) {
		if size <= 0 {
			size = 1
		}
		m.sem = make(chan struct{}, size)
	}
}

// NewObserverManager creates a new observer manager.
func NewObserverManager(opts ...ManagerOption) *ObserverManager {
	mgr := &ObserverManager{
		observers: make([]Observer, 0),
		sem:       make(chan struct{}, 100),
	}

	for _, opt := range opts {
		opt(mgr)
	}

	return mgr
}

// Register adds an observer to the manager
func (m *ObserverManager) Register(observer Observer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check for duplicate names
	for _, obs := range m.observers {
		if obs.Name() == observer.Name() {
			return fmt.Errorf("observer with name %q already registered", observer.Name())
		}
	}

	m.observers = append(m.observers, observer)
	return nil
}

// Unregister removes an observer by name
func (m *ObserverManager) Unregister(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, obs := range m.observers {
		if obs.Name() == name {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("observer %q not found", name)
}

// Notify delivers event to every registered observer without blocking the
// caller. Each delivery runs in its own goroutine, gated by the manager's
// concurrency semaphore, so a burst of events can't spawn unbounded
// in-flight deliveries; a panicking or erroring observer never affects
// its siblings.
func (m *ObserverManager) Notify(ctx context.Context, event Event) {
	m.mu.RLock()
	observersCopy := make([]Observer, len(m.observers))
	copy(observersCopy, m.observers)
	m.mu.RUnlock()

	for _, obs := range observersCopy {
		go func(o Observer) {
			m.sem <- struct{}{}
			defer func() { <-m.sem }()
			m.notifyObserver(ctx, o, event)
		}(obs)
	}
}

// notifyObserver delivers event to a single observer, recovering from any
// panic so it cannot take down the caller or other observers' deliveries.
func (m *ObserverManager) notifyObserver(ctx context.Context, obs Observer, event Event) {
	defer func() {
		if r := recover(); r != nil {
			if m.logger != nil {
				m.logger.ErrorContext(ctx, "Observer panic recovered",
					"observer", obs.Name(),
					"event_type", string(event.Type),
					"panic", r,
				)
			}
		}
	}()

	// Check filter
	filter := obs.Filter()
	if filter != nil && !filter.ShouldNotify(event) {
		return // Event filtered out
	}

	// Call observer
	if err := obs.OnEvent(ctx, event); err != nil {
		if m.logger != nil {
			m.logger.ErrorContext(ctx, "Observer notification failed",
				"observer", obs.Name(),
				"event_type", string(event.Type),
				"error", err,
			)
		}
	}
}

// Count returns the number of registered observers
func (m *ObserverManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.observers)
}
