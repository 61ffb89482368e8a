// Package session manages the lifecycle of per-session cart engines. Each
// browser session gets its own store and engine; nothing is shared across
// sessions and nothing lives in a package-level singleton.
package session

import (
	"fmt"
	"sync"

	"github.com/schoolmart/schoolmart-cart/internal/cart"
	"github.com/schoolmart/schoolmart-cart/pkg/logger"
	"github.com/schoolmart/schoolmart-cart/pkg/metrics"
)

// Registry hands out one cart engine per session id and tears it down on
// logout.
type Registry struct {
	mu      sync.Mutex
	engines map[string]*cart.Engine

	gateway    cart.Gateway
	normalizer *cart.Normalizer
	notifier   cart.Notifier
	logg       *logger.Logger
	metrics    *metrics.CartMetrics
}

// RegistryParams collects the collaborators shared by all engines.
type RegistryParams struct {
	Gateway    cart.Gateway
	Normalizer *cart.Normalizer
	Notifier   cart.Notifier
	Logger     *logger.Logger
	Metrics    *metrics.CartMetrics
}

// NewRegistry builds an empty registry.
func NewRegistry(params RegistryParams) (*Registry, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("cart gateway required")
	}
	return &Registry{
		engines:    make(map[string]*cart.Engine),
		gateway:    params.Gateway,
		normalizer: params.Normalizer,
		notifier:   params.Notifier,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

// Engine returns the session's engine, creating it on first use.
func (r *Registry) Engine(sessionID string) (*cart.Engine, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if engine, ok := r.engines[sessionID]; ok {
		return engine, nil
	}

	engine, err := cart.NewEngine(cart.EngineParams{
		Gateway:    r.gateway,
		Normalizer: r.normalizer,
		Notifier:   r.notifier,
		Logger:     r.logg,
		Metrics:    r.metrics,
	})
	if err != nil {
		return nil, err
	}
	r.engines[sessionID] = engine
	return engine, nil
}

// Destroy clears and forgets the session's engine. Safe to call for unknown
// sessions.
func (r *Registry) Destroy(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if engine, ok := r.engines[sessionID]; ok {
		engine.Clear()
		delete(r.engines, sessionID)
	}
}

// Len reports how many sessions currently hold an engine.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.engines)
}
