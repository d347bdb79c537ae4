package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driven"
	"github.com/custodia-labs/docs-agent/internal/logger"
)

// DeriveFunc builds a runtime that uses apiKey in place of the configured
// provider credential. The returned runtime may share the vector store of
// the active one.
type DeriveFunc func(apiKey string) (*driven.Runtime, error)

var errNotConfigured = fmt.Errorf("%w: no provider is configured, set an API key first", domain.ErrAuthorization)

type apiKeyContextKey struct{}

// WithAPIKey returns a context that asks services to serve the request with
// apiKey rather than the configured credential.
func WithAPIKey(ctx context.Context, apiKey string) context.Context {
	return context.WithValue(ctx, apiKeyContextKey{}, apiKey)
}

// APIKeyFromContext returns the request credential set by WithAPIKey.
func APIKeyFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(apiKeyContextKey{}).(string)
	return key, ok && key != ""
}

// generation is one installed runtime and the credential it was built with.
// It counts the requests using it so a replaced runtime is released only
// once they finish.
type generation struct {
	runtime *driven.Runtime
	apiKey  string

	mu      sync.Mutex
	active  int
	retired bool
	onIdle  func()
}

// hold registers a request. It fails once the generation is retired.
func (g *generation) hold() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.retired {
		return false
	}
	g.active++
	return true
}

func (g *generation) done() {
	g.mu.Lock()
	g.active--
	var fn func()
	if g.retired && g.active == 0 {
		fn, g.onIdle = g.onIdle, nil
	}
	g.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// retire runs fn as soon as no request holds g.
func (g *generation) retire(fn func()) {
	g.mu.Lock()
	g.retired = true
	if g.active > 0 {
		g.onIdle = fn
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()
	fn()
}

// RuntimeHolder publishes the active runtime to every service.
// Swapping installs a whole new runtime; in-flight requests keep the
// one they loaded until they release it.
type RuntimeHolder struct {
	current atomic.Pointer[generation]

	mu     sync.RWMutex
	derive DeriveFunc
}

// NewRuntimeHolder creates a holder. rt may be nil when no provider is
// configured yet.
func NewRuntimeHolder(rt *driven.Runtime, apiKey string) *RuntimeHolder {
	h := &RuntimeHolder{}
	if rt != nil {
		h.current.Store(&generation{runtime: rt, apiKey: apiKey})
	}
	return h
}

// SetDeriver installs the builder used for request-scoped credentials.
func (h *RuntimeHolder) SetDeriver(derive DeriveFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.derive = derive
}

// Current returns the active runtime.
func (h *RuntimeHolder) Current() (*driven.Runtime, error) {
	g := h.current.Load()
	if g == nil {
		return nil, errNotConfigured
	}
	return g.runtime, nil
}

// Swap installs rt. The runtime it replaces is passed to retire once the
// last request holding it has released it, which may be before Swap
// returns. retire may be nil.
func (h *RuntimeHolder) Swap(rt *driven.Runtime, apiKey string, retire func(*driven.Runtime)) {
	var next *generation
	if rt != nil {
		next = &generation{runtime: rt, apiKey: apiKey}
	}
	prev := h.current.Swap(next)
	if prev == nil {
		return
	}
	prev.retire(func() {
		if retire != nil {
			retire(prev.runtime)
		}
	})
}

// load returns the active generation with a request registered on it, or
// nil when none is installed.
func (h *RuntimeHolder) load() *generation {
	for {
		g := h.current.Load()
		if g == nil || g.hold() {
			return g
		}
	}
}

// Acquire returns the runtime a request should use. When ctx carries a
// credential other than the configured one, a request-scoped runtime is
// derived; release closes its embedder and generator. On success release
// must be called exactly once; on error it is a no-op.
func (h *RuntimeHolder) Acquire(ctx context.Context) (*driven.Runtime, func(), error) {
	g := h.load()
	done := func() {
		if g != nil {
			g.done()
		}
	}

	key, scoped := APIKeyFromContext(ctx)
	if !scoped || (g != nil && g.apiKey == key) {
		return activeRuntime(g, done)
	}

	h.mu.RLock()
	derive := h.derive
	h.mu.RUnlock()
	if derive == nil {
		return activeRuntime(g, done)
	}

	rt, err := derive(key)
	if err != nil {
		done()
		return nil, func() {}, err
	}
	logger.Debug("runtime: using request credential %s", domain.MaskAPIKey(key))

	release := func() {
		if rt.Embedder != nil {
			_ = rt.Embedder.Close()
		}
		if rt.Generator != nil {
			_ = rt.Generator.Close()
		}
		done()
	}
	return rt, release, nil
}

func activeRuntime(g *generation, done func()) (*driven.Runtime, func(), error) {
	if g == nil {
		return nil, func() {}, errNotConfigured
	}
	return g.runtime, done, nil
}
