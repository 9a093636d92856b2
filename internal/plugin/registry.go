// Package plugin is the host side of the plugin hooks: the event payload
// model, the Plugin contract and a registry that dispatches events to
// registered handlers.
package plugin

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Handler reacts to one event. It may mutate ec, including ec.Action.
type Handler func(ctx context.Context, ec *EventContext)

// Plugin is implemented by every host plugin.
type Plugin interface {
	Name() string
	Description() string
	Version() string
	Handlers() map[Event]Handler
	HelpText() string
}

// Registry holds plugins in registration order.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	byName  map[string]Plugin
	logger  *zap.Logger
}

// NewRegistry creates an empty registry. A nil logger discards output.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		byName: make(map[string]Plugin),
		logger: logger,
	}
}

// Register adds p. Names are unique.
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return ErrNilPlugin
	}
	name := p.Name()
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}

	r.byName[name] = p
	r.plugins = append(r.plugins, p)
	r.logger.Info("plugin registered", zap.String("plugin", name), zap.String("version", p.Version()))
	return nil
}

// Get returns the plugin registered under name.
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

// Plugins returns the registered plugins in registration order.
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Plugin(nil), r.plugins...)
}

// Emit runs every handler registered for ec.Event in registration order and
// stops early when a handler sets a break action. A panicking handler is
// logged and skipped. The returned value is ec.
func (r *Registry) Emit(ctx context.Context, ec *EventContext) *EventContext {
	for _, p := range r.Plugins() {
		h, ok := p.Handlers()[ec.Event]
		if !ok || h == nil {
			continue
		}
		r.invoke(ctx, p.Name(), h, ec)
		if ec.IsBreak() {
			r.logger.Debug("plugin stopped dispatch",
				zap.String("plugin", p.Name()),
				zap.String("event", string(ec.Event)),
				zap.Stringer("action", ec.Action),
			)
			break
		}
	}
	return ec
}

func (r *Registry) invoke(ctx context.Context, name string, h Handler, ec *EventContext) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("plugin handler panicked",
				zap.String("plugin", name),
				zap.String("event", string(ec.Event)),
				zap.Any("panic", rec),
			)
		}
	}()
	h(ctx, ec)
}
