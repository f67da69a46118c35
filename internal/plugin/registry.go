// Package plugin tracks the providers loaded into the process and hands out
// consumer endpoints on their control channels.
package plugin

import (
	"context"
	"fmt"
	"sort"

	"github.com/mattjoyce/relay/internal/ipc"
	"github.com/mattjoyce/relay/internal/log"
)

// Middleware decorates a provider handler before it is installed, e.g. to
// audit every dispatched command.
type Middleware func(pluginName string, h ipc.Handler) ipc.Handler

// Plugin is one loaded provider: a name, a version string, and the control
// channel that answers its commands.
type Plugin struct {
	Name    string
	Version string
	Channel *ipc.Channel
}

// Registry holds loaded plugins indexed by name.
type Registry struct {
	plugins map[string]*Plugin
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]*Plugin),
	}
}

// Add registers a plugin in the registry.
func (r *Registry) Add(plugin *Plugin) error {
	if plugin.Name == "" {
		return fmt.Errorf("plugin name is empty")
	}
	if plugin.Channel == nil {
		return fmt.Errorf("plugin %q has no channel", plugin.Name)
	}
	if _, exists := r.plugins[plugin.Name]; exists {
		return fmt.Errorf("plugin %q already registered", plugin.Name)
	}
	r.plugins[plugin.Name] = plugin
	return nil
}

// Get retrieves a plugin by name.
func (r *Registry) Get(name string) (*Plugin, bool) {
	p, ok := r.plugins[name]
	return p, ok
}

// All returns all registered plugins.
func (r *Registry) All() map[string]*Plugin {
	return r.plugins
}

// Names returns registered plugin names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Attach resolves a provider by name and registers a new consumer endpoint on
// its channel. Must run during the registration phase, before StartAll.
func (r *Registry) Attach(name string) (*ipc.Endpoint, error) {
	p, ok := r.plugins[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	ep, err := p.Channel.Register()
	if err != nil {
		return nil, fmt.Errorf("attach to %q: %w", name, err)
	}
	return ep, nil
}

// StartAll ends the registration phase and starts every provider's dispatch
// loop. Fails on the first channel that refuses to start.
func (r *Registry) StartAll(ctx context.Context) error {
	logger := log.WithComponent("plugin")
	for _, name := range r.Names() {
		p := r.plugins[name]
		if err := p.Channel.Start(ctx); err != nil {
			return fmt.Errorf("start %q: %w", name, err)
		}
		logger.Debug("provider started", "plugin", name, "endpoints", p.Channel.EndpointCount())
	}
	logger.Info("all providers started", "count", len(r.plugins))
	return nil
}

// StopAll stops every provider's dispatch loop. No-op for channels that never
// started.
func (r *Registry) StopAll() {
	for _, p := range r.plugins {
		p.Channel.Stop()
	}
}
