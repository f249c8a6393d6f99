// Package plugin provides a uniform start/stop/health-check surface over
// the daemon's subsystems (active scanner, passive scanner, scheduler),
// keyed by category and name.
package plugin

import (
	"fmt"
	"sync"

	"github.com/netsecio/netsecd/internal/models"
)

// Key uniquely identifies a registered plugin.
type Key struct {
	Category models.PluginCategory
	Name     string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Category, k.Name)
}

// Plugin is the lifecycle interface every registry entry implements.
// Methods are synchronous; a plugin that needs background work starts its
// own goroutine from Start and tears it down from Stop.
type Plugin interface {
	Info() models.PluginInfo
	HealthCheck() models.PluginStatus
	Start() error
	Stop() error
}

// Result pairs a plugin key with the outcome of a lifecycle call.
type Result struct {
	Key Key
	Err error
}

// Registry is the central map of registered plugins.
type Registry struct {
	mu      sync.RWMutex
	plugins map[Key]Plugin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[Key]Plugin)}
}

// Register adds a plugin to the registry. Returns an error if a plugin
// with the same (category, name) key is already registered.
func (r *Registry) Register(p Plugin) error {
	info := p.Info()
	key := Key{Category: info.Category, Name: info.Name}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[key]; exists {
		return fmt.Errorf("plugin already registered: %s", key)
	}
	r.plugins[key] = p
	return nil
}

// Unregister removes a plugin by key. Returns an error if not found.
func (r *Registry) Unregister(key Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[key]; !exists {
		return fmt.Errorf("plugin not found: %s", key)
	}
	delete(r.plugins, key)
	return nil
}

// GetInfo returns info for a specific plugin, or false if not found.
func (r *Registry) GetInfo(key Key) (models.PluginInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[key]
	if !ok {
		return models.PluginInfo{}, false
	}
	return p.Info(), true
}

// List returns info for every registered plugin.
func (r *Registry) List() []models.PluginInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.PluginInfo, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p.Info())
	}
	return out
}

// ListByCategory returns info for every registered plugin in a category.
func (r *Registry) ListByCategory(category models.PluginCategory) []models.PluginInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.PluginInfo
	for k, p := range r.plugins {
		if k.Category == category {
			out = append(out, p.Info())
		}
	}
	return out
}

// HealthCheckAll runs a health check on every registered plugin.
func (r *Registry) HealthCheckAll() map[Key]models.PluginStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[Key]models.PluginStatus, len(r.plugins))
	for k, p := range r.plugins {
		out[k] = p.HealthCheck()
	}
	return out
}

// StartAll starts every registered plugin, continuing past individual
// failures, and returns the per-plugin outcome.
func (r *Registry) StartAll() []Result {
	return r.forEach(func(p Plugin) error { return p.Start() })
}

// StopAll stops every registered plugin, continuing past individual
// failures, and returns the per-plugin outcome.
func (r *Registry) StopAll() []Result {
	return r.forEach(func(p Plugin) error { return p.Stop() })
}

func (r *Registry) forEach(fn func(Plugin) error) []Result {
	r.mu.RLock()
	keys := make([]Key, 0, len(r.plugins))
	plugins := make([]Plugin, 0, len(r.plugins))
	for k, p := range r.plugins {
		keys = append(keys, k)
		plugins = append(plugins, p)
	}
	r.mu.RUnlock()

	results := make([]Result, len(keys))
	for i, p := range plugins {
		results[i] = Result{Key: keys[i], Err: fn(p)}
	}
	return results
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}
