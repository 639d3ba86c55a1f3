// Package kb is the catalog of named simulation presets.
package kb

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/brunoga/deep"

	"github.com/signalsfoundry/kite-simulator/model"
)

// Preset names shipped with the simulator.
const (
	PresetKX40    = "kx40"
	PresetTrainer = "trainer"
)

// ErrPresetNotFound is returned for an unknown preset name.
var ErrPresetNotFound = errors.New("preset not found")

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventPresetAdded EventType = iota
	EventPresetReplaced
)

// Event is emitted to subscribers when a preset changes.
type Event struct {
	Type EventType
	Name string
}

// Catalog is a thread-safe store of named configurations. Configs are deep
// copied on the way in and out, so callers may mutate what they get.
type Catalog struct {
	mu      sync.RWMutex
	presets map[string]model.SimConfig
	subs    []func(Event)
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{presets: make(map[string]model.SimConfig)}
}

// Default returns a catalog holding the built-in presets.
func Default() *Catalog {
	c := NewCatalog()
	// Built-in names are distinct, so AddPreset cannot fail here.
	_ = c.AddPreset(PresetKX40, KX40())
	_ = c.AddPreset(PresetTrainer, Trainer())
	return c
}

// AddPreset stores cfg under name. It returns an error if the name exists.
func (c *Catalog) AddPreset(name string, cfg model.SimConfig) error {
	c.mu.Lock()
	if _, exists := c.presets[name]; exists {
		c.mu.Unlock()
		return fmt.Errorf("preset %q already exists", name)
	}
	c.presets[name] = deep.MustCopy(cfg)
	subs := append([]func(Event){}, c.subs...)
	c.mu.Unlock()

	notify(subs, Event{Type: EventPresetAdded, Name: name})
	return nil
}

// PutPreset stores cfg under name, replacing any existing preset.
func (c *Catalog) PutPreset(name string, cfg model.SimConfig) {
	c.mu.Lock()
	_, existed := c.presets[name]
	c.presets[name] = deep.MustCopy(cfg)
	subs := append([]func(Event){}, c.subs...)
	c.mu.Unlock()

	ev := Event{Type: EventPresetAdded, Name: name}
	if existed {
		ev.Type = EventPresetReplaced
	}
	notify(subs, ev)
}

// Preset returns a copy of the named preset.
func (c *Catalog) Preset(name string) (model.SimConfig, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg, ok := c.presets[name]
	if !ok {
		return model.SimConfig{}, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return deep.MustCopy(cfg), nil
}

// Names returns the preset names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.presets))
	for n := range c.presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Subscribe registers a callback for catalog events. It returns an
// unsubscribe function.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
	idx := len(c.subs) - 1

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < 0 || idx >= len(c.subs) {
			return
		}
		c.subs = append(c.subs[:idx], c.subs[idx+1:]...)
		idx = -1
	}
}

// Callbacks run outside the lock so they may call back into the catalog.
func notify(subs []func(Event), ev Event) {
	for _, sub := range subs {
		sub(ev)
	}
}
