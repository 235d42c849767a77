// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package native

import (
	"errors"
	"sort"
	"sync"
)

// package errors
var (
	ErrNoBackend      = errors.New("no native backend available")
	ErrUnknownBackend = errors.New("native backend not registered")
	ErrUnavailable    = errors.New("native backend not available on this system")
)

// Factory creates a Backend instance.
type Factory func() (Backend, error)

// Entry is one registered backend.
type Entry struct {
	Name string

	// Priority orders Default, higher first. Hardware backends use 100,
	// software ones 10.
	Priority int

	Factory   Factory
	Available func() bool
}

// Registry holds named backends.
type Registry struct {
	mutex   sync.RWMutex
	entries map[string]*Entry
}

var globalRegistry = &Registry{}

// Register adds a backend to the global registry. A nil available is
// treated as always available. Registering a name twice replaces it.
func Register(name string, priority int, factory Factory, available func() bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// Open creates the named backend from the global registry.
func Open(name string) (Backend, error) {
	return globalRegistry.Open(name)
}

// Default creates the highest priority available backend.
func Default() (Backend, error) {
	return globalRegistry.Default()
}

// List returns registered names, highest priority first.
func List() []string {
	return globalRegistry.List()
}

// Register implements the package level Register for r.
func (r *Registry) Register(name string, priority int, factory Factory, available func() bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.entries == nil {
		r.entries = make(map[string]*Entry)
	}
	if available == nil {
		available = func() bool { return true }
	}
	r.entries[name] = &Entry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Open creates the named backend.
func (r *Registry) Open(name string) (Backend, error) {
	r.mutex.RLock()
	entry, ok := r.entries[name]
	r.mutex.RUnlock()
	if !ok {
		return nil, ErrUnknownBackend
	}
	if !entry.Available() {
		return nil, ErrUnavailable
	}
	return entry.Factory()
}

// Default creates the best available backend.
func (r *Registry) Default() (Backend, error) {
	for _, entry := range r.sorted() {
		if !entry.Available() {
			continue
		}
		return entry.Factory()
	}
	return nil, ErrNoBackend
}

// List returns registered names, highest priority first.
func (r *Registry) List() []string {
	sorted := r.sorted()
	names := make([]string, 0, len(sorted))
	for _, entry := range sorted {
		names = append(names, entry.Name)
	}
	return names
}

func (r *Registry) sorted() []*Entry {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}
