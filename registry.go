package jwt

import (
	"errors"
	"sort"
	"sync"
)

// ConfigRegistry maps configuration names to entries and tracks the default.
// It is meant to be filled at startup and read concurrently afterwards.
type ConfigRegistry struct {
	mu          sync.RWMutex
	entries     map[string]*Configuration
	defaultName string
}

// NewConfigRegistry returns an empty registry.
func NewConfigRegistry() *ConfigRegistry {
	return &ConfigRegistry{entries: make(map[string]*Configuration)}
}

// Register adds cfg under cfg.Name().
func (r *ConfigRegistry) Register(cfg *Configuration) error {
	if err := cfg.check(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[cfg.name]; ok {
		return &DuplicateNameError{Kind: "configuration", Name: cfg.name}
	}
	r.entries[cfg.name] = cfg
	return nil
}

// MustRegister is Register that panics, for startup wiring.
func (r *ConfigRegistry) MustRegister(cfg *Configuration) {
	if err := r.Register(cfg); err != nil {
		panic(err)
	}
}

// SetDefault designates a registered configuration as the default.
func (r *ConfigRegistry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; !ok {
		return &UnknownConfigurationError{Name: name}
	}
	r.defaultName = name
	return nil
}

// Configuration returns the entry registered under name.
func (r *ConfigRegistry) Configuration(name string) (*Configuration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.entries[name]
	if !ok {
		return nil, &UnknownConfigurationError{Name: name}
	}
	return cfg, nil
}

// Default returns the default entry.
func (r *ConfigRegistry) Default() (*Configuration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultName == "" {
		return nil, ErrNoDefaultConfiguration
	}
	return r.entries[r.defaultName], nil
}

// DefaultName returns the default configuration name, or "" if none is set.
func (r *ConfigRegistry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// Names returns the registered names in sorted order.
func (r *ConfigRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.entries)
}

// TypeRegistry maps type names to Types.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]Type
}

// NewTypeRegistry returns an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: make(map[string]Type)}
}

// Register adds t under name.
func (r *TypeRegistry) Register(name string, t Type) error {
	if name == "" {
		return errors.New("type name cannot be empty")
	}
	if t == nil {
		return errors.New("type cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[name]; ok {
		return &DuplicateNameError{Kind: "type", Name: name}
	}
	r.types[name] = t
	return nil
}

// MustRegister is Register that panics, for startup wiring.
func (r *TypeRegistry) MustRegister(name string, t Type) {
	if err := r.Register(name, t); err != nil {
		panic(err)
	}
}

// TypeByName returns the Type registered under name.
func (r *TypeRegistry) TypeByName(name string) (Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[name]
	if !ok {
		return nil, &UnknownTypeError{Name: name}
	}
	return t, nil
}

// Names returns the registered names in sorted order.
func (r *TypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.types)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
