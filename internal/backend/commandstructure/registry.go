package commandstructure

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// CommandRegistry maps command names from configuration to their factories
type CommandRegistry struct {
	mu        sync.RWMutex
	factories map[string]CommandFactory
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{factories: map[string]CommandFactory{}}
}

// Register adds factory under name. Names are unique.
func (r *CommandRegistry) Register(name string, factory CommandFactory) error {
	switch {
	case name == "":
		return errors.New("command name cannot be empty")
	case factory == nil:
		return fmt.Errorf("command %s has a nil factory", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.factories[name]; taken {
		return fmt.Errorf("command %s is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister is Register for package init functions
func (r *CommandRegistry) MustRegister(name string, factory CommandFactory) {
	if err := r.Register(name, factory); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", name, err))
	}
}

// Create builds the named command from its configuration parameters
func (r *CommandRegistry) Create(name string, params map[string]any) (Command, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", name)
	}

	command, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create command %s: %w", name, err)
	}
	return command, nil
}

func (r *CommandRegistry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// GetRegisteredNames lists registered commands alphabetically
func (r *CommandRegistry) GetRegisteredNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultRegistry is populated by the init functions of the commands package
var DefaultRegistry = NewCommandRegistry()
