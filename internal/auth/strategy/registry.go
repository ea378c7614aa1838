package strategy

import "fmt"

// Registry holds configured strategies keyed by provider name.
type Registry[U any] struct {
	strategies map[string]*Strategy[U]
}

func NewRegistry[U any]() *Registry[U] {
	return &Registry[U]{strategies: make(map[string]*Strategy[U])}
}

// Register adds a strategy. Provider names must be unique.
func (r *Registry[U]) Register(s *Strategy[U]) error {
	name := s.Name()
	if _, exists := r.strategies[name]; exists {
		return fmt.Errorf("oauth strategy already registered: %s", name)
	}
	r.strategies[name] = s
	return nil
}

// Get returns the strategy by name or an error if not registered.
func (r *Registry[U]) Get(name string) (*Strategy[U], error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown oauth provider: %s", name)
	}
	return s, nil
}

func (r *Registry[U]) Names() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	return names
}
