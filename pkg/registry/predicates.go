package registry

import (
	"sort"
	"sync"
)

// Predicate is a custom validation check. It receives the answer under test and the
// whole response set, and reports whether the answer is acceptable.
type Predicate func(value any, responses map[string]any) bool

// Predicates manages the custom rules available to the validation compiler.
type Predicates struct {
	mu    sync.RWMutex
	funcs map[string]Predicate
}

// NewPredicates creates a new empty predicate registry.
func NewPredicates() *Predicates {
	return &Predicates{
		funcs: make(map[string]Predicate),
	}
}

// Register adds a predicate to the registry.
// If a predicate with the same name exists, it is overwritten.
func (p *Predicates) Register(name string, fn Predicate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.funcs[name] = fn
}

// Lookup returns the predicate registered under name.
func (p *Predicates) Lookup(name string) (Predicate, bool) {
	if p == nil {
		return nil, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	fn, ok := p.funcs[name]
	return fn, ok
}

// Names lists the registered predicate names, sorted.
func (p *Predicates) Names() []string {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.funcs))
	for name := range p.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
