package templater

// Scope is a chain of variable tables. Lookups walk outward through parent
// scopes; assignments update the nearest scope that already defines the
// variable and otherwise create it locally.
type Scope struct {
	vars   map[string]any
	parent *Scope
}

// NewScope creates a root scope seeded with the given variables. A nil map
// is allowed.
func NewScope(vars map[string]any) *Scope {
	if vars == nil {
		vars = map[string]any{}
	}
	return &Scope{vars: vars}
}

// Child creates a nested scope.
func (s *Scope) Child() *Scope {
	return &Scope{vars: map[string]any{}, parent: s}
}

// Get resolves a variable, walking outward. Returns false when the variable
// is not defined anywhere in the chain.
func (s *Scope) Get(name string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set assigns a variable. When an outer scope already defines the name, that
// definition is updated; otherwise the variable is created in this scope.
func (s *Scope) Set(name string, value any) {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = value
			return
		}
	}
	s.vars[name] = value
}

// SetLocal assigns a variable in this scope regardless of outer definitions.
// Loop iterators use it so that they never leak into the surrounding scope.
func (s *Scope) SetLocal(name string, value any) {
	s.vars[name] = value
}
