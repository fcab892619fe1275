package participants

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyName = errors.New("participant name is empty")
	ErrDuplicate = errors.New("participant already exists")
	ErrUnknown   = errors.New("unknown participant")
)

// Registry is the ordered set of names a session currently tracks.
// Renaming an entry does not touch stored transactions; rows keep the name
// they were written with.
type Registry struct {
	names []string
	index map[string]int
}

// New creates a Registry. Blank and repeated names are dropped.
func New(names ...string) *Registry {
	r := &Registry{index: make(map[string]int, len(names))}
	for _, n := range names {
		_ = r.Add(n)
	}
	return r
}

// Names returns a copy of the registered names in insertion order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered names.
func (r *Registry) Len() int { return len(r.names) }

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Add appends a new name.
func (r *Registry) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if r.Contains(name) {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	r.index[name] = len(r.names)
	r.names = append(r.names, name)
	return nil
}

// Rename replaces old with newName, keeping its position.
func (r *Registry) Rename(old, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyName
	}
	i, ok := r.index[old]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknown, old)
	}
	if old == newName {
		return nil
	}
	if r.Contains(newName) {
		return fmt.Errorf("%w: %s", ErrDuplicate, newName)
	}
	delete(r.index, old)
	r.names[i] = newName
	r.index[newName] = i
	return nil
}
