// Package objects implements the named object list that tasks read from
// during Init. Objects are looked up by name and cloned into a task-local
// copy; the clone is type-checked against the caller's expected type.
package objects

import (
	"fmt"
	"sync"
)

// Object is a named domain object. Clone returns a task-local copy; whether
// the copy shares any state with the original is up to the implementation.
type Object interface {
	ObjectName() string
	Clone() Object
}

// List is a mutable, concurrency-safe collection of named objects.
type List struct {
	mu    sync.Mutex
	items []Object
}

// New returns a list holding the given objects. Names must be unique.
func New(items ...Object) (*List, error) {
	l := &List{}
	for _, obj := range items {
		if err := l.Push(obj); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Push appends an object. It fails if an object with the same name exists.
func (l *List) Push(obj Object) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.items {
		if existing.ObjectName() == obj.ObjectName() {
			return fmt.Errorf("object name %q is used more than once", obj.ObjectName())
		}
	}
	l.items = append(l.items, obj)
	return nil
}

// Len returns the number of objects.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Names returns the object names in insertion order.
func (l *List) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, 0, len(l.items))
	for _, obj := range l.items {
		names = append(names, obj.ObjectName())
	}
	return names
}

// CloneByName looks up the object called name and returns a clone of it if
// the clone's concrete type is T. It returns false if no such object exists
// or if it has a different type.
func CloneByName[T Object](l *List, name string) (T, bool) {
	var zero T
	if l == nil {
		return zero, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, obj := range l.items {
		if obj.ObjectName() != name {
			continue
		}
		if _, ok := obj.(T); !ok {
			return zero, false
		}
		clone, ok := obj.Clone().(T)
		return clone, ok
	}
	return zero, false
}
