package model

import (
	"errors"
	"fmt"
)

// ErrInvalidModel indicates a structurally invalid desired tree. This is a
// caller bug and aborts the whole sync run before any mutation.
var ErrInvalidModel = errors.New("invalid build model")

// Index is the flattened lookup of a desired tree by canonical location.
type Index map[string]*Project

// BuildIndex flattens the tree rooted at root into a location lookup.
// Two distinct nodes sharing a location make the model invalid.
func BuildIndex(root *Project) (Index, error) {
	index := make(Index)
	for _, p := range root.All() {
		if p.Location == "" {
			return nil, fmt.Errorf("%w: project %q has no location", ErrInvalidModel, p.Name)
		}
		if existing, ok := index[p.Location]; ok {
			return nil, fmt.Errorf("%w: projects %q and %q share location %s", ErrInvalidModel, existing.Name, p.Name, p.Location)
		}
		index[p.Location] = p
	}
	return index, nil
}

// Contains reports whether a project at the given location is part of the
// desired tree.
func (i Index) Contains(location string) bool {
	_, ok := i[location]
	return ok
}
