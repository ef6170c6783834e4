package splash

import (
	"errors"
)

// Conflict taxonomy for mutations. All are non-fatal: a failed mutation
// returns false and records the wrapped error as the tree's pending error.
var (
	// an intermediate path segment does not name an existing branch
	ErrPathNotFound = errors.New("path not found")
	// create or rename onto an existing sibling
	ErrNameCollision = errors.New("name collision")
	// remove, rename or set on a node that does not exist
	ErrNotFound = errors.New("not found")
	// a set-leaf timestamp not newer than the leaf's current timestamp
	ErrStaleUpdate = errors.New("stale update")
)
