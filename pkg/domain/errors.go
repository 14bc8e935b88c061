package domain

import (
	"errors"
	"fmt"
)

// ErrAbstractMethod is returned when a required hook is invoked on a type
// that never supplied a concrete implementation. It signals a
// registration-time authoring bug, not a runtime condition.
var ErrAbstractMethod = errors.New("abstract method not implemented")

// ErrNotObserving is returned when the teardown pipeline is asked to stop
// before it was started.
var ErrNotObserving = errors.New("teardown pipeline is not observing")

// AssertionError reports a violated precondition (missing node identity,
// missing type name, malformed binding). Always fatal to the call that
// raised it; never recovered internally.
type AssertionError struct {
	Msg string
}

// NewAssertionError creates an AssertionError with a formatted message.
func NewAssertionError(format string, args ...any) *AssertionError {
	return &AssertionError{Msg: fmt.Sprintf(format, args...)}
}

func (e *AssertionError) Error() string {
	return "assertion failed: " + e.Msg
}

// CatalogLookupError reports a failed Get on a catalog. Find and Contains
// never fail; Get is used where absence is a caller error.
type CatalogLookupError struct {
	Capability Capability
	Name       string
}

func (e *CatalogLookupError) Error() string {
	return fmt.Sprintf("catalog %q has no type registered under %q", e.Capability, e.Name)
}

// TypecastError reports a resolution request for a type that the node's
// declared bindings do not include, or that is not registered in the catalog
// the bindings point at. It names both sides so callers can distinguish
// "wrong type for this node" from "no such type registered".
type TypecastError struct {
	NodeID   string
	TypeName string
}

func (e *TypecastError) Error() string {
	return fmt.Sprintf("cannot cast node %q to type %q", e.NodeID, e.TypeName)
}
