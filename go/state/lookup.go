// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

// LookupKind is the answer of a diff about a value it may or may not define.
type LookupKind uint8

const (
	// NoInfo means the diff does not touch the value; older layers decide.
	NoInfo LookupKind = iota
	// Present means the diff sets the value.
	Present
	// Absent means the diff deletes the value.
	Absent
)

// Lookup is the result of reading a value from a single diff layer.
type Lookup[T any] struct {
	Kind  LookupKind
	Value T
}

func noInfo[T any]() Lookup[T] {
	return Lookup[T]{}
}

func present[T any](value T) Lookup[T] {
	return Lookup[T]{Kind: Present, Value: value}
}

func absent[T any]() Lookup[T] {
	return Lookup[T]{Kind: Absent}
}

// Resolved reports whether the lookup decided the value, either way.
func (l Lookup[T]) Resolved() bool {
	return l.Kind != NoInfo
}

// SetOrKeep is a field update: either a new value or no change.
type SetOrKeep[T any] struct {
	Set   bool
	Value T
}

// SetTo returns an update replacing the field with value.
func SetTo[T any](value T) SetOrKeep[T] {
	return SetOrKeep[T]{Set: true, Value: value}
}

// Apply composes a later update onto u.
func (u *SetOrKeep[T]) Apply(later SetOrKeep[T]) {
	if later.Set {
		*u = later
	}
}

// ApplyTo returns the value of a field after the update.
func (u SetOrKeep[T]) ApplyTo(current T) T {
	if u.Set {
		return u.Value
	}
	return current
}

// SetOrDelete is a datastore update: either a new value or a removal.
type SetOrDelete struct {
	Delete bool
	Value  []byte
}
