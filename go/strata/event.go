// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package strata

// EventContext describes where an event was emitted.
type EventContext struct {
	Slot            Slot
	Block           *BlockID
	ReadOnly        bool
	IndexInSlot     uint64
	CallStack       []Address // from the original caller to the emitting address
	OriginOperation *OperationID
	IsFinal         bool
	IsError         bool
}

// Event is a message emitted by a smart contract or by the engine itself
// to report a failure during execution.
type Event struct {
	Context EventContext
	Data    string
}

// Emitter returns the address that emitted the event, if any.
func (e *Event) Emitter() (Address, bool) {
	if len(e.Context.CallStack) == 0 {
		return Address{}, false
	}
	return e.Context.CallStack[len(e.Context.CallStack)-1], true
}

// OriginalCaller returns the address at the bottom of the call stack, if any.
func (e *Event) OriginalCaller() (Address, bool) {
	if len(e.Context.CallStack) == 0 {
		return Address{}, false
	}
	return e.Context.CallStack[0], true
}

// EventFilter selects events. Nil fields match all events.
type EventFilter struct {
	Start             *Slot // inclusive
	End               *Slot // exclusive
	Emitter           *Address
	OriginalCaller    *Address
	OriginalOperation *OperationID
	IsFinal           *bool
	IsError           *bool
}

// Matches reports whether the event passes all conditions of the filter.
func (f *EventFilter) Matches(event *Event) bool {
	if f.Start != nil && event.Context.Slot.Less(*f.Start) {
		return false
	}
	if f.End != nil && !event.Context.Slot.Less(*f.End) {
		return false
	}
	if f.Emitter != nil {
		if emitter, found := event.Emitter(); !found || emitter != *f.Emitter {
			return false
		}
	}
	if f.OriginalCaller != nil {
		if caller, found := event.OriginalCaller(); !found || caller != *f.OriginalCaller {
			return false
		}
	}
	if f.OriginalOperation != nil {
		if event.Context.OriginOperation == nil || *event.Context.OriginOperation != *f.OriginalOperation {
			return false
		}
	}
	if f.IsFinal != nil && event.Context.IsFinal != *f.IsFinal {
		return false
	}
	if f.IsError != nil && event.Context.IsError != *f.IsError {
		return false
	}
	return true
}
