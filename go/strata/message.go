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

import (
	"math/big"
)

// AsyncMessage is a deferred call emitted by a smart contract and executed
// in a later slot, when its validity window is open and enough block gas
// for asynchronous execution is left.
type AsyncMessage struct {
	EmissionSlot  Slot
	EmissionIndex uint64 // position among the messages emitted in EmissionSlot
	Sender        Address
	Destination   Address
	Function      string
	MaxGas        Gas
	Fee           Amount
	Coins         Amount
	ValidityStart Slot // first slot in which the message may be executed
	ValidityEnd   Slot // the message expires at this slot
	Data          Data
	Trigger       *MessageTrigger
	CanBeExecuted bool
}

// MessageTrigger delays the execution of a message until the given
// datastore entry is changed.
type MessageTrigger struct {
	Address      Address
	DatastoreKey []byte
}

// ID returns the identifier determining the execution priority of the message.
func (m *AsyncMessage) ID() MessageID {
	return MessageID{
		Fee:           m.Fee,
		MaxGas:        m.MaxGas,
		EmissionSlot:  m.EmissionSlot,
		EmissionIndex: m.EmissionIndex,
	}
}

// IsExpired reports whether the validity window of the message has closed at slot.
func (m *AsyncMessage) IsExpired(slot Slot) bool {
	return !slot.Less(m.ValidityEnd)
}

// IsDue reports whether the message may be executed at slot.
func (m *AsyncMessage) IsDue(slot Slot) bool {
	return !slot.Less(m.ValidityStart) && slot.Less(m.ValidityEnd) && m.CanBeExecuted
}

// IsTriggeredBy reports whether a message waiting for its trigger is
// unlocked by a set of changes. touches reports whether the changes modify
// a datastore entry.
func (m *AsyncMessage) IsTriggeredBy(touches func(address Address, key []byte) bool) bool {
	return m.Trigger != nil && !m.CanBeExecuted && touches(m.Trigger.Address, m.Trigger.DatastoreKey)
}

// MessageID orders messages by decreasing fee per gas, then by emission
// slot and emission index.
type MessageID struct {
	Fee           Amount
	MaxGas        Gas
	EmissionSlot  Slot
	EmissionIndex uint64
}

// CompareMessageIDs returns a negative number if a has priority over b, a
// positive number if b has priority over a and zero if both are equal.
func CompareMessageIDs(a, b MessageID) int {
	// fee_a/gas_a > fee_b/gas_b <=> fee_a*gas_b > fee_b*gas_a
	left := new(big.Int).Mul(a.Fee.ToUint256().ToBig(), new(big.Int).SetUint64(uint64(max(b.MaxGas, 1))))
	right := new(big.Int).Mul(b.Fee.ToUint256().ToBig(), new(big.Int).SetUint64(uint64(max(a.MaxGas, 1))))
	if c := right.Cmp(left); c != 0 {
		return c
	}
	if c := a.EmissionSlot.Compare(b.EmissionSlot); c != 0 {
		return c
	}
	switch {
	case a.EmissionIndex < b.EmissionIndex:
		return -1
	case a.EmissionIndex > b.EmissionIndex:
		return 1
	}
	return 0
}
