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

// StateChanges is the diff produced by the execution of one or more slots.
type StateChanges struct {
	Ledger                LedgerChanges
	AsyncPool             AsyncPoolChanges
	PoS                   PoSChanges
	ExecutedOps           ExecutedOpsChanges
	ExecutedDenunciations ExecutedDenunciationsChanges
}

// NewStateChanges creates an empty diff.
func NewStateChanges() StateChanges {
	return StateChanges{
		Ledger:                LedgerChanges{},
		AsyncPool:             AsyncPoolChanges{},
		PoS:                   NewPoSChanges(),
		ExecutedOps:           ExecutedOpsChanges{},
		ExecutedDenunciations: ExecutedDenunciationsChanges{},
	}
}

// Clone returns a deep copy of the changes.
func (s StateChanges) Clone() StateChanges {
	return StateChanges{
		Ledger:                s.Ledger.Clone(),
		AsyncPool:             s.AsyncPool.Clone(),
		PoS:                   s.PoS.Clone(),
		ExecutedOps:           s.ExecutedOps.Clone(),
		ExecutedDenunciations: s.ExecutedDenunciations.Clone(),
	}
}

// Apply composes the later changes onto s. Composition is associative:
// applying a diff built by composing D1..Dn equals applying D1..Dn in order.
func (s *StateChanges) Apply(later StateChanges) {
	if s.Ledger == nil {
		*s = NewStateChanges()
	}
	s.Ledger.Apply(later.Ledger)
	s.AsyncPool.Apply(later.AsyncPool)
	s.PoS.Apply(later.PoS)
	s.ExecutedOps.Apply(later.ExecutedOps)
	s.ExecutedDenunciations.Apply(later.ExecutedDenunciations)
}

// IsEmpty reports whether the diff changes nothing.
func (s StateChanges) IsEmpty() bool {
	return len(s.Ledger) == 0 && len(s.AsyncPool) == 0 && s.PoS.IsEmpty() &&
		len(s.ExecutedOps) == 0 && len(s.ExecutedDenunciations) == 0
}

// Compose folds diffs in order into a single diff.
func Compose(diffs ...StateChanges) StateChanges {
	res := NewStateChanges()
	for _, diff := range diffs {
		res.Apply(diff)
	}
	return res
}
