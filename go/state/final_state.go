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

//go:generate mockgen -source final_state.go -destination final_state_mock.go -package state

import (
	"github.com/panoptisDev/strata/go/strata"
)

// FinalState is the persisted ground truth below the active history. The
// execution engine only reads it and commits final slots to it.
type FinalState interface {
	// Slot returns the last slot committed to the final state.
	Slot() strata.Slot

	EntryExists(strata.Address) bool
	Balance(strata.Address) (strata.Amount, bool)
	Bytecode(strata.Address) (strata.Data, bool)
	DatastoreValue(address strata.Address, key []byte) ([]byte, bool)
	DatastoreKeys(address strata.Address, prefix []byte) [][]byte

	AsyncMessages() []*strata.AsyncMessage

	RollCount(strata.Address) uint64
	ProductionStats(cycle uint64) map[strata.Address]ProductionStats
	DeferredCredits(from, to strata.Slot) DeferredCredits

	ExecutedOp(strata.OperationID) (ExecutedOp, bool)
	IsDenunciationExecuted(strata.DenunciationIndex) bool

	// Finalize commits the changes of the given slot, which must directly
	// follow the current final slot.
	Finalize(slot strata.Slot, changes StateChanges) error
}
