// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package execution

import (
	"github.com/panoptisDev/strata/go/history"
	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
)

// speculativeExecuted records executed operations and denunciations so
// that they are never executed twice.
type speculativeExecuted struct {
	final         state.FinalState
	history       *history.ActiveHistory
	ops           state.ExecutedOpsChanges
	denunciations state.ExecutedDenunciationsChanges
}

type executedSnapshot struct {
	ops           state.ExecutedOpsChanges
	denunciations state.ExecutedDenunciationsChanges
}

func newSpeculativeExecuted(final state.FinalState, history *history.ActiveHistory) *speculativeExecuted {
	return &speculativeExecuted{
		final:         final,
		history:       history,
		ops:           state.ExecutedOpsChanges{},
		denunciations: state.ExecutedDenunciationsChanges{},
	}
}

// ExecutedOp returns the execution record of an operation, if any.
func (e *speculativeExecuted) ExecutedOp(id strata.OperationID) (state.ExecutedOp, bool) {
	if op, found := e.ops[id]; found {
		return op, true
	}
	if op, found := e.history.ExecutedOp(id); found {
		return op, true
	}
	return e.final.ExecutedOp(id)
}

func (e *speculativeExecuted) isOpExecuted(id strata.OperationID) bool {
	_, found := e.ExecutedOp(id)
	return found
}

func (e *speculativeExecuted) insertOp(id strata.OperationID, expiry strata.Slot, success bool) {
	e.ops[id] = state.ExecutedOp{Expiry: expiry, Success: success}
}

func (e *speculativeExecuted) isDenunciationExecuted(index strata.DenunciationIndex) bool {
	if _, found := e.denunciations[index]; found {
		return true
	}
	return e.history.IsDenunciationExecuted(index) || e.final.IsDenunciationExecuted(index)
}

func (e *speculativeExecuted) insertDenunciation(index strata.DenunciationIndex) {
	e.denunciations[index] = struct{}{}
}

func (e *speculativeExecuted) snapshot() executedSnapshot {
	return executedSnapshot{ops: e.ops.Clone(), denunciations: e.denunciations.Clone()}
}

func (e *speculativeExecuted) reset(snapshot executedSnapshot) {
	e.ops = snapshot.ops
	e.denunciations = snapshot.denunciations
}

func (e *speculativeExecuted) take() (state.ExecutedOpsChanges, state.ExecutedDenunciationsChanges) {
	ops, denunciations := e.ops, e.denunciations
	e.ops = state.ExecutedOpsChanges{}
	e.denunciations = state.ExecutedDenunciationsChanges{}
	return ops, denunciations
}
