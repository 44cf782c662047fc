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

import (
	"github.com/panoptisDev/strata/go/strata"
)

// BlockInfo identifies the block executed in a slot.
type BlockInfo struct {
	ID      strata.BlockID
	Creator strata.Address
}

// FailedOperation records an operation whose execution failed or that was
// skipped. Failures never abort the execution of a slot.
type FailedOperation struct {
	ID  strata.OperationID
	Err error
}

// ExecutionOutput is the result of executing a slot. It is never modified
// once produced; a reorganization replaces it by a new execution.
type ExecutionOutput struct {
	Slot             strata.Slot
	Block            *BlockInfo // nil for a slot without block
	Final            bool
	Changes          StateChanges
	Events           []strata.Event
	GasUsed          strata.Gas
	FailedOperations []FailedOperation
}

// BlockID returns the identifier of the executed block, if any.
func (o *ExecutionOutput) BlockID() *strata.BlockID {
	if o.Block == nil {
		return nil
	}
	id := o.Block.ID
	return &id
}
