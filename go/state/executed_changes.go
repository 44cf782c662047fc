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

// ExecutedOp records the execution of an operation until its expiry, after
// which it can no longer be re-included and the record can be pruned.
type ExecutedOp struct {
	Expiry  strata.Slot
	Success bool
}

// ExecutedOpsChanges lists operations executed by a diff.
type ExecutedOpsChanges map[strata.OperationID]ExecutedOp

func (c ExecutedOpsChanges) Clone() ExecutedOpsChanges {
	res := make(ExecutedOpsChanges, len(c))
	for id, op := range c {
		res[id] = op
	}
	return res
}

func (c ExecutedOpsChanges) Apply(later ExecutedOpsChanges) {
	for id, op := range later {
		c[id] = op
	}
}

// ExecutedDenunciationsChanges lists denunciations executed by a diff.
type ExecutedDenunciationsChanges map[strata.DenunciationIndex]struct{}

func (c ExecutedDenunciationsChanges) Clone() ExecutedDenunciationsChanges {
	res := make(ExecutedDenunciationsChanges, len(c))
	for index := range c {
		res[index] = struct{}{}
	}
	return res
}

func (c ExecutedDenunciationsChanges) Apply(later ExecutedDenunciationsChanges) {
	for index := range later {
		c[index] = struct{}{}
	}
}
