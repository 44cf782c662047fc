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
	"fmt"

	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
)

// ReadOnlyRequest is a call executed against the latest state without
// changing it. Either Bytecode is run in the context of the last address of
// the call stack, or Function of the smart contract at Target is called by
// that address.
type ReadOnlyRequest struct {
	CallStack []strata.Address // simulated call stack, starting with the original caller
	Bytecode  strata.Data
	Target    strata.Address
	Function  string
	Param     strata.Data
	Coins     strata.Amount // minted and transferred to the target for the call
	MaxGas    strata.Gas
	Final     bool // execute on top of the final state instead of the candidate state
}

// ReadOnlyResponse is the outcome of a read-only request. Its changes are a
// preview only and are never committed.
type ReadOnlyResponse struct {
	Slot    strata.Slot // the slot the request was executed as
	Output  strata.Data
	GasUsed strata.Gas
	Changes state.StateChanges
	Events  []strata.Event
}

// executeReadOnly executes a request in the slot following the newest state
// of the requested view. Nothing is written to the history or the final
// state.
func (s *executionState) executeReadOnly(request ReadOnlyRequest) (ReadOnlyResponse, error) {
	if request.MaxGas > s.config.MaxReadOnlyGas {
		return ReadOnlyResponse{}, fmt.Errorf("requested %d gas, limit is %d: %w", request.MaxGas, s.config.MaxReadOnlyGas, strata.ErrGasExceeded)
	}
	if len(request.CallStack) == 0 {
		return ReadOnlyResponse{}, fmt.Errorf("read-only request without call stack")
	}

	view := s.history
	if request.Final {
		view = s.history.Empty()
	}
	slot, err := view.LastSlot().Next(s.config.ThreadCount)
	if err != nil {
		return ReadOnlyResponse{}, err
	}
	c := newExecutionContext(s.config, slot, s.final, view, s.modules, s.interpreter)
	c.readOnly = true

	base := c.baseContext(request.CallStack[0], 0)
	for _, address := range request.CallStack[1:] {
		base = base.push(newFrame(address, strata.Amount{}, 0))
	}
	top := base.frame()
	top.gas = request.MaxGas

	var output strata.Data
	if len(request.Bytecode) > 0 {
		if err = c.ledger.Transfer(nil, &top.address, request.Coins); err == nil {
			output, err = base.run(request.Bytecode, "main", request.Param)
		}
	} else {
		output, err = base.invoke(request.Target, request.Function, request.Param, request.MaxGas, request.Coins, nil)
	}
	if err != nil {
		if isGasError(err) {
			return ReadOnlyResponse{}, fmt.Errorf("%w: %w", strata.ErrGasExceeded, err)
		}
		return ReadOnlyResponse{}, err
	}
	return ReadOnlyResponse{
		Slot:    slot,
		Output:  output,
		GasUsed: request.MaxGas - top.gas,
		Changes: c.takeChanges(),
		Events:  c.events,
	}, nil
}
