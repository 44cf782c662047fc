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

// ModuleCache provides compiled modules for bytecode together with the
// deterministic gas cost of obtaining them.
type ModuleCache interface {
	GetOrCompile(bytecode []byte) (strata.Module, error)
	CompileCost(bytecode []byte) strata.Gas
}

// executionContext is the session of the execution of a single slot or of
// a single read-only request. All changes are accumulated in speculative
// overlays layered on top of a view of the active history and the final
// state; nothing is written to shared state before the output is taken.
type executionContext struct {
	config   *Config
	slot     strata.Slot
	readOnly bool
	final    bool
	block    *state.BlockInfo    // nil for missed slots and read-only requests
	origin   *strata.OperationID // the operation being executed, if any

	ledger    *speculativeLedger
	asyncPool *speculativeAsyncPool
	rolls     *speculativeRollState
	executed  *speculativeExecuted

	events           []strata.Event
	createdAddresses uint64
	emittedMessages  uint64

	modules     ModuleCache
	interpreter strata.Interpreter
}

func newExecutionContext(
	config *Config,
	slot strata.Slot,
	final state.FinalState,
	view *history.ActiveHistory,
	modules ModuleCache,
	interpreter strata.Interpreter,
) *executionContext {
	return &executionContext{
		config:      config,
		slot:        slot,
		ledger:      newSpeculativeLedger(config, final, view),
		asyncPool:   newSpeculativeAsyncPool(config, final, view),
		rolls:       newSpeculativeRollState(final, view),
		executed:    newSpeculativeExecuted(final, view),
		modules:     modules,
		interpreter: interpreter,
	}
}

// contextSnapshot captures everything a failing call has to revert.
type contextSnapshot struct {
	ledger           state.LedgerChanges
	asyncPool        asyncPoolSnapshot
	rolls            state.PoSChanges
	executed         executedSnapshot
	events           int
	createdAddresses uint64
	emittedMessages  uint64
}

func (c *executionContext) snapshot() contextSnapshot {
	return contextSnapshot{
		ledger:           c.ledger.snapshot(),
		asyncPool:        c.asyncPool.snapshot(),
		rolls:            c.rolls.snapshot(),
		executed:         c.executed.snapshot(),
		events:           len(c.events),
		createdAddresses: c.createdAddresses,
		emittedMessages:  c.emittedMessages,
	}
}

// reset reverts all changes made since the snapshot was taken.
func (c *executionContext) reset(snapshot contextSnapshot) {
	c.ledger.reset(snapshot.ledger)
	c.asyncPool.reset(snapshot.asyncPool)
	c.rolls.reset(snapshot.rolls)
	c.executed.reset(snapshot.executed)
	c.events = c.events[:snapshot.events]
	c.createdAddresses = snapshot.createdAddresses
	c.emittedMessages = snapshot.emittedMessages
}

// pushEvent appends an event emitted by the given call stack.
func (c *executionContext) pushEvent(stack []*frame, data string, isError bool) {
	callStack := make([]strata.Address, 0, len(stack))
	for _, f := range stack {
		callStack = append(callStack, f.address)
	}
	var blockID *strata.BlockID
	if c.block != nil {
		id := c.block.ID
		blockID = &id
	}
	c.events = append(c.events, strata.Event{
		Context: strata.EventContext{
			Slot:            c.slot,
			Block:           blockID,
			ReadOnly:        c.readOnly,
			IndexInSlot:     uint64(len(c.events)),
			CallStack:       callStack,
			OriginOperation: c.origin,
			IsFinal:         c.final,
			IsError:         isError,
		},
		Data: data,
	})
}

// takeChanges returns all changes accumulated by the context.
func (c *executionContext) takeChanges() state.StateChanges {
	ops, denunciations := c.executed.take()
	return state.StateChanges{
		Ledger:                c.ledger.take(),
		AsyncPool:             c.asyncPool.take(),
		PoS:                   c.rolls.take(),
		ExecutedOps:           ops,
		ExecutedDenunciations: denunciations,
	}
}

// baseContext returns a run context whose only frame is the given address,
// acting as the origin of the calls made through it.
func (c *executionContext) baseContext(address strata.Address, gas strata.Gas) runContext {
	return runContext{
		executionContext: c,
		stack:            []*frame{newFrame(address, strata.Amount{}, gas)},
	}
}
