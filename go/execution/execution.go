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

	"github.com/ethereum/go-ethereum/log"
	"github.com/panoptisDev/strata/go/history"
	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
)

// executionState is everything owned by the execution worker: the active
// history of candidate outputs, the final state it is layered on and the
// store of final events. It is not safe for concurrent use.
type executionState struct {
	config      *Config
	final       state.FinalState
	history     *history.ActiveHistory
	modules     ModuleCache
	interpreter strata.Interpreter
	selector    strata.Selector // may be nil, in which case misses are not accounted
	events      *eventStore
}

func newExecutionState(
	config *Config,
	final state.FinalState,
	modules ModuleCache,
	interpreter strata.Interpreter,
	selector strata.Selector,
) *executionState {
	return &executionState{
		config:      config,
		final:       final,
		history:     history.New(final.Slot(), config.ThreadCount),
		modules:     modules,
		interpreter: interpreter,
		selector:    selector,
		events:      newEventStore(config.MaxFinalEvents),
	}
}

// executeSlot executes the given slot, with or without block, on top of the
// final state and, for candidate slots, the whole active history. The
// history is not modified.
func (s *executionState) executeSlot(slot strata.Slot, block *strata.Block, final bool) *state.ExecutionOutput {
	view := s.history
	if final {
		view = s.history.Empty()
	}
	c := newExecutionContext(s.config, slot, s.final, view, s.modules, s.interpreter)
	c.final = final

	output := &state.ExecutionOutput{Slot: slot, Final: final}
	if block != nil {
		c.block = &state.BlockInfo{ID: block.ID, Creator: block.Creator}
		output.Block = &state.BlockInfo{ID: block.ID, Creator: block.Creator}
	}

	output.GasUsed = c.executeAsyncMessages()

	cycle := slot.Cycle(s.config.PeriodsPerCycle)
	if block != nil {
		c.rolls.recordProduction(cycle, block.Creator, true)

		for i := range block.Denunciations {
			if err := c.executeDenunciation(&block.Denunciations[i]); err != nil {
				log.Debug("Skipped denunciation", "slot", slot, "err", err)
			}
		}

		remaining := s.config.MaxGasPerBlock - s.config.MaxAsyncGas
		for i := range block.Operations {
			op := &block.Operations[i]
			used, err := c.executeOperation(op, &remaining)
			output.GasUsed += used
			if err != nil {
				output.FailedOperations = append(output.FailedOperations, state.FailedOperation{ID: op.ID, Err: err})
				failedOperations.Inc(1)
			}
		}

		if err := c.ledger.Transfer(nil, &block.Creator, s.config.BlockReward); err != nil {
			log.Warn("Failed to credit block reward", "slot", slot, "creator", block.Creator, "err", err)
		}
	} else if s.selector != nil {
		producer, err := s.selector.Producer(slot)
		if err != nil {
			log.Warn("Failed to select producer of missed slot", "slot", slot, "err", err)
		} else {
			c.rolls.recordProduction(cycle, producer, false)
		}
	}

	c.settle()

	output.Changes = c.takeChanges()
	output.Events = c.events
	gasUsed.Inc(int64(output.GasUsed))
	return output
}

// executeCandidate executes the slot following the newest history entry
// and appends its output to the history.
func (s *executionState) executeCandidate(slot strata.Slot, block *strata.Block) (*state.ExecutionOutput, error) {
	output := s.executeSlot(slot, block, false)
	if err := s.history.Append(output); err != nil {
		return nil, err
	}
	candidateSlots.Inc(1)
	historyLength.Update(int64(s.history.Len()))
	log.Debug("Executed candidate slot", "slot", slot, "block", output.BlockID(), "gas", output.GasUsed)
	return output, nil
}

// executeFinal executes the slot following the last final slot directly on
// top of the final state and commits its output. Candidate outputs at or
// after the slot are discarded.
func (s *executionState) executeFinal(slot strata.Slot, block *strata.Block) (*state.ExecutionOutput, error) {
	if removed := s.history.TruncateFrom(slot); len(removed) > 0 {
		log.Debug("Discarded candidate outputs", "from", slot, "count", len(removed))
	}
	output := s.executeSlot(slot, block, true)
	if err := s.final.Finalize(slot, output.Changes); err != nil {
		return nil, fmt.Errorf("failed to commit final slot %v: %w", slot, err)
	}
	if err := s.history.AdvanceBase(slot); err != nil {
		return nil, err
	}
	s.events.push(output.Events)
	finalSlots.Inc(1)
	historyLength.Update(int64(s.history.Len()))
	log.Debug("Executed final slot", "slot", slot, "block", output.BlockID(), "gas", output.GasUsed)
	return output, nil
}

// promoteFinal commits the oldest history entry, which became final with
// the content it was executed with, and removes it from the history.
func (s *executionState) promoteFinal() (*state.ExecutionOutput, error) {
	front, found := s.history.Front()
	if !found {
		return nil, fmt.Errorf("no candidate output to promote")
	}
	if err := s.final.Finalize(front.Slot, front.Changes); err != nil {
		return nil, fmt.Errorf("failed to commit final slot %v: %w", front.Slot, err)
	}
	if _, err := s.history.PopFront(); err != nil {
		return nil, err
	}
	output := finalized(front)
	s.events.push(output.Events)
	promotedSlots.Inc(1)
	historyLength.Update(int64(s.history.Len()))
	log.Debug("Promoted final slot", "slot", output.Slot, "block", output.BlockID())
	return output, nil
}

// finalized returns a final copy of a candidate output.
func finalized(output *state.ExecutionOutput) *state.ExecutionOutput {
	res := *output
	res.Final = true
	res.Events = make([]strata.Event, len(output.Events))
	for i, event := range output.Events {
		event.Context.IsFinal = true
		res.Events[i] = event
	}
	return &res
}
