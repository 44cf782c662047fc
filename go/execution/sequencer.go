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
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// SequencerState is the phase of the slot sequencer.
type SequencerState uint8

const (
	WaitingForBlock SequencerState = iota
	ReadyToExecute
	Reorganizing
)

func (s SequencerState) String() string {
	switch s {
	case WaitingForBlock:
		return "waiting for block"
	case ReadyToExecute:
		return "ready to execute"
	case Reorganizing:
		return "reorganizing"
	}
	return fmt.Sprintf("SequencerState(%d)", uint8(s))
}

type taskKind uint8

const (
	waitTask taskKind = iota
	executeFinalTask
	promoteFinalTask
	executeCandidateTask
)

// task is the next step of the worker decided by the sequencer.
type task struct {
	kind  taskKind
	slot  strata.Slot
	block *strata.Block // nil for a missed slot
}

// finalRetentionPeriods is the number of periods the content of committed
// final slots is remembered to detect conflicting finality notifications.
const finalRetentionPeriods = 32

// sequencer decides which slot the worker executes next. It tracks the
// final and candidate blocks reported by consensus and keeps the active
// history consistent with them, truncating it where it diverges.
//
// A slot is final once it is at or before the last final slot, or once a
// block of a later or equal period got finalized in its thread. Final slots
// are committed strictly in order; candidate slots are executed ahead of
// them up to the newest known block.
type sequencer struct {
	threadCount uint8
	maxHistory  int
	history     *history.ActiveHistory
	state       SequencerState

	blocks       map[strata.BlockID]*strata.Block
	finalBlocks  map[strata.Slot]strata.BlockID // final blocks of slots not yet committed
	finalPeriods []uint64                       // newest final period per thread
	hasFinal     []bool
	candidates   map[strata.Slot]strata.BlockID // the current blockclique
	committed    map[strata.Slot]*strata.BlockID
}

func newSequencer(config *Config, history *history.ActiveHistory) *sequencer {
	return &sequencer{
		threadCount:  config.ThreadCount,
		maxHistory:   config.MaxActiveHistory,
		history:      history,
		blocks:       map[strata.BlockID]*strata.Block{},
		finalBlocks:  map[strata.Slot]strata.BlockID{},
		finalPeriods: make([]uint64, config.ThreadCount),
		hasFinal:     make([]bool, config.ThreadCount),
		candidates:   map[strata.Slot]strata.BlockID{},
		committed:    map[strata.Slot]*strata.BlockID{},
	}
}

func (s *sequencer) State() SequencerState {
	return s.state
}

func sortedSlots[T any](m map[strata.Slot]T) []strata.Slot {
	slots := maps.Keys(m)
	slices.SortFunc(slots, strata.Slot.Compare)
	return slots
}

// update records newly finalized blocks and replaces the blockclique,
// unless it is nil. The content of all referenced blocks must be known,
// either from this or an earlier update. Finalized blocks contradicting committed final slots are
// reported as ErrFinalityConflict. Candidate outputs no longer matching the
// blocks are removed from the history.
func (s *sequencer) update(
	finalized map[strata.Slot]strata.BlockID,
	blockclique map[strata.Slot]strata.BlockID,
	blocks map[strata.BlockID]*strata.Block,
) error {
	for id, block := range blocks {
		s.blocks[id] = block
	}

	base := s.history.Base()
	for _, slot := range sortedSlots(finalized) {
		id := finalized[slot]
		if slot.Thread >= s.threadCount {
			return fmt.Errorf("finalized block %v in invalid slot %v", id, slot)
		}
		if !base.Less(slot) {
			committed, known := s.committed[slot]
			if !known {
				log.Warn("Ignoring finalized block of old slot", "slot", slot, "block", id)
				continue
			}
			if committed == nil || *committed != id {
				return fmt.Errorf("block %v finalized in committed slot %v: %w", id, slot, strata.ErrFinalityConflict)
			}
			continue
		}
		if previous, found := s.finalBlocks[slot]; found && previous != id {
			return fmt.Errorf("blocks %v and %v finalized in slot %v: %w", previous, id, slot, strata.ErrFinalityConflict)
		}
		if _, found := s.blocks[id]; !found {
			return fmt.Errorf("finalized block %v: %w", id, strata.ErrMissingBlock)
		}
		s.finalBlocks[slot] = id
		if !s.hasFinal[slot.Thread] || s.finalPeriods[slot.Thread] < slot.Period {
			s.finalPeriods[slot.Thread] = slot.Period
			s.hasFinal[slot.Thread] = true
		}
	}

	if blockclique != nil {
		candidates := make(map[strata.Slot]strata.BlockID, len(blockclique))
		for slot, id := range blockclique {
			if !base.Less(slot) {
				continue
			}
			if _, found := s.blocks[id]; !found {
				return fmt.Errorf("candidate block %v: %w", id, strata.ErrMissingBlock)
			}
			candidates[slot] = id
		}
		s.candidates = candidates
	}

	s.pruneBlocks(base)
	s.reconcile()
	return nil
}

// isFinal reports whether the content of the slot can no longer change.
func (s *sequencer) isFinal(slot strata.Slot) bool {
	if !s.history.Base().Less(slot) {
		return true
	}
	return s.hasFinal[slot.Thread] && slot.Period <= s.finalPeriods[slot.Thread]
}

// content returns the block of the slot in the adopted chain, nil for a
// missed slot.
func (s *sequencer) content(slot strata.Slot) *strata.Block {
	if id, found := s.finalBlocks[slot]; found {
		return s.blocks[id]
	}
	if s.isFinal(slot) {
		return nil
	}
	if id, found := s.candidates[slot]; found {
		return s.blocks[id]
	}
	return nil
}

// matches reports whether an output was executed with the content its
// slot has in the adopted chain.
func (s *sequencer) matches(output *state.ExecutionOutput) bool {
	block := s.content(output.Slot)
	if block == nil || output.Block == nil {
		return block == nil && output.Block == nil
	}
	return block.ID == output.Block.ID
}

// reconcile truncates the history at the first output that diverges from
// the adopted chain.
func (s *sequencer) reconcile() {
	for _, output := range s.history.Outputs() {
		if s.matches(output) {
			continue
		}
		removed := s.history.TruncateFrom(output.Slot)
		s.state = Reorganizing
		reorganizations.Inc(1)
		historyLength.Update(int64(s.history.Len()))
		log.Info("Reorganizing active history", "from", output.Slot, "discarded", len(removed))
		return
	}
}

// horizon returns the newest slot holding a known block.
func (s *sequencer) horizon() (strata.Slot, bool) {
	var res strata.Slot
	found := false
	for _, m := range []map[strata.Slot]strata.BlockID{s.finalBlocks, s.candidates} {
		for slot := range m {
			if !found || res.Less(slot) {
				res, found = slot, true
			}
		}
	}
	return res, found
}

// next returns the next step of the worker. Final slots take precedence
// over candidate slots.
func (s *sequencer) next() task {
	res := s.nextTask()
	if res.kind == waitTask {
		s.state = WaitingForBlock
	} else {
		s.state = ReadyToExecute
	}
	return res
}

func (s *sequencer) nextTask() task {
	nextFinal, err := s.history.Base().Next(s.threadCount)
	if err != nil {
		return task{kind: waitTask}
	}
	if s.isFinal(nextFinal) {
		if front, found := s.history.Front(); found && front.Slot == nextFinal && s.matches(front) {
			return task{kind: promoteFinalTask, slot: nextFinal}
		}
		return task{kind: executeFinalTask, slot: nextFinal, block: s.content(nextFinal)}
	}

	if s.history.Len() >= s.maxHistory {
		return task{kind: waitTask}
	}
	nextCandidate, err := s.history.LastSlot().Next(s.threadCount)
	if err != nil {
		return task{kind: waitTask}
	}
	if horizon, found := s.horizon(); !found || horizon.Less(nextCandidate) {
		return task{kind: waitTask}
	}
	return task{kind: executeCandidateTask, slot: nextCandidate, block: s.content(nextCandidate)}
}

// committedSlot records that the slot got committed to the final state
// with the given content.
func (s *sequencer) committedSlot(slot strata.Slot, block *strata.BlockID) {
	s.committed[slot] = block
	delete(s.finalBlocks, slot)
	delete(s.candidates, slot)
	if block != nil {
		delete(s.blocks, *block)
	}
	if slot.Period < finalRetentionPeriods {
		return
	}
	limit := slot.Period - finalRetentionPeriods
	for old := range s.committed {
		if old.Period < limit {
			delete(s.committed, old)
		}
	}
}

// pruneBlocks forgets blocks of committed slots.
func (s *sequencer) pruneBlocks(base strata.Slot) {
	for id, block := range s.blocks {
		if !base.Less(block.Slot) {
			delete(s.blocks, id)
		}
	}
}
