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
	"testing"

	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
	"github.com/stretchr/testify/require"
)

func slot(period uint64, thread uint8) strata.Slot {
	return strata.Slot{Period: period, Thread: thread}
}

type chain map[strata.Slot]strata.BlockID

// testBlocks returns blocks sending one coin from A to B in each given slot.
func testBlocks(slots chain) map[strata.BlockID]*strata.Block {
	res := map[strata.BlockID]*strata.Block{}
	for s, id := range slots {
		res[id] = &strata.Block{
			ID:      id,
			Slot:    s,
			Creator: addressCreator,
			Operations: []strata.Operation{{
				ID:           strata.OperationID(id),
				Sender:       addressA,
				ExpirePeriod: s.Period,
				Payload:      strata.Transaction{Recipient: addressB, Amount: strata.NewAmount(1)},
			}},
		}
	}
	return res
}

func newTestWorker(t *testing.T, config Config) *worker {
	t.Helper()
	vm := newTestVM()
	final := newTestFinalState(t, genesis{addressA: account(1_000)}, nil)
	return newWorker(&config, newExecutionState(&config, final, newTestModuleCache(t, vm), vm, fixedSelector(addressCreator)))
}

// drain executes slots until the sequencer waits for blocks.
func drain(t *testing.T, w *worker) {
	t.Helper()
	for {
		executed, err := w.executeNext()
		require.NoError(t, err)
		if !executed {
			return
		}
	}
}

func historySlots(w *worker) []strata.Slot {
	res := []strata.Slot{}
	for _, output := range w.state.history.Outputs() {
		res = append(res, output.Slot)
	}
	return res
}

func historyBlocks(w *worker) []*strata.BlockID {
	res := []*strata.BlockID{}
	for _, output := range w.state.history.Outputs() {
		res = append(res, output.BlockID())
	}
	return res
}

func ref(id strata.BlockID) *strata.BlockID {
	return &id
}

func TestSequencer_ExecutesCandidateSlotsUpToNewestBlock(t *testing.T) {
	w := newTestWorker(t, testConfig())
	require.Equal(t, WaitingForBlock, w.sequencer.State())

	clique := chain{slot(1, 0): blockID(1), slot(2, 1): blockID(2)}
	require.NoError(t, w.sequencer.update(nil, clique, testBlocks(clique)))
	drain(t, w)

	require.Equal(t, []strata.Slot{slot(1, 0), slot(1, 1), slot(2, 0), slot(2, 1)}, historySlots(w))
	require.Equal(t, []*strata.BlockID{ref(blockID(1)), nil, nil, ref(blockID(2))}, historyBlocks(w))
	require.Equal(t, WaitingForBlock, w.sequencer.State())
	require.Equal(t, genesisSlot, w.state.final.Slot())
}

func TestSequencer_ActiveHistoryIsBounded(t *testing.T) {
	config := testConfig()
	config.MaxActiveHistory = 3
	w := newTestWorker(t, config)

	clique := chain{slot(20, 0): blockID(1)}
	require.NoError(t, w.sequencer.update(nil, clique, testBlocks(clique)))
	drain(t, w)
	require.Equal(t, 3, w.state.history.Len())
}

func TestSequencer_DivergingBlockcliqueTruncatesHistory(t *testing.T) {
	w := newTestWorker(t, testConfig())
	clique := chain{slot(1, 0): blockID(1), slot(2, 1): blockID(2)}
	require.NoError(t, w.sequencer.update(nil, clique, testBlocks(clique)))
	drain(t, w)

	fork := chain{slot(1, 0): blockID(1), slot(1, 1): blockID(3)}
	require.NoError(t, w.sequencer.update(nil, fork, testBlocks(fork)))
	require.Equal(t, Reorganizing, w.sequencer.State())
	require.Equal(t, []strata.Slot{slot(1, 0)}, historySlots(w))

	drain(t, w)
	require.Equal(t, []*strata.BlockID{ref(blockID(1)), ref(blockID(3))}, historyBlocks(w))
	require.Equal(t, WaitingForBlock, w.sequencer.State())
}

func TestSequencer_FinalSlotsArePromotedWithoutReexecution(t *testing.T) {
	w := newTestWorker(t, testConfig())
	subscription := w.broadcast.Subscribe(16)
	clique := chain{slot(1, 0): blockID(1), slot(2, 1): blockID(2)}
	require.NoError(t, w.sequencer.update(nil, clique, testBlocks(clique)))
	drain(t, w)
	candidate := w.state.history.Outputs()[0]

	require.NoError(t, w.sequencer.update(chain{slot(1, 0): blockID(1)}, clique, nil))
	require.Equal(t, promoteFinalTask, w.sequencer.next().kind)
	drain(t, w)

	require.Equal(t, slot(1, 0), w.state.final.Slot())
	require.Equal(t, []strata.Slot{slot(1, 1), slot(2, 0), slot(2, 1)}, historySlots(w))

	var last *state.ExecutionOutput
	for i := 0; i < 5; i++ {
		last = <-subscription.Outputs()
	}
	require.True(t, last.Final)
	require.Equal(t, candidate.Changes, last.Changes)
}

func TestSequencer_FinalContentReplacesCandidateContent(t *testing.T) {
	w := newTestWorker(t, testConfig())
	clique := chain{slot(1, 0): blockID(1), slot(1, 1): blockID(2)}
	require.NoError(t, w.sequencer.update(nil, clique, testBlocks(clique)))
	drain(t, w)

	finalized := chain{slot(1, 0): blockID(5)}
	require.NoError(t, w.sequencer.update(finalized, finalized, testBlocks(finalized)))
	require.Equal(t, Reorganizing, w.sequencer.State())
	require.Equal(t, 0, w.state.history.Len())

	drain(t, w)
	require.Equal(t, slot(1, 0), w.state.final.Slot())
	op, found := w.state.final.ExecutedOp(strata.OperationID(blockID(5)))
	require.True(t, found)
	require.True(t, op.Success)
	_, found = w.state.final.ExecutedOp(strata.OperationID(blockID(1)))
	require.False(t, found)
}

func TestSequencer_FinalMissesAreExecutedInOrder(t *testing.T) {
	w := newTestWorker(t, testConfig())
	finalized := chain{slot(3, 0): blockID(1), slot(2, 1): blockID(2)}
	require.NoError(t, w.sequencer.update(finalized, finalized, testBlocks(finalized)))
	drain(t, w)

	require.Equal(t, slot(3, 0), w.state.final.Slot())
	require.Equal(t, 0, w.state.history.Len())
	balance, _ := w.state.final.Balance(addressA)
	require.Equal(t, strata.NewAmount(998), balance)
}

func TestSequencer_ReorganizationNeverAltersFinalState(t *testing.T) {
	w := newTestWorker(t, testConfig())
	clique := chain{slot(1, 0): blockID(1), slot(1, 1): blockID(2), slot(2, 0): blockID(3)}
	require.NoError(t, w.sequencer.update(chain{slot(1, 0): blockID(1)}, clique, testBlocks(clique)))
	drain(t, w)
	finalBalance, _ := w.state.final.Balance(addressA)
	require.Equal(t, strata.NewAmount(999), finalBalance)

	for i, fork := range []chain{
		{slot(1, 1): blockID(4)},
		{slot(2, 0): blockID(5), slot(2, 1): blockID(6)},
		{},
	} {
		require.NoError(t, w.sequencer.update(nil, fork, testBlocks(fork)), "fork %d", i)
		drain(t, w)
		balance, _ := w.state.final.Balance(addressA)
		require.Equal(t, finalBalance, balance)
		require.Equal(t, slot(1, 0), w.state.final.Slot())
	}
}

func TestSequencer_Errors(t *testing.T) {
	tests := map[string]struct {
		finalized chain
		clique    chain
		blocks    map[strata.BlockID]*strata.Block
		want      error
	}{
		"conflicting committed slot": {
			finalized: chain{slot(1, 0): blockID(9)},
			blocks:    testBlocks(chain{slot(1, 0): blockID(9)}),
			want:      strata.ErrFinalityConflict,
		},
		"two final blocks in a slot": {
			finalized: chain{slot(5, 0): blockID(9)},
			blocks:    testBlocks(chain{slot(5, 0): blockID(9)}),
			want:      strata.ErrFinalityConflict,
		},
		"missing final block": {
			finalized: chain{slot(6, 0): blockID(9)},
			want:      strata.ErrMissingBlock,
		},
		"missing candidate block": {
			clique: chain{slot(6, 0): blockID(9)},
			want:   strata.ErrMissingBlock,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			w := newTestWorker(t, testConfig())
			setup := chain{slot(1, 0): blockID(1), slot(5, 0): blockID(2)}
			require.NoError(t, w.sequencer.update(chain{slot(1, 0): blockID(1)}, setup, testBlocks(setup)))
			require.NoError(t, w.sequencer.update(chain{slot(5, 0): blockID(2)}, setup, nil))
			drain(t, w)
			require.Equal(t, slot(1, 0), w.state.final.Slot())

			err := w.sequencer.update(test.finalized, test.clique, test.blocks)
			require.ErrorIs(t, err, test.want)
		})
	}
}

func TestSequencer_BlockInCommittedMissedSlotIsConflict(t *testing.T) {
	w := newTestWorker(t, testConfig())
	finalized := chain{slot(2, 0): blockID(1)}
	require.NoError(t, w.sequencer.update(finalized, finalized, testBlocks(finalized)))
	drain(t, w)
	require.Equal(t, slot(1, 0), w.state.final.Slot())

	late := chain{slot(1, 0): blockID(9)}
	err := w.sequencer.update(late, nil, testBlocks(late))
	require.ErrorIs(t, err, strata.ErrFinalityConflict)
}
