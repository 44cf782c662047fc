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
	"errors"
	"testing"

	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
	"github.com/stretchr/testify/require"
)

func TestExecution_TransferBetweenAccounts(t *testing.T) {
	s := newTestState(t, testConfig(), newTestVM(), genesis{
		addressA: account(100),
		addressB: account(0),
	})
	slot := strata.Slot{Period: 10, Thread: 0}
	block := newBlock(1, slot, strata.Operation{
		ID:           operationID(1),
		Sender:       addressA,
		ExpirePeriod: 10,
		Payload:      strata.Transaction{Recipient: addressB, Amount: strata.NewAmount(5)},
	})

	output := s.executeSlot(slot, block, false)

	require.Empty(t, output.FailedOperations)
	require.Empty(t, output.Events)
	require.Greater(t, output.GasUsed, strata.Gas(0))
	require.Len(t, output.Changes.Ledger, 2)
	require.Equal(t, uint64(95), balanceIn(t, output.Changes, addressA))
	require.Equal(t, uint64(5), balanceIn(t, output.Changes, addressB))
	require.Equal(t, &state.BlockInfo{ID: blockID(1), Creator: addressCreator}, output.Block)
	require.False(t, output.Final)
}

func TestExecution_SameSlotYieldsIdenticalOutputs(t *testing.T) {
	vm := newTestVM()
	var bytecode strata.Data
	bytecode = vm.contract("logger", map[string]contractFunc{
		"main": func(ctx strata.RunContext, param strata.Data) (strata.Data, error) {
			if err := ctx.EmitEvent("called with " + string(param)); err != nil {
				return nil, err
			}
			address, err := ctx.CreateSC(bytecode)
			if err != nil {
				return nil, err
			}
			return address[:], ctx.SetData(ctx.CurrentAddress(), []byte("child"), address[:])
		},
	})
	content := genesis{
		addressA: account(1_000),
		addressD: contract(bytecode, 0),
	}
	slot := strata.Slot{Period: 1, Thread: 0}
	block := newBlock(1, slot,
		strata.Operation{
			ID: operationID(1), Sender: addressA, Fee: strata.NewAmount(2), ExpirePeriod: 3,
			Payload: strata.CallSC{Target: addressD, Function: "main", Param: strata.Data("x"), Gas: 1_000, Coins: strata.NewAmount(7)},
		},
		strata.Operation{
			ID: operationID(2), Sender: addressA, ExpirePeriod: 3,
			Payload: strata.Transaction{Recipient: addressB, Amount: strata.NewAmount(5)},
		},
		strata.Operation{
			ID: operationID(3), Sender: addressB, ExpirePeriod: 3,
			Payload: strata.Transaction{Recipient: addressA, Amount: strata.NewAmount(50)},
		},
	)

	first := newTestState(t, testConfig(), vm, content).executeSlot(slot, block, false)
	second := newTestState(t, testConfig(), vm, content).executeSlot(slot, block, false)
	require.Equal(t, first, second)
	require.Len(t, first.FailedOperations, 1)
	require.Equal(t, operationID(3), first.FailedOperations[0].ID)
	require.Len(t, first.Events, 2)
}

func TestExecution_NestedCallRunningOutOfGasKeepsCallerChanges(t *testing.T) {
	vm := newTestVM()
	callee := vm.contract("callee", map[string]contractFunc{
		"spin": func(ctx strata.RunContext, param strata.Data) (strata.Data, error) {
			if err := ctx.SetData(ctx.CurrentAddress(), []byte("q"), []byte("1")); err != nil {
				return nil, err
			}
			if err := ctx.EmitEvent("spinning"); err != nil {
				return nil, err
			}
			return nil, ctx.ChargeGas(1_000)
		},
	})
	caller := vm.contract("caller", map[string]contractFunc{
		"main": func(ctx strata.RunContext, param strata.Data) (strata.Data, error) {
			self := ctx.CurrentAddress()
			if err := ctx.SetData(self, []byte("before"), []byte("1")); err != nil {
				return nil, err
			}
			_, err := ctx.Call(addressB, "spin", nil, 50, strata.Amount{})
			if !errors.Is(err, strata.ErrNotEnoughGas) {
				return nil, errors.New("expected nested call to run out of gas")
			}
			return nil, ctx.SetData(self, []byte("after"), []byte("1"))
		},
	})
	s := newTestState(t, testConfig(), vm, genesis{
		addressA: account(100),
		addressB: contract(callee, 0),
		addressD: contract(caller, 0),
	})
	slot := strata.Slot{Period: 1, Thread: 0}
	block := newBlock(1, slot, strata.Operation{
		ID: operationID(1), Sender: addressA, ExpirePeriod: 1,
		Payload: strata.CallSC{Target: addressD, Function: "main", Gas: 10_000},
	})

	output := s.executeSlot(slot, block, false)

	require.Empty(t, output.FailedOperations)
	for _, key := range []string{"before", "after"} {
		lookup := output.Changes.Ledger.DatastoreValue(addressD, []byte(key))
		require.Equal(t, state.Present, lookup.Kind, key)
	}
	require.NotContains(t, output.Changes.Ledger, addressB)

	require.Len(t, output.Events, 1)
	event := output.Events[0]
	require.True(t, event.Context.IsError)
	require.Contains(t, event.Data, strata.ErrNotEnoughGas.Error())
	require.Equal(t, []strata.Address{addressA, addressD, addressB}, event.Context.CallStack)
	require.Equal(t, operationID(1), *event.Context.OriginOperation)
}

func TestExecution_FailingOperationKeepsFeeAndRevertsPayload(t *testing.T) {
	vm := newTestVM()
	thief := vm.contract("thief", map[string]contractFunc{
		"main": func(ctx strata.RunContext, param strata.Data) (strata.Data, error) {
			if err := ctx.EmitEvent("stealing"); err != nil {
				return nil, err
			}
			return nil, ctx.SetData(addressB, []byte("owned"), []byte("yes"))
		},
	})
	s := newTestState(t, testConfig(), vm, genesis{
		addressA: account(100),
		addressB: account(0),
		addressD: contract(thief, 0),
	})
	slot := strata.Slot{Period: 1, Thread: 0}
	block := newBlock(1, slot, strata.Operation{
		ID: operationID(1), Sender: addressA, Fee: strata.NewAmount(3), ExpirePeriod: 1,
		Payload: strata.CallSC{Target: addressD, Function: "main", Gas: 1_000, Coins: strata.NewAmount(10)},
	})

	output := s.executeSlot(slot, block, false)

	require.Len(t, output.FailedOperations, 1)
	require.ErrorIs(t, output.FailedOperations[0].Err, strata.ErrPermissionDenied)
	require.Equal(t, uint64(97), balanceIn(t, output.Changes, addressA))
	require.Equal(t, uint64(3), balanceIn(t, output.Changes, addressCreator))
	require.NotContains(t, output.Changes.Ledger, addressB)
	require.NotContains(t, output.Changes.Ledger, addressD)
	require.Len(t, errorEvents(output.Events), 1)
	require.Len(t, output.Events, 1)

	op, found := output.Changes.ExecutedOps[operationID(1)]
	require.True(t, found)
	require.False(t, op.Success)
}

func TestExecution_CallDepthIsBounded(t *testing.T) {
	vm := newTestVM()
	recursive := vm.contract("recursive", map[string]contractFunc{
		"main": func(ctx strata.RunContext, param strata.Data) (strata.Data, error) {
			return ctx.Call(ctx.CurrentAddress(), "main", nil, ctx.RemainingGas()-100, strata.Amount{})
		},
	})
	s := newTestState(t, testConfig(), vm, genesis{
		addressA: account(100),
		addressD: contract(recursive, 0),
	})
	slot := strata.Slot{Period: 1, Thread: 0}
	block := newBlock(1, slot, strata.Operation{
		ID: operationID(1), Sender: addressA, ExpirePeriod: 1,
		Payload: strata.CallSC{Target: addressD, Function: "main", Gas: 100_000},
	})

	output := s.executeSlot(slot, block, false)

	require.Len(t, output.FailedOperations, 1)
	require.ErrorIs(t, output.FailedOperations[0].Err, strata.ErrCallStackTooDeep)
	require.Len(t, output.Events, 1)
	require.True(t, output.Events[0].Context.IsError)
}

func TestExecution_OperationAdmission(t *testing.T) {
	transfer := strata.Transaction{Recipient: addressB, Amount: strata.NewAmount(1)}
	tests := map[string]struct {
		op   strata.Operation
		want error
	}{
		"expired": {
			op:   strata.Operation{ID: operationID(1), Sender: addressA, ExpirePeriod: 4, Payload: transfer},
			want: strata.ErrOperationExpired,
		},
		"too far in the future": {
			op:   strata.Operation{ID: operationID(1), Sender: addressA, ExpirePeriod: 100, Payload: transfer},
			want: strata.ErrOperationExpired,
		},
		"exceeding block gas": {
			op: strata.Operation{ID: operationID(1), Sender: addressA, ExpirePeriod: 5,
				Payload: strata.CallSC{Target: addressD, Function: "main", Gas: 10_000_000}},
			want: strata.ErrBlockGasExhausted,
		},
		"unable to pay fee": {
			op:   strata.Operation{ID: operationID(1), Sender: addressA, Fee: strata.NewAmount(1_000), ExpirePeriod: 5, Payload: transfer},
			want: strata.ErrInsufficientBalance,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			s := newTestState(t, testConfig(), newTestVM(), genesis{addressA: account(100)})
			slot := strata.Slot{Period: 5, Thread: 0}
			output := s.executeSlot(slot, newBlock(1, slot, test.op), false)

			require.Len(t, output.FailedOperations, 1)
			require.ErrorIs(t, output.FailedOperations[0].Err, test.want)
			require.Empty(t, output.Changes.ExecutedOps)
			require.Empty(t, output.Changes.Ledger)
			require.Equal(t, strata.Gas(0), output.GasUsed)
		})
	}
}

func TestExecution_OperationsAreExecutedOnlyOnce(t *testing.T) {
	s := newTestState(t, testConfig(), newTestVM(), genesis{addressA: account(100)})
	op := strata.Operation{
		ID: operationID(1), Sender: addressA, ExpirePeriod: 3,
		Payload: strata.Transaction{Recipient: addressB, Amount: strata.NewAmount(1)},
	}

	first, err := s.executeCandidate(strata.Slot{Period: 1, Thread: 0}, newBlock(1, strata.Slot{Period: 1, Thread: 0}, op))
	require.NoError(t, err)
	require.Empty(t, first.FailedOperations)

	second, err := s.executeCandidate(strata.Slot{Period: 1, Thread: 1}, newBlock(2, strata.Slot{Period: 1, Thread: 1}, op))
	require.NoError(t, err)
	require.Len(t, second.FailedOperations, 1)
	require.ErrorIs(t, second.FailedOperations[0].Err, strata.ErrAlreadyExecuted)
}

func TestExecution_RollsAreBoughtSoldAndSlashed(t *testing.T) {
	config := testConfig()
	final := newTestFinalState(t, genesis{addressA: account(1_000), addressB: account(0)}, map[strata.Address]uint64{addressB: 3})
	vm := newTestVM()
	s := newExecutionState(&config, final, newTestModuleCache(t, vm), vm, nil)

	slot := strata.Slot{Period: 1, Thread: 0}
	block := newBlock(1, slot,
		strata.Operation{ID: operationID(1), Sender: addressA, ExpirePeriod: 1, Payload: strata.RollBuy{Rolls: 3}},
		strata.Operation{ID: operationID(2), Sender: addressA, ExpirePeriod: 1, Payload: strata.RollSell{Rolls: 1}},
		strata.Operation{ID: operationID(3), Sender: addressA, ExpirePeriod: 1, Payload: strata.RollSell{Rolls: 5}},
	)
	block.Denunciations = []strata.Denunciation{{
		Index:    strata.DenunciationIndex{Kind: strata.BlockHeaderDenunciation, Slot: strata.Slot{Period: 0, Thread: 1}},
		Producer: addressB,
	}}

	output, err := s.executeCandidate(slot, block)
	require.NoError(t, err)

	require.Len(t, output.FailedOperations, 1)
	require.Equal(t, operationID(3), output.FailedOperations[0].ID)
	require.ErrorIs(t, output.FailedOperations[0].Err, strata.ErrInsufficientRolls)

	require.Equal(t, uint64(700), balanceIn(t, output.Changes, addressA))
	require.Equal(t, uint64(2), output.Changes.PoS.Rolls[addressA])
	require.Equal(t, uint64(2), output.Changes.PoS.Rolls[addressB])

	creditSlot := strata.LastOfCycle(3, config.PeriodsPerCycle, config.ThreadCount)
	require.Equal(t, strata.NewAmount(100), output.Changes.PoS.DeferredCredits[creditSlot][addressA])

	require.Contains(t, output.Changes.ExecutedDenunciations, block.Denunciations[0].Index)
	stats := output.Changes.PoS.ProductionStats[state.CycleAddress{Cycle: 0, Address: addressCreator}]
	require.Equal(t, state.ProductionStats{Success: 1}, stats)
}

func TestExecution_MissedSlotIsAccountedToProducer(t *testing.T) {
	s := newTestState(t, testConfig(), newTestVM(), genesis{})
	output := s.executeSlot(strata.Slot{Period: 5, Thread: 1}, nil, false)

	require.Nil(t, output.Block)
	stats := output.Changes.PoS.ProductionStats[state.CycleAddress{Cycle: 1, Address: addressCreator}]
	require.Equal(t, state.ProductionStats{Failure: 1}, stats)
}

func TestExecution_AsyncMessagesAreExecutedInLaterSlots(t *testing.T) {
	vm := newTestVM()
	receiver := vm.contract("receiver", map[string]contractFunc{
		"receive": func(ctx strata.RunContext, param strata.Data) (strata.Data, error) {
			return nil, ctx.SetData(ctx.CurrentAddress(), []byte("received"), param)
		},
	})
	sender := vm.contract("sender", map[string]contractFunc{
		"main": func(ctx strata.RunContext, param strata.Data) (strata.Data, error) {
			return nil, ctx.SendMessage(strata.MessageRequest{
				Destination:   addressD,
				Function:      "receive",
				ValidityStart: strata.Slot{Period: 1, Thread: 1},
				ValidityEnd:   strata.Slot{Period: 5, Thread: 0},
				MaxGas:        1_000,
				Fee:           strata.NewAmount(1),
				Coins:         strata.NewAmount(10),
				Data:          strata.Data("hello"),
			})
		},
	})
	s := newTestState(t, testConfig(), vm, genesis{
		addressA: account(100),
		addressB: contract(sender, 0),
		addressD: contract(receiver, 0),
	})

	slot := strata.Slot{Period: 1, Thread: 0}
	first, err := s.executeCandidate(slot, newBlock(1, slot, strata.Operation{
		ID: operationID(1), Sender: addressA, ExpirePeriod: 1,
		Payload: strata.ExecuteSC{Bytecode: sender, Gas: 1_000, MaxCoins: strata.NewAmount(20)},
	}))
	require.NoError(t, err)
	require.Empty(t, first.FailedOperations)
	require.Equal(t, uint64(89), balanceIn(t, first.Changes, addressA))
	require.Len(t, first.Changes.AsyncPool, 1)

	second, err := s.executeCandidate(strata.Slot{Period: 1, Thread: 1}, nil)
	require.NoError(t, err)
	lookup := second.Changes.Ledger.DatastoreValue(addressD, []byte("received"))
	require.Equal(t, state.Present, lookup.Kind)
	require.Equal(t, []byte("hello"), lookup.Value)
	require.Equal(t, uint64(10), balanceIn(t, second.Changes, addressD))
	for _, change := range second.Changes.AsyncPool {
		require.Equal(t, state.Delete, change.Kind)
	}
}

func TestExecution_FailedAsyncMessagesRefundCoins(t *testing.T) {
	vm := newTestVM()
	sender := vm.contract("sender", map[string]contractFunc{
		"main": func(ctx strata.RunContext, param strata.Data) (strata.Data, error) {
			return nil, ctx.SendMessage(strata.MessageRequest{
				Destination:   addressB,
				Function:      "missing",
				ValidityStart: strata.Slot{Period: 1, Thread: 1},
				ValidityEnd:   strata.Slot{Period: 5, Thread: 0},
				MaxGas:        1_000,
				Fee:           strata.NewAmount(1),
				Coins:         strata.NewAmount(10),
			})
		},
	})
	s := newTestState(t, testConfig(), vm, genesis{
		addressA: account(100),
		addressB: account(0),
	})
	slot := strata.Slot{Period: 1, Thread: 0}
	_, err := s.executeCandidate(slot, newBlock(1, slot, strata.Operation{
		ID: operationID(1), Sender: addressA, ExpirePeriod: 1,
		Payload: strata.ExecuteSC{Bytecode: sender, Gas: 1_000, MaxCoins: strata.NewAmount(20)},
	}))
	require.NoError(t, err)

	output, err := s.executeCandidate(strata.Slot{Period: 1, Thread: 1}, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(99), balanceIn(t, output.Changes, addressA))
	require.Len(t, errorEvents(output.Events), 1)
}

func TestExecution_FinalSlotsAreCommitted(t *testing.T) {
	s := newTestState(t, testConfig(), newTestVM(), genesis{addressA: account(100)})
	transfer := func(id byte) strata.Operation {
		return strata.Operation{
			ID: operationID(id), Sender: addressA, ExpirePeriod: 2,
			Payload: strata.Transaction{Recipient: addressB, Amount: strata.NewAmount(1)},
		}
	}

	candidate, err := s.executeCandidate(strata.Slot{Period: 1, Thread: 0}, newBlock(1, strata.Slot{Period: 1, Thread: 0}, transfer(1)))
	require.NoError(t, err)
	_, err = s.executeCandidate(strata.Slot{Period: 1, Thread: 1}, nil)
	require.NoError(t, err)

	promoted, err := s.promoteFinal()
	require.NoError(t, err)
	require.True(t, promoted.Final)
	require.False(t, candidate.Final)
	require.Equal(t, 1, s.history.Len())

	balance, _ := s.final.Balance(addressA)
	require.Equal(t, strata.NewAmount(99), balance)

	final, err := s.executeFinal(strata.Slot{Period: 1, Thread: 1}, newBlock(2, strata.Slot{Period: 1, Thread: 1}, transfer(2)))
	require.NoError(t, err)
	require.True(t, final.Final)
	require.Equal(t, 0, s.history.Len())
	require.Equal(t, strata.Slot{Period: 1, Thread: 1}, s.final.Slot())

	balance, _ = s.final.Balance(addressA)
	require.Equal(t, strata.NewAmount(98), balance)
}
