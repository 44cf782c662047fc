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

var addressReader = strata.Address{0xEE}

// readerContract exposes the balance of the address passed as parameter
// and writes to its own datastore.
func readerContract(vm *testVM) strata.Data {
	return vm.contract("reader", map[string]contractFunc{
		"get_balance": func(ctx strata.RunContext, param strata.Data) (strata.Data, error) {
			balance, err := ctx.GetBalance(strata.Address(param))
			if err != nil {
				return nil, err
			}
			return strata.Data(balance.String()), nil
		},
		"write": func(ctx strata.RunContext, param strata.Data) (strata.Data, error) {
			if err := ctx.EmitEvent("writing"); err != nil {
				return nil, err
			}
			return nil, ctx.SetData(ctx.CurrentAddress(), []byte("key"), param)
		},
		"spin": func(ctx strata.RunContext, param strata.Data) (strata.Data, error) {
			for {
				if err := ctx.ChargeGas(100); err != nil {
					return nil, err
				}
			}
		},
		"main": func(ctx strata.RunContext, param strata.Data) (strata.Data, error) {
			address := ctx.CurrentAddress()
			return address[:], nil
		},
	})
}

// newReadOnlyTestState creates a state in which a candidate slot credits 10
// coins to A on top of a final balance of 100.
func newReadOnlyTestState(t *testing.T) (*executionState, strata.Data) {
	t.Helper()
	vm := newTestVM()
	reader := readerContract(vm)
	s := newTestState(t, testConfig(), vm, genesis{
		addressA:      account(100),
		addressD:      account(1_000),
		addressReader: contract(reader, 0),
	})
	slot := strata.Slot{Period: 1, Thread: 0}
	_, err := s.executeCandidate(slot, newBlock(1, slot, strata.Operation{
		ID: operationID(1), Sender: addressD, ExpirePeriod: 1,
		Payload: strata.Transaction{Recipient: addressA, Amount: strata.NewAmount(10)},
	}))
	require.NoError(t, err)
	return s, reader
}

func TestReadOnly_ViewSelectsFinalOrCandidateState(t *testing.T) {
	s, _ := newReadOnlyTestState(t)
	tests := map[string]struct {
		final bool
		want  string
		slot  strata.Slot
	}{
		"final":     {final: true, want: "100", slot: strata.Slot{Period: 1, Thread: 0}},
		"candidate": {final: false, want: "110", slot: strata.Slot{Period: 1, Thread: 1}},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			response, err := s.executeReadOnly(ReadOnlyRequest{
				CallStack: []strata.Address{addressB},
				Target:    addressReader,
				Function:  "get_balance",
				Param:     addressA[:],
				MaxGas:    1_000,
				Final:     test.final,
			})
			require.NoError(t, err)
			require.Equal(t, test.want, string(response.Output))
			require.Equal(t, test.slot, response.Slot)
			require.Greater(t, response.GasUsed, strata.Gas(0))
		})
	}
}

func TestReadOnly_ChangesAreNeverApplied(t *testing.T) {
	s, _ := newReadOnlyTestState(t)
	response, err := s.executeReadOnly(ReadOnlyRequest{
		CallStack: []strata.Address{addressB},
		Target:    addressReader,
		Function:  "write",
		Param:     []byte("value"),
		MaxGas:    1_000,
	})
	require.NoError(t, err)
	lookup := response.Changes.Ledger.DatastoreValue(addressReader, []byte("key"))
	require.Equal(t, state.Present, lookup.Kind)
	require.Len(t, response.Events, 1)
	require.True(t, response.Events[0].Context.ReadOnly)

	require.Equal(t, 1, s.history.Len())
	require.Equal(t, genesisSlot, s.final.Slot())
	res := s.query([]QueryItem{DatastoreValueQuery{Address: addressReader, Key: []byte("key")}})
	require.ErrorIs(t, res[0].Err, strata.ErrNotFound)

	output, err := s.executeCandidate(strata.Slot{Period: 1, Thread: 1}, nil)
	require.NoError(t, err)
	require.NotContains(t, output.Changes.Ledger, addressReader)
}

func TestReadOnly_BytecodeRunsAsLastCaller(t *testing.T) {
	s, reader := newReadOnlyTestState(t)
	response, err := s.executeReadOnly(ReadOnlyRequest{
		CallStack: []strata.Address{addressA, addressB},
		Bytecode:  reader,
		MaxGas:    1_000,
	})
	require.NoError(t, err)
	require.Equal(t, addressB[:], []byte(response.Output))
}

func TestReadOnly_Errors(t *testing.T) {
	tests := map[string]struct {
		request ReadOnlyRequest
		want    []error
	}{
		"gas above limit": {
			request: ReadOnlyRequest{Target: addressReader, Function: "get_balance", MaxGas: 1_000_000},
			want:    []error{strata.ErrGasExceeded},
		},
		"running out of gas": {
			request: ReadOnlyRequest{Target: addressReader, Function: "spin", MaxGas: 10_000},
			want:    []error{strata.ErrGasExceeded, strata.ErrNotEnoughGas},
		},
		"missing target": {
			request: ReadOnlyRequest{Target: addressA, Function: "get_balance", MaxGas: 1_000},
			want:    []error{strata.ErrTargetNotFound},
		},
		"missing function": {
			request: ReadOnlyRequest{Target: addressReader, Function: "unknown", MaxGas: 1_000},
			want:    []error{strata.ErrTargetNotFound},
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			s, _ := newReadOnlyTestState(t)
			test.request.CallStack = []strata.Address{addressB}
			_, err := s.executeReadOnly(test.request)
			for _, want := range test.want {
				require.ErrorIs(t, err, want)
			}
		})
	}
}

func TestQuery_BatchAnswersItemsIndependently(t *testing.T) {
	s, reader := newReadOnlyTestState(t)
	responses := s.query([]QueryItem{
		BalanceQuery{Address: addressA},
		BalanceQuery{Address: addressA, Final: true},
		BalanceQuery{Address: addressB},
		BytecodeQuery{Address: addressReader},
		AddressExistsQuery{Address: addressB},
		OpStatusQuery{ID: operationID(1)},
		OpStatusQuery{ID: operationID(1), Final: true},
		OpStatusQuery{ID: operationID(2)},
		CursorsQuery{},
	})

	require.Len(t, responses, 9)
	require.Equal(t, strata.NewAmount(110), responses[0].Value)
	require.Equal(t, strata.NewAmount(100), responses[1].Value)
	require.ErrorIs(t, responses[2].Err, strata.ErrNotFound)
	require.Equal(t, reader, responses[3].Value)
	require.Equal(t, false, responses[4].Value)
	require.Equal(t, OpStatus{Success: true}, responses[5].Value)
	require.ErrorIs(t, responses[6].Err, strata.ErrPending)
	require.ErrorIs(t, responses[7].Err, strata.ErrNotFound)
	require.Equal(t, Cursors{Final: genesisSlot, Candidate: strata.Slot{Period: 1, Thread: 0}}, responses[8].Value)
}

func TestQuery_RollsCreditsAndEvents(t *testing.T) {
	config := testConfig()
	final := newTestFinalState(t, genesis{addressA: account(1_000)}, nil)
	vm := newTestVM()
	s := newExecutionState(&config, final, newTestModuleCache(t, vm), vm, fixedSelector(addressCreator))

	slot := strata.Slot{Period: 1, Thread: 0}
	_, err := s.executeCandidate(slot, newBlock(1, slot,
		strata.Operation{ID: operationID(1), Sender: addressA, ExpirePeriod: 1, Payload: strata.RollBuy{Rolls: 2}},
		strata.Operation{ID: operationID(2), Sender: addressA, ExpirePeriod: 1, Payload: strata.RollSell{Rolls: 1}},
		strata.Operation{ID: operationID(3), Sender: addressB, ExpirePeriod: 1, Payload: strata.RollSell{Rolls: 1}},
	))
	require.NoError(t, err)

	isError := true
	responses := s.query([]QueryItem{
		RollCountQuery{Address: addressA},
		RollCountQuery{Address: addressA, Final: true},
		DeferredCreditsQuery{Address: addressA},
		CycleInfoQuery{Cycle: 0, Addresses: []strata.Address{addressA, addressCreator}},
		EventsQuery{Filter: strata.EventFilter{IsError: &isError}},
	})

	require.Equal(t, uint64(1), responses[0].Value)
	require.Equal(t, uint64(0), responses[1].Value)
	creditSlot := strata.LastOfCycle(3, config.PeriodsPerCycle, config.ThreadCount)
	require.Equal(t, map[strata.Slot]strata.Amount{creditSlot: strata.NewAmount(100)}, responses[2].Value)

	info := responses[3].Value.(CycleInfo)
	require.Equal(t, uint64(1), info.Rolls[addressA])
	require.Equal(t, state.ProductionStats{Success: 1}, info.ProductionStats[addressCreator])
	require.Equal(t, state.ProductionStats{}, info.ProductionStats[addressA])

	events := responses[4].Value.([]strata.Event)
	require.Len(t, events, 1)
	require.Equal(t, operationID(3), *events[0].Context.OriginOperation)
}
