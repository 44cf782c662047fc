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
	"testing"

	"github.com/panoptisDev/strata/go/finalstate"
	"github.com/panoptisDev/strata/go/modulecache"
	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
	"github.com/stretchr/testify/require"
)

const testThreads = 2

var (
	addressA       = strata.Address{0xA}
	addressB       = strata.Address{0xB}
	addressCreator = strata.Address{0xC}
	addressD       = strata.Address{0xD}
)

func testConfig() Config {
	config := DefaultConfig()
	config.ThreadCount = testThreads
	config.PeriodsPerCycle = 4
	config.MaxGasPerBlock = 1_000_000
	config.MaxAsyncGas = 100_000
	config.MaxReadOnlyGas = 100_000
	config.BaseOperationGas = 100
	config.BaseAsyncMessageGas = 50
	config.BaseCallGas = 10
	config.BlockReward = strata.Amount{}
	config.RollPrice = strata.NewAmount(100)
	config.StorageCosts = StorageCosts{}
	config.MaxCallDepth = 4
	config.MaxActiveHistory = 8
	config.ReadOnlyQueueLength = 2
	config.BroadcastCapacity = 16
	config.AutoSell = NeverSellPolicy
	return config
}

// contractFunc is a smart contract function implemented in Go.
type contractFunc func(ctx strata.RunContext, param strata.Data) (strata.Data, error)

type testModule struct {
	hash     strata.Hash
	bytecode []byte
}

func (m *testModule) Hash() strata.Hash {
	return m.hash
}

// testVM runs contracts implemented in Go. The bytecode of a contract is
// its name; bytecode of unknown contracts does not compile.
type testVM struct {
	contracts map[strata.Hash]map[string]contractFunc
}

func newTestVM() *testVM {
	return &testVM{contracts: map[strata.Hash]map[string]contractFunc{}}
}

func (vm *testVM) contract(name string, functions map[string]contractFunc) strata.Data {
	bytecode := strata.Data("contract:" + name)
	vm.contracts[strata.Keccak256(bytecode)] = functions
	return bytecode
}

func (vm *testVM) Compile(bytecode []byte) (strata.Module, error) {
	hash := strata.Keccak256(bytecode)
	if _, found := vm.contracts[hash]; !found {
		return nil, fmt.Errorf("unknown contract %q: %w", bytecode, strata.ErrInvalidModule)
	}
	return &testModule{hash: hash, bytecode: bytecode}, nil
}

func (vm *testVM) Serialize(module strata.Module) ([]byte, error) {
	return module.(*testModule).bytecode, nil
}

func (vm *testVM) Deserialize(hash strata.Hash, data []byte) (strata.Module, error) {
	return &testModule{hash: hash, bytecode: data}, nil
}

func (vm *testVM) Run(parameters strata.Parameters) (strata.Result, error) {
	function, found := vm.contracts[parameters.Module.Hash()][parameters.Function]
	if !found {
		return strata.Result{}, fmt.Errorf("function %q: %w", parameters.Function, strata.ErrTargetNotFound)
	}
	output, err := function(parameters.Context, parameters.Param)
	if err != nil {
		return strata.Result{}, err
	}
	return strata.Result{Output: output}, nil
}

// fixedSelector selects the same producer for every slot.
type fixedSelector strata.Address

func (s fixedSelector) Producer(strata.Slot) (strata.Address, error) {
	return strata.Address(s), nil
}

// genesis describes the content of the final state before the first slot.
type genesis map[strata.Address]*state.LedgerEntry

func account(balance uint64) *state.LedgerEntry {
	return &state.LedgerEntry{Balance: strata.NewAmount(balance), Datastore: map[string][]byte{}}
}

func contract(bytecode strata.Data, balance uint64) *state.LedgerEntry {
	entry := account(balance)
	entry.Bytecode = bytecode
	return entry
}

var genesisSlot = strata.Slot{Period: 0, Thread: testThreads - 1}

func newTestFinalState(t *testing.T, content genesis, rolls map[strata.Address]uint64) *finalstate.Store {
	t.Helper()
	store, err := finalstate.Open("", genesisSlot, testThreads)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	changes := state.NewStateChanges()
	for address, entry := range content {
		changes.Ledger.CreateEntry(address, entry)
	}
	for address, count := range rolls {
		changes.PoS.Rolls[address] = count
	}
	require.NoError(t, store.InitGenesis(changes))
	return store
}

func newTestModuleCache(t *testing.T, vm *testVM) *modulecache.Cache {
	t.Helper()
	config := modulecache.DefaultConfig()
	config.MemoryEntries = 4
	config.DiskEntries = 0
	config.CompileBaseGas = 5
	config.CompileGasPerByte = 0
	cache, err := modulecache.New(config, vm)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func newTestState(t *testing.T, config Config, vm *testVM, content genesis) *executionState {
	t.Helper()
	final := newTestFinalState(t, content, nil)
	return newExecutionState(&config, final, newTestModuleCache(t, vm), vm, fixedSelector(addressCreator))
}

func operationID(n byte) strata.OperationID {
	return strata.OperationID{n}
}

func blockID(n byte) strata.BlockID {
	return strata.BlockID{n}
}

func newBlock(id byte, slot strata.Slot, operations ...strata.Operation) *strata.Block {
	return &strata.Block{ID: blockID(id), Slot: slot, Creator: addressCreator, Operations: operations}
}

func balanceIn(t *testing.T, changes state.StateChanges, address strata.Address) uint64 {
	t.Helper()
	lookup := changes.Ledger.Balance(address)
	require.Equal(t, state.Present, lookup.Kind, "no balance of %v in changes", address)
	return lookup.Value.Uint64()
}

func errorEvents(events []strata.Event) []strata.Event {
	var res []strata.Event
	for _, event := range events {
		if event.Context.IsError {
			res = append(res, event)
		}
	}
	return res
}
