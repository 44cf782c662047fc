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
	"sync"
	"testing"

	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
	"github.com/stretchr/testify/require"
)

func startTestManager(t *testing.T, config Config) (*Manager, strata.Data) {
	t.Helper()
	vm := newTestVM()
	reader := readerContract(vm)
	final := newTestFinalState(t, genesis{
		addressA:      account(1_000),
		addressReader: contract(reader, 0),
	}, nil)
	manager, err := Start(config, final, newTestModuleCache(t, vm), vm, fixedSelector(addressCreator))
	require.NoError(t, err)
	return manager, reader
}

func TestStart_RejectsInvalidConfig(t *testing.T) {
	config := testConfig()
	config.ThreadCount = 0
	_, err := Start(config, nil, nil, nil, nil)
	require.Error(t, err)
}

func TestManager_ExecutesBlockcliqueAndAnswersRequests(t *testing.T) {
	manager, _ := startTestManager(t, testConfig())
	controller := manager.Controller()
	subscription := controller.Subscribe(0)

	clique := chain{slot(1, 0): blockID(1), slot(1, 1): blockID(2)}
	controller.UpdateBlockclique(chain{slot(1, 0): blockID(1)}, clique, testBlocks(clique))

	var received []*state.ExecutionOutput
	for len(received) < 2 {
		received = append(received, <-subscription.Outputs())
	}
	require.Equal(t, slot(1, 0), received[0].Slot)
	require.True(t, received[0].Final)
	require.Equal(t, slot(1, 1), received[1].Slot)
	require.False(t, received[1].Final)

	response, err := controller.ExecuteReadOnly(ReadOnlyRequest{
		CallStack: []strata.Address{addressB},
		Target:    addressReader,
		Function:  "get_balance",
		Param:     addressA[:],
		MaxGas:    1_000,
	})
	require.NoError(t, err)
	require.Equal(t, "998", string(response.Output))

	responses, err := controller.Query([]QueryItem{
		BalanceQuery{Address: addressA, Final: true},
		CursorsQuery{},
	})
	require.NoError(t, err)
	require.Equal(t, strata.NewAmount(999), responses[0].Value)
	require.Equal(t, Cursors{Final: slot(1, 0), Candidate: slot(1, 1)}, responses[1].Value)

	require.NoError(t, manager.Stop())
	require.NoError(t, manager.Err())
	_, open := <-subscription.Outputs()
	require.False(t, open)

	_, err = controller.ExecuteReadOnly(ReadOnlyRequest{CallStack: []strata.Address{addressB}, Target: addressReader})
	require.ErrorIs(t, err, strata.ErrStopped)
	_, err = controller.Query(nil)
	require.ErrorIs(t, err, strata.ErrStopped)
}

func TestManager_ConcurrentRequestsAreServed(t *testing.T) {
	config := testConfig()
	config.ReadOnlyQueueLength = 100
	manager, _ := startTestManager(t, config)
	controller := manager.Controller()

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = controller.ExecuteReadOnly(ReadOnlyRequest{
				CallStack: []strata.Address{addressB},
				Target:    addressReader,
				Function:  "get_balance",
				Param:     addressA[:],
				MaxGas:    1_000,
				Final:     true,
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.NoError(t, manager.Stop())
}

func TestManager_FinalityConflictStopsWorker(t *testing.T) {
	manager, _ := startTestManager(t, testConfig())
	controller := manager.Controller()
	subscription := controller.Subscribe(0)

	first := chain{slot(1, 0): blockID(1)}
	controller.UpdateBlockclique(first, first, testBlocks(first))
	<-subscription.Outputs()

	conflicting := chain{slot(1, 0): blockID(2)}
	controller.UpdateBlockclique(conflicting, conflicting, testBlocks(conflicting))
	<-manager.Done()

	require.ErrorIs(t, manager.Err(), strata.ErrFinalityConflict)
	require.ErrorIs(t, manager.Stop(), strata.ErrFinalityConflict)
}
