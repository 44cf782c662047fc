// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/panoptisDev/strata/go/execution"
	"github.com/panoptisDev/strata/go/finalstate"
	"github.com/panoptisDev/strata/go/interpreter/wasm"
	"github.com/panoptisDev/strata/go/modulecache"
	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var replayCmd = &cli.Command{
	Name:      "replay",
	Usage:     "drives an execution worker through a scripted scenario",
	ArgsUsage: "<scenario.json>",
	Action:    replay,
	Flags: []cli.Flag{
		&dataDirFlag,
		&threadsFlag,
		&periodsPerCycleFlag,
		&historyFlag,
		&moduleCacheEntriesFlag,
		&moduleCacheDiskFlag,
		&moduleCacheDiskEntriesFlag,
	},
}

// replayResult is printed for every read-only or balance step.
type replayResult struct {
	Step     int               `json:"step"`
	Slot     string            `json:"slot,omitempty"`
	Output   hexutil.Bytes     `json:"output,omitempty"`
	GasUsed  hexutil.Uint64    `json:"gasUsed,omitempty"`
	Events   []string          `json:"events,omitempty"`
	Balances map[string]string `json:"balances,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func replay(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one scenario file")
	}
	scenario, err := loadScenario(ctx.Args().First())
	if err != nil {
		return err
	}
	blocks, err := scenario.blocks()
	if err != nil {
		return err
	}
	selector, err := newSelector(scenario.Selected)
	if err != nil {
		return err
	}

	config := execution.DefaultConfig()
	config.ThreadCount = uint8(ctx.Uint(threadsFlag.Name))
	config.PeriodsPerCycle = ctx.Uint64(periodsPerCycleFlag.Name)
	config.MaxActiveHistory = ctx.Int(historyFlag.Name)
	cacheConfig, err := moduleCacheConfig(ctx)
	if err != nil {
		return err
	}

	dataDir := ctx.String(dataDirFlag.Name)
	stateDir, wasmDir := "", ""
	if dataDir != "" {
		stateDir = filepath.Join(dataDir, "state")
		wasmDir = filepath.Join(dataDir, "wasm")
		cacheConfig.DiskPath = filepath.Join(dataDir, "modules")
	}

	final, err := openFinalState(stateDir, scenario, config.ThreadCount)
	if err != nil {
		return err
	}
	defer final.Close()

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runtime, err := wasm.NewRuntime(signalCtx, wasm.Config{CacheDir: wasmDir})
	if err != nil {
		return err
	}
	defer runtime.Close()

	modules, err := modulecache.New(cacheConfig, runtime.Compiler())
	if err != nil {
		return err
	}
	defer modules.Close()

	manager, err := execution.Start(config, final, modules, runtime.Interpreter(), selector)
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(signalCtx)
	group.Go(func() error {
		defer manager.Stop()
		return runSteps(groupCtx, manager.Controller(), scenario.Steps, blocks)
	})
	group.Go(func() error {
		select {
		case <-manager.Done():
			if err := manager.Err(); err != nil {
				return fmt.Errorf("execution worker failed: %w", err)
			}
			return nil
		case <-groupCtx.Done():
			return nil
		}
	})
	err = group.Wait()
	if stopErr := manager.Stop(); err == nil && stopErr != nil {
		err = stopErr
	}
	log.Info("Replay finished", "final", final.Slot())
	return err
}

// openFinalState opens the store and writes the genesis content of the
// scenario if nothing has been finalized since genesis.
func openFinalState(path string, scenario *scenario, threads uint8) (*finalstate.Store, error) {
	genesis := scenario.Genesis.Slot.slot()
	store, err := finalstate.Open(path, genesis, threads)
	if err != nil {
		return nil, err
	}
	if store.Slot() != genesis {
		log.Info("Resuming from existing final state", "slot", store.Slot())
		return store, nil
	}
	changes, err := scenario.genesisChanges()
	if err == nil {
		err = store.InitGenesis(changes)
	}
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize genesis: %w", err)
	}
	log.Info("Initialized genesis", "slot", genesis, "accounts", len(scenario.Genesis.Accounts))
	return store, nil
}

func runSteps(
	ctx context.Context,
	controller *execution.Controller,
	steps []stepJSON,
	blocks map[strata.BlockID]*strata.Block,
) error {
	subscription := controller.Subscribe(0)
	defer subscription.Unsubscribe()

	encoder := json.NewEncoder(os.Stdout)
	var executed strata.Slot
	for i, step := range steps {
		if len(step.Finalized) > 0 || len(step.Blockclique) > 0 {
			finalized, err := resolve(step.Finalized, blocks)
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			blockclique, err := resolve(step.Blockclique, blocks)
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			controller.UpdateBlockclique(finalized, blockclique, blocks)
		}

		if step.Await != nil {
			target := step.Await.slot()
			for executed.Less(target) {
				select {
				case output, open := <-subscription.Outputs():
					if !open {
						return fmt.Errorf("step %d: worker stopped before slot %v", i, target)
					}
					logOutput(output)
					if executed.Less(output.Slot) {
						executed = output.Slot
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		if step.ReadOnly != nil {
			request, err := step.ReadOnly.decode()
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			result := replayResult{Step: i}
			response, err := controller.ExecuteReadOnly(request)
			if err != nil {
				result.Error = err.Error()
			} else {
				result.Slot = response.Slot.String()
				result.Output = hexutil.Bytes(response.Output)
				result.GasUsed = hexutil.Uint64(response.GasUsed)
				for _, event := range response.Events {
					result.Events = append(result.Events, event.Data)
				}
			}
			if err := encoder.Encode(result); err != nil {
				return err
			}
		}

		if len(step.Balances) > 0 {
			result, err := queryBalances(controller, i, step)
			if err != nil {
				return err
			}
			if err := encoder.Encode(result); err != nil {
				return err
			}
		}
	}
	return nil
}

func queryBalances(controller *execution.Controller, i int, step stepJSON) (replayResult, error) {
	addresses, err := toAddresses(step.Balances)
	if err != nil {
		return replayResult{}, fmt.Errorf("step %d: %w", i, err)
	}
	items := make([]execution.QueryItem, 0, len(addresses))
	for _, address := range addresses {
		items = append(items, execution.BalanceQuery{Address: address, Final: step.Final})
	}
	responses, err := controller.Query(items)
	if err != nil {
		return replayResult{}, err
	}
	result := replayResult{Step: i, Balances: map[string]string{}}
	for j, response := range responses {
		if response.Err != nil {
			result.Balances[addresses[j].String()] = response.Err.Error()
			continue
		}
		result.Balances[addresses[j].String()] = response.Value.(strata.Amount).String()
	}
	return result, nil
}

func logOutput(output *state.ExecutionOutput) {
	ctx := []any{"slot", output.Slot, "final", output.Final, "gas", output.GasUsed, "events", len(output.Events)}
	if output.Block != nil {
		ctx = append(ctx, "block", output.Block.ID)
	}
	if len(output.FailedOperations) > 0 {
		ctx = append(ctx, "failed", len(output.FailedOperations))
	}
	log.Info("Executed slot", ctx...)
}
