// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package wasm

import (
	"context"
	"errors"
	"fmt"

	"github.com/panoptisDev/strata/go/strata"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Interpreter implements strata.Interpreter by instantiating a fresh
// instance of the module for every call and invoking an exported function
// without parameters. Modules exchange data with the engine exclusively
// through the host functions of the "env" module.
type Interpreter struct {
	runtime *Runtime
}

var _ strata.Interpreter = (*Interpreter)(nil)

// callState is the per-call state accessed by host functions.
type callState struct {
	context strata.RunContext
	param   strata.Data
	output  strata.Data
	// lastCallOutput holds the return value of the latest nested call.
	lastCallOutput strata.Data
	// err is the first error raised by a host function. wazero converts
	// host panics into generic errors, so it is kept here to be reported.
	err error

	// meter is the gas counter of the instance and metered its value when
	// the gas consumed by instructions was last accounted.
	meter   api.MutableGlobal
	metered int64
}

type callStateKey struct{}

func getCallState(ctx context.Context) *callState {
	return ctx.Value(callStateKey{}).(*callState)
}

func (i *Interpreter) Run(parameters strata.Parameters) (strata.Result, error) {
	wasmModule, ok := parameters.Module.(*module)
	if !ok {
		return strata.Result{}, fmt.Errorf("unsupported module type %T", parameters.Module)
	}
	if _, found := wasmModule.compiled.ExportedFunctions()[parameters.Function]; !found {
		return strata.Result{}, fmt.Errorf("function %q not exported: %w", parameters.Function, strata.ErrTargetNotFound)
	}

	state := &callState{context: parameters.Context, param: parameters.Param}
	ctx := context.WithValue(i.runtime.ctx, callStateKey{}, state)

	config := wazero.NewModuleConfig().WithName("").WithStartFunctions()
	instance, err := i.runtime.runtime.InstantiateModule(ctx, wasmModule.compiled, config)
	if err != nil {
		return strata.Result{}, state.failure(err)
	}
	defer instance.Close(ctx)

	meter, ok := instance.ExportedGlobal(gasGlobalName).(api.MutableGlobal)
	if !ok {
		return strata.Result{}, fmt.Errorf("module %v is not metered", wasmModule.hash)
	}
	state.meter = meter
	state.refill()

	_, err = instance.ExportedFunction(parameters.Function).Call(ctx)
	chargeErr := state.settle()
	if err != nil {
		return strata.Result{}, state.failure(err)
	}
	if chargeErr != nil {
		return strata.Result{}, chargeErr
	}
	return strata.Result{Output: state.output}, nil
}

// refill sets the gas counter of the instance to the gas left in the
// execution context.
func (s *callState) refill() {
	gas := s.context.RemainingGas()
	if gas > maxMeteredGas {
		gas = maxMeteredGas
	}
	s.metered = int64(gas)
	s.meter.Set(uint64(gas))
}

// take returns the gas consumed by instructions since the last call and
// restarts the count.
func (s *callState) take() strata.Gas {
	left := int64(s.meter.Get())
	consumed := s.metered - left
	s.metered = left
	return strata.Gas(consumed)
}

// settle charges the execution context for the instructions run since
// the last host call.
func (s *callState) settle() error {
	consumed := s.take()
	if consumed == 0 {
		return nil
	}
	return s.context.ChargeGas(consumed)
}

func (s *callState) exhausted() bool {
	return int64(s.meter.Get()) < 0
}

// failure returns the error to report for a failed call: the error raised
// by a host function if there was one, a runtime trap otherwise.
func (s *callState) failure(err error) error {
	if s.err != nil {
		return s.err
	}
	if s.meter != nil && s.exhausted() {
		return fmt.Errorf("%w: %v", strata.ErrNotEnoughGas, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", strata.ErrRuntimeTrap, err)
}
