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
	"fmt"
	"math"

	"github.com/panoptisDev/strata/go/strata"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

const hostModuleName = "env"

// Gas charged by host functions on top of the costs charged by the
// execution context for the accessed state.
const (
	hostCallGas    strata.Gas = 100
	hostPerByteGas strata.Gas = 1
)

// Status codes returned to modules by host functions that may fail
// without aborting the calling module.
const (
	statusSuccess uint32 = 0
	statusFailure uint32 = 1
	missingValue  uint32 = 0xFFFF_FFFF
)

var hostFunctions = map[string]any{
	"get_balance":     getBalance,
	"transfer":        transfer,
	"set_data":        setData,
	"get_data":        getData,
	"delete_data":     deleteData,
	"set_bytecode":    setBytecode,
	"send_message":    sendMessage,
	"emit_event":      emitEvent,
	"call":            call,
	"call_result":     callResult,
	"get_call_param":  getCallParam,
	"set_return":      setReturn,
	"caller":          caller,
	"current_address": currentAddress,
	"call_coins":      callCoins,
	"create_sc":       createSC,
	"remaining_gas":   remainingGas,
}

func isHostFunction(name string) bool {
	_, found := hostFunctions[name]
	return found
}

func instantiateHostModule(ctx context.Context, runtime wazero.Runtime) error {
	builder := runtime.NewHostModuleBuilder(hostModuleName)
	for name, fn := range hostFunctions {
		builder.NewFunctionBuilder().WithFunc(fn).Export(name)
	}
	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("failed to instantiate host module: %w", err)
	}
	return nil
}

// fail records err as the cause of the failure of the current call and
// aborts the module.
func (s *callState) fail(err error) {
	if s.err == nil {
		s.err = err
	}
	panic(err)
}

// charge charges the instructions run so far and the base cost of a host
// call plus a per-byte cost.
func (s *callState) charge(bytes int) {
	if err := s.context.ChargeGas(s.take() + hostCallGas + hostPerByteGas*strata.Gas(bytes)); err != nil {
		s.fail(err)
	}
	s.refill()
}

func (s *callState) read(m api.Module, ptr, length uint32) []byte {
	data, ok := m.Memory().Read(ptr, length)
	if !ok {
		s.fail(fmt.Errorf("%w: memory read out of range", strata.ErrRuntimeTrap))
	}
	return append([]byte(nil), data...)
}

func (s *callState) write(m api.Module, ptr uint32, data []byte) {
	if !m.Memory().Write(ptr, data) {
		s.fail(fmt.Errorf("%w: memory write out of range", strata.ErrRuntimeTrap))
	}
}

func (s *callState) readAddress(m api.Module, ptr uint32) strata.Address {
	return strata.Address(s.read(m, ptr, 32))
}

func (s *callState) readAmount(m api.Module, ptr uint32) strata.Amount {
	return strata.Amount(s.read(m, ptr, 32))
}

// writeBounded copies as much of data as fits into capacity bytes at ptr
// and returns the full length of data.
func (s *callState) writeBounded(m api.Module, ptr, capacity uint32, data []byte) uint32 {
	if uint32(len(data)) < capacity {
		capacity = uint32(len(data))
	}
	s.write(m, ptr, data[:capacity])
	return uint32(len(data))
}

func getBalance(ctx context.Context, m api.Module, addressPtr, outPtr uint32) {
	s := getCallState(ctx)
	s.charge(0)
	balance, err := s.context.GetBalance(s.readAddress(m, addressPtr))
	if err != nil {
		s.fail(err)
	}
	s.write(m, outPtr, balance[:])
}

func transfer(ctx context.Context, m api.Module, fromPtr, toPtr, amountPtr uint32) {
	s := getCallState(ctx)
	s.charge(0)
	from, to := s.readAddress(m, fromPtr), s.readAddress(m, toPtr)
	if err := s.context.Transfer(from, to, s.readAmount(m, amountPtr)); err != nil {
		s.fail(err)
	}
}

func setData(ctx context.Context, m api.Module, addressPtr, keyPtr, keyLen, valuePtr, valueLen uint32) {
	s := getCallState(ctx)
	s.charge(int(keyLen) + int(valueLen))
	address := s.readAddress(m, addressPtr)
	if err := s.context.SetData(address, s.read(m, keyPtr, keyLen), s.read(m, valuePtr, valueLen)); err != nil {
		s.fail(err)
	}
}

func deleteData(ctx context.Context, m api.Module, addressPtr, keyPtr, keyLen uint32) {
	s := getCallState(ctx)
	s.charge(int(keyLen))
	if err := s.context.DeleteData(s.readAddress(m, addressPtr), s.read(m, keyPtr, keyLen)); err != nil {
		s.fail(err)
	}
}

func setBytecode(ctx context.Context, m api.Module, addressPtr, codePtr, codeLen uint32) {
	s := getCallState(ctx)
	s.charge(int(codeLen))
	if err := s.context.SetBytecode(s.readAddress(m, addressPtr), s.read(m, codePtr, codeLen)); err != nil {
		s.fail(err)
	}
}

func getData(ctx context.Context, m api.Module, addressPtr, keyPtr, keyLen, outPtr, outCap uint32) uint32 {
	s := getCallState(ctx)
	s.charge(int(keyLen))
	value, found, err := s.context.GetData(s.readAddress(m, addressPtr), s.read(m, keyPtr, keyLen))
	if err != nil {
		s.fail(err)
	}
	if !found {
		return missingValue
	}
	s.charge(len(value))
	return s.writeBounded(m, outPtr, outCap, value)
}

func emitEvent(ctx context.Context, m api.Module, ptr, length uint32) {
	s := getCallState(ctx)
	s.charge(int(length))
	if err := s.context.EmitEvent(string(s.read(m, ptr, length))); err != nil {
		s.fail(err)
	}
}

// call runs a function of another contract. A failing nested call does not
// abort the caller; its changes are reverted and a failure status returned.
func call(ctx context.Context, m api.Module, addressPtr, functionPtr, functionLen, paramPtr, paramLen uint32, maxGas uint64, coinsPtr uint32) uint32 {
	s := getCallState(ctx)
	s.charge(int(functionLen) + int(paramLen))
	target := s.readAddress(m, addressPtr)
	function := string(s.read(m, functionPtr, functionLen))
	param := s.read(m, paramPtr, paramLen)
	coins := s.readAmount(m, coinsPtr)

	output, err := s.context.Call(target, function, param, strata.Gas(maxGas), coins)
	s.refill()
	if err != nil {
		s.lastCallOutput = nil
		return statusFailure
	}
	s.lastCallOutput = output
	return statusSuccess
}

func callResult(ctx context.Context, m api.Module, outPtr, outCap uint32) uint32 {
	s := getCallState(ctx)
	s.charge(len(s.lastCallOutput))
	return s.writeBounded(m, outPtr, outCap, s.lastCallOutput)
}

func getCallParam(ctx context.Context, m api.Module, outPtr, outCap uint32) uint32 {
	s := getCallState(ctx)
	s.charge(len(s.param))
	return s.writeBounded(m, outPtr, outCap, s.param)
}

func setReturn(ctx context.Context, m api.Module, ptr, length uint32) {
	s := getCallState(ctx)
	s.charge(int(length))
	s.output = s.read(m, ptr, length)
}

func caller(ctx context.Context, m api.Module, outPtr uint32) {
	s := getCallState(ctx)
	s.charge(0)
	address := s.context.Caller()
	s.write(m, outPtr, address[:])
}

func currentAddress(ctx context.Context, m api.Module, outPtr uint32) {
	s := getCallState(ctx)
	s.charge(0)
	address := s.context.CurrentAddress()
	s.write(m, outPtr, address[:])
}

func callCoins(ctx context.Context, m api.Module, outPtr uint32) {
	s := getCallState(ctx)
	s.charge(0)
	coins := s.context.CallCoins()
	s.write(m, outPtr, coins[:])
}

func createSC(ctx context.Context, m api.Module, codePtr, codeLen, outPtr uint32) {
	s := getCallState(ctx)
	s.charge(int(codeLen))
	address, err := s.context.CreateSC(s.read(m, codePtr, codeLen))
	if err != nil {
		s.fail(err)
	}
	s.write(m, outPtr, address[:])
}

func remainingGas(ctx context.Context, m api.Module) uint64 {
	s := getCallState(ctx)
	s.charge(0)
	return uint64(s.context.RemainingGas())
}

// sendMessage emits an asynchronous message. The trigger is read from
// triggerPtr as an address followed by triggerKeyLen key bytes; a zero
// triggerPtr emits a message without trigger.
func sendMessage(
	ctx context.Context, m api.Module,
	destinationPtr, functionPtr, functionLen uint32,
	startPeriod uint64, startThread uint32,
	endPeriod uint64, endThread uint32,
	maxGas uint64, feePtr, coinsPtr uint32,
	dataPtr, dataLen uint32,
	triggerPtr, triggerKeyLen uint32,
) {
	s := getCallState(ctx)
	s.charge(int(functionLen) + int(dataLen) + int(triggerKeyLen))
	if startThread > math.MaxUint8 || endThread > math.MaxUint8 {
		s.fail(fmt.Errorf("invalid validity window threads %d and %d", startThread, endThread))
	}
	request := strata.MessageRequest{
		Destination:   s.readAddress(m, destinationPtr),
		Function:      string(s.read(m, functionPtr, functionLen)),
		ValidityStart: strata.Slot{Period: startPeriod, Thread: uint8(startThread)},
		ValidityEnd:   strata.Slot{Period: endPeriod, Thread: uint8(endThread)},
		MaxGas:        strata.Gas(maxGas),
		Fee:           s.readAmount(m, feePtr),
		Coins:         s.readAmount(m, coinsPtr),
		Data:          s.read(m, dataPtr, dataLen),
	}
	if triggerPtr != 0 {
		request.Trigger = &strata.MessageTrigger{
			Address:      s.readAddress(m, triggerPtr),
			DatastoreKey: s.read(m, triggerPtr+32, triggerKeyLen),
		}
	}
	if err := s.context.SendMessage(request); err != nil {
		s.fail(err)
	}
}
