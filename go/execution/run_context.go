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
	"fmt"

	"github.com/panoptisDev/strata/go/strata"
)

// frame is an element of the call stack.
type frame struct {
	address strata.Address
	coins   strata.Amount // coins transferred by the caller
	gas     strata.Gas    // remaining gas of the frame
	// owned lists the addresses the frame may modify: its own address and
	// the addresses it created.
	owned map[strata.Address]struct{}
	// spendable limits the coins the frame may spend from its own address,
	// nil if unlimited.
	spendable *strata.Amount
}

func newFrame(address strata.Address, coins strata.Amount, gas strata.Gas) *frame {
	return &frame{
		address: address,
		coins:   coins,
		gas:     gas,
		owned:   map[strata.Address]struct{}{address: {}},
	}
}

// runContext is the interface offered to a running module. It is passed by
// value, so every nested call gets its own stack and depth without having
// to undo anything when returning.
type runContext struct {
	*executionContext
	stack []*frame
	depth int
}

var _ strata.RunContext = runContext{}

func (c runContext) frame() *frame {
	return c.stack[len(c.stack)-1]
}

// push returns the context of a call running callee on top of c.
func (c runContext) push(callee *frame) runContext {
	return runContext{
		executionContext: c.executionContext,
		stack:            append(c.stack[:len(c.stack):len(c.stack)], callee),
		depth:            c.depth + 1,
	}
}

// ChargeGas consumes gas of the current frame. A failed charge consumes
// all gas left.
func (c runContext) ChargeGas(gas strata.Gas) error {
	f := c.frame()
	if f.gas < gas {
		left := f.gas
		f.gas = 0
		return fmt.Errorf("charging %d gas with %d left: %w", gas, left, strata.ErrNotEnoughGas)
	}
	f.gas -= gas
	return nil
}

func (c runContext) RemainingGas() strata.Gas {
	return c.frame().gas
}

func (c runContext) Caller() strata.Address {
	if len(c.stack) < 2 {
		return c.frame().address
	}
	return c.stack[len(c.stack)-2].address
}

func (c runContext) CurrentAddress() strata.Address {
	return c.frame().address
}

func (c runContext) CallCoins() strata.Amount {
	return c.frame().coins
}

func (c runContext) checkWriteAccess(address strata.Address) error {
	if _, owned := c.frame().owned[address]; !owned {
		return fmt.Errorf("%v may not modify %v: %w", c.frame().address, address, strata.ErrPermissionDenied)
	}
	return nil
}

func (c runContext) GetBalance(address strata.Address) (strata.Amount, error) {
	balance, _ := c.ledger.Balance(address)
	return balance, nil
}

func (c runContext) Transfer(from, to strata.Address, amount strata.Amount) error {
	if err := c.checkWriteAccess(from); err != nil {
		return err
	}
	f := c.frame()
	if from == f.address && f.spendable != nil {
		remaining, err := f.spendable.CheckedSub(amount)
		if err != nil {
			return fmt.Errorf("exceeding spending limit: %w", err)
		}
		if err := c.ledger.TransferCoins(from, to, amount); err != nil {
			return err
		}
		*f.spendable = remaining
		return nil
	}
	return c.ledger.TransferCoins(from, to, amount)
}

// payStorage settles a change of the storage cost of the ledger from
// before to after with the address of the current frame: growth is burned
// from it, shrinking refunded to it.
func (c runContext) payStorage(before, after strata.Amount) error {
	f := c.frame()
	if before.Cmp(after) > 0 {
		refund, _ := before.CheckedSub(after)
		return c.ledger.Transfer(nil, &f.address, refund)
	}
	cost, _ := after.CheckedSub(before)
	if cost.IsZero() {
		return nil
	}
	var remaining strata.Amount
	if f.spendable != nil {
		var err error
		if remaining, err = f.spendable.CheckedSub(cost); err != nil {
			return fmt.Errorf("paying storage: exceeding spending limit: %w", err)
		}
	}
	if err := c.ledger.Transfer(&f.address, nil, cost); err != nil {
		return fmt.Errorf("paying storage: %w", err)
	}
	if f.spendable != nil {
		*f.spendable = remaining
	}
	return nil
}

// datastoreCost returns the storage cost of a datastore entry, zero if the
// entry does not exist.
func (c runContext) datastoreCost(key, value []byte, exists bool) (strata.Amount, error) {
	if !exists {
		return strata.Amount{}, nil
	}
	costs := c.config.StorageCosts
	return costs.cost(costs.DatastoreEntry, len(key)+len(value))
}

func (c runContext) GetData(address strata.Address, key []byte) ([]byte, bool, error) {
	value, found := c.ledger.DatastoreValue(address, key)
	return value, found, nil
}

func (c runContext) SetData(address strata.Address, key, value []byte) error {
	if err := c.checkWriteAccess(address); err != nil {
		return err
	}
	old, found := c.ledger.DatastoreValue(address, key)
	if err := c.ledger.SetDatastoreValue(address, key, value); err != nil {
		return err
	}
	before, err := c.datastoreCost(key, old, found)
	if err != nil {
		return err
	}
	after, err := c.datastoreCost(key, value, true)
	if err != nil {
		return err
	}
	return c.payStorage(before, after)
}

func (c runContext) DeleteData(address strata.Address, key []byte) error {
	if err := c.checkWriteAccess(address); err != nil {
		return err
	}
	old, found := c.ledger.DatastoreValue(address, key)
	if err := c.ledger.DeleteDatastoreValue(address, key); err != nil {
		return err
	}
	before, err := c.datastoreCost(key, old, found)
	if err != nil {
		return err
	}
	return c.payStorage(before, strata.Amount{})
}

func (c runContext) SetBytecode(address strata.Address, bytecode strata.Data) error {
	if err := c.checkWriteAccess(address); err != nil {
		return err
	}
	old, _ := c.ledger.Bytecode(address)
	if err := c.ledger.SetBytecode(address, bytecode); err != nil {
		return err
	}
	costs := c.config.StorageCosts
	before, err := costs.cost(strata.Amount{}, len(old))
	if err != nil {
		return err
	}
	after, err := costs.cost(strata.Amount{}, len(bytecode))
	if err != nil {
		return err
	}
	return c.payStorage(before, after)
}

func (c runContext) EmitEvent(data string) error {
	if len(data) > c.config.MaxEventDataLength {
		return fmt.Errorf("event of %d bytes exceeds limit of %d bytes", len(data), c.config.MaxEventDataLength)
	}
	c.pushEvent(c.stack, data, false)
	return nil
}

func (c runContext) CreateSC(bytecode strata.Data) (strata.Address, error) {
	address := strata.DeriveAddress(c.slot, c.createdAddresses, c.readOnly)
	if err := c.ledger.CreateEntry(address, bytecode); err != nil {
		return strata.Address{}, err
	}
	cost, err := c.config.StorageCosts.cost(c.config.StorageCosts.LedgerEntry, len(bytecode))
	if err != nil {
		return strata.Address{}, err
	}
	if err := c.payStorage(strata.Amount{}, cost); err != nil {
		return strata.Address{}, err
	}
	c.createdAddresses++
	c.frame().owned[address] = struct{}{}
	return address, nil
}

func (c runContext) SendMessage(request strata.MessageRequest) error {
	if !request.ValidityStart.Less(request.ValidityEnd) {
		return fmt.Errorf("empty validity window [%v, %v)", request.ValidityStart, request.ValidityEnd)
	}
	if request.ValidityStart.Thread >= c.config.ThreadCount || request.ValidityEnd.Thread >= c.config.ThreadCount {
		return fmt.Errorf("invalid validity window [%v, %v)", request.ValidityStart, request.ValidityEnd)
	}
	if request.MaxGas < c.config.BaseAsyncMessageGas {
		return fmt.Errorf("message gas %d below minimum %d: %w", request.MaxGas, c.config.BaseAsyncMessageGas, strata.ErrNotEnoughGas)
	}
	total, err := request.Coins.CheckedAdd(request.Fee)
	if err != nil {
		return err
	}
	f := c.frame()
	var remaining strata.Amount
	if f.spendable != nil {
		if remaining, err = f.spendable.CheckedSub(total); err != nil {
			return fmt.Errorf("exceeding spending limit: %w", err)
		}
	}
	sender := f.address
	if err := c.ledger.Transfer(&sender, nil, total); err != nil {
		return err
	}
	if f.spendable != nil {
		*f.spendable = remaining
	}
	c.asyncPool.push(&strata.AsyncMessage{
		EmissionSlot:  c.slot,
		EmissionIndex: c.emittedMessages,
		Sender:        sender,
		Destination:   request.Destination,
		Function:      request.Function,
		MaxGas:        request.MaxGas,
		Fee:           request.Fee,
		Coins:         request.Coins,
		ValidityStart: request.ValidityStart,
		ValidityEnd:   request.ValidityEnd,
		Data:          request.Data,
		Trigger:       request.Trigger,
		CanBeExecuted: request.Trigger == nil,
	})
	c.emittedMessages++
	return nil
}

// Call runs a function of the smart contract at target in a new frame.
func (c runContext) Call(target strata.Address, function string, param strata.Data, maxGas strata.Gas, coins strata.Amount) (strata.Data, error) {
	f := c.frame()
	var remaining strata.Amount
	if f.spendable != nil {
		var err error
		if remaining, err = f.spendable.CheckedSub(coins); err != nil {
			return nil, fmt.Errorf("exceeding spending limit: %w", err)
		}
	}
	output, err := c.invoke(target, function, param, maxGas, coins, &f.address)
	if err == nil && f.spendable != nil {
		*f.spendable = remaining
	}
	return output, err
}

// invoke runs a function of the smart contract at target in a new frame
// on top of c. The gas of the new frame is pre-charged from the current
// frame, which gets back what is left after the call. The coins are taken
// from coinsFrom, or minted if it is nil. A failing call reverts all of its
// changes and records an error event; the changes of c are not affected.
func (c runContext) invoke(
	target strata.Address,
	function string,
	param strata.Data,
	maxGas strata.Gas,
	coins strata.Amount,
	coinsFrom *strata.Address,
) (output strata.Data, err error) {
	parent := c.frame()
	callee := newFrame(target, coins, 0)
	child := c.push(callee)
	snapshot := c.snapshot()
	defer func() {
		parent.gas += callee.gas
		if err != nil {
			c.reset(snapshot)
			c.pushEvent(child.stack, err.Error(), true)
		}
	}()

	if child.depth > c.config.MaxCallDepth {
		return nil, fmt.Errorf("call depth %d: %w", child.depth, strata.ErrCallStackTooDeep)
	}
	if parent.gas < maxGas {
		return nil, fmt.Errorf("call requires %d gas, %d left: %w", maxGas, parent.gas, strata.ErrNotEnoughGas)
	}
	parent.gas -= maxGas
	callee.gas = maxGas

	bytecode, found := c.ledger.Bytecode(target)
	if !found || len(bytecode) == 0 {
		return nil, fmt.Errorf("no bytecode at %v: %w", target, strata.ErrTargetNotFound)
	}
	if err := c.ledger.Transfer(coinsFrom, &target, coins); err != nil {
		return nil, err
	}
	return child.run(bytecode, function, param)
}

// run executes a function of bytecode in the current frame.
func (c runContext) run(bytecode strata.Data, function string, param strata.Data) (strata.Data, error) {
	if err := c.ChargeGas(c.config.BaseCallGas + c.modules.CompileCost(bytecode)); err != nil {
		return nil, err
	}
	module, err := c.modules.GetOrCompile(bytecode)
	if err != nil {
		return nil, err
	}
	result, err := c.interpreter.Run(strata.Parameters{
		Context:  c,
		Module:   module,
		Function: function,
		Param:    param,
	})
	if err != nil {
		return nil, err
	}
	return result.Output, nil
}

// isGasError reports whether err was caused by exhausted gas.
func isGasError(err error) bool {
	return errors.Is(err, strata.ErrNotEnoughGas)
}
