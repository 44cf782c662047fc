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
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/panoptisDev/strata/go/strata"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// executeOperation executes an operation of the block of the slot and
// returns the gas it used. Operations that cannot be admitted are skipped
// and reported with their error. The fee of an admitted operation is paid
// to the block creator even if its payload fails; the payload's changes
// are then reverted.
func (c *executionContext) executeOperation(op *strata.Operation, remainingBlockGas *strata.Gas) (strata.Gas, error) {
	if c.executed.isOpExecuted(op.ID) {
		return 0, fmt.Errorf("operation %v: %w", op.ID, strata.ErrAlreadyExecuted)
	}
	if op.ExpirePeriod < c.slot.Period || op.ExpirePeriod > c.slot.Period+c.config.OperationValidity {
		return 0, fmt.Errorf("operation %v expiring at period %d in slot %v: %w", op.ID, op.ExpirePeriod, c.slot, strata.ErrOperationExpired)
	}
	required := c.config.BaseOperationGas + op.Payload.MaxGas()
	if required > *remainingBlockGas {
		return 0, fmt.Errorf("operation %v requires %d gas, %d left: %w", op.ID, required, *remainingBlockGas, strata.ErrBlockGasExhausted)
	}
	if err := c.ledger.Transfer(&op.Sender, &c.block.Creator, op.Fee); err != nil {
		return 0, fmt.Errorf("operation %v cannot pay its fee: %w", op.ID, err)
	}
	*remainingBlockGas -= required

	id := op.ID
	c.origin = &id
	defer func() { c.origin = nil }()

	snapshot := c.snapshot()
	used, err := c.executePayload(op)
	if err != nil {
		c.reset(snapshot)
		c.pushEvent(c.baseContext(op.Sender, 0).stack, fmt.Sprintf("operation %v failed: %v", op.ID, err), true)
	}
	c.executed.insertOp(op.ID, strata.Slot{Period: op.ExpirePeriod, Thread: c.slot.Thread}, err == nil)
	return c.config.BaseOperationGas + used, err
}

// executePayload runs the payload of an operation and returns the gas used
// on top of the base operation cost.
func (c *executionContext) executePayload(op *strata.Operation) (strata.Gas, error) {
	switch payload := op.Payload.(type) {
	case strata.Transaction:
		return 0, c.ledger.TransferCoins(op.Sender, payload.Recipient, payload.Amount)

	case strata.RollBuy:
		if payload.Rolls == 0 {
			return 0, fmt.Errorf("buying zero rolls")
		}
		price, err := c.config.RollPrice.Scale(payload.Rolls)
		if err != nil {
			return 0, err
		}
		if err := c.ledger.Transfer(&op.Sender, nil, price); err != nil {
			return 0, err
		}
		return 0, c.rolls.addRolls(op.Sender, payload.Rolls)

	case strata.RollSell:
		if payload.Rolls == 0 {
			return 0, fmt.Errorf("selling zero rolls")
		}
		if err := c.rolls.removeRolls(op.Sender, payload.Rolls); err != nil {
			return 0, err
		}
		price, err := c.config.RollPrice.Scale(payload.Rolls)
		if err != nil {
			return 0, err
		}
		return 0, c.rolls.addDeferredCredit(c.rollSaleSlot(), op.Sender, price)

	case strata.ExecuteSC:
		base := c.baseContext(op.Sender, payload.Gas)
		maxCoins := payload.MaxCoins
		base.frame().spendable = &maxCoins
		_, err := base.run(payload.Bytecode, "main", nil)
		return payload.Gas - base.frame().gas, err

	case strata.CallSC:
		base := c.baseContext(op.Sender, payload.Gas)
		_, err := base.invoke(payload.Target, payload.Function, payload.Param, payload.Gas, payload.Coins, &op.Sender)
		return payload.Gas - base.frame().gas, err
	}
	return 0, fmt.Errorf("unsupported operation payload %T", op.Payload)
}

// rollSaleSlot is the slot at which the coins of rolls sold in the current
// slot are credited.
func (c *executionContext) rollSaleSlot() strata.Slot {
	cycle := c.slot.Cycle(c.config.PeriodsPerCycle)
	return strata.LastOfCycle(cycle+c.config.RollSellDelayCycles, c.config.PeriodsPerCycle, c.config.ThreadCount)
}

// executeDenunciation slashes the denounced producer.
func (c *executionContext) executeDenunciation(denunciation *strata.Denunciation) error {
	index := denunciation.Index
	if c.executed.isDenunciationExecuted(index) {
		return fmt.Errorf("denunciation %+v: %w", index, strata.ErrAlreadyExecuted)
	}
	if c.slot.Less(index.Slot) || index.Slot.Period+c.config.DenunciationValidity < c.slot.Period {
		return fmt.Errorf("denounced slot %v out of range at %v: %w", index.Slot, c.slot, strata.ErrInvalidDenunciation)
	}
	c.executed.insertDenunciation(index)
	slashed, err := c.rolls.slash(c.slot, denunciation.Producer, c.config.RollCountToSlash, c.config.RollPrice)
	if err != nil {
		return err
	}
	log.Debug("Slashed producer", "producer", denunciation.Producer, "amount", slashed, "slot", c.slot)
	return nil
}

// executeAsyncMessages executes the batch of due messages of the slot and
// returns the gas they used.
func (c *executionContext) executeAsyncMessages() strata.Gas {
	var used strata.Gas
	for _, message := range c.asyncPool.takeBatch(c.slot, c.config.MaxAsyncGas) {
		used += c.executeMessage(message)
	}
	return used
}

// executeMessage calls the destination of a message with its coins. The
// coins go back to the sender if the call fails. The fee was paid at
// emission and goes to the block creator, if any.
func (c *executionContext) executeMessage(message *strata.AsyncMessage) strata.Gas {
	if c.block != nil {
		if err := c.ledger.Transfer(nil, &c.block.Creator, message.Fee); err != nil {
			log.Warn("Failed to pay message fee", "sender", message.Sender, "err", err)
		}
	}
	base := c.baseContext(message.Sender, message.MaxGas)
	if err := base.ChargeGas(c.config.BaseAsyncMessageGas); err != nil {
		c.refund(message)
		return message.MaxGas
	}
	gas := base.frame().gas
	if _, err := base.invoke(message.Destination, message.Function, message.Data, gas, message.Coins, nil); err != nil {
		c.refund(message)
	}
	return message.MaxGas - base.frame().gas
}

// refund returns the coins of a message that was not executed to its sender.
func (c *executionContext) refund(message *strata.AsyncMessage) {
	if err := c.ledger.Transfer(nil, &message.Sender, message.Coins); err != nil {
		log.Warn("Failed to refund message coins", "sender", message.Sender, "err", err)
	}
}

// settle ends the execution of the slot: due deferred credits are paid,
// the async pool is settled and, at the end of a cycle, the rolls of
// producers selected by the auto-sell policy are sold.
func (c *executionContext) settle() {
	for _, credit := range c.rolls.takeCredits(c.slot) {
		if err := c.ledger.Transfer(nil, &credit.address, credit.amount); err != nil {
			log.Warn("Failed to pay deferred credit", "address", credit.address, "err", err)
		}
	}

	for _, message := range c.asyncPool.settle(c.slot, c.ledger.added) {
		c.refund(message)
	}

	if c.slot.IsLastOfCycle(c.config.PeriodsPerCycle, c.config.ThreadCount) {
		c.autoSell(c.slot.Cycle(c.config.PeriodsPerCycle))
	}
}

// autoSell sells all rolls of producers rejected by the auto-sell policy
// for the given cycle.
func (c *executionContext) autoSell(cycle uint64) {
	stats := c.rolls.ProductionStats(cycle)
	producers := maps.Keys(stats)
	slices.SortFunc(producers, func(a, b strata.Address) int { return bytes.Compare(a[:], b[:]) })
	for _, producer := range producers {
		rolls := c.rolls.RollCount(producer)
		if !c.config.AutoSell(stats[producer], rolls) {
			continue
		}
		price, err := c.config.RollPrice.Scale(rolls)
		if err == nil {
			err = c.rolls.removeRolls(producer, rolls)
		}
		if err == nil {
			err = c.rolls.addDeferredCredit(c.rollSaleSlot(), producer, price)
		}
		if err != nil {
			log.Warn("Failed to auto-sell rolls", "producer", producer, "err", err)
			continue
		}
		log.Info("Auto-sold rolls", "producer", producer, "rolls", rolls, "cycle", cycle)
	}
}
