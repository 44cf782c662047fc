// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package strata

// Operation is a signed, fee-paying request included in a block. The
// execution semantics are determined by the type of its Payload.
type Operation struct {
	ID           OperationID
	Sender       Address // the address paying the fee and executing the payload
	Fee          Amount  // paid to the block creator, kept even if the payload fails
	ExpirePeriod uint64  // the last period in which the operation may be executed
	Payload      OperationPayload
}

// OperationPayload is implemented by all operation kinds known to the
// protocol: Transaction, RollBuy, RollSell, ExecuteSC and CallSC.
type OperationPayload interface {
	// MaxGas is the gas the payload reserves from the block budget on top
	// of the base cost every operation is charged.
	MaxGas() Gas
	isPayload()
}

// Transaction moves coins from the sender to a recipient.
type Transaction struct {
	Recipient Address
	Amount    Amount
}

// RollBuy converts coins of the sender into staking rolls.
type RollBuy struct {
	Rolls uint64
}

// RollSell converts staking rolls of the sender back into coins. The coins
// are credited with a delay of a few cycles.
type RollSell struct {
	Rolls uint64
}

// ExecuteSC runs bytecode in the context of the sender.
type ExecuteSC struct {
	Bytecode Data
	Gas      Gas
	MaxCoins Amount // the maximum coins the bytecode may spend from the sender
}

// CallSC calls a function of a deployed smart contract.
type CallSC struct {
	Target   Address
	Function string
	Param    Data
	Gas      Gas
	Coins    Amount // transferred from the sender to the target before the call
}

func (Transaction) MaxGas() Gas { return 0 }
func (RollBuy) MaxGas() Gas     { return 0 }
func (RollSell) MaxGas() Gas    { return 0 }
func (p ExecuteSC) MaxGas() Gas { return p.Gas }
func (p CallSC) MaxGas() Gas    { return p.Gas }

func (Transaction) isPayload() {}
func (RollBuy) isPayload()     {}
func (RollSell) isPayload()    {}
func (ExecuteSC) isPayload()   {}
func (CallSC) isPayload()      {}
