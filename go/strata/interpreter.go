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

//go:generate mockgen -source interpreter.go -destination interpreter_mock.go -package strata

// Interpreter is the virtual machine sandbox running compiled smart
// contract modules. Implementations must be deterministic: the same module,
// parameters and context responses must always yield the same result.
type Interpreter interface {
	// Run executes the given function of a module. Any non-nil error marks
	// the call as failed; all state changes made through the context during
	// the call are then reverted by the caller.
	Run(Parameters) (Result, error)
}

// Parameters summarizes the inputs of a single smart contract call.
type Parameters struct {
	Context  RunContext // the interface through which the module accesses the chain state
	Module   Module     // the compiled module to run
	Function string     // the exported function to call
	Param    Data       // the call parameter, readable by the module
}

// Result summarizes the outcome of a successful call.
type Result struct {
	Output Data // the value set by the module as return value
}

// RunContext is the view of the execution context offered to running
// modules. The context is the authoritative gas counter: every access
// charges gas, and ChargeGas fails with ErrNotEnoughGas once the gas of the
// current call frame is exhausted.
type RunContext interface {
	ChargeGas(Gas) error
	RemainingGas() Gas

	// Caller is the address that called the current frame, CurrentAddress
	// the address whose code is running.
	Caller() Address
	CurrentAddress() Address
	CallCoins() Amount

	GetBalance(Address) (Amount, error)
	// Transfer moves coins between addresses. Spending requires write
	// access to the sending address.
	Transfer(from, to Address, amount Amount) error

	// Datastore accesses. Reads are allowed on any address, writes only on
	// addresses the current call has write access to.
	GetData(address Address, key []byte) ([]byte, bool, error)
	SetData(address Address, key, value []byte) error
	DeleteData(address Address, key []byte) error
	SetBytecode(address Address, bytecode Data) error

	EmitEvent(data string) error

	// Call runs a function of another smart contract with the given maximum
	// gas, which is pre-charged from the current frame.
	Call(target Address, function string, param Data, maxGas Gas, coins Amount) (Data, error)
	// CreateSC deploys bytecode at a freshly derived address owned by the
	// current call.
	CreateSC(bytecode Data) (Address, error)
	// SendMessage emits an asynchronous message sent by the current address.
	SendMessage(MessageRequest) error
}

// MessageRequest describes an asynchronous message to be emitted. The
// sender is debited the coins and the fee at emission.
type MessageRequest struct {
	Destination   Address
	Function      string
	ValidityStart Slot
	ValidityEnd   Slot
	MaxGas        Gas
	Fee           Amount
	Coins         Amount
	Data          Data
	Trigger       *MessageTrigger
}

// Module is a compiled smart contract module.
type Module interface {
	Hash() Hash
}

// Compiler turns bytecode into executable modules. Modules must be
// serializable so they can be persisted by on-disk caches.
type Compiler interface {
	// Compile validates and compiles bytecode, failing with ErrInvalidModule
	// if it is malformed.
	Compile(bytecode []byte) (Module, error)
	Serialize(Module) ([]byte, error)
	Deserialize(hash Hash, data []byte) (Module, error)
}

// Selector reports the producer selected for a slot by proof-of-stake.
type Selector interface {
	Producer(Slot) (Address, error)
}
