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

// Config holds the protocol constants and resource limits of the engine.
// All nodes of a network must use the same protocol constants to reach
// identical execution outputs.
type Config struct {
	ThreadCount     uint8
	PeriodsPerCycle uint64

	// Gas limits.
	MaxGasPerBlock      strata.Gas
	MaxAsyncGas         strata.Gas // gas reserved per slot for asynchronous messages
	MaxReadOnlyGas      strata.Gas
	BaseOperationGas    strata.Gas // charged for every executed operation
	BaseAsyncMessageGas strata.Gas // charged for every executed message
	BaseCallGas         strata.Gas // charged for every call frame

	// Economic constants.
	BlockReward          strata.Amount
	RollPrice            strata.Amount
	RollCountToSlash     uint64
	RollSellDelayCycles  uint64
	OperationValidity    uint64 // maximum number of periods an operation may stay valid
	DenunciationValidity uint64 // number of periods a fault may be denounced after it happened

	// StorageCosts are paid for data kept in the ledger.
	StorageCosts StorageCosts

	// Resource limits.
	MaxCallDepth            int
	MaxDatastoreKeyLength   int
	MaxDatastoreValueLength int
	MaxBytecodeSize         int
	MaxEventDataLength      int
	MaxAsyncPoolLength      int
	MaxFinalEvents          int

	// Worker parameters.
	MaxActiveHistory    int // number of candidate slots executed ahead of finality
	ReadOnlyQueueLength int
	BroadcastCapacity   int

	// AutoSell decides at the end of each cycle whether the rolls of a
	// producer are sold because it missed too many slots.
	AutoSell AutoSellPolicy
}

// StorageCosts are the coins locked by data kept in the ledger. They are
// paid when storage is allocated and refunded when it is released.
type StorageCosts struct {
	LedgerEntry    strata.Amount // per ledger entry
	DatastoreEntry strata.Amount // per datastore key, on top of its bytes
	PerByte        strata.Amount // per byte of bytecode, key and value
}

// cost returns the cost of size bytes stored on top of base.
func (s StorageCosts) cost(base strata.Amount, size int) (strata.Amount, error) {
	bytes, err := s.PerByte.Scale(uint64(size))
	if err != nil {
		return strata.Amount{}, err
	}
	return base.CheckedAdd(bytes)
}

// DefaultConfig returns the parameters of a small test network.
func DefaultConfig() Config {
	return Config{
		ThreadCount:     32,
		PeriodsPerCycle: 128,

		MaxGasPerBlock:      4_294_967_295,
		MaxAsyncGas:         1_000_000_000,
		MaxReadOnlyGas:      4_294_967_295,
		BaseOperationGas:    2_000,
		BaseAsyncMessageGas: 2_000,
		BaseCallGas:         1_000,

		BlockReward:          strata.NewAmount(300_000_000),
		RollPrice:            strata.NewAmount(100_000_000_000),
		RollCountToSlash:     1,
		RollSellDelayCycles:  3,
		OperationValidity:    10,
		DenunciationValidity: 10,

		StorageCosts: StorageCosts{
			LedgerEntry:    strata.NewAmount(1_000_000),
			DatastoreEntry: strata.NewAmount(400_000),
			PerByte:        strata.NewAmount(100_000),
		},

		MaxCallDepth:            25,
		MaxDatastoreKeyLength:   255,
		MaxDatastoreValueLength: 10_000_000,
		MaxBytecodeSize:         10_000_000,
		MaxEventDataLength:      512,
		MaxAsyncPoolLength:      10_000,
		MaxFinalEvents:          10_000,

		MaxActiveHistory:    64,
		ReadOnlyQueueLength: 10,
		BroadcastCapacity:   5_000,

		AutoSell: MaxMissRatioPolicy(7, 10),
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.ThreadCount == 0 {
		errs = append(errs, fmt.Errorf("thread count must be positive"))
	}
	if c.PeriodsPerCycle == 0 {
		errs = append(errs, fmt.Errorf("periods per cycle must be positive"))
	}
	if c.MaxAsyncGas > c.MaxGasPerBlock {
		errs = append(errs, fmt.Errorf("async gas %d exceeds block gas %d", c.MaxAsyncGas, c.MaxGasPerBlock))
	}
	if c.MaxCallDepth <= 0 {
		errs = append(errs, fmt.Errorf("max call depth must be positive"))
	}
	if c.MaxActiveHistory <= 0 {
		errs = append(errs, fmt.Errorf("max active history must be positive"))
	}
	if c.ReadOnlyQueueLength <= 0 {
		errs = append(errs, fmt.Errorf("read-only queue length must be positive"))
	}
	if c.BroadcastCapacity <= 0 {
		errs = append(errs, fmt.Errorf("broadcast capacity must be positive"))
	}
	if c.AutoSell == nil {
		errs = append(errs, fmt.Errorf("auto-sell policy must be set"))
	}
	return errors.Join(errs...)
}
