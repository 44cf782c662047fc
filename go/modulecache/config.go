// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package modulecache

import (
	"fmt"

	"github.com/panoptisDev/strata/go/strata"
)

// Config bounds the tiers of the cache and defines the gas charged for
// obtaining a module.
type Config struct {
	// MemoryEntries is the maximum number of compiled modules kept in memory.
	MemoryEntries int
	// DiskPath is the directory of the on-disk tier. An empty path keeps
	// the tier in memory, which is mostly useful for tests.
	DiskPath string
	// DiskEntries is the maximum number of modules on disk. Zero disables
	// the on-disk tier.
	DiskEntries int
	// DiskBytes is the maximum total size of the serialized modules on disk.
	DiskBytes uint64

	// The cost of obtaining a module only depends on its bytecode, never on
	// whether it was found in a cache, so that execution stays deterministic.
	CompileBaseGas    strata.Gas
	CompileGasPerByte strata.Gas
}

func DefaultConfig() Config {
	return Config{
		MemoryEntries:     1_000,
		DiskEntries:       10_000,
		DiskBytes:         1 << 30,
		CompileBaseGas:    10_000,
		CompileGasPerByte: 2,
	}
}

func (c Config) Validate() error {
	if c.MemoryEntries <= 0 {
		return fmt.Errorf("memory tier needs at least one entry, got %d", c.MemoryEntries)
	}
	if c.DiskEntries < 0 {
		return fmt.Errorf("invalid disk tier entry limit %d", c.DiskEntries)
	}
	if c.DiskEntries > 0 && c.DiskBytes == 0 {
		return fmt.Errorf("disk tier needs a positive size limit")
	}
	return nil
}

// CompileCost returns the gas charged for obtaining the module of bytecode.
func (c Config) CompileCost(bytecode []byte) strata.Gas {
	return c.CompileBaseGas + c.CompileGasPerByte*strata.Gas(len(bytecode))
}
