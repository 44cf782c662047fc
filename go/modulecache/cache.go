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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/panoptisDev/strata/go/strata"
	"golang.org/x/sync/singleflight"
)

var (
	memoryHits      = metrics.NewRegisteredCounter("modulecache/memory/hits", nil)
	diskHits        = metrics.NewRegisteredCounter("modulecache/disk/hits", nil)
	misses          = metrics.NewRegisteredCounter("modulecache/misses", nil)
	memoryEvictions = metrics.NewRegisteredCounter("modulecache/memory/evictions", nil)
	diskEvictions   = metrics.NewRegisteredCounter("modulecache/disk/evictions", nil)
)

// tier is the capability shared by all cache levels.
type tier interface {
	Get(strata.Hash) (strata.Module, bool)
	Put(strata.Hash, strata.Module)
	Evict(strata.Hash)
}

// Cache compiles bytecode into modules and keeps them in a bounded memory
// tier backed by a bounded disk tier. Modules pushed out of memory are
// demoted to disk; modules found on disk are promoted back to memory.
// Cache is safe for concurrent use.
type Cache struct {
	config   Config
	compiler strata.Compiler
	memory   tier
	disk     tier // nil if disabled or unavailable
	group    singleflight.Group

	memoryTier *memoryTier
	diskTier   *diskTier
}

// New creates a cache. A disk tier that cannot be opened is logged and the
// cache runs without it.
func New(config Config, compiler strata.Compiler) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	cache := &Cache{config: config, compiler: compiler}
	if config.DiskEntries > 0 {
		disk, err := openDiskTier(config, compiler)
		if err != nil {
			log.Warn("Module cache disk tier unavailable, caching in memory only", "path", config.DiskPath, "err", err)
		} else {
			cache.disk = disk
			cache.diskTier = disk
		}
	}
	memory, err := newMemoryTier(config.MemoryEntries, cache.demote)
	if err != nil {
		return nil, err
	}
	cache.memory = memory
	cache.memoryTier = memory
	return cache, nil
}

func (c *Cache) demote(hash strata.Hash, module strata.Module) {
	if c.disk != nil {
		c.disk.Put(hash, module)
	}
}

// CompileCost returns the gas to charge for obtaining the module of the
// given bytecode, whether it is cached or not.
func (c *Cache) CompileCost(bytecode []byte) strata.Gas {
	return c.config.CompileCost(bytecode)
}

// GetOrCompile returns the module of the given bytecode, compiling it on a
// miss. Concurrent requests for the same bytecode share one compilation.
// Malformed bytecode fails with ErrInvalidModule and is never cached.
func (c *Cache) GetOrCompile(bytecode []byte) (strata.Module, error) {
	hash := strata.Keccak256(bytecode)
	if module, found := c.lookup(hash); found {
		return module, nil
	}
	res, err, _ := c.group.Do(string(hash[:]), func() (any, error) {
		if module, found := c.lookup(hash); found {
			return module, nil
		}
		misses.Inc(1)
		module, err := c.compiler.Compile(bytecode)
		if err != nil {
			if !errors.Is(err, strata.ErrInvalidModule) {
				err = fmt.Errorf("%w: %w", strata.ErrInvalidModule, err)
			}
			return nil, err
		}
		c.memory.Put(hash, module)
		return module, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(strata.Module), nil
}

func (c *Cache) lookup(hash strata.Hash) (strata.Module, bool) {
	if module, found := c.memory.Get(hash); found {
		memoryHits.Inc(1)
		return module, true
	}
	if c.disk == nil {
		return nil, false
	}
	module, found := c.disk.Get(hash)
	if !found {
		return nil, false
	}
	diskHits.Inc(1)
	c.memory.Put(hash, module)
	return module, true
}

// Evict drops the module of the given bytecode from all tiers.
func (c *Cache) Evict(bytecode []byte) {
	hash := strata.Keccak256(bytecode)
	c.memory.Evict(hash)
	if c.disk != nil {
		c.disk.Evict(hash)
	}
}

// MemoryLen returns the number of modules held in memory.
func (c *Cache) MemoryLen() int {
	return c.memoryTier.Len()
}

// DiskLen returns the number of modules held on disk.
func (c *Cache) DiskLen() int {
	if c.diskTier == nil {
		return 0
	}
	return c.diskTier.Len()
}

func (c *Cache) Close() error {
	if c.diskTier == nil {
		return nil
	}
	return c.diskTier.Close()
}
