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
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/panoptisDev/strata/go/strata"
)

// memoryTier keeps compiled modules in a bounded LRU cache. Entries pushed
// out by the bound are handed to the demote callback; explicitly evicted
// entries are dropped.
type memoryTier struct {
	cache *lru.Cache[strata.Hash, strata.Module]
	// dropping holds the hashes being evicted explicitly.
	dropping sync.Map
}

func newMemoryTier(size int, demote func(strata.Hash, strata.Module)) (*memoryTier, error) {
	t := &memoryTier{}
	cache, err := lru.NewWithEvict[strata.Hash, strata.Module](size, func(hash strata.Hash, module strata.Module) {
		memoryEvictions.Inc(1)
		if _, dropped := t.dropping.Load(hash); dropped || demote == nil {
			return
		}
		demote(hash, module)
	})
	if err != nil {
		return nil, err
	}
	t.cache = cache
	return t, nil
}

func (t *memoryTier) Get(hash strata.Hash) (strata.Module, bool) {
	return t.cache.Get(hash)
}

func (t *memoryTier) Put(hash strata.Hash, module strata.Module) {
	t.cache.Add(hash, module)
}

func (t *memoryTier) Evict(hash strata.Hash) {
	t.dropping.Store(hash, struct{}{})
	defer t.dropping.Delete(hash)
	t.cache.Remove(hash)
}

func (t *memoryTier) Len() int {
	return t.cache.Len()
}

// Keys returns the cached hashes from the oldest to the newest used.
func (t *memoryTier) Keys() []strata.Hash {
	return t.cache.Keys()
}
