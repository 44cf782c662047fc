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
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/panoptisDev/strata/go/strata"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	artifactPrefix = 'a'
	queuePrefix    = 'q'
)

// diskRecord is the persisted form of a cached module. Seq is the
// insertion sequence number used for first-in first-out eviction.
type diskRecord struct {
	Seq      uint64
	Artifact []byte
}

// diskTier keeps serialized modules in a LevelDB database, bounded by
// entry count and total size and evicted in insertion order. Reads may
// happen concurrently, writes are serialized.
//
// Storage failures never surface to callers: they are logged and the
// affected operation behaves as if nothing was cached.
type diskTier struct {
	db         *leveldb.DB
	compiler   strata.Compiler
	maxEntries int
	maxBytes   uint64

	mu      sync.Mutex
	count   int
	bytes   uint64
	nextSeq uint64
}

func openDiskTier(config Config, compiler strata.Compiler) (*diskTier, error) {
	var (
		db  *leveldb.DB
		err error
	)
	if config.DiskPath == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(config.DiskPath, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open module cache database: %w", err)
	}
	tier := &diskTier{
		db:         db,
		compiler:   compiler,
		maxEntries: config.DiskEntries,
		maxBytes:   config.DiskBytes,
	}
	if err := tier.loadStats(); err != nil {
		db.Close()
		return nil, err
	}
	tier.mu.Lock()
	tier.shrink()
	tier.mu.Unlock()
	return tier, nil
}

func (t *diskTier) loadStats() error {
	iter := t.db.NewIterator(util.BytesPrefix([]byte{artifactPrefix}), nil)
	defer iter.Release()
	for iter.Next() {
		var record diskRecord
		if err := rlp.DecodeBytes(iter.Value(), &record); err != nil {
			return fmt.Errorf("corrupted module cache record: %w", err)
		}
		t.count++
		t.bytes += uint64(len(record.Artifact))
		if record.Seq >= t.nextSeq {
			t.nextSeq = record.Seq + 1
		}
	}
	return iter.Error()
}

func artifactKey(hash strata.Hash) []byte {
	return append([]byte{artifactPrefix}, hash[:]...)
}

func queueKey(seq uint64) []byte {
	return binary.BigEndian.AppendUint64([]byte{queuePrefix}, seq)
}

func (t *diskTier) record(hash strata.Hash) (diskRecord, bool) {
	data, err := t.db.Get(artifactKey(hash), nil)
	if err != nil {
		if !errors.Is(err, leveldb.ErrNotFound) {
			log.Warn("Module cache read failed", "hash", hash, "err", err)
		}
		return diskRecord{}, false
	}
	var record diskRecord
	if err := rlp.DecodeBytes(data, &record); err != nil {
		log.Warn("Corrupted module cache record", "hash", hash, "err", err)
		return diskRecord{}, false
	}
	return record, true
}

func (t *diskTier) Get(hash strata.Hash) (strata.Module, bool) {
	record, found := t.record(hash)
	if !found {
		return nil, false
	}
	module, err := t.compiler.Deserialize(hash, record.Artifact)
	if err != nil {
		log.Warn("Failed to restore cached module", "hash", hash, "err", err)
		return nil, false
	}
	return module, true
}

func (t *diskTier) Put(hash strata.Hash, module strata.Module) {
	artifact, err := t.compiler.Serialize(module)
	if err != nil {
		log.Warn("Failed to serialize module", "hash", hash, "err", err)
		return
	}
	if uint64(len(artifact)) > t.maxBytes {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, found := t.record(hash); found {
		return
	}
	data, err := rlp.EncodeToBytes(&diskRecord{Seq: t.nextSeq, Artifact: artifact})
	if err != nil {
		log.Warn("Failed to encode module cache record", "hash", hash, "err", err)
		return
	}
	batch := new(leveldb.Batch)
	batch.Put(artifactKey(hash), data)
	batch.Put(queueKey(t.nextSeq), hash[:])
	if err := t.db.Write(batch, nil); err != nil {
		log.Warn("Module cache write failed", "hash", hash, "err", err)
		return
	}
	t.nextSeq++
	t.count++
	t.bytes += uint64(len(artifact))
	t.shrink()
}

func (t *diskTier) Evict(hash strata.Hash) {
	t.mu.Lock()
	defer t.mu.Unlock()
	record, found := t.record(hash)
	if !found {
		return
	}
	t.remove(hash, record)
}

// shrink evicts the oldest entries until the tier is within its bounds.
// The caller must hold the write lock.
func (t *diskTier) shrink() {
	if t.count <= t.maxEntries && t.bytes <= t.maxBytes {
		return
	}
	iter := t.db.NewIterator(util.BytesPrefix([]byte{queuePrefix}), nil)
	defer iter.Release()
	for (t.count > t.maxEntries || t.bytes > t.maxBytes) && iter.Next() {
		hash := strata.Hash(iter.Value())
		record, found := t.record(hash)
		if !found {
			if err := t.db.Delete(append([]byte(nil), iter.Key()...), nil); err != nil {
				log.Warn("Module cache write failed", "err", err)
			}
			continue
		}
		if !t.remove(hash, record) {
			return
		}
		diskEvictions.Inc(1)
	}
}

func (t *diskTier) remove(hash strata.Hash, record diskRecord) bool {
	batch := new(leveldb.Batch)
	batch.Delete(artifactKey(hash))
	batch.Delete(queueKey(record.Seq))
	if err := t.db.Write(batch, nil); err != nil {
		log.Warn("Module cache write failed", "hash", hash, "err", err)
		return false
	}
	t.count--
	t.bytes -= uint64(len(record.Artifact))
	return true
}

func (t *diskTier) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

func (t *diskTier) Close() error {
	return t.db.Close()
}
