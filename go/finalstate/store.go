// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package finalstate

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Store is a final state persisted in a LevelDB database. Reads are safe
// for concurrent use; Finalize must be called by a single writer.
type Store struct {
	db          *leveldb.DB
	threadCount uint8

	mu   sync.RWMutex
	slot strata.Slot
}

var _ state.FinalState = (*Store)(nil)

// Open opens or creates a store in the given directory. An empty path
// creates an in-memory store.
func Open(path string, genesis strata.Slot, threadCount uint8) (*Store, error) {
	var (
		db  *leveldb.DB
		err error
	)
	if path == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, &opt.Options{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open final state database: %w", err)
	}
	store, err := New(db, genesis, threadCount)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New creates a store on top of an open database. The genesis slot is
// only used if the database holds no final slot yet.
func New(db *leveldb.DB, genesis strata.Slot, threadCount uint8) (*Store, error) {
	if threadCount == 0 {
		return nil, fmt.Errorf("thread count must be positive")
	}
	slot := genesis
	data, err := db.Get(finalSlotKey, nil)
	switch {
	case err == nil:
		if len(data) != 9 {
			return nil, fmt.Errorf("corrupted final slot record of length %d", len(data))
		}
		slot = decodeSlot(data)
	case errors.Is(err, leveldb.ErrNotFound):
		if err := db.Put(finalSlotKey, encodeSlot(genesis), nil); err != nil {
			return nil, fmt.Errorf("failed to write genesis slot: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to read final slot: %w", err)
	}
	return &Store{db: db, threadCount: threadCount, slot: slot}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Slot() strata.Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slot
}

// get reads a record, reporting a missing record as not found. Read
// failures of the database are logged and also reported as not found.
func (s *Store) get(key []byte) ([]byte, bool) {
	data, err := s.db.Get(key, nil)
	if err != nil {
		if !errors.Is(err, leveldb.ErrNotFound) {
			log.Error("Failed to read final state", "key", key, "err", err)
		}
		return nil, false
	}
	return data, true
}

func (s *Store) entry(address strata.Address) (entryRecord, bool) {
	data, found := s.get(entryKey(address))
	if !found {
		return entryRecord{}, false
	}
	var record entryRecord
	if err := rlp.DecodeBytes(data, &record); err != nil {
		log.Error("Corrupted ledger entry", "address", address, "err", err)
		return entryRecord{}, false
	}
	return record, true
}

func (s *Store) EntryExists(address strata.Address) bool {
	_, found := s.get(entryKey(address))
	return found
}

func (s *Store) Balance(address strata.Address) (strata.Amount, bool) {
	record, found := s.entry(address)
	return record.Balance, found
}

func (s *Store) Bytecode(address strata.Address) (strata.Data, bool) {
	record, found := s.entry(address)
	return record.Bytecode, found
}

func (s *Store) DatastoreValue(address strata.Address, key []byte) ([]byte, bool) {
	return s.get(datastoreKey(address, key))
}

func (s *Store) DatastoreKeys(address strata.Address, prefix []byte) [][]byte {
	iter := s.db.NewIterator(util.BytesPrefix(datastoreKey(address, prefix)), nil)
	defer iter.Release()
	res := [][]byte{}
	for iter.Next() {
		key := iter.Key()[1+len(address):]
		res = append(res, append([]byte(nil), key...))
	}
	if err := iter.Error(); err != nil {
		log.Error("Failed to iterate datastore", "address", address, "err", err)
	}
	return res
}

func (s *Store) AsyncMessages() []*strata.AsyncMessage {
	iter := s.db.NewIterator(util.BytesPrefix([]byte{messagePrefix}), nil)
	defer iter.Release()
	res := []*strata.AsyncMessage{}
	for iter.Next() {
		message, err := decodeMessage(iter.Value())
		if err != nil {
			log.Error("Corrupted async message", "key", iter.Key(), "err", err)
			continue
		}
		res = append(res, message)
	}
	if err := iter.Error(); err != nil {
		log.Error("Failed to iterate async pool", "err", err)
	}
	return res
}

func (s *Store) RollCount(address strata.Address) uint64 {
	data, found := s.get(rollKey(address))
	if !found {
		return 0
	}
	var rolls uint64
	if err := rlp.DecodeBytes(data, &rolls); err != nil {
		log.Error("Corrupted roll count", "address", address, "err", err)
		return 0
	}
	return rolls
}

func (s *Store) ProductionStats(cycle uint64) map[strata.Address]state.ProductionStats {
	prefix := makeKey(statsPrefix, cycleBytes(cycle))
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	res := map[strata.Address]state.ProductionStats{}
	for iter.Next() {
		stats, err := decodeStats(iter.Value())
		if err != nil {
			log.Error("Corrupted production stats", "key", iter.Key(), "err", err)
			continue
		}
		res[strata.Address(iter.Key()[len(prefix):])] = stats
	}
	return res
}

func (s *Store) DeferredCredits(from, to strata.Slot) state.DeferredCredits {
	limit := append(makeKey(creditPrefix, encodeSlot(to)), make([]byte, 33)...)
	for i := 10; i < len(limit); i++ {
		limit[i] = 0xFF
	}
	iter := s.db.NewIterator(&util.Range{Start: makeKey(creditPrefix, encodeSlot(from)), Limit: limit}, nil)
	defer iter.Release()
	res := state.DeferredCredits{}
	for iter.Next() {
		key := iter.Key()
		res.Insert(decodeSlot(key[1:10]), strata.Address(key[10:]), strata.Amount(iter.Value()))
	}
	return res
}

func (s *Store) ExecutedOp(id strata.OperationID) (state.ExecutedOp, bool) {
	data, found := s.get(executedOpKey(id))
	if !found {
		return state.ExecutedOp{}, false
	}
	var record executedOpRecord
	if err := rlp.DecodeBytes(data, &record); err != nil {
		log.Error("Corrupted executed operation record", "id", id, "err", err)
		return state.ExecutedOp{}, false
	}
	return state.ExecutedOp{Expiry: record.Expiry, Success: record.Success}, true
}

func (s *Store) IsDenunciationExecuted(index strata.DenunciationIndex) bool {
	_, found := s.get(denunciationKey(index))
	return found
}

// InitGenesis writes initial content at the genesis slot without advancing
// the final slot.
func (s *Store) InitGenesis(changes state.StateChanges) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := new(leveldb.Batch)
	if err := s.writeChanges(batch, s.slot, changes); err != nil {
		return err
	}
	return s.db.Write(batch, nil)
}

// Finalize atomically commits the changes of the slot following the
// current final slot.
func (s *Store) Finalize(slot strata.Slot, changes state.StateChanges) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	expected, err := s.slot.Next(s.threadCount)
	if err != nil {
		return err
	}
	if slot != expected {
		return fmt.Errorf("cannot finalize slot %v, expected %v", slot, expected)
	}

	batch := new(leveldb.Batch)
	if err := s.writeChanges(batch, slot, changes); err != nil {
		return fmt.Errorf("failed to finalize slot %v: %w", slot, err)
	}
	batch.Put(finalSlotKey, encodeSlot(slot))
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to finalize slot %v: %w", slot, err)
	}
	s.slot = slot
	return nil
}

func (s *Store) writeChanges(batch *leveldb.Batch, slot strata.Slot, changes state.StateChanges) error {
	for address, change := range changes.Ledger {
		if err := s.writeLedgerChange(batch, address, change); err != nil {
			return err
		}
	}
	for id, change := range changes.AsyncPool {
		if err := s.writeAsyncPoolChange(batch, id, change); err != nil {
			return err
		}
	}
	if err := s.writePoSChanges(batch, changes.PoS); err != nil {
		return err
	}
	for id, op := range changes.ExecutedOps {
		data, err := rlp.EncodeToBytes(&executedOpRecord{Expiry: op.Expiry, Success: op.Success})
		if err != nil {
			return err
		}
		batch.Put(executedOpKey(id), data)
		batch.Put(opExpiryKey(op.Expiry, id), nil)
	}
	for index := range changes.ExecutedDenunciations {
		batch.Put(denunciationKey(index), nil)
	}
	s.pruneExecutedOps(batch, slot)
	return nil
}

func (s *Store) writeLedgerChange(batch *leveldb.Batch, address strata.Address, change state.LedgerChange) error {
	switch change.Kind {
	case state.Set:
		s.deleteDatastore(batch, address)
		data, err := rlp.EncodeToBytes(&entryRecord{Balance: change.Entry.Balance, Bytecode: change.Entry.Bytecode})
		if err != nil {
			return err
		}
		batch.Put(entryKey(address), data)
		for key, value := range change.Entry.Datastore {
			batch.Put(datastoreKey(address, []byte(key)), value)
		}
	case state.Update:
		record, _ := s.entry(address)
		record.Balance = change.Update.Balance.ApplyTo(record.Balance)
		record.Bytecode = change.Update.Bytecode.ApplyTo(record.Bytecode)
		data, err := rlp.EncodeToBytes(&record)
		if err != nil {
			return err
		}
		batch.Put(entryKey(address), data)
		for key, update := range change.Update.Datastore {
			if update.Delete {
				batch.Delete(datastoreKey(address, []byte(key)))
			} else {
				batch.Put(datastoreKey(address, []byte(key)), update.Value)
			}
		}
	case state.Delete:
		s.deleteDatastore(batch, address)
		batch.Delete(entryKey(address))
	}
	return nil
}

func (s *Store) deleteDatastore(batch *leveldb.Batch, address strata.Address) {
	iter := s.db.NewIterator(util.BytesPrefix(datastoreKey(address, nil)), nil)
	defer iter.Release()
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
}

func (s *Store) writeAsyncPoolChange(batch *leveldb.Batch, id strata.MessageID, change state.AsyncPoolChange) error {
	key := messageKey(id)
	var current *strata.AsyncMessage
	if change.Kind == state.Update {
		data, found := s.get(key)
		if !found {
			return nil
		}
		message, err := decodeMessage(data)
		if err != nil {
			return err
		}
		current = message
	}
	message := change.ApplyTo(current)
	if message == nil {
		batch.Delete(key)
		return nil
	}
	data, err := encodeMessage(message)
	if err != nil {
		return err
	}
	batch.Put(key, data)
	return nil
}

func (s *Store) writePoSChanges(batch *leveldb.Batch, changes state.PoSChanges) error {
	for address, rolls := range changes.Rolls {
		if rolls == 0 {
			batch.Delete(rollKey(address))
			continue
		}
		data, err := rlp.EncodeToBytes(rolls)
		if err != nil {
			return err
		}
		batch.Put(rollKey(address), data)
	}
	for key, stats := range changes.ProductionStats {
		dbKey := statsKey(key.Cycle, key.Address)
		if data, found := s.get(dbKey); found {
			current, err := decodeStats(data)
			if err != nil {
				return err
			}
			stats = current.Add(stats)
		}
		data, err := encodeStats(stats)
		if err != nil {
			return err
		}
		batch.Put(dbKey, data)
	}
	for slot, credits := range changes.DeferredCredits {
		for address, amount := range credits {
			if amount.IsZero() {
				batch.Delete(creditKey(slot, address))
			} else {
				batch.Put(creditKey(slot, address), amount[:])
			}
		}
	}
	return nil
}

// pruneExecutedOps drops records of operations that expired before slot,
// since they can no longer be included again.
func (s *Store) pruneExecutedOps(batch *leveldb.Batch, slot strata.Slot) {
	iter := s.db.NewIterator(&util.Range{
		Start: []byte{opExpiryPrefix},
		Limit: makeKey(opExpiryPrefix, encodeSlot(slot)),
	}, nil)
	defer iter.Release()
	for iter.Next() {
		key := append([]byte(nil), iter.Key()...)
		batch.Delete(key)
		batch.Delete(makeKey(executedOpPrefix, key[10:]))
	}
}
