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
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
)

// Key prefixes of the records kept in the database.
const (
	metaPrefix         = 's'
	entryPrefix        = 'e'
	datastorePrefix    = 'k'
	messagePrefix      = 'm'
	rollPrefix         = 'r'
	statsPrefix        = 'p'
	creditPrefix       = 'c'
	executedOpPrefix   = 'o'
	opExpiryPrefix     = 'x'
	denunciationPrefix = 'd'
)

var finalSlotKey = []byte{metaPrefix, 's'}

// entryRecord holds the scalar fields of a ledger entry. Datastore values
// are kept in separate records so their keys can be iterated.
type entryRecord struct {
	Balance  strata.Amount
	Bytecode []byte
}

type messageRecord struct {
	EmissionSlot  strata.Slot
	EmissionIndex uint64
	Sender        strata.Address
	Destination   strata.Address
	Function      string
	MaxGas        uint64
	Fee           strata.Amount
	Coins         strata.Amount
	ValidityStart strata.Slot
	ValidityEnd   strata.Slot
	Data          []byte
	Trigger       *strata.MessageTrigger `rlp:"nil"`
	CanBeExecuted bool
}

type executedOpRecord struct {
	Expiry  strata.Slot
	Success bool
}

func encodeSlot(slot strata.Slot) []byte {
	res := make([]byte, 9)
	binary.BigEndian.PutUint64(res, slot.Period)
	res[8] = slot.Thread
	return res
}

func decodeSlot(data []byte) strata.Slot {
	return strata.Slot{Period: binary.BigEndian.Uint64(data[:8]), Thread: data[8]}
}

func makeKey(prefix byte, parts ...[]byte) []byte {
	size := 1
	for _, part := range parts {
		size += len(part)
	}
	res := make([]byte, 0, size)
	res = append(res, prefix)
	for _, part := range parts {
		res = append(res, part...)
	}
	return res
}

func entryKey(address strata.Address) []byte {
	return makeKey(entryPrefix, address[:])
}

func datastoreKey(address strata.Address, key []byte) []byte {
	return makeKey(datastorePrefix, address[:], key)
}

func messageKey(id strata.MessageID) []byte {
	var suffix [16]byte
	binary.BigEndian.PutUint64(suffix[:8], uint64(id.MaxGas))
	binary.BigEndian.PutUint64(suffix[8:], id.EmissionIndex)
	return makeKey(messagePrefix, id.Fee[:], encodeSlot(id.EmissionSlot), suffix[:])
}

func rollKey(address strata.Address) []byte {
	return makeKey(rollPrefix, address[:])
}

func cycleBytes(cycle uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, cycle)
}

func statsKey(cycle uint64, address strata.Address) []byte {
	return makeKey(statsPrefix, cycleBytes(cycle), address[:])
}

func creditKey(slot strata.Slot, address strata.Address) []byte {
	return makeKey(creditPrefix, encodeSlot(slot), address[:])
}

func executedOpKey(id strata.OperationID) []byte {
	return makeKey(executedOpPrefix, id[:])
}

func opExpiryKey(expiry strata.Slot, id strata.OperationID) []byte {
	return makeKey(opExpiryPrefix, encodeSlot(expiry), id[:])
}

func denunciationKey(index strata.DenunciationIndex) []byte {
	return makeKey(denunciationPrefix, []byte{byte(index.Kind)}, encodeSlot(index.Slot), binary.BigEndian.AppendUint32(nil, index.Index))
}

func encodeMessage(message *strata.AsyncMessage) ([]byte, error) {
	return rlp.EncodeToBytes(&messageRecord{
		EmissionSlot:  message.EmissionSlot,
		EmissionIndex: message.EmissionIndex,
		Sender:        message.Sender,
		Destination:   message.Destination,
		Function:      message.Function,
		MaxGas:        uint64(message.MaxGas),
		Fee:           message.Fee,
		Coins:         message.Coins,
		ValidityStart: message.ValidityStart,
		ValidityEnd:   message.ValidityEnd,
		Data:          message.Data,
		Trigger:       message.Trigger,
		CanBeExecuted: message.CanBeExecuted,
	})
}

func decodeMessage(data []byte) (*strata.AsyncMessage, error) {
	var record messageRecord
	if err := rlp.DecodeBytes(data, &record); err != nil {
		return nil, err
	}
	return &strata.AsyncMessage{
		EmissionSlot:  record.EmissionSlot,
		EmissionIndex: record.EmissionIndex,
		Sender:        record.Sender,
		Destination:   record.Destination,
		Function:      record.Function,
		MaxGas:        strata.Gas(record.MaxGas),
		Fee:           record.Fee,
		Coins:         record.Coins,
		ValidityStart: record.ValidityStart,
		ValidityEnd:   record.ValidityEnd,
		Data:          record.Data,
		Trigger:       record.Trigger,
		CanBeExecuted: record.CanBeExecuted,
	}, nil
}

func encodeStats(stats state.ProductionStats) ([]byte, error) {
	return rlp.EncodeToBytes(&stats)
}

func decodeStats(data []byte) (state.ProductionStats, error) {
	var stats state.ProductionStats
	err := rlp.DecodeBytes(data, &stats)
	return stats, err
}
