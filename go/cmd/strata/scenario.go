// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/panoptisDev/strata/go/execution"
	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
)

// scenario is a scripted run of the execution worker. Identifiers and
// addresses are hex strings of at most 32 bytes, left padded with zeros.
// Amounts are decimal strings.
type scenario struct {
	Genesis  genesisJSON `json:"genesis"`
	Blocks   []blockJSON `json:"blocks"`
	Steps    []stepJSON  `json:"steps"`
	Selected []slotJSON  `json:"selected,omitempty"` // producers of missed slots, see selector
}

type slotJSON struct {
	Period   uint64        `json:"period"`
	Thread   uint8         `json:"thread"`
	Producer hexutil.Bytes `json:"producer,omitempty"`
}

func (s slotJSON) slot() strata.Slot {
	return strata.NewSlot(s.Period, s.Thread)
}

type genesisJSON struct {
	Slot     slotJSON      `json:"slot"`
	Accounts []accountJSON `json:"accounts"`
}

type accountJSON struct {
	Address  hexutil.Bytes `json:"address"`
	Balance  string        `json:"balance"`
	Bytecode hexutil.Bytes `json:"bytecode,omitempty"`
	Rolls    uint64        `json:"rolls,omitempty"`
}

type blockJSON struct {
	ID            hexutil.Bytes      `json:"id"`
	Slot          slotJSON           `json:"slot"`
	Creator       hexutil.Bytes      `json:"creator"`
	Operations    []operationJSON    `json:"operations,omitempty"`
	Denunciations []denunciationJSON `json:"denunciations,omitempty"`
}

// operationJSON describes an operation. Exactly one payload field is set.
type operationJSON struct {
	ID           hexutil.Bytes `json:"id"`
	Sender       hexutil.Bytes `json:"sender"`
	Fee          string        `json:"fee,omitempty"`
	ExpirePeriod uint64        `json:"expirePeriod"`

	Transaction *struct {
		Recipient hexutil.Bytes `json:"recipient"`
		Amount    string        `json:"amount"`
	} `json:"transaction,omitempty"`
	RollBuy *struct {
		Rolls uint64 `json:"rolls"`
	} `json:"rollBuy,omitempty"`
	RollSell *struct {
		Rolls uint64 `json:"rolls"`
	} `json:"rollSell,omitempty"`
	ExecuteSC *struct {
		Bytecode hexutil.Bytes  `json:"bytecode"`
		Gas      hexutil.Uint64 `json:"gas"`
		MaxCoins string         `json:"maxCoins,omitempty"`
	} `json:"executeSC,omitempty"`
	CallSC *struct {
		Target   hexutil.Bytes  `json:"target"`
		Function string         `json:"function"`
		Param    hexutil.Bytes  `json:"param,omitempty"`
		Gas      hexutil.Uint64 `json:"gas"`
		Coins    string         `json:"coins,omitempty"`
	} `json:"callSC,omitempty"`
}

type denunciationJSON struct {
	Kind     uint8         `json:"kind"`
	Slot     slotJSON      `json:"slot"`
	Index    uint32        `json:"index"`
	Producer hexutil.Bytes `json:"producer"`
}

// stepJSON is one step of a scenario. An update step forwards finalized
// blocks and the blockclique, given as block IDs, to the worker. Await
// blocks until the given slot has been executed. A read-only step executes
// a call and prints the response.
type stepJSON struct {
	Finalized   []hexutil.Bytes `json:"finalized,omitempty"`
	Blockclique []hexutil.Bytes `json:"blockclique,omitempty"`
	Await       *slotJSON       `json:"await,omitempty"`
	ReadOnly    *readOnlyJSON   `json:"readOnly,omitempty"`
	Balances    []hexutil.Bytes `json:"balances,omitempty"`
	Final       bool            `json:"final,omitempty"`
}

type readOnlyJSON struct {
	CallStack []hexutil.Bytes `json:"callStack"`
	Bytecode  hexutil.Bytes   `json:"bytecode,omitempty"`
	Target    hexutil.Bytes   `json:"target,omitempty"`
	Function  string          `json:"function,omitempty"`
	Param     hexutil.Bytes   `json:"param,omitempty"`
	Coins     string          `json:"coins,omitempty"`
	MaxGas    hexutil.Uint64  `json:"maxGas"`
	Final     bool            `json:"final,omitempty"`
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	res := &scenario{}
	if err := json.Unmarshal(data, res); err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}
	return res, nil
}

func toHash(data hexutil.Bytes) (strata.Hash, error) {
	var res strata.Hash
	if len(data) > len(res) {
		return res, fmt.Errorf("value 0x%x exceeds %d bytes", []byte(data), len(res))
	}
	copy(res[len(res)-len(data):], data)
	return res, nil
}

func toAddress(data hexutil.Bytes) (strata.Address, error) {
	hash, err := toHash(data)
	return strata.Address(hash), err
}

func toAddresses(list []hexutil.Bytes) ([]strata.Address, error) {
	res := make([]strata.Address, 0, len(list))
	for _, data := range list {
		address, err := toAddress(data)
		if err != nil {
			return nil, err
		}
		res = append(res, address)
	}
	return res, nil
}

func toAmount(value string) (strata.Amount, error) {
	if value == "" {
		return strata.Amount{}, nil
	}
	parsed, err := uint256.FromDecimal(value)
	if err != nil {
		return strata.Amount{}, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return strata.AmountFromUint256(parsed), nil
}

// genesisChanges returns the content written to a fresh final state.
func (s *scenario) genesisChanges() (state.StateChanges, error) {
	changes := state.NewStateChanges()
	for _, account := range s.Genesis.Accounts {
		address, err := toAddress(account.Address)
		if err != nil {
			return changes, err
		}
		balance, err := toAmount(account.Balance)
		if err != nil {
			return changes, err
		}
		changes.Ledger.CreateEntry(address, &state.LedgerEntry{
			Balance:   balance,
			Bytecode:  strata.Data(account.Bytecode),
			Datastore: map[string][]byte{},
		})
		if account.Rolls > 0 {
			changes.PoS.Rolls[address] = account.Rolls
		}
	}
	return changes, nil
}

// blocks decodes all blocks of the scenario indexed by their ID.
func (s *scenario) blocks() (map[strata.BlockID]*strata.Block, error) {
	res := make(map[strata.BlockID]*strata.Block, len(s.Blocks))
	for _, b := range s.Blocks {
		block, err := b.decode()
		if err != nil {
			return nil, fmt.Errorf("block 0x%x: %w", []byte(b.ID), err)
		}
		if _, found := res[block.ID]; found {
			return nil, fmt.Errorf("duplicate block %v", block.ID)
		}
		res[block.ID] = block
	}
	return res, nil
}

func (b blockJSON) decode() (*strata.Block, error) {
	id, err := toHash(b.ID)
	if err != nil {
		return nil, err
	}
	creator, err := toAddress(b.Creator)
	if err != nil {
		return nil, err
	}
	block := &strata.Block{ID: strata.BlockID(id), Slot: b.Slot.slot(), Creator: creator}
	for i, op := range b.Operations {
		operation, err := op.decode()
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		block.Operations = append(block.Operations, operation)
	}
	for _, d := range b.Denunciations {
		producer, err := toAddress(d.Producer)
		if err != nil {
			return nil, err
		}
		block.Denunciations = append(block.Denunciations, strata.Denunciation{
			Index: strata.DenunciationIndex{
				Kind:  strata.DenunciationKind(d.Kind),
				Slot:  d.Slot.slot(),
				Index: d.Index,
			},
			Producer: producer,
		})
	}
	return block, nil
}

func (o operationJSON) decode() (strata.Operation, error) {
	id, err := toHash(o.ID)
	if err != nil {
		return strata.Operation{}, err
	}
	sender, err := toAddress(o.Sender)
	if err != nil {
		return strata.Operation{}, err
	}
	fee, err := toAmount(o.Fee)
	if err != nil {
		return strata.Operation{}, err
	}
	payload, err := o.payload()
	if err != nil {
		return strata.Operation{}, err
	}
	return strata.Operation{
		ID:           strata.OperationID(id),
		Sender:       sender,
		Fee:          fee,
		ExpirePeriod: o.ExpirePeriod,
		Payload:      payload,
	}, nil
}

func (o operationJSON) payload() (strata.OperationPayload, error) {
	switch {
	case o.Transaction != nil:
		recipient, err := toAddress(o.Transaction.Recipient)
		if err != nil {
			return nil, err
		}
		amount, err := toAmount(o.Transaction.Amount)
		if err != nil {
			return nil, err
		}
		return strata.Transaction{Recipient: recipient, Amount: amount}, nil
	case o.RollBuy != nil:
		return strata.RollBuy{Rolls: o.RollBuy.Rolls}, nil
	case o.RollSell != nil:
		return strata.RollSell{Rolls: o.RollSell.Rolls}, nil
	case o.ExecuteSC != nil:
		maxCoins, err := toAmount(o.ExecuteSC.MaxCoins)
		if err != nil {
			return nil, err
		}
		return strata.ExecuteSC{
			Bytecode: strata.Data(o.ExecuteSC.Bytecode),
			Gas:      strata.Gas(o.ExecuteSC.Gas),
			MaxCoins: maxCoins,
		}, nil
	case o.CallSC != nil:
		target, err := toAddress(o.CallSC.Target)
		if err != nil {
			return nil, err
		}
		coins, err := toAmount(o.CallSC.Coins)
		if err != nil {
			return nil, err
		}
		return strata.CallSC{
			Target:   target,
			Function: o.CallSC.Function,
			Param:    strata.Data(o.CallSC.Param),
			Gas:      strata.Gas(o.CallSC.Gas),
			Coins:    coins,
		}, nil
	}
	return nil, fmt.Errorf("operation without payload")
}

// resolve turns a list of block IDs into a slot-indexed chain.
func resolve(ids []hexutil.Bytes, blocks map[strata.BlockID]*strata.Block) (map[strata.Slot]strata.BlockID, error) {
	res := make(map[strata.Slot]strata.BlockID, len(ids))
	for _, data := range ids {
		hash, err := toHash(data)
		if err != nil {
			return nil, err
		}
		block, found := blocks[strata.BlockID(hash)]
		if !found {
			return nil, fmt.Errorf("unknown block %v", strata.BlockID(hash))
		}
		res[block.Slot] = block.ID
	}
	return res, nil
}

func (r *readOnlyJSON) decode() (execution.ReadOnlyRequest, error) {
	callStack, err := toAddresses(r.CallStack)
	if err != nil {
		return execution.ReadOnlyRequest{}, err
	}
	coins, err := toAmount(r.Coins)
	if err != nil {
		return execution.ReadOnlyRequest{}, err
	}
	request := execution.ReadOnlyRequest{
		CallStack: callStack,
		Bytecode:  strata.Data(r.Bytecode),
		Function:  r.Function,
		Param:     strata.Data(r.Param),
		Coins:     coins,
		MaxGas:    strata.Gas(r.MaxGas),
		Final:     r.Final,
	}
	if len(r.Target) > 0 {
		if request.Target, err = toAddress(r.Target); err != nil {
			return execution.ReadOnlyRequest{}, err
		}
	}
	return request, nil
}

// selector attributes missed slots to the producers listed in the
// scenario. Slots without a listed producer are not accounted.
type selector map[strata.Slot]strata.Address

func newSelector(list []slotJSON) (selector, error) {
	res := make(selector, len(list))
	for _, entry := range list {
		producer, err := toAddress(entry.Producer)
		if err != nil {
			return nil, err
		}
		res[entry.slot()] = producer
	}
	return res, nil
}

func (s selector) Producer(slot strata.Slot) (strata.Address, error) {
	producer, found := s[slot]
	if !found {
		return strata.Address{}, fmt.Errorf("no producer selected for slot %v", slot)
	}
	return producer, nil
}
