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
	"fmt"
	"math"

	"github.com/panoptisDev/strata/go/history"
	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
)

// QueryItem is a single read of a query batch. Items carrying a Final flag
// read the final state only when it is set, and the final state with the
// whole active history on top of it otherwise.
type QueryItem interface {
	isQueryItem()
}

type BalanceQuery struct {
	Address strata.Address
	Final   bool
}

type BytecodeQuery struct {
	Address strata.Address
	Final   bool
}

// DatastoreKeysQuery lists the datastore keys of an address starting with
// Prefix, in ascending order.
type DatastoreKeysQuery struct {
	Address strata.Address
	Prefix  []byte
	Final   bool
}

type DatastoreValueQuery struct {
	Address strata.Address
	Key     []byte
	Final   bool
}

type AddressExistsQuery struct {
	Address strata.Address
	Final   bool
}

type RollCountQuery struct {
	Address strata.Address
	Final   bool
}

// DeferredCreditsQuery lists the coins credited to an address in future
// slots, as a map from slot to amount.
type DeferredCreditsQuery struct {
	Address strata.Address
	Final   bool
}

// OpStatusQuery reports whether an operation got executed. With Final set,
// an operation executed in candidate slots only yields ErrPending.
type OpStatusQuery struct {
	ID    strata.OperationID
	Final bool
}

type DenunciationStatusQuery struct {
	Index strata.DenunciationIndex
	Final bool
}

// CycleInfoQuery reports production statistics and roll counts of the
// given addresses for a cycle.
type CycleInfoQuery struct {
	Cycle     uint64
	Addresses []strata.Address
	Final     bool
}

// EventsQuery returns the events of final slots still kept in memory and
// of candidate slots in the history that match the filter.
type EventsQuery struct {
	Filter strata.EventFilter
}

// CursorsQuery reports the slots of the newest final and candidate state.
type CursorsQuery struct{}

func (BalanceQuery) isQueryItem()            {}
func (BytecodeQuery) isQueryItem()           {}
func (DatastoreKeysQuery) isQueryItem()      {}
func (DatastoreValueQuery) isQueryItem()     {}
func (AddressExistsQuery) isQueryItem()      {}
func (RollCountQuery) isQueryItem()          {}
func (DeferredCreditsQuery) isQueryItem()    {}
func (OpStatusQuery) isQueryItem()           {}
func (DenunciationStatusQuery) isQueryItem() {}
func (CycleInfoQuery) isQueryItem()          {}
func (EventsQuery) isQueryItem()             {}
func (CursorsQuery) isQueryItem()            {}

// QueryResponse is the answer to a single query item. Failing items do not
// affect the other items of the batch.
type QueryResponse struct {
	Value any
	Err   error
}

// OpStatus is the value answering an OpStatusQuery.
type OpStatus struct {
	Final   bool // executed in a final slot
	Success bool
}

// CycleInfo is the value answering a CycleInfoQuery.
type CycleInfo struct {
	Cycle           uint64
	ProductionStats map[strata.Address]state.ProductionStats
	Rolls           map[strata.Address]uint64
}

// Cursors is the value answering a CursorsQuery.
type Cursors struct {
	Final     strata.Slot
	Candidate strata.Slot
}

// query answers a batch of items against a single state.
func (s *executionState) query(items []QueryItem) []QueryResponse {
	res := make([]QueryResponse, len(items))
	for i, item := range items {
		value, err := s.queryItem(item)
		res[i] = QueryResponse{Value: value, Err: err}
	}
	return res
}

func (s *executionState) view(final bool) *history.ActiveHistory {
	if final {
		return s.history.Empty()
	}
	return s.history
}

func (s *executionState) queryItem(item QueryItem) (any, error) {
	switch item := item.(type) {
	case BalanceQuery:
		balance, found := newSpeculativeLedger(s.config, s.final, s.view(item.Final)).Balance(item.Address)
		return lookupResult(balance, found, item.Address)

	case BytecodeQuery:
		bytecode, found := newSpeculativeLedger(s.config, s.final, s.view(item.Final)).Bytecode(item.Address)
		return lookupResult(bytecode, found, item.Address)

	case DatastoreKeysQuery:
		ledger := newSpeculativeLedger(s.config, s.final, s.view(item.Final))
		if !ledger.EntryExists(item.Address) {
			return nil, fmt.Errorf("address %v: %w", item.Address, strata.ErrNotFound)
		}
		return ledger.DatastoreKeys(item.Address, item.Prefix), nil

	case DatastoreValueQuery:
		value, found := newSpeculativeLedger(s.config, s.final, s.view(item.Final)).DatastoreValue(item.Address, item.Key)
		return lookupResult(value, found, item.Address)

	case AddressExistsQuery:
		return newSpeculativeLedger(s.config, s.final, s.view(item.Final)).EntryExists(item.Address), nil

	case RollCountQuery:
		return newSpeculativeRollState(s.final, s.view(item.Final)).RollCount(item.Address), nil

	case DeferredCreditsQuery:
		view := s.view(item.Final)
		from, err := view.LastSlot().Next(s.config.ThreadCount)
		if err != nil {
			return nil, err
		}
		to := strata.Slot{Period: math.MaxUint64, Thread: s.config.ThreadCount - 1}
		res := map[strata.Slot]strata.Amount{}
		for slot, credits := range newSpeculativeRollState(s.final, view).DeferredCredits(from, to) {
			if amount, found := credits[item.Address]; found && !amount.IsZero() {
				res[slot] = amount
			}
		}
		return res, nil

	case OpStatusQuery:
		if op, found := s.final.ExecutedOp(item.ID); found {
			return OpStatus{Final: true, Success: op.Success}, nil
		}
		op, found := s.history.ExecutedOp(item.ID)
		switch {
		case !found:
			return nil, fmt.Errorf("operation %v: %w", item.ID, strata.ErrNotFound)
		case item.Final:
			return nil, fmt.Errorf("operation %v: %w", item.ID, strata.ErrPending)
		}
		return OpStatus{Success: op.Success}, nil

	case DenunciationStatusQuery:
		if s.final.IsDenunciationExecuted(item.Index) {
			return true, nil
		}
		if !s.history.IsDenunciationExecuted(item.Index) {
			return false, nil
		}
		if item.Final {
			return nil, fmt.Errorf("denunciation %+v: %w", item.Index, strata.ErrPending)
		}
		return true, nil

	case CycleInfoQuery:
		rolls := newSpeculativeRollState(s.final, s.view(item.Final))
		stats := rolls.ProductionStats(item.Cycle)
		info := CycleInfo{
			Cycle:           item.Cycle,
			ProductionStats: map[strata.Address]state.ProductionStats{},
			Rolls:           map[strata.Address]uint64{},
		}
		for _, address := range item.Addresses {
			info.ProductionStats[address] = stats[address]
			info.Rolls[address] = rolls.RollCount(address)
		}
		return info, nil

	case EventsQuery:
		events := s.events.Events(&item.Filter)
		if item.Filter.IsFinal == nil || !*item.Filter.IsFinal {
			events = append(events, s.history.Events(&item.Filter)...)
		}
		return events, nil

	case CursorsQuery:
		return Cursors{Final: s.history.Base(), Candidate: s.history.LastSlot()}, nil
	}
	return nil, fmt.Errorf("unsupported query %T", item)
}

func lookupResult[T any](value T, found bool, address strata.Address) (any, error) {
	if !found {
		return nil, fmt.Errorf("address %v: %w", address, strata.ErrNotFound)
	}
	return value, nil
}
