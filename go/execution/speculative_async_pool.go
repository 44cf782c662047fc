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
	"github.com/panoptisDev/strata/go/history"
	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// speculativeAsyncPool is the pool of asynchronous messages as seen by the
// executed slot. The pool is bounded, so it is materialized from the final
// state and the active history when the overlay is created.
type speculativeAsyncPool struct {
	pool    map[strata.MessageID]*strata.AsyncMessage
	added   state.AsyncPoolChanges
	emitted []*strata.AsyncMessage // messages emitted in this slot, added to the pool when settling

	maxLength int
}

type asyncPoolSnapshot struct {
	added   state.AsyncPoolChanges
	emitted int
}

func newSpeculativeAsyncPool(config *Config, final state.FinalState, history *history.ActiveHistory) *speculativeAsyncPool {
	pool := map[strata.MessageID]*strata.AsyncMessage{}
	for _, message := range final.AsyncMessages() {
		pool[message.ID()] = message
	}
	history.ApplyToAsyncPool(pool)
	return &speculativeAsyncPool{
		pool:      pool,
		added:     state.AsyncPoolChanges{},
		maxLength: config.MaxAsyncPoolLength,
	}
}

// sortedIDs returns the identifiers of the pooled messages from the
// highest to the lowest priority.
func (p *speculativeAsyncPool) sortedIDs() []strata.MessageID {
	ids := maps.Keys(p.pool)
	slices.SortFunc(ids, strata.CompareMessageIDs)
	return ids
}

// takeBatch removes and returns the messages to execute in slot, by
// decreasing priority, as long as their gas fits into availableGas.
func (p *speculativeAsyncPool) takeBatch(slot strata.Slot, availableGas strata.Gas) []*strata.AsyncMessage {
	var batch []*strata.AsyncMessage
	for _, id := range p.sortedIDs() {
		message := p.pool[id]
		if !message.IsDue(slot) || message.MaxGas > availableGas {
			continue
		}
		availableGas -= message.MaxGas
		batch = append(batch, message)
		delete(p.pool, id)
		p.added.RemoveMessage(id)
	}
	return batch
}

// push records a message emitted during the slot.
func (p *speculativeAsyncPool) push(message *strata.AsyncMessage) {
	p.emitted = append(p.emitted, message)
}

// settle ends the slot: expired messages are dropped, emitted messages are
// added, the pool is truncated to its maximum length and messages whose
// trigger was hit by the ledger changes of the slot become executable. The
// eliminated messages are returned so that their coins can be refunded.
func (p *speculativeAsyncPool) settle(slot strata.Slot, ledgerChanges state.LedgerChanges) []*strata.AsyncMessage {
	var eliminated []*strata.AsyncMessage
	for _, id := range p.sortedIDs() {
		if message := p.pool[id]; message.IsExpired(slot) {
			eliminated = append(eliminated, message)
			delete(p.pool, id)
			p.added.RemoveMessage(id)
		}
	}

	for _, message := range p.emitted {
		if message.IsExpired(slot) {
			eliminated = append(eliminated, message)
			continue
		}
		p.pool[message.ID()] = message
		p.added.PushMessage(message)
	}
	p.emitted = nil

	if excess := len(p.pool) - p.maxLength; excess > 0 {
		ids := p.sortedIDs()
		for _, id := range ids[len(ids)-excess:] {
			eliminated = append(eliminated, p.pool[id])
			delete(p.pool, id)
			p.added.RemoveMessage(id)
		}
	}

	for _, id := range p.sortedIDs() {
		message := p.pool[id]
		if message.IsTriggeredBy(ledgerChanges.TouchesDatastoreKey) {
			triggered := *message
			triggered.CanBeExecuted = true
			p.pool[id] = &triggered
			p.added.MarkExecutable(id)
		}
	}
	return eliminated
}

func (p *speculativeAsyncPool) snapshot() asyncPoolSnapshot {
	return asyncPoolSnapshot{added: p.added.Clone(), emitted: len(p.emitted)}
}

func (p *speculativeAsyncPool) reset(snapshot asyncPoolSnapshot) {
	p.added = snapshot.added
	p.emitted = p.emitted[:snapshot.emitted]
}

func (p *speculativeAsyncPool) take() state.AsyncPoolChanges {
	res := p.added
	p.added = state.AsyncPoolChanges{}
	return res
}
