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
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
)

// blockcliqueUpdate is the accumulated input of consensus not yet seen by
// the worker. Finalized blocks and block contents accumulate, the newest
// blockclique replaces older ones.
type blockcliqueUpdate struct {
	finalized   map[strata.Slot]strata.BlockID
	blockclique map[strata.Slot]strata.BlockID
	blocks      map[strata.BlockID]*strata.Block
}

func (u *blockcliqueUpdate) merge(
	finalized map[strata.Slot]strata.BlockID,
	blockclique map[strata.Slot]strata.BlockID,
	blocks map[strata.BlockID]*strata.Block,
) {
	if u.finalized == nil {
		u.finalized = map[strata.Slot]strata.BlockID{}
		u.blocks = map[strata.BlockID]*strata.Block{}
	}
	for slot, id := range finalized {
		u.finalized[slot] = id
	}
	for id, block := range blocks {
		u.blocks[id] = block
	}
	if blockclique != nil {
		u.blockclique = blockclique
	}
}

type readOnlyReply struct {
	response ReadOnlyResponse
	err      error
}

type readOnlyTask struct {
	request ReadOnlyRequest
	reply   chan readOnlyReply
}

type queryTask struct {
	items []QueryItem
	reply chan []QueryResponse
}

// worker is the single goroutine executing slots. It owns the execution
// state and the sequencer; other goroutines only reach it through the
// pending update and the request queues.
type worker struct {
	state     *executionState
	sequencer *sequencer

	mu      sync.Mutex
	pending *blockcliqueUpdate

	readOnly  *RequestQueue[*readOnlyTask]
	queries   *RequestQueue[*queryTask]
	broadcast *Broadcaster

	wakeup chan struct{}
	stop   chan struct{}
}

func newWorker(config *Config, s *executionState) *worker {
	return &worker{
		state:     s,
		sequencer: newSequencer(config, s.history),
		readOnly:  NewRequestQueue[*readOnlyTask](config.ReadOnlyQueueLength),
		queries:   NewRequestQueue[*queryTask](config.ReadOnlyQueueLength),
		broadcast: NewBroadcaster(),
		wakeup:    make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}
}

// wake makes the worker look for new input.
func (w *worker) wake() {
	select {
	case w.wakeup <- struct{}{}:
	default:
	}
}

func (w *worker) takePending() *blockcliqueUpdate {
	w.mu.Lock()
	defer w.mu.Unlock()
	res := w.pending
	w.pending = nil
	return res
}

func (w *worker) stopped() bool {
	select {
	case <-w.stop:
		return true
	default:
		return false
	}
}

// run executes slots until stopped or until a fatal error occurs.
func (w *worker) run() error {
	log.Info("Execution worker started", "final", w.state.history.Base())
	for !w.stopped() {
		if update := w.takePending(); update != nil {
			if err := w.sequencer.update(update.finalized, update.blockclique, update.blocks); err != nil {
				return err
			}
		}
		w.serveRequests()

		executed, err := w.executeNext()
		if err != nil {
			return err
		}
		if !executed {
			select {
			case <-w.wakeup:
			case <-w.stop:
			}
		}
	}
	return nil
}

// executeNext executes the next slot decided by the sequencer and
// publishes its output. It returns false if there is nothing to execute.
func (w *worker) executeNext() (bool, error) {
	next := w.sequencer.next()
	if next.kind == waitTask {
		return false, nil
	}
	output, err := w.execute(next)
	if err != nil {
		return false, err
	}
	w.broadcast.Publish(output)
	return true, nil
}

func (w *worker) execute(next task) (*state.ExecutionOutput, error) {
	var (
		output *state.ExecutionOutput
		err    error
	)
	switch next.kind {
	case executeCandidateTask:
		return w.state.executeCandidate(next.slot, next.block)
	case executeFinalTask:
		output, err = w.state.executeFinal(next.slot, next.block)
	case promoteFinalTask:
		output, err = w.state.promoteFinal()
	default:
		return nil, fmt.Errorf("unknown task kind %d", next.kind)
	}
	if err != nil {
		return nil, err
	}
	w.sequencer.committedSlot(output.Slot, output.BlockID())
	return output, nil
}

// serveRequests answers the read-only requests and queries queued so far.
func (w *worker) serveRequests() {
	for {
		task, found := w.readOnly.Pop()
		if !found {
			break
		}
		response, err := w.state.executeReadOnly(task.request)
		task.reply <- readOnlyReply{response: response, err: err}
	}
	for {
		task, found := w.queries.Pop()
		if !found {
			break
		}
		task.reply <- w.state.query(task.items)
	}
}

// shutdown rejects all pending requests and ends all subscriptions.
func (w *worker) shutdown() {
	for _, task := range w.readOnly.Close() {
		task.reply <- readOnlyReply{err: strata.ErrStopped}
	}
	for _, task := range w.queries.Close() {
		task.reply <- nil
	}
	w.broadcast.Close()
}
