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
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/panoptisDev/strata/go/state"
	"github.com/panoptisDev/strata/go/strata"
)

// Controller is the interface of a running execution worker for the rest
// of the node. All methods are safe for concurrent use.
type Controller struct {
	worker *worker
	config *Config
}

// UpdateBlockclique informs the worker about newly finalized blocks and the
// current blockclique. The content of every referenced block must be part
// of this or an earlier update.
func (c *Controller) UpdateBlockclique(
	finalized map[strata.Slot]strata.BlockID,
	blockclique map[strata.Slot]strata.BlockID,
	blocks map[strata.BlockID]*strata.Block,
) {
	w := c.worker
	w.mu.Lock()
	if w.pending == nil {
		w.pending = &blockcliqueUpdate{}
	}
	w.pending.merge(finalized, blockclique, blocks)
	w.mu.Unlock()
	w.wake()
}

// ExecuteReadOnly executes a request between two slots and waits for its
// response. A full request queue rejects the request with ErrBusy.
func (c *Controller) ExecuteReadOnly(request ReadOnlyRequest) (ReadOnlyResponse, error) {
	readOnlyRequests.Inc(1)
	task := &readOnlyTask{request: request, reply: make(chan readOnlyReply, 1)}
	if err := c.worker.readOnly.Push(task); err != nil {
		readOnlyRejected.Inc(1)
		return ReadOnlyResponse{}, err
	}
	c.worker.wake()
	reply := <-task.reply
	return reply.response, reply.err
}

// Query answers a batch of state queries. All items observe the same state.
func (c *Controller) Query(items []QueryItem) ([]QueryResponse, error) {
	task := &queryTask{items: items, reply: make(chan []QueryResponse, 1)}
	if err := c.worker.queries.Push(task); err != nil {
		return nil, err
	}
	c.worker.wake()
	res := <-task.reply
	if res == nil {
		return nil, strata.ErrStopped
	}
	return res, nil
}

// Subscribe registers a subscriber of execution outputs. A capacity of
// zero selects the configured default.
func (c *Controller) Subscribe(capacity int) *Subscription {
	if capacity <= 0 {
		capacity = c.config.BroadcastCapacity
	}
	return c.worker.broadcast.Subscribe(capacity)
}

// Manager controls the lifetime of an execution worker.
type Manager struct {
	controller *Controller
	worker     *worker
	stopOnce   sync.Once
	done       chan struct{}
	err        error
}

// Start launches an execution worker on top of the given final state.
func Start(
	config Config,
	final state.FinalState,
	modules ModuleCache,
	interpreter strata.Interpreter,
	selector strata.Selector,
) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	w := newWorker(&config, newExecutionState(&config, final, modules, interpreter, selector))
	m := &Manager{
		controller: &Controller{worker: w, config: &config},
		worker:     w,
		done:       make(chan struct{}),
	}
	go func() {
		defer close(m.done)
		m.err = w.run()
		if m.err != nil {
			log.Error("Execution worker failed", "err", m.err)
		}
		w.shutdown()
	}()
	return m, nil
}

func (m *Manager) Controller() *Controller {
	return m.controller
}

// Done is closed once the worker has terminated.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Err returns the error the worker failed with, nil while it is running.
func (m *Manager) Err() error {
	select {
	case <-m.done:
		return m.err
	default:
		return nil
	}
}

// Stop lets the worker finish the current slot, rejects all pending
// requests with ErrStopped and returns the error the worker failed with,
// if any.
func (m *Manager) Stop() error {
	m.stopOnce.Do(func() { close(m.worker.stop) })
	<-m.done
	log.Info("Execution worker stopped")
	return m.err
}
