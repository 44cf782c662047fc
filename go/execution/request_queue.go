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

	"github.com/panoptisDev/strata/go/strata"
)

// RequestQueue is a bounded FIFO queue of requests waiting for the worker.
// Pushing never blocks: a full queue rejects requests with ErrBusy and a
// closed one with ErrStopped. It is safe for concurrent use.
type RequestQueue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	closed   bool
}

func NewRequestQueue[T any](capacity int) *RequestQueue[T] {
	return &RequestQueue[T]{capacity: capacity}
}

func (q *RequestQueue[T]) Push(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return strata.ErrStopped
	}
	if len(q.items) >= q.capacity {
		return strata.ErrBusy
	}
	q.items = append(q.items, item)
	return nil
}

// Pop removes the oldest request, false if the queue is empty.
func (q *RequestQueue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var res T
	if len(q.items) == 0 {
		return res, false
	}
	res = q.items[0]
	q.items[0] = *new(T)
	q.items = q.items[1:]
	return res, true
}

func (q *RequestQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close rejects all future requests and returns the pending ones.
func (q *RequestQueue[T]) Close() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	res := q.items
	q.items = nil
	return res
}
