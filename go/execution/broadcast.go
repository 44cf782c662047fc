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

	"github.com/panoptisDev/strata/go/state"
)

// Broadcaster delivers execution outputs to subscribers without ever
// blocking the publisher. A subscriber not keeping up loses its oldest
// undelivered outputs.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers []*Subscription
	closed      bool
}

// Subscription receives the outputs published after it was created.
type Subscription struct {
	outputs     chan *state.ExecutionOutput
	broadcaster *Broadcaster
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers a subscriber buffering up to capacity outputs. The
// subscription of a closed broadcaster is closed right away.
func (b *Broadcaster) Subscribe(capacity int) *Subscription {
	res := &Subscription{
		outputs:     make(chan *state.ExecutionOutput, max(capacity, 1)),
		broadcaster: b,
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(res.outputs)
		return res
	}
	b.subscribers = append(b.subscribers, res)
	return res
}

// Publish sends an output to all subscribers.
func (b *Broadcaster) Publish(output *state.ExecutionOutput) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, subscription := range b.subscribers {
		for {
			select {
			case subscription.outputs <- output:
			default:
				select {
				case <-subscription.outputs:
					droppedBroadcasts.Inc(1)
				default:
				}
				continue
			}
			break
		}
	}
}

// Close ends all subscriptions.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, subscription := range b.subscribers {
		close(subscription.outputs)
	}
	b.subscribers = nil
}

// Outputs returns the channel delivering the outputs. It is closed once
// the subscription ends.
func (s *Subscription) Outputs() <-chan *state.ExecutionOutput {
	return s.outputs
}

// Unsubscribe ends the subscription.
func (s *Subscription) Unsubscribe() {
	b := s.broadcaster
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, subscription := range b.subscribers {
		if subscription == s {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(s.outputs)
			return
		}
	}
}
