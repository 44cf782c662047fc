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
	"github.com/panoptisDev/strata/go/strata"
	"golang.org/x/exp/slices"
)

// eventStore keeps the most recent events of final slots. Once full, the
// oldest events are dropped.
type eventStore struct {
	events   []strata.Event
	capacity int
}

func newEventStore(capacity int) *eventStore {
	return &eventStore{capacity: capacity}
}

func (s *eventStore) push(events []strata.Event) {
	s.events = append(s.events, events...)
	if excess := len(s.events) - s.capacity; excess > 0 {
		s.events = slices.Clone(s.events[excess:])
	}
}

func (s *eventStore) Len() int {
	return len(s.events)
}

// Events returns the stored events matching the filter, oldest first.
func (s *eventStore) Events(filter *strata.EventFilter) []strata.Event {
	res := []strata.Event{}
	for i := range s.events {
		if filter.Matches(&s.events[i]) {
			res = append(res, s.events[i])
		}
	}
	return res
}
