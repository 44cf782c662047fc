// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"github.com/panoptisDev/strata/go/strata"
	"golang.org/x/exp/slices"
)

// MessageUpdate lists the mutable fields of a pooled message.
type MessageUpdate struct {
	CanBeExecuted SetOrKeep[bool]
}

// AsyncPoolChange is the change of a single pooled message. An Update of a
// message that does not exist has no effect.
type AsyncPoolChange struct {
	Kind    ChangeKind
	Message *strata.AsyncMessage // for Set
	Update  MessageUpdate        // for Update
}

// ApplyTo returns the message resulting from the change, nil if the
// message does not exist afterwards. The given message is not modified.
func (c AsyncPoolChange) ApplyTo(message *strata.AsyncMessage) *strata.AsyncMessage {
	switch c.Kind {
	case Set:
		return cloneMessage(c.Message)
	case Update:
		if message == nil {
			return nil
		}
		res := cloneMessage(message)
		res.CanBeExecuted = c.Update.CanBeExecuted.ApplyTo(res.CanBeExecuted)
		return res
	}
	return nil
}

func cloneMessage(message *strata.AsyncMessage) *strata.AsyncMessage {
	res := *message
	res.Data = slices.Clone(message.Data)
	if message.Trigger != nil {
		trigger := *message.Trigger
		trigger.DatastoreKey = slices.Clone(trigger.DatastoreKey)
		res.Trigger = &trigger
	}
	return &res
}

// AsyncPoolChanges maps message identifiers to their changes.
type AsyncPoolChanges map[strata.MessageID]AsyncPoolChange

func (c AsyncPoolChanges) Clone() AsyncPoolChanges {
	res := make(AsyncPoolChanges, len(c))
	for id, change := range c {
		if change.Kind == Set {
			change.Message = cloneMessage(change.Message)
		}
		res[id] = change
	}
	return res
}

// Apply composes the later changes onto c.
func (c AsyncPoolChanges) Apply(later AsyncPoolChanges) {
	for id, change := range later {
		if change.Kind == Set {
			change.Message = cloneMessage(change.Message)
		}
		c.applyChange(id, change)
	}
}

func (c AsyncPoolChanges) applyChange(id strata.MessageID, change AsyncPoolChange) {
	current, found := c[id]
	if !found || change.Kind != Update {
		c[id] = change
		return
	}
	switch current.Kind {
	case Set:
		current.Message.CanBeExecuted = change.Update.CanBeExecuted.ApplyTo(current.Message.CanBeExecuted)
	case Update:
		current.Update.CanBeExecuted.Apply(change.Update.CanBeExecuted)
		c[id] = current
	}
}

// Message looks up a pooled message in the changes. Updates of messages
// not set in the same diff carry no full message and report NoInfo.
func (c AsyncPoolChanges) Message(id strata.MessageID) Lookup[*strata.AsyncMessage] {
	change, found := c[id]
	if !found || change.Kind == Update {
		return noInfo[*strata.AsyncMessage]()
	}
	if change.Kind == Delete {
		return absent[*strata.AsyncMessage]()
	}
	return present(change.Message)
}

// PushMessage records the addition of a new message.
func (c AsyncPoolChanges) PushMessage(message *strata.AsyncMessage) {
	c[message.ID()] = AsyncPoolChange{Kind: Set, Message: message}
}

// RemoveMessage records the removal of a message.
func (c AsyncPoolChanges) RemoveMessage(id strata.MessageID) {
	c[id] = AsyncPoolChange{Kind: Delete}
}

// MarkExecutable records that a message was unlocked by its trigger.
func (c AsyncPoolChanges) MarkExecutable(id strata.MessageID) {
	c.applyChange(id, AsyncPoolChange{Kind: Update, Update: MessageUpdate{CanBeExecuted: SetTo(true)}})
}
