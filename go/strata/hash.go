// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package strata

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// Keccak256 computes the Keccak-256 hash of the concatenated inputs.
func Keccak256(data ...[]byte) Hash {
	hasher := sha3.NewLegacyKeccak256()
	for _, d := range data {
		hasher.Write(d)
	}
	var hash Hash
	hasher.Sum(hash[0:0])
	return hash
}

// DeriveAddress computes the address of the index-th smart contract created
// during the execution of the given slot. Read-only executions use a
// distinct domain so their addresses never collide with real ones.
func DeriveAddress(slot Slot, index uint64, readOnly bool) Address {
	var buffer [18]byte
	binary.BigEndian.PutUint64(buffer[0:8], slot.Period)
	buffer[8] = slot.Thread
	binary.BigEndian.PutUint64(buffer[9:17], index)
	if readOnly {
		buffer[17] = 1
	}
	return Address(Keccak256([]byte("sc"), buffer[:]))
}
