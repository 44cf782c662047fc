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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeccak256_MatchesKnownDigest(t *testing.T) {
	// keccak256("") as used by Ethereum for empty code.
	want := Hash{
		0xc5, 0xd2, 0x46, 0x01, 0x86, 0xf7, 0x23, 0x3c, 0x92, 0x7e, 0x7d, 0xb2, 0xdc, 0xc7, 0x03, 0xc0,
		0xe5, 0x00, 0xb6, 0x53, 0xca, 0x82, 0x27, 0x3b, 0x7b, 0xfa, 0xd8, 0x04, 0x5d, 0x85, 0xa4, 0x70,
	}
	require.Equal(t, want, Keccak256(nil))
	require.Equal(t, Keccak256([]byte("ab")), Keccak256([]byte("a"), []byte("b")))
}

func TestDeriveAddress_IsUniquePerSlotIndexAndMode(t *testing.T) {
	seen := map[Address]struct{}{}
	for _, slot := range []Slot{{1, 0}, {1, 1}, {2, 0}} {
		for index := uint64(0); index < 3; index++ {
			for _, readOnly := range []bool{false, true} {
				address := DeriveAddress(slot, index, readOnly)
				_, found := seen[address]
				require.False(t, found, "duplicate address for %v/%d/%t", slot, index, readOnly)
				seen[address] = struct{}{}
			}
		}
	}
	require.Equal(t, DeriveAddress(Slot{3, 1}, 7, false), DeriveAddress(Slot{3, 1}, 7, false))
}
