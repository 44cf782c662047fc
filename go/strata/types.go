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
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Address identifies a ledger entry, either a user account or a smart contract.
type Address [32]byte

// Hash is a 32-byte Keccak-256 digest.
type Hash [32]byte

// Gas is the unit used to bound the computational cost of execution.
type Gas uint64

// Data is an arbitrary byte payload, used for bytecode, parameters and return values.
type Data []byte

// OperationID uniquely identifies an operation included in a block.
type OperationID Hash

// BlockID uniquely identifies a block.
type BlockID Hash

func (a Address) String() string {
	return hexutil.Encode(a[:])
}

func (h Hash) String() string {
	return hexutil.Encode(h[:])
}

func (id OperationID) String() string {
	return hexutil.Encode(id[:])
}

func (id BlockID) String() string {
	return hexutil.Encode(id[:])
}

// Block is the content of a produced slot as handed over by consensus.
// Operations and denunciations are listed in canonical inclusion order.
type Block struct {
	ID            BlockID
	Slot          Slot
	Creator       Address
	Operations    []Operation
	Denunciations []Denunciation
}

// DenunciationKind distinguishes the misbehavior a denunciation proves.
type DenunciationKind uint8

const (
	BlockHeaderDenunciation DenunciationKind = iota
	EndorsementDenunciation
)

// DenunciationIndex identifies the denounced fault independently of who reported it.
type DenunciationIndex struct {
	Kind  DenunciationKind
	Slot  Slot
	Index uint32
}

// Denunciation is a proof that Producer double-produced at the indexed position.
type Denunciation struct {
	Index    DenunciationIndex
	Producer Address
}
