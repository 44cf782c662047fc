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
	"fmt"

	"github.com/holiman/uint256"
)

// Amount is a 256-bit unsigned number of coins in big-endian layout.
type Amount [32]byte

// NewAmount creates an amount from a uint64.
func NewAmount(value uint64) Amount {
	return AmountFromUint256(uint256.NewInt(value))
}

func AmountFromUint256(value *uint256.Int) Amount {
	return Amount(value.Bytes32())
}

func (a Amount) ToUint256() *uint256.Int {
	return new(uint256.Int).SetBytes32(a[:])
}

func (a Amount) IsZero() bool {
	return a == Amount{}
}

// Uint64 returns the lower 64 bits of the amount.
func (a Amount) Uint64() uint64 {
	return a.ToUint256().Uint64()
}

func (a Amount) Cmp(other Amount) int {
	return a.ToUint256().Cmp(other.ToUint256())
}

// CheckedAdd returns a+b or ErrAmountOverflow.
func (a Amount) CheckedAdd(b Amount) (Amount, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a.ToUint256(), b.ToUint256())
	if overflow {
		return Amount{}, fmt.Errorf("%v + %v: %w", a, b, ErrAmountOverflow)
	}
	return AmountFromUint256(sum), nil
}

// CheckedSub returns a-b or ErrInsufficientBalance.
func (a Amount) CheckedSub(b Amount) (Amount, error) {
	diff, underflow := new(uint256.Int).SubOverflow(a.ToUint256(), b.ToUint256())
	if underflow {
		return Amount{}, fmt.Errorf("%v - %v: %w", a, b, ErrInsufficientBalance)
	}
	return AmountFromUint256(diff), nil
}

// SaturatingSub returns a-b, or zero if b exceeds a.
func (a Amount) SaturatingSub(b Amount) Amount {
	if a.Cmp(b) <= 0 {
		return Amount{}
	}
	diff, _ := a.CheckedSub(b)
	return diff
}

// Scale returns a*factor or ErrAmountOverflow.
func (a Amount) Scale(factor uint64) (Amount, error) {
	product, overflow := new(uint256.Int).MulOverflow(a.ToUint256(), uint256.NewInt(factor))
	if overflow {
		return Amount{}, fmt.Errorf("%v * %d: %w", a, factor, ErrAmountOverflow)
	}
	return AmountFromUint256(product), nil
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a.Cmp(b) < 0 {
		return a
	}
	return b
}

func (a Amount) String() string {
	return a.ToUint256().Dec()
}
