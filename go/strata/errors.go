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

// ConstError is an error type that can be used to define immutable
// error constants.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}

// Operation-local errors. They are recorded in the output of the slot that
// produced them and never abort the slot.
const (
	ErrNotEnoughGas          = ConstError("not enough gas")
	ErrPermissionDenied      = ConstError("permission denied")
	ErrCallStackTooDeep      = ConstError("call stack too deep")
	ErrRuntimeTrap           = ConstError("runtime trap")
	ErrTargetNotFound        = ConstError("target not found")
	ErrInsufficientBalance   = ConstError("insufficient balance")
	ErrAmountOverflow        = ConstError("amount overflow")
	ErrInsufficientRolls     = ConstError("insufficient rolls")
	ErrOperationExpired      = ConstError("operation expired")
	ErrAlreadyExecuted       = ConstError("already executed")
	ErrBlockGasExhausted     = ConstError("not enough remaining block gas")
	ErrInvalidDenunciation   = ConstError("invalid denunciation")
	ErrDatastoreKeyTooLong   = ConstError("datastore key too long")
	ErrDatastoreValueTooLong = ConstError("datastore value too long")
	ErrAddressNotFound       = ConstError("address not found")
	ErrBytecodeTooLarge      = ConstError("bytecode too large")
)

// Cache and compilation errors.
const (
	ErrInvalidModule = ConstError("invalid module")
)

// Read-only and query errors.
const (
	ErrGasExceeded = ConstError("gas exceeded")
	ErrBusy        = ConstError("busy")
	ErrStopped     = ConstError("stopped")
	ErrNotFound    = ConstError("not found")
	ErrPending     = ConstError("pending")
)

// Sequencing and consistency errors. They are fatal for the worker.
const (
	ErrFinalityConflict = ConstError("finality conflicts with execution history")
	ErrMissingBlock     = ConstError("missing block content")
	ErrHistoryGap       = ConstError("active history is not contiguous")
)
