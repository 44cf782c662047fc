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
	"github.com/panoptisDev/strata/go/state"
)

// AutoSellPolicy decides whether all rolls of a producer are sold at the
// end of a cycle, given its production statistics in that cycle and its
// current roll count. Policies must be pure and deterministic.
type AutoSellPolicy func(stats state.ProductionStats, rolls uint64) bool

// MaxMissRatioPolicy sells the rolls of producers whose ratio of missed
// slots in the cycle exceeds numerator/denominator. Producers without any
// selected slot are never sold.
func MaxMissRatioPolicy(numerator, denominator uint64) AutoSellPolicy {
	return func(stats state.ProductionStats, rolls uint64) bool {
		total := stats.Success + stats.Failure
		if rolls == 0 || total == 0 {
			return false
		}
		// failure/total > numerator/denominator, without rounding
		return stats.Failure*denominator > numerator*total
	}
}

// NeverSellPolicy keeps all rolls regardless of production.
func NeverSellPolicy(state.ProductionStats, uint64) bool {
	return false
}
