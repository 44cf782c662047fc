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
	"github.com/ethereum/go-ethereum/metrics"
)

var (
	candidateSlots    = metrics.NewRegisteredCounter("execution/slots/candidate", nil)
	finalSlots        = metrics.NewRegisteredCounter("execution/slots/final", nil)
	promotedSlots     = metrics.NewRegisteredCounter("execution/slots/promoted", nil)
	reorganizations   = metrics.NewRegisteredCounter("execution/reorgs", nil)
	failedOperations  = metrics.NewRegisteredCounter("execution/operations/failed", nil)
	gasUsed           = metrics.NewRegisteredCounter("execution/gas", nil)
	readOnlyRequests  = metrics.NewRegisteredCounter("execution/readonly/requests", nil)
	readOnlyRejected  = metrics.NewRegisteredCounter("execution/readonly/rejected", nil)
	droppedBroadcasts = metrics.NewRegisteredCounter("execution/broadcast/dropped", nil)
	historyLength     = metrics.NewRegisteredGauge("execution/history/length", nil)
)
