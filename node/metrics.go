package node

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	peerCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "node_peer_count",
			Help: "The number of connected peers.",
		},
	)
	pendingBlockCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "node_pending_block_count",
			Help: "The number of blocks waiting for their parent.",
		},
	)
	parentRequestCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "node_parent_request_count",
			Help: "The number of BlocksByRoot requests sent for missing parents.",
		},
	)
	staleBlockCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "node_stale_block_count",
			Help: "The number of blocks dropped for being at or below the finalized slot.",
		},
	)
	importedBlockCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "node_imported_block_count",
			Help: "The number of blocks imported into fork choice and storage.",
		},
	)
)
