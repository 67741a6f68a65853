package forkchoice

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	headSlotNumber = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forkchoice_head_slot",
			Help: "The slot number of the current head.",
		},
	)
	nodeCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forkchoice_node_count",
			Help: "The number of nodes in the block tree.",
		},
	)
	aggregateCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forkchoice_aggregate_count",
			Help: "The number of per-target vote aggregates.",
		},
	)
	headChangesCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forkchoice_head_changed_count",
			Help: "The number of times head changes.",
		},
	)
	calledHeadCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forkchoice_head_requested_count",
			Help: "The number of times someone called head.",
		},
	)
	processedBlockCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forkchoice_block_processed_count",
			Help: "The number of times a block is processed for fork choice.",
		},
	)
	processedAttestationCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forkchoice_attestation_processed_count",
			Help: "The number of times an attestation is processed for fork choice.",
		},
	)
	rejectedAttestationCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forkchoice_attestation_rejected_count",
			Help: "The number of vote replacements rejected as stale or unresolvable.",
		},
	)
	prunedCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forkchoice_pruned_count",
			Help: "The number of times pruning happened.",
		},
	)
)
