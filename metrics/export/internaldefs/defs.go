package internaldefs

import (
	"github.com/MrEthical07/apiguard"
)

type CounterDef struct {
	ID   apiguard.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   apiguard.MetricID
	Name string
	Help string
}

// QueueDroppedName is the counter for events dropped by a full in-memory queue.
const QueueDroppedName = "apiguard_queue_dropped_total"

// QueueDroppedHelp describes QueueDroppedName.
const QueueDroppedHelp = "Events dropped by the queued dispatcher due to backpressure."

var CounterDefs = []CounterDef{
	{ID: apiguard.MetricEventDispatched, Name: "apiguard_event_dispatched_total", Help: "Events delivered to a listener registry."},
	{ID: apiguard.MetricListenerInvoked, Name: "apiguard_listener_invoked_total", Help: "Individual listener invocations."},
	{ID: apiguard.MetricListenerFailure, Name: "apiguard_listener_failure_total", Help: "Listener invocations that returned an error."},
	{ID: apiguard.MetricEventEnqueued, Name: "apiguard_event_enqueued_total", Help: "Events accepted by a queued or external dispatcher."},
	{ID: apiguard.MetricEventDropped, Name: "apiguard_event_dropped_total", Help: "Events rejected by a full or unavailable queue."},
	{ID: apiguard.MetricRehydrateSuccess, Name: "apiguard_rehydrate_success_total", Help: "Persisted events resolved back to their api key."},
	{ID: apiguard.MetricRehydrateNotFound, Name: "apiguard_rehydrate_not_found_total", Help: "Persisted events whose api key no longer exists."},
	{ID: apiguard.MetricRehydrateFailure, Name: "apiguard_rehydrate_failure_total", Help: "Persisted events that failed to decode or resolve."},
}

var HistogramDefs = []HistogramDef{
	{ID: apiguard.MetricDispatchLatency, Name: "apiguard_dispatch_latency_seconds", Help: "Dispatch latency histogram."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The eighth
// bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
