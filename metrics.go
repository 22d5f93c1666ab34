package forgekit

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds.
// Buckets cover from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks performance and operational statistics for the task
// runtime, the resource tracker, and the Hailstorm writer.
type Metrics struct {
	// Task runtime counters
	TasksScheduled atomic.Uint64 // Tasks handed to a Scheduler
	TasksCompleted atomic.Uint64 // Tasks that reached the Completed state
	TasksFailed    atomic.Uint64 // Tasks that completed with an error

	// Resource tracker counters
	ResourceLoads      atomic.Uint64 // internalResource.load calls that actually hit a provider
	ResourceLoadWaits   atomic.Uint64 // Loads served without calling the provider: joined an in-flight load or found it already loaded
	ResourceUnloads     atomic.Uint64 // Provider.Unload calls fired on last release
	ResourceLoadErrors  atomic.Uint64

	// Hailstorm writer counters
	ArchivesPacked  atomic.Uint64
	ResourcesPacked atomic.Uint64
	BytesPacked     atomic.Uint64

	// Work queue statistics, recorded through RecordQueueDepth; the worker
	// pool does not call it
	QueueDepthTotal atomic.Uint64 // Cumulative queue depth samples
	QueueDepthCount atomic.Uint64 // Number of queue depth measurements
	MaxQueueDepth   atomic.Uint32 // Maximum observed queue depth

	// Latency tracking, shared across task completion, resource load, and
	// archive pack timings
	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	// Latency histogram buckets (cumulative counts)
	// Each bucket[i] contains the count of operations with latency <= LatencyBuckets[i]
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	// Lifecycle
	StartTime atomic.Int64 // Metrics start timestamp (UnixNano)
	StopTime  atomic.Int64 // Metrics stop timestamp (UnixNano)
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordTaskCompletion records a task reaching its terminal state.
func (m *Metrics) RecordTaskCompletion(latencyNs uint64, err error) {
	m.TasksCompleted.Add(1)
	if err != nil {
		m.TasksFailed.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordTaskScheduled records a task being handed to a Scheduler.
func (m *Metrics) RecordTaskScheduled() {
	m.TasksScheduled.Add(1)
}

// RecordResourceLoad records a resource load, distinguishing a load that
// actually called into the provider from one served without it
// (joinedInFlight: it joined an in-flight single-flight load or found the
// resource already loaded).
func (m *Metrics) RecordResourceLoad(latencyNs uint64, joinedInFlight bool, err error) {
	if joinedInFlight {
		m.ResourceLoadWaits.Add(1)
	} else {
		m.ResourceLoads.Add(1)
	}
	if err != nil {
		m.ResourceLoadErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordResourceUnload records a provider Unload call fired on last release.
func (m *Metrics) RecordResourceUnload() {
	m.ResourceUnloads.Add(1)
}

// RecordArchivePacked records a completed Hailstorm Writer.Pack call.
func (m *Metrics) RecordArchivePacked(resourceCount int, totalBytes int64, latencyNs uint64) {
	m.ArchivesPacked.Add(1)
	m.ResourcesPacked.Add(uint64(resourceCount))
	m.BytesPacked.Add(uint64(totalBytes))
	m.recordLatency(latencyNs)
}

// RecordQueueDepth records current queue depth for statistics
func (m *Metrics) RecordQueueDepth(depth uint32) {
	m.QueueDepthTotal.Add(uint64(depth))
	m.QueueDepthCount.Add(1)

	// Update max queue depth atomically
	for {
		current := m.MaxQueueDepth.Load()
		if depth <= current {
			break
		}
		if m.MaxQueueDepth.CompareAndSwap(current, depth) {
			break
		}
	}
}

// recordLatency records operation latency and updates histogram
func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)

	// Update histogram buckets (cumulative)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks metrics collection as stopped.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	TasksScheduled uint64
	TasksCompleted uint64
	TasksFailed    uint64

	ResourceLoads      uint64
	ResourceLoadWaits  uint64
	ResourceUnloads    uint64
	ResourceLoadErrors uint64

	ArchivesPacked  uint64
	ResourcesPacked uint64
	BytesPacked     uint64

	AvgQueueDepth float64
	MaxQueueDepth uint32

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	TaskThroughputPerSec float64
	ErrorRate            float64 // percentage of failed tasks + failed loads
}

// Snapshot creates a point-in-time snapshot of metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		TasksScheduled:     m.TasksScheduled.Load(),
		TasksCompleted:     m.TasksCompleted.Load(),
		TasksFailed:        m.TasksFailed.Load(),
		ResourceLoads:      m.ResourceLoads.Load(),
		ResourceLoadWaits:  m.ResourceLoadWaits.Load(),
		ResourceUnloads:    m.ResourceUnloads.Load(),
		ResourceLoadErrors: m.ResourceLoadErrors.Load(),
		ArchivesPacked:     m.ArchivesPacked.Load(),
		ResourcesPacked:    m.ResourcesPacked.Load(),
		BytesPacked:        m.BytesPacked.Load(),
		MaxQueueDepth:      m.MaxQueueDepth.Load(),
	}

	queueDepthTotal := m.QueueDepthTotal.Load()
	queueDepthCount := m.QueueDepthCount.Load()
	if queueDepthCount > 0 {
		snap.AvgQueueDepth = float64(queueDepthTotal) / float64(queueDepthCount)
	}

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		uptimeSeconds := float64(snap.UptimeNs) / 1e9
		snap.TaskThroughputPerSec = float64(snap.TasksCompleted) / uptimeSeconds
	}

	totalFailures := snap.TasksFailed + snap.ResourceLoadErrors
	totalOps := snap.TasksCompleted + snap.ResourceLoads + snap.ResourceLoadWaits
	if totalOps > 0 {
		snap.ErrorRate = float64(totalFailures) / float64(totalOps) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile (0.0-1.0)
// using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset resets all metrics counters (useful for testing)
func (m *Metrics) Reset() {
	m.TasksScheduled.Store(0)
	m.TasksCompleted.Store(0)
	m.TasksFailed.Store(0)
	m.ResourceLoads.Store(0)
	m.ResourceLoadWaits.Store(0)
	m.ResourceUnloads.Store(0)
	m.ResourceLoadErrors.Store(0)
	m.ArchivesPacked.Store(0)
	m.ResourcesPacked.Store(0)
	m.BytesPacked.Store(0)
	m.QueueDepthTotal.Store(0)
	m.QueueDepthCount.Store(0)
	m.MaxQueueDepth.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection by the task runtime,
// resource tracker, and Hailstorm writer.
type Observer interface {
	ObserveTaskCompletion(latencyNs uint64, err error)
	ObserveResourceLoad(latencyNs uint64, joinedInFlight bool, err error)
	ObserveResourceUnload()
	ObserveArchivePacked(resourceCount int, totalBytes int64, latencyNs uint64)
	ObserveQueueDepth(depth uint32)
}

// NoOpObserver is a no-op implementation of Observer
type NoOpObserver struct{}

func (NoOpObserver) ObserveTaskCompletion(uint64, error)     {}
func (NoOpObserver) ObserveResourceLoad(uint64, bool, error) {}
func (NoOpObserver) ObserveResourceUnload()                  {}
func (NoOpObserver) ObserveArchivePacked(int, int64, uint64) {}
func (NoOpObserver) ObserveQueueDepth(uint32)                {}

// MetricsObserver implements Observer using the built-in Metrics
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveTaskCompletion(latencyNs uint64, err error) {
	o.metrics.RecordTaskCompletion(latencyNs, err)
}

func (o *MetricsObserver) ObserveResourceLoad(latencyNs uint64, joinedInFlight bool, err error) {
	o.metrics.RecordResourceLoad(latencyNs, joinedInFlight, err)
}

func (o *MetricsObserver) ObserveResourceUnload() {
	o.metrics.RecordResourceUnload()
}

func (o *MetricsObserver) ObserveArchivePacked(resourceCount int, totalBytes int64, latencyNs uint64) {
	o.metrics.RecordArchivePacked(resourceCount, totalBytes, latencyNs)
}

func (o *MetricsObserver) ObserveQueueDepth(depth uint32) {
	o.metrics.RecordQueueDepth(depth)
}

// Compile-time interface check
var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
