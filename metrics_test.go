package forgekit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsRecordsTaskAndResourceCounters(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	require.Zero(t, snap.TasksCompleted)

	m.RecordTaskScheduled()
	m.RecordTaskCompletion(1_000_000, nil)
	m.RecordTaskCompletion(2_000_000, errors.New("boom"))
	m.RecordResourceLoad(500_000, false, nil)
	m.RecordResourceLoad(100, true, nil)
	m.RecordResourceUnload()
	m.RecordArchivePacked(3, 4096, 3_000_000)

	snap = m.Snapshot()
	require.EqualValues(t, 1, snap.TasksScheduled)
	require.EqualValues(t, 2, snap.TasksCompleted)
	require.EqualValues(t, 1, snap.TasksFailed)
	require.EqualValues(t, 1, snap.ResourceLoads)
	require.EqualValues(t, 1, snap.ResourceLoadWaits)
	require.EqualValues(t, 1, snap.ResourceUnloads)
	require.EqualValues(t, 1, snap.ArchivesPacked)
	require.EqualValues(t, 3, snap.ResourcesPacked)
	require.EqualValues(t, 4096, snap.BytesPacked)
}

func TestMetricsQueueDepthTracksMax(t *testing.T) {
	m := NewMetrics()
	m.RecordQueueDepth(3)
	m.RecordQueueDepth(7)
	m.RecordQueueDepth(5)

	snap := m.Snapshot()
	require.EqualValues(t, 7, snap.MaxQueueDepth)
	require.InDelta(t, 5.0, snap.AvgQueueDepth, 0.001)
}

func TestMetricsErrorRate(t *testing.T) {
	m := NewMetrics()
	m.RecordTaskCompletion(1, nil)
	m.RecordTaskCompletion(1, errors.New("fail"))
	m.RecordTaskCompletion(1, errors.New("fail"))

	snap := m.Snapshot()
	require.InDelta(t, 200.0/3.0, snap.ErrorRate, 0.01)
}

func TestMetricsLatencyHistogramBuckets(t *testing.T) {
	m := NewMetrics()
	m.RecordTaskCompletion(500, nil)          // falls in the 1us bucket
	m.RecordTaskCompletion(5_000_000_000, nil) // falls in the 10s bucket only

	snap := m.Snapshot()
	require.EqualValues(t, 1, snap.LatencyHistogram[0])
	require.EqualValues(t, 2, snap.LatencyHistogram[numLatencyBuckets-1])
}

func TestMetricsResetClearsCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordTaskCompletion(1000, nil)
	m.RecordQueueDepth(4)
	m.Reset()

	snap := m.Snapshot()
	require.Zero(t, snap.TasksCompleted)
	require.Zero(t, snap.MaxQueueDepth)
}

func TestMetricsUptimeAdvancesAfterStop(t *testing.T) {
	m := NewMetrics()
	time.Sleep(time.Millisecond)
	m.Stop()

	snap := m.Snapshot()
	require.Greater(t, snap.UptimeNs, uint64(0))
}

func TestMetricsObserverForwardsToMetrics(t *testing.T) {
	m := NewMetrics()
	obs := NewMetricsObserver(m)
	var o Observer = obs

	o.ObserveTaskCompletion(1000, nil)
	o.ObserveResourceLoad(500, false, nil)
	o.ObserveResourceUnload()
	o.ObserveArchivePacked(2, 128, 900)
	o.ObserveQueueDepth(9)

	snap := m.Snapshot()
	require.EqualValues(t, 1, snap.TasksCompleted)
	require.EqualValues(t, 1, snap.ResourceLoads)
	require.EqualValues(t, 1, snap.ResourceUnloads)
	require.EqualValues(t, 1, snap.ArchivesPacked)
	require.EqualValues(t, 9, snap.MaxQueueDepth)
}

func TestNoOpObserverDoesNothing(t *testing.T) {
	var o Observer = NoOpObserver{}
	require.NotPanics(t, func() {
		o.ObserveTaskCompletion(1, nil)
		o.ObserveResourceLoad(1, false, nil)
		o.ObserveResourceUnload()
		o.ObserveArchivePacked(1, 1, 1)
		o.ObserveQueueDepth(1)
	})
}
