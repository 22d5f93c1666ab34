package workerpool

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forgelight/forgekit/internal/aio"
	"github.com/forgelight/forgekit/internal/scheduler"
	"github.com/forgelight/forgekit/internal/taskqueue"
)

func TestSharedFIFORunsAllScheduledWork(t *testing.T) {
	pool := New(3)
	defer pool.Close()

	var mu sync.Mutex
	var count int
	var wg sync.WaitGroup
	wg.Add(20)
	for i := 0; i < 20; i++ {
		pool.Shared().Schedule(func() {
			mu.Lock()
			count++
			mu.Unlock()
			wg.Done()
		}, 0)
	}

	waitOrTimeout(t, &wg, time.Second)
	require.Equal(t, 20, count)
}

func TestExclusivePriorityOrdering(t *testing.T) {
	// [2,2,4,1,4] sorted stably by descending priority lands at
	// [4,4,2,2,1] — the two priority-4 entries keep their relative order,
	// as do the two priority-2 entries.
	sched := scheduler.New()
	th := NewThread(nil, Info{Routine: RoutineExclusivePriority, Exclusive: sched})

	var mu sync.Mutex
	var order []int
	priorities := []uint8{2, 2, 4, 1, 4}
	for i, p := range priorities {
		i := i
		sched.Queue().PushBack(&taskqueue.Node{Priority: p, Run: func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}})
	}

	th.Start()
	defer th.RequestDestroy()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 5
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{2, 4, 0, 1, 3}, order)
}

func TestExclusiveFIFOPreservesOrder(t *testing.T) {
	sched := scheduler.New()
	th := NewThread(nil, Info{Routine: RoutineExclusiveFIFO, Exclusive: sched})

	var mu sync.Mutex
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		sched.Queue().PushBack(&taskqueue.Node{Run: func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}})
	}

	th.Start()
	defer th.RequestDestroy()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 10
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		require.Equal(t, i, v)
	}
}

func TestPoolCreateFindDestroyOnDemandThread(t *testing.T) {
	pool := New(1)
	defer pool.Close()

	sched := scheduler.New()
	pool.CreateThread("loader", Info{Routine: RoutineExclusiveFIFO, Exclusive: sched})

	th, ok := pool.FindThread("loader")
	require.True(t, ok)
	require.Equal(t, StateActive, th.State())

	pool.DestroyThread("loader")
	_, ok = pool.FindThread("loader")
	require.False(t, ok)
}

func TestPoolAttachDetachDoesNotOwnLifecycle(t *testing.T) {
	pool := New(0)
	defer pool.Close()

	th := NewThread(pool.Shared(), Info{Routine: RoutineSharedFIFO})
	th.Start()
	defer th.RequestDestroy()

	pool.AttachThread("external", th)
	_, ok := pool.FindThread("external")
	require.True(t, ok)

	pool.DetachThread("external")
	require.Equal(t, StateActive, th.State(), "detaching must not stop the thread")
}

func TestNewWithAIOPortSpawnsOnePollWorkerPerSlot(t *testing.T) {
	port, err := aio.NewPort(aio.DefaultConfig(), nil)
	require.NoError(t, err)
	defer port.Close()

	pool := NewWithAIOPort(2, "aio-pool-worker-%d", port, 3)
	defer pool.Close()

	require.Equal(t, 5, pool.ManagedThreadCount())
}

func TestNewWithAIOPortNamesWorkersFromFormat(t *testing.T) {
	var names []string
	seen := make(map[string]bool)
	for i := 0; i < 4; i++ {
		names = append(names, fmt.Sprintf("custom-%d", i))
	}

	pool := NewWithAIOPort(4, "custom-%d", nil, 0)
	defer pool.Close()

	for _, th := range pool.managed {
		seen[th.info.DebugName] = true
	}
	for _, name := range names {
		require.True(t, seen[name], "expected worker named %q", name)
	}
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting for scheduled work")
	}
}
