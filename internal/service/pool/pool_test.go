package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizzeria/internal/random"
	"pizzeria/internal/service/shared"
)

func BenchmarkPoolParallel(b *testing.B) {
	for _, policy := range []WakePolicy{WakeOne, WakeAll} {
		for _, cap := range []int{1, 2, 8, 64} {
			b.Run(fmt.Sprintf("%s/cap=%d", policy, cap), func(b *testing.B) {
				p := New("bench", cap, policy)
				ctx := context.Background()
				b.ReportAllocs()
				b.RunParallel(func(pb *testing.PB) {
					for pb.Next() {
						if err := p.Acquire(ctx, 1); err != nil {
							b.Fatal(err)
						}
						p.Release(1)
					}
				})
			})
		}
	}
}

func FuzzPoolAcquireRelease(f *testing.F) {
	f.Add(10, 5)
	f.Fuzz(func(t *testing.T, capacity, n int) {
		if capacity <= 0 || capacity > 1024 {
			capacity = 1
		}
		if n <= 0 || n > capacity {
			n = capacity
		}

		p := New("fuzz", capacity, WakeAll)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		if err := p.Acquire(ctx, n); err != nil {
			t.Fatalf("acquire: %v (capacity=%d n=%d)", err, capacity, n)
		}
		if got := p.Available(); got != capacity-n {
			t.Fatalf("available %d, want %d", got, capacity-n)
		}
		p.Release(n)
		if got := p.Available(); got != capacity {
			t.Fatalf("available %d after release, want %d", got, capacity)
		}
	})
}

func TestNewRejectsNonPositiveCapacity(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1, -128} {
		t.Run(fmt.Sprintf("size=%d", size), func(t *testing.T) {
			t.Parallel()
			assert.Panics(t, func() { New("bad", size, WakeOne) })
		})
	}
}

func TestAcquireRejectsInvalidQuantity(t *testing.T) {
	t.Parallel()

	p := New("ovens", 10, WakeAll)
	for _, n := range []int{0, -2, 11} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			assert.Panics(t, func() { _ = p.Acquire(context.Background(), n) })
		})
	}
	assert.Equal(t, 10, p.Available())
}

var slotsTests = []struct {
	size   int
	policy WakePolicy
}{
	{size: 1, policy: WakeOne},
	{size: 2, policy: WakeOne},
	{size: 8, policy: WakeOne},
	{size: 1, policy: WakeAll},
	{size: 10, policy: WakeAll},
}

// TestPoolAcquireRelease verifies that a blocked acquire unblocks after a release.
func TestPoolAcquireRelease(t *testing.T) {
	for _, tt := range slotsTests {
		t.Run(fmt.Sprintf("%s/size=%d", tt.policy, tt.size), func(t *testing.T) {
			p := New("test", tt.size, tt.policy)

			for i := 0; i < tt.size; i++ {
				require.NoError(t, p.Acquire(context.Background(), 1), "prefill acquire #%d", i+1)
			}

			done := make(chan error, 1)
			go func() {
				done <- p.Acquire(context.Background(), 1)
			}()

			require.Eventually(t, func() bool { return p.Waiting() == 1 }, time.Second, time.Millisecond)
			select {
			case err := <-done:
				t.Fatalf("expected extra acquire to block; got err=%v", err)
			default:
			}

			p.Release(1)

			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(time.Second):
				t.Fatal("expected blocked acquire to succeed after release")
			}
			assert.Equal(t, 0, p.Available())
			assert.Equal(t, tt.size, p.InUse())
		})
	}
}

// TestPoolAcquireContextTimeout verifies that acquire returns
// context.DeadlineExceeded when the pool is full and the context expires.
func TestPoolAcquireContextTimeout(t *testing.T) {
	for _, tt := range slotsTests {
		t.Run(fmt.Sprintf("%s/size=%d", tt.policy, tt.size), func(t *testing.T) {
			p := New("test", tt.size, tt.policy)
			require.NoError(t, p.Acquire(context.Background(), tt.size))

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			err := p.Acquire(ctx, 1)
			require.Error(t, err)
			assert.True(t, errors.Is(err, context.DeadlineExceeded))
			assert.Equal(t, 0, p.Waiting())
			assert.Equal(t, 0, p.Available())
		})
	}
}

// A WakeOne waiter that gives up after being signalled must not swallow the
// wake-up meant for the remaining waiter.
func TestWakeOneCanceledWaiterPassesSignalOn(t *testing.T) {
	p := New("phones", 1, WakeOne)
	require.NoError(t, p.Acquire(context.Background(), 1))

	ctx, cancel := context.WithCancel(context.Background())
	quitter := make(chan error, 1)
	go func() { quitter <- p.Acquire(ctx, 1) }()
	require.Eventually(t, func() bool { return p.Waiting() == 1 }, time.Second, time.Millisecond)

	stayer := make(chan error, 1)
	go func() { stayer <- p.Acquire(context.Background(), 1) }()
	require.Eventually(t, func() bool { return p.Waiting() == 2 }, time.Second, time.Millisecond)

	cancel()
	p.Release(1)

	require.ErrorIs(t, <-quitter, context.Canceled)
	select {
	case err := <-stayer:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("remaining waiter was never woken")
	}
}

// A large request must not be starved or mis-granted when smaller requests
// are woken by the same release.
func TestWakeAllGrantsVariableQuantities(t *testing.T) {
	p := New("ovens", 10, WakeAll)
	require.NoError(t, p.Acquire(context.Background(), 10))

	var wg sync.WaitGroup
	for _, n := range []int{5, 3, 2} {
		wg.Go(func() {
			assert.NoError(t, p.Acquire(context.Background(), n))
		})
	}
	require.Eventually(t, func() bool { return p.Waiting() == 3 }, time.Second, time.Millisecond)

	p.Release(10)
	wg.Wait()

	assert.Equal(t, 0, p.Available())
	assert.Equal(t, 0, p.Waiting())
}

// grantLedger checks pool bounds on every event it observes.
type grantLedger struct {
	capacity  int
	mu        sync.Mutex
	inUse     int
	peak      int
	violation atomic.Value
}

func (g *grantLedger) Acquired(pool string, n, inUse int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inUse += n
	if g.inUse != inUse || inUse > g.capacity {
		g.violation.Store(fmt.Sprintf("%s: acquired %d, ledger %d, pool %d, capacity %d", pool, n, g.inUse, inUse, g.capacity))
	}
	if inUse > g.peak {
		g.peak = inUse
	}
}

func (g *grantLedger) Released(pool string, n, inUse int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inUse -= n
	if g.inUse != inUse || inUse < 0 {
		g.violation.Store(fmt.Sprintf("%s: released %d, ledger %d, pool %d", pool, n, g.inUse, inUse))
	}
}

func TestPoolNeverOversubscribedUnderLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping load test in short mode")
	}

	const capacity = 10
	ledger := &grantLedger{capacity: capacity}
	p := New("ovens", capacity, WakeAll, WithObserver(ledger))

	const workers = 64
	const iterations = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Go(func() {
			src := random.ForOrder(99, w)
			for i := 0; i < iterations; i++ {
				n := 1 + src.IntN(5)
				if err := p.Acquire(context.Background(), n); err != nil {
					t.Error(err)
					return
				}
				if got := p.Available(); got < 0 || got > capacity {
					t.Errorf("available %d outside [0,%d]", got, capacity)
				}
				p.Release(n)
			}
		})
	}
	wg.Wait()

	if v := ledger.violation.Load(); v != nil {
		t.Fatal(v)
	}
	assert.Equal(t, capacity, p.Available())
	assert.Equal(t, 0, ledger.inUse)
	assert.LessOrEqual(t, ledger.peak, capacity)
}

// Two orders of sizes 6 and 5 against ten ovens: the second waits for the
// first to release, measured on a fake clock.
func TestOvenSecondRequestWaitsForRelease(t *testing.T) {
	clk := clockwork.NewFakeClock()
	ovens := New("ovens", 10, WakeAll)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := clk.Now()
	require.NoError(t, ovens.Acquire(ctx, 6))

	var releasedAt time.Time
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		if err := shared.SleepOrDone(ctx, clk, 60*time.Second); err != nil {
			t.Error(err)
		}
		releasedAt = clk.Now()
		ovens.Release(6)
	}()

	var grantedAt time.Time
	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		if err := ovens.Acquire(ctx, 5); err != nil {
			t.Error(err)
			return
		}
		grantedAt = clk.Now()
	}()

	require.NoError(t, clk.BlockUntilContext(ctx, 1))
	require.Eventually(t, func() bool { return ovens.Waiting() == 1 }, time.Second, time.Millisecond)

	clk.Advance(60 * time.Second)
	<-firstDone
	<-secondDone

	assert.Equal(t, start.Add(60*time.Second), releasedAt)
	assert.False(t, grantedAt.Before(releasedAt), "granted at %v before release at %v", grantedAt, releasedAt)
	assert.Equal(t, 5, ovens.InUse())
}

func TestWakePolicyString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "wake_one", WakeOne.String())
	assert.Equal(t, "wake_all", WakeAll.String())
	assert.Equal(t, "unknown", WakePolicy(7).String())
}
