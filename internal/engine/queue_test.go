package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func targetFrame(x, y float64) Frame {
	return Frame{Targets: map[string]Point{"goal": {X: x, Y: y}}}
}

func TestFrameQueue_FIFO(t *testing.T) {
	q := newFrameQueue()
	require.True(t, q.Enqueue(targetFrame(1, 0)))
	require.True(t, q.Enqueue(targetFrame(2, 0)))
	assert.Equal(t, 2, q.Len())

	f, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, 1.0, f.Targets["goal"].X)

	f, ok = q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, 2.0, f.Targets["goal"].X)

	_, ok = q.TryDequeue()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestFrameQueue_CloseWakesWaiter(t *testing.T) {
	q := newFrameQueue()
	woke := make(chan struct{})
	go func() {
		<-q.Wait()
		close(woke)
	}()

	q.Close()
	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by Close")
	}
	assert.True(t, q.Drained())
	assert.False(t, q.Enqueue(Frame{}), "enqueue after close")
	q.Close() // second close is a no-op
}

func TestFrameQueue_DrainedOnlyWhenEmpty(t *testing.T) {
	q := newFrameQueue()
	q.Enqueue(Frame{Setup: true})
	q.Close()
	assert.False(t, q.Drained())

	f, ok := q.TryDequeue()
	require.True(t, ok)
	assert.True(t, f.Setup)
	assert.True(t, q.Drained())
}

func TestFrameQueue_ConcurrentProducers(t *testing.T) {
	q := newFrameQueue()
	const producers, perProducer = 8, 50

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				q.Enqueue(targetFrame(float64(p), float64(i)))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Len())
	// Each producer's frames stay in its own order.
	last := make(map[float64]float64)
	for range producers * perProducer {
		f, ok := q.TryDequeue()
		require.True(t, ok)
		g := f.Targets["goal"]
		if prev, seen := last[g.X]; seen {
			assert.Greater(t, g.Y, prev)
		}
		last[g.X] = g.Y
	}
}
