package engine

import "sync"

// frameQueue is a thread-safe unbounded FIFO of frames waiting for Serve.
//
// Producers may enqueue from any goroutine; only the Serve loop dequeues.
// The signal channel lets the loop wait on the queue and a context at the
// same time.
type frameQueue struct {
	mu     sync.Mutex
	frames []Frame
	closed bool
	signal chan struct{} // buffered, size 1
}

func newFrameQueue() *frameQueue {
	return &frameQueue{
		frames: make([]Frame, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds f to the back of the queue. It returns false once the queue
// is closed.
func (q *frameQueue) Enqueue(f Frame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.frames = append(q.frames, f)

	// Multiple pending signals coalesce into one.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front frame without blocking.
func (q *frameQueue) TryDequeue() (Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.frames) == 0 {
		return Frame{}, false
	}
	f := q.frames[0]
	// Clear the slot so the maps it holds can be collected.
	q.frames[0] = Frame{}
	if len(q.frames) == 1 {
		q.frames = q.frames[:0]
	} else {
		q.frames = q.frames[1:]
	}
	return f, true
}

// Wait returns a channel that fires when frames may be available. It is
// closed when the queue is closed.
func (q *frameQueue) Wait() <-chan struct{} {
	return q.signal
}

// Drained reports whether the queue is closed and empty.
func (q *frameQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.frames) == 0
}

func (q *frameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Close stops further enqueues and wakes the waiting loop.
func (q *frameQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
