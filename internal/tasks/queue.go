package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/desertthunder/sptx/internal/actions"
)

// ErrQueueClosed is returned by [Queue.Receive] once the queue is closed and drained.
var ErrQueueClosed = errors.New("action queue closed")

// Queue is an unbounded FIFO of actions.
//
// Send never blocks. Any number of goroutines may send; one goroutine receives.
// Close stops new sends but everything already queued is still delivered.
type Queue struct {
	mu     sync.Mutex
	items  []actions.Action
	closed bool

	notify chan struct{}
	done   chan struct{}
}

func NewQueue() *Queue {
	return &Queue{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Send appends a. Returns false only after [Queue.Close].
func (q *Queue) Send(a actions.Action) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, a)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// Receive removes and returns the oldest action, waiting until one is available.
// It returns [ErrQueueClosed] when the queue is closed and empty, or ctx's error.
func (q *Queue) Receive(ctx context.Context) (actions.Action, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			a := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			if len(q.items) == 0 {
				q.items = nil
			}
			q.mu.Unlock()
			return a, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, ErrQueueClosed
		}

		select {
		case <-q.notify:
		case <-q.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close stops accepting actions. Safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Len returns the number of queued actions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
