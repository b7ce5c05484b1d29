// Package pool implements the worker pool and bounded hand-off queue
// (spec §4.6): a fixed number of worker goroutines draining a
// capacity-bounded queue the acceptor feeds, with condition-variable
// backpressure and a broadcast shutdown.
//
// The queue itself is github.com/eapache/queue.Queue (the teacher's own
// dependency, used the same way internal/concurrency/executor.go uses it:
// as the backing ring buffer behind a lock/condvar-guarded bounded queue).
//
// Author: momentics <momentics@gmail.com>
package pool

import (
	"sync"

	"github.com/eapache/queue"
)

// Item is one accepted-socket hand-off record (spec §3 "Accepted Socket
// Message"). The pool package only needs to move these around: it doesn't
// interpret them.
type Item struct {
	Conn     any // net.Conn, typed loosely here to avoid an import cycle with accept
	Listener any // *accept.Listener flags
}

// Queue is a capacity-bounded, condition-variable-guarded FIFO
// (spec §4.6 "a shared bounded queue of accepted-socket messages").
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	q        *queue.Queue
	capacity int
	closed   bool
}

// NewQueue builds a Queue bounded at capacity (spec: "capacity = worker
// count so backpressure propagates to the acceptor via queue-full").
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	q := &Queue{q: queue.New(), capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Push enqueues item, blocking while the queue is full. Returns false if
// the queue was closed before or while waiting (spec §4.6 step 5: "New
// sockets arriving during stopping are closed immediately without
// enqueuing" is the caller's responsibility — Push simply reports closed).
func (q *Queue) Push(item Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.q.Length() >= q.capacity && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return false
	}
	q.q.Add(item)
	q.notEmpty.Signal()
	return true
}

// TryPush enqueues item without blocking; returns false if the queue is
// full or closed (spec §4.7 "On a readable listener ... enqueue", with
// queue-full propagating backpressure rather than blocking the acceptor
// forever behind a single slow worker).
func (q *Queue) TryPush(item Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.q.Length() >= q.capacity {
		return false
	}
	q.q.Add(item)
	q.notEmpty.Signal()
	return true
}

// Pop dequeues the next item, blocking until one is available or the queue
// is closed and drained (ok=false).
func (q *Queue) Pop() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.q.Length() == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.q.Length() == 0 {
		return Item{}, false
	}
	item := q.q.Peek().(Item)
	q.q.Remove()
	q.notFull.Signal()
	return item, true
}

// Len reports the current depth, for the QueueDepth gauge.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.q.Length()
}

// Close marks the queue closed and wakes every blocked Push/Pop
// (spec §4.6 step 4: "Broadcast not_empty; each idle worker observes stop
// and exits").
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}
