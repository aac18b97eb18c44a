// Package queue provides an unbounded multi-producer multi-consumer FIFO.
package queue

import "sync/atomic"

type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// LockFreeQueue is an unbounded FIFO safe for concurrent use without locks
// (Michael-Scott queue). The zero value is not usable; use New.
type LockFreeQueue[T any] struct {
	head   atomic.Pointer[node[T]]
	tail   atomic.Pointer[node[T]]
	length atomic.Int64
}

// New creates an empty queue.
func New[T any]() *LockFreeQueue[T] {
	q := &LockFreeQueue[T]{}
	sentinel := &node[T]{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	return q
}

// Enqueue adds item to the tail of the queue.
func (q *LockFreeQueue[T]) Enqueue(item T) {
	n := &node[T]{value: item}

	for {
		tail := q.tail.Load()
		next := tail.next.Load()

		if tail != q.tail.Load() {
			continue
		}

		if next != nil {
			// tail is lagging behind, help it forward
			q.tail.CompareAndSwap(tail, next)
			continue
		}

		if tail.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(tail, n)
			q.length.Add(1)

			return
		}
	}
}

// Dequeue removes and returns the item at the head of the queue.
// ok is false when the queue is empty.
func (q *LockFreeQueue[T]) Dequeue() (item T, ok bool) {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()

		if head != q.head.Load() {
			continue
		}

		if head == tail {
			if next == nil {
				return item, false
			}

			q.tail.CompareAndSwap(tail, next)

			continue
		}

		// read the value before the swap; next becomes the new sentinel
		value := next.value
		if q.head.CompareAndSwap(head, next) {
			q.length.Add(-1)
			return value, true
		}
	}
}

// Peek returns the item at the head of the queue without removing it.
func (q *LockFreeQueue[T]) Peek() (item T, ok bool) {
	for {
		head := q.head.Load()
		next := head.next.Load()

		if head != q.head.Load() {
			continue
		}

		if next == nil {
			return item, false
		}

		return next.value, true
	}
}

// IsEmpty reports whether the queue holds no items.
func (q *LockFreeQueue[T]) IsEmpty() bool {
	return q.length.Load() == 0
}

// Length returns the number of queued items.
func (q *LockFreeQueue[T]) Length() int {
	return int(q.length.Load())
}
