package lottie

import (
	"sync"

	lottieerrors "github.com/go-drift/lottie/pkg/errors"
)

// taskQueue is an unbounded FIFO of closures drained by one worker
// goroutine: the cooperative execution context the frame renderer lives on.
// Posting never blocks, so the worker may safely re-enqueue work for itself.
type taskQueue struct {
	mu     sync.Mutex
	wake   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{done: make(chan struct{})}
	q.wake = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// post enqueues fn for execution on the worker. Closures post in call order
// and run in that order. Posting to a closed queue is a no-op.
func (q *taskQueue) post(fn func()) {
	q.mu.Lock()
	if !q.closed {
		q.tasks = append(q.tasks, fn)
		q.wake.Signal()
	}
	q.mu.Unlock()
}

// close stops the worker after the already queued tasks have run and waits
// for it to exit.
func (q *taskQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.wake.Signal()
	q.mu.Unlock()
	<-q.done
}

func (q *taskQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.wake.Wait()
		}
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()
		runTask(fn)
	}
}

// runTask confines a task's panic to the task: it is reported and the worker
// keeps draining, so one faulty entry cannot halt the multiplexer.
func runTask(fn func()) {
	defer lottieerrors.Recover("lottie.taskQueue")
	fn()
}
