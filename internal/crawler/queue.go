package crawler

import (
	"sync"

	"github.com/nao1215/optovka/internal/model"
)

// queue is the FIFO of pending targets shared by the workers.
//
// pending counts targets that are queued or being processed. Workers
// push children before marking their own target done, so pending only
// reaches zero once the whole tree has been walked.
type queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []model.Target
	pending int
	closed  bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push adds t unless the queue has been closed.
func (q *queue) push(t model.Target) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, t)
	q.pending++
	q.cond.Signal()
	return true
}

// pop blocks until a target is available. It returns false once the
// queue is closed or every target has been processed.
func (q *queue) pop() (model.Target, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed && q.pending > 0 {
		q.cond.Wait()
	}
	if q.closed || len(q.items) == 0 {
		return model.Target{}, false
	}
	t := q.items[0]
	q.items[0] = model.Target{}
	q.items = q.items[1:]
	return t, true
}

// done marks a popped target as processed.
func (q *queue) done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending--
	if q.pending <= 0 {
		q.cond.Broadcast()
	}
}

// close stops the queue. Targets not yet popped are discarded.
func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.items = nil
	q.cond.Broadcast()
}

// len returns the number of targets waiting to be popped.
func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
