package model

import "sync"

// workQueue is an unbounded FIFO of fetch requests. Visible requests are
// served before prefetches so pushes never block the consumer.
type workQueue struct {
	visible  []*fetchRequest
	prefetch []*fetchRequest
	closed   bool
	cond     *sync.Cond
	mx       sync.Mutex
}

func newWorkQueue() *workQueue {
	q := workQueue{}
	q.cond = sync.NewCond(&q.mx)

	return &q
}

func (q *workQueue) push(r *fetchRequest) {
	q.mx.Lock()
	defer q.mx.Unlock()

	if q.closed {
		return
	}
	if r.prefetch {
		q.prefetch = append(q.prefetch, r)
	} else {
		q.visible = append(q.visible, r)
	}
	q.cond.Signal()
}

// pop blocks until a request is available or the queue closes.
func (q *workQueue) pop() (*fetchRequest, bool) {
	q.mx.Lock()
	defer q.mx.Unlock()

	for !q.closed && len(q.visible) == 0 && len(q.prefetch) == 0 {
		q.cond.Wait()
	}
	if q.closed {
		return nil, false
	}

	var r *fetchRequest
	if len(q.visible) > 0 {
		r, q.visible = q.visible[0], q.visible[1:]
	} else {
		r, q.prefetch = q.prefetch[0], q.prefetch[1:]
	}

	return r, true
}

// promote moves a queued prefetch ahead with the visible requests.
func (q *workQueue) promote(r *fetchRequest) {
	q.mx.Lock()
	defer q.mx.Unlock()

	for i, p := range q.prefetch {
		if p == r {
			q.prefetch = append(q.prefetch[:i], q.prefetch[i+1:]...)
			q.visible = append(q.visible, r)
			return
		}
	}
}

func (q *workQueue) close() {
	q.mx.Lock()
	defer q.mx.Unlock()

	q.closed = true
	q.visible, q.prefetch = nil, nil
	q.cond.Broadcast()
}
