package greet

import (
	"sync"

	"github.com/phf/go-queue/queue"
)

// Applying a transaction drains a scratch queue of its instructions, so
// consecutive applies reuse pooled queues instead of reallocating them.
var queuePool sync.Pool

func AcquireQueue() *queue.Queue {
	q := queuePool.Get()

	if q == nil {
		q = queue.New()
	}

	return q.(*queue.Queue)
}

func ReleaseQueue(q *queue.Queue) {
	q.Init()
	queuePool.Put(q)
}
