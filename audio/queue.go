package audio

import (
	"sync"

	"gopkg.in/eapache/queue.v1"
)

// commandQueue is a FIFO of sound ids with many writers and one drainer.
type commandQueue struct {
	mu    sync.Mutex
	items *queue.Queue
}

func (q *commandQueue) push(id SoundID) {
	q.mu.Lock()
	if q.items == nil {
		q.items = queue.New()
	}
	q.items.Add(id)
	q.mu.Unlock()
}

// drain swaps the backing queue out under the lock and copies it afterwards,
// so writers never wait on the copy.
func (q *commandQueue) drain() []SoundID {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()

	if items == nil || items.Length() == 0 {
		return nil
	}
	out := make([]SoundID, 0, items.Length())
	for items.Length() > 0 {
		out = append(out, items.Remove().(SoundID))
	}
	return out
}

func (q *commandQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items == nil {
		return 0
	}
	return q.items.Length()
}

// Queues holds the pending play and stop commands until the next tick.
// Enqueue methods are safe from any goroutine; only the coordinator drains.
type Queues struct {
	play commandQueue
	stop commandQueue
}

// NewQueues creates empty command queues.
func NewQueues() *Queues {
	return &Queues{}
}

// EnqueuePlay appends a play request.
func (q *Queues) EnqueuePlay(id SoundID) {
	if q == nil {
		return
	}
	q.play.push(id)
}

// EnqueueStop appends a stop request.
func (q *Queues) EnqueueStop(id SoundID) {
	if q == nil {
		return
	}
	q.stop.push(id)
}

// DrainPlay removes and returns every queued play in insertion order.
func (q *Queues) DrainPlay() []SoundID {
	if q == nil {
		return nil
	}
	return q.play.drain()
}

// DrainStop removes and returns every queued stop in insertion order.
func (q *Queues) DrainStop() []SoundID {
	if q == nil {
		return nil
	}
	return q.stop.drain()
}

// Pending reports how many plays and stops wait for the next tick.
func (q *Queues) Pending() (plays, stops int) {
	if q == nil {
		return 0, 0
	}
	return q.play.len(), q.stop.len()
}
