package goals

import (
	"sync"

	"github.com/and161185/goalkeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// syncQueue runs remote writes in the background, in FIFO order per goal.
// Writes for different goals run independently.
type syncQueue struct {
	mu     sync.Mutex
	tails  map[uuid.UUID]chan struct{}
	seq    map[uuid.UUID]uint64
	state  map[uuid.UUID]model.SyncState
	latest map[uuid.UUID]model.Goal
	closed bool
	wg     sync.WaitGroup
}

func newSyncQueue() *syncQueue {
	return &syncQueue{
		tails:  map[uuid.UUID]chan struct{}{},
		seq:    map[uuid.UUID]uint64{},
		state:  map[uuid.UUID]model.SyncState{},
		latest: map[uuid.UUID]model.Goal{},
	}
}

// enqueue schedules fn after every earlier job for g.ID and remembers g as the
// newest unsynced version. It reports false once the queue is closed.
func (q *syncQueue) enqueue(g model.Goal, fn func() error) bool {
	id := g.ID
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	prev := q.tails[id]
	done := make(chan struct{})
	q.tails[id] = done
	q.seq[id]++
	n := q.seq[id]
	q.state[id] = model.SyncPending
	q.latest[id] = g
	q.wg.Add(1)
	q.mu.Unlock()

	go func() {
		defer q.wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		err := fn()

		q.mu.Lock()
		defer q.mu.Unlock()
		// only the newest job decides the reported state
		if q.seq[id] != n {
			return
		}
		if err != nil {
			q.state[id] = model.SyncFailed
		} else {
			q.state[id] = model.SyncSynced
		}
		delete(q.tails, id)
		delete(q.latest, id)
	}()
	return true
}

// pending returns the newest queued version of id while it is still unsynced.
func (q *syncQueue) pending(id uuid.UUID) (model.Goal, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	g, ok := q.latest[id]
	return g, ok
}

// mark records a state for id without running anything.
func (q *syncQueue) mark(id uuid.UUID, s model.SyncState) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.state[id] = s
}

func (q *syncQueue) status(id uuid.UUID) model.SyncState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state[id]
}

// wait blocks until every job queued so far for id has finished.
func (q *syncQueue) wait(id uuid.UUID) {
	q.mu.Lock()
	tail := q.tails[id]
	q.mu.Unlock()
	if tail != nil {
		<-tail
	}
}

// forget drops the recorded state of id.
func (q *syncQueue) forget(id uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.state, id)
}

// reset drops all recorded states. Running jobs are not interrupted.
func (q *syncQueue) reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.state = map[uuid.UUID]model.SyncState{}
}

// flush waits for all queued jobs.
func (q *syncQueue) flush() { q.wg.Wait() }

// close stops accepting jobs and waits for the queued ones.
func (q *syncQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wg.Wait()
}
