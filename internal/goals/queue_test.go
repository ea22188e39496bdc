package goals

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/and161185/goalkeeper/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func TestSyncQueue_FIFOPerGoal(t *testing.T) {
	q := newSyncQueue()
	g := goal("a", false)

	var mu sync.Mutex
	var order []int
	gate := make(chan struct{})
	for i := range 5 {
		ok := q.enqueue(g, func() error {
			if i == 0 {
				<-gate
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
		require.True(t, ok)
	}
	assert.Equal(t, model.SyncPending, q.status(g.ID))
	close(gate)
	q.flush()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, model.SyncSynced, q.status(g.ID))
	_, pending := q.pending(g.ID)
	assert.False(t, pending)
}

func TestSyncQueue_GoalsAreIndependent(t *testing.T) {
	q := newSyncQueue()
	a, b := goal("a", false), goal("b", false)

	gate := make(chan struct{})
	q.enqueue(a, func() error { <-gate; return nil })
	done := make(chan struct{})
	q.enqueue(b, func() error { close(done); return nil })

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("job for b waited on a")
	}
	close(gate)
	q.flush()
}

func TestSyncQueue_NewestJobDecidesState(t *testing.T) {
	q := newSyncQueue()
	g := goal("a", false)
	newer := g
	newer.Completed = true

	gate := make(chan struct{})
	q.enqueue(g, func() error { <-gate; return errors.New("boom") })
	q.enqueue(newer, func() error { return nil })

	p, ok := q.pending(g.ID)
	require.True(t, ok)
	assert.Equal(t, newer, p)

	close(gate)
	q.flush()
	assert.Equal(t, model.SyncSynced, q.status(g.ID))
}

func TestSyncQueue_FailureIsReported(t *testing.T) {
	q := newSyncQueue()
	g := goal("a", false)
	q.enqueue(g, func() error { return errors.New("boom") })
	q.flush()
	assert.Equal(t, model.SyncFailed, q.status(g.ID))

	q.forget(g.ID)
	assert.Equal(t, model.SyncUnknown, q.status(g.ID))
}

func TestSyncQueue_WaitBlocksUntilDrained(t *testing.T) {
	q := newSyncQueue()
	g := goal("a", false)
	var ran bool
	gate := make(chan struct{})
	q.enqueue(g, func() error { <-gate; ran = true; return nil })

	waited := make(chan struct{})
	go func() {
		q.wait(g.ID)
		close(waited)
	}()
	select {
	case <-waited:
		t.Fatal("wait returned before the job finished")
	case <-time.After(20 * time.Millisecond):
	}
	close(gate)
	<-waited
	assert.True(t, ran)

	q.wait(uuid.Must(uuid.NewV4()))
}

func TestSyncQueue_CloseRejectsNewJobs(t *testing.T) {
	q := newSyncQueue()
	g := goal("a", false)
	var ran bool
	q.enqueue(g, func() error { ran = true; return nil })
	q.close()
	assert.True(t, ran)

	assert.False(t, q.enqueue(g, func() error { return nil }))
}

func TestSyncQueue_Reset(t *testing.T) {
	q := newSyncQueue()
	g := goal("a", false)
	q.mark(g.ID, model.SyncFailed)
	q.reset()
	assert.Equal(t, model.SyncUnknown, q.status(g.ID))
}
