package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testQueue = "https://sqs.eu-west-1.amazonaws.com/123456789/test-queue"

// fakeQueue hands out the configured batches in order and records every call.
type fakeQueue struct {
	batches    [][]Message
	fetchErrAt int // fetch number (1-based) that fails; 0 disables
	deleteErr  map[string]error

	fetches int
	deleted []string
	calls   []string
}

func (q *fakeQueue) ReceiveBatch(_ context.Context, queueURL string) ([]Message, error) {
	q.fetches++
	q.calls = append(q.calls, "receive")
	if queueURL != testQueue {
		return nil, fmt.Errorf("unexpected queue %q", queueURL)
	}
	if q.fetchErrAt == q.fetches {
		return nil, errors.New("connection reset")
	}
	if len(q.batches) == 0 {
		return nil, nil
	}
	batch := q.batches[0]
	q.batches = q.batches[1:]
	return batch, nil
}

func (q *fakeQueue) Delete(_ context.Context, queueURL, receiptHandle string) error {
	q.calls = append(q.calls, "delete:"+receiptHandle)
	if queueURL != testQueue {
		return fmt.Errorf("unexpected queue %q", queueURL)
	}
	if err := q.deleteErr[receiptHandle]; err != nil {
		return err
	}
	q.deleted = append(q.deleted, receiptHandle)
	return nil
}

type fakeCollector struct {
	successes []int
	errors    int
}

func (c *fakeCollector) DrainError() { c.errors++ }

func (c *fakeCollector) DrainSuccess(count int, _ int64) { c.successes = append(c.successes, count) }

func (c *fakeCollector) SendError() {}

func (c *fakeCollector) SendSuccess(int64) {}

// callLock records Lock and Unlock into the same call log as the queue.
type callLock struct {
	q      *fakeQueue
	held   bool
	misuse bool
}

func (l *callLock) Lock() {
	if l.held {
		l.misuse = true
	}
	l.held = true
	l.q.calls = append(l.q.calls, "lock")
}

func (l *callLock) Unlock() {
	if !l.held {
		l.misuse = true
	}
	l.held = false
	l.q.calls = append(l.q.calls, "unlock")
}

func msgs(bodies ...string) []Message {
	out := make([]Message, 0, len(bodies))
	for _, b := range bodies {
		out = append(out, Message{ID: "id-" + b, ReceiptHandle: "h-" + b, Body: b})
	}
	return out
}

func TestDrain_TwoMessages(t *testing.T) {
	q := &fakeQueue{batches: [][]Message{{
		{ID: "1", ReceiptHandle: "h1", Body: "a"},
		{ID: "2", ReceiptHandle: "h2", Body: "b"},
	}}}
	collector := &fakeCollector{}

	bodies, err := NewDrainer(q, q, nil, collector, nil).Drain(context.Background(), testQueue)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, bodies)
	assert.Equal(t, []string{"receive", "delete:h1", "delete:h2", "receive"}, q.calls)
	assert.Equal(t, []int{2}, collector.successes)
	assert.Zero(t, collector.errors)
}

func TestDrain_ManyBatches(t *testing.T) {
	q := &fakeQueue{batches: [][]Message{
		msgs("m1", "m2", "m3"),
		msgs("m4"),
		msgs("m5", "m6"),
	}}

	bodies, err := NewDrainer(q, q, nil, nil, nil).Drain(context.Background(), testQueue)
	require.NoError(t, err)

	assert.Equal(t, []string{"m1", "m2", "m3", "m4", "m5", "m6"}, bodies)
	assert.Equal(t, []string{"h-m1", "h-m2", "h-m3", "h-m4", "h-m5", "h-m6"}, q.deleted)
	assert.Equal(t, 4, q.fetches)
}

func TestDrain_DeletesBeforeNextFetch(t *testing.T) {
	q := &fakeQueue{batches: [][]Message{msgs("x"), msgs("y")}}

	_, err := NewDrainer(q, q, nil, nil, nil).Drain(context.Background(), testQueue)
	require.NoError(t, err)

	assert.Equal(t, []string{"receive", "delete:h-x", "receive", "delete:h-y", "receive"}, q.calls)
}

func TestDrain_EmptyQueue(t *testing.T) {
	q := &fakeQueue{}
	collector := &fakeCollector{}

	bodies, err := NewDrainer(q, q, nil, collector, nil).Drain(context.Background(), testQueue)
	require.NoError(t, err)

	assert.NotNil(t, bodies)
	assert.Empty(t, bodies)
	assert.Empty(t, q.deleted)
	assert.Equal(t, 1, q.fetches)
	assert.Equal(t, []int{0}, collector.successes)
}

func TestDrain_FetchFailureKeepsPrefix(t *testing.T) {
	q := &fakeQueue{
		batches:    [][]Message{msgs("a", "b"), msgs("c")},
		fetchErrAt: 3,
	}
	collector := &fakeCollector{}

	bodies, err := NewDrainer(q, q, nil, collector, nil).Drain(context.Background(), testQueue)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	assert.Equal(t, []string{"a", "b", "c"}, bodies)
	assert.Equal(t, []string{"h-a", "h-b", "h-c"}, q.deleted)
	assert.Equal(t, "receive", q.calls[len(q.calls)-1], "no delete after the failed fetch")
	assert.Equal(t, 1, collector.errors)
	assert.Empty(t, collector.successes)
}

func TestDrain_FirstFetchFails(t *testing.T) {
	q := &fakeQueue{batches: [][]Message{msgs("a")}, fetchErrAt: 1}

	bodies, err := NewDrainer(q, q, nil, nil, nil).Drain(context.Background(), testQueue)
	require.Error(t, err)
	assert.Empty(t, bodies)
	assert.Empty(t, q.deleted)
}

func TestDrain_DeleteFailureAborts(t *testing.T) {
	deleteErr := errors.New("access denied")
	q := &fakeQueue{
		batches:   [][]Message{msgs("a", "b", "c")},
		deleteErr: map[string]error{"h-b": deleteErr},
	}

	bodies, err := NewDrainer(q, q, nil, nil, nil).Drain(context.Background(), testQueue)
	require.ErrorIs(t, err, deleteErr)

	assert.Equal(t, []string{"a", "b"}, bodies)
	assert.Equal(t, []string{"h-a"}, q.deleted)
	assert.Equal(t, 1, q.fetches)
}

func TestDrain_MaxBatches(t *testing.T) {
	q := &fakeQueue{batches: [][]Message{msgs("a"), msgs("b"), msgs("c")}}
	d := NewDrainer(q, q, nil, nil, nil)
	d.MaxBatches = 2

	bodies, err := d.Drain(context.Background(), testQueue)
	require.ErrorIs(t, err, ErrDrainIncomplete)

	assert.Equal(t, []string{"a", "b"}, bodies)
	assert.Equal(t, 2, q.fetches)
}

func TestDrain_MaxBatchesNotReached(t *testing.T) {
	q := &fakeQueue{batches: [][]Message{msgs("a")}}
	d := NewDrainer(q, q, nil, nil, nil)
	d.MaxBatches = 5

	bodies, err := d.Drain(context.Background(), testQueue)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, bodies)
}

func TestDrain_RerunOnQuiescentQueue(t *testing.T) {
	q := &fakeQueue{batches: [][]Message{msgs("a")}}
	d := NewDrainer(q, q, nil, nil, nil)

	first, err := d.Drain(context.Background(), testQueue)
	require.NoError(t, err)
	second, err := d.Drain(context.Background(), testQueue)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, first)
	assert.Empty(t, second)
}

func TestDrain_HoldsLockForWholeDrain(t *testing.T) {
	q := &fakeQueue{batches: [][]Message{msgs("a", "b"), msgs("c")}}
	lock := &callLock{q: q}

	bodies, err := NewDrainer(q, q, lock, nil, nil).Drain(context.Background(), testQueue)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, bodies)
	assert.Equal(t, []string{
		"lock",
		"receive", "delete:h-a", "delete:h-b",
		"receive", "delete:h-c",
		"receive",
		"unlock",
	}, q.calls)
	assert.False(t, lock.misuse)
}

func TestDrain_ReleasesLockOnFailure(t *testing.T) {
	q := &fakeQueue{
		batches:   [][]Message{msgs("a")},
		deleteErr: map[string]error{"h-a": errors.New("denied")},
	}
	lock := &callLock{q: q}

	_, err := NewDrainer(q, q, lock, nil, nil).Drain(context.Background(), testQueue)
	require.Error(t, err)

	assert.Equal(t, []string{"lock", "receive", "delete:h-a", "unlock"}, q.calls)
	assert.False(t, lock.held)
}
