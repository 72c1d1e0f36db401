package notes

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/HongCH-code/Notes-Assistant/pkg/logging"
)

type scriptedQueue struct {
	ch       chan queueMessage
	delMutex sync.Mutex
	deleted  int
}

func newScriptedQueue() *scriptedQueue {
	return &scriptedQueue{ch: make(chan queueMessage, 10)}
}

func (q *scriptedQueue) enqueue(msg queueMessage) {
	q.ch <- msg
}

func (q *scriptedQueue) Send(_ context.Context, _ string) error {
	return nil
}

func (q *scriptedQueue) Receive(ctx context.Context, _ int, _ int) ([]queueMessage, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg := <-q.ch:
		return []queueMessage{msg}, nil
	case <-time.After(50 * time.Millisecond):
		return nil, nil
	}
}

func (q *scriptedQueue) Delete(_ context.Context, _ string) error {
	q.delMutex.Lock()
	q.deleted++
	q.delMutex.Unlock()
	return nil
}

func (q *scriptedQueue) deleteCount() int {
	q.delMutex.Lock()
	defer q.delMutex.Unlock()
	return q.deleted
}

func waitFor(cond func() bool, timeout time.Duration, t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestWorkerProcessesJob(t *testing.T) {
	queue := newScriptedQueue()
	f := newPipelineFixture()
	worker := NewWorker(f.build(), queue, logging.Default(), WithWorkerCount(1), WithReceiveBatchSize(1), WithReceiveWaitSeconds(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	body, _ := json.Marshal(summaryPayload("remember to buy milk"))
	queue.enqueue(queueMessage{ID: "msg-1", Body: string(body), ReceiptHandle: "rh-1"})

	waitFor(func() bool {
		return len(f.messenger.sentPushes()) > 0
	}, time.Second, t)

	cancel()
	worker.Wait()

	if saved := f.store.saved(); len(saved) != 1 {
		t.Fatalf("expected one persisted note, got %d", len(saved))
	}
	if pushes := f.messenger.sentPushes(); len(pushes) != 1 {
		t.Fatalf("expected exactly one push, got %d", len(pushes))
	}
	if queue.deleteCount() != 1 {
		t.Fatalf("expected the message to be deleted once, got %d", queue.deleteCount())
	}
}

func TestWorkerDropsMalformedJob(t *testing.T) {
	queue := newScriptedQueue()
	f := newPipelineFixture()
	worker := NewWorker(f.build(), queue, logging.Default(), WithWorkerCount(1), WithReceiveBatchSize(1), WithReceiveWaitSeconds(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	queue.enqueue(queueMessage{ID: "msg-1", Body: "{not json", ReceiptHandle: "rh-1"})
	queue.enqueue(queueMessage{ID: "msg-2", Body: `{"id":"j","kind":"summary"}`, ReceiptHandle: "rh-2"})

	waitFor(func() bool {
		return queue.deleteCount() == 2
	}, time.Second, t)

	cancel()
	worker.Wait()

	if pushes := f.messenger.sentPushes(); len(pushes) != 0 {
		t.Fatalf("expected malformed jobs to be dropped silently, got %#v", pushes)
	}
	if saved := f.store.saved(); len(saved) != 0 {
		t.Fatalf("expected nothing persisted, got %#v", saved)
	}
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	queue := newScriptedQueue()
	f := newPipelineFixture()
	worker := NewWorker(f.build(), queue, logging.Default(), WithWorkerCount(2), WithReceiveWaitSeconds(0))

	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		worker.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
