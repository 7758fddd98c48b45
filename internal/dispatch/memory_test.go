package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"manualstudio/internal/services"
)

func TestEnqueueDequeue(t *testing.T) {
	q := NewInMemoryQueue(4)
	ctx := context.Background()

	if err := q.Enqueue(ctx, Task{Name: TaskProcessVideo, JobID: "j1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	task, ok := q.Dequeue(ctx)
	if !ok {
		t.Fatal("dequeue returned closed")
	}
	if task.Name != TaskProcessVideo || task.JobID != "j1" {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestEnqueueFullQueue(t *testing.T) {
	q := NewInMemoryQueue(1)
	ctx := context.Background()

	if err := q.Enqueue(ctx, Task{Name: TaskProcessVideo, JobID: "j1"}); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	err := q.Enqueue(ctx, Task{Name: TaskProcessVideo, JobID: "j2"})
	if !errors.Is(err, services.ErrDispatch) {
		t.Fatalf("want ErrDispatch, got %v", err)
	}
	if q.Pending("j2") {
		t.Fatal("rejected task counted as pending")
	}
}

func TestEnqueueFullQueueKeepsRevocation(t *testing.T) {
	q := NewInMemoryQueue(1)
	ctx := context.Background()

	if err := q.Enqueue(ctx, Task{Name: TaskProcessVideo, JobID: "j1"}); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	q.Revoke("j2")
	if err := q.Enqueue(ctx, Task{Name: TaskProcessVideo, JobID: "j2"}); !errors.Is(err, services.ErrDispatch) {
		t.Fatalf("want ErrDispatch, got %v", err)
	}
	if !q.Revoked("j2") {
		t.Fatal("revocation lost on a rejected enqueue")
	}
}

func TestPendingTracksQueuedTasks(t *testing.T) {
	q := NewInMemoryQueue(4)
	ctx := context.Background()

	if err := q.Enqueue(ctx, Task{Name: TaskProcessVideo, JobID: "j1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if !q.Pending("j1") {
		t.Fatal("queued task not pending")
	}
	if _, ok := q.Dequeue(ctx); !ok {
		t.Fatal("dequeue failed")
	}
	if q.Pending("j1") {
		t.Fatal("dequeued task still pending")
	}
}

func TestPendingConsistentUnderConcurrentDrain(t *testing.T) {
	q := NewInMemoryQueue(1)
	ctx := context.Background()

	const rounds = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < rounds; i++ {
			if _, ok := q.Dequeue(ctx); !ok {
				return
			}
		}
	}()
	for i := 0; i < rounds; i++ {
		for {
			err := q.Enqueue(ctx, Task{Name: TaskProcessVideo, JobID: "j1"})
			if err == nil {
				break
			}
			if !errors.Is(err, services.ErrDispatch) {
				t.Fatalf("enqueue: %v", err)
			}
		}
	}
	<-done

	if q.Pending("j1") {
		t.Fatal("drained job still reported pending")
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	q := NewInMemoryQueue(1)
	q.Close()
	if err := q.Enqueue(context.Background(), Task{Name: TaskProcessVideo, JobID: "j1"}); !errors.Is(err, services.ErrDispatch) {
		t.Fatalf("want ErrDispatch, got %v", err)
	}
}

func TestRevokeConsumedOnce(t *testing.T) {
	q := NewInMemoryQueue(1)
	q.Revoke("j1")
	if !q.Revoked("j1") {
		t.Fatal("revocation not visible")
	}
	if q.Revoked("j1") {
		t.Fatal("revocation not consumed")
	}
	if q.Revoked("other") {
		t.Fatal("unknown job reported revoked")
	}
}

func TestEnqueueClearsStaleRevocation(t *testing.T) {
	q := NewInMemoryQueue(2)
	ctx := context.Background()

	q.Revoke("j1")
	if err := q.Enqueue(ctx, Task{Name: TaskRegenerateSlides, JobID: "j1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if q.Revoked("j1") {
		t.Fatal("stale revocation survived re-enqueue")
	}
}

func TestDequeueHonorsContext(t *testing.T) {
	q := NewInMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, ok := q.Dequeue(ctx)
	if ok {
		t.Fatal("dequeue returned a task from an empty queue")
	}
	if time.Since(start) > time.Second {
		t.Fatal("dequeue did not respect context deadline")
	}
}

func TestCloseDrainsPendingTasks(t *testing.T) {
	q := NewInMemoryQueue(2)
	ctx := context.Background()

	if err := q.Enqueue(ctx, Task{Name: TaskProcessVideo, JobID: "j1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	q.Close()

	task, ok := q.Dequeue(ctx)
	if !ok || task.JobID != "j1" {
		t.Fatalf("pending task lost on close: %+v ok=%v", task, ok)
	}
	if _, ok := q.Dequeue(ctx); ok {
		t.Fatal("dequeue after drain should report closed")
	}
}
