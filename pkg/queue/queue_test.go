package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mosaicpim/mosaic/pkg/queue"
)

// ─── Job types ────────────────────────────────────────────────────────────────

var processed = make(chan string, 100)

type echoJob struct {
	Val string
}

func (j *echoJob) Handle() error {
	processed <- j.Val
	return nil
}

type failJob struct{}

func (j *failJob) Handle() error {
	return errors.New("always fails")
}

func init() {
	// Start workers so jobs actually get processed in tests.
	ctx, cancel := context.WithCancel(context.Background())
	_ = cancel
	queue.StartWorkers(ctx, 2)

	queue.Register("*queue_test.echoJob", func() queue.Job { return &echoJob{} })
	queue.Register("*queue_test.failJob", func() queue.Job { return &failJob{} })
}

// ─── Tests ────────────────────────────────────────────────────────────────────

func TestDispatchAndProcess(t *testing.T) {
	if err := queue.Dispatch(&echoJob{Val: "hello"}); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	select {
	case got := <-processed:
		if got != "hello" {
			t.Errorf("expected payload to survive the round trip, got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job was never processed")
	}
}

func TestFailedJobIsRecordedAfterSingleAttempt(t *testing.T) {
	before := len(queue.FailedJobs())

	if err := queue.Dispatch(&failJob{}); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if len(queue.FailedJobs()) > before {
			return
		}
		select {
		case <-deadline:
			t.Fatal("expected the failed job to be recorded")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestDispatchConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(20)
	for i := 0; i < 20; i++ {
		go func() {
			defer wg.Done()
			queue.Dispatch(&echoJob{Val: "c"}) //nolint:errcheck
		}()
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		select {
		case <-processed:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of 20 jobs were processed", i)
		}
	}
}
