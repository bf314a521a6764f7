package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/zeromq"
)

type countingPublisher struct {
	mu     sync.Mutex
	counts map[string]int
	closed bool
}

func (p *countingPublisher) Publish(topic string, v interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return zeromq.ErrServiceClosed
	}
	p.counts[topic]++
	return nil
}

func (p *countingPublisher) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[topic]
}

func TestRunPublishesUntilCancelled(t *testing.T) {
	pub := &countingPublisher{counts: map[string]int{}}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, pub, customlog.NewNopLogger(),
			Source{Topic: "fast", Hz: 200, Sample: func(time.Time) (interface{}, bool) { return 1, true }},
			Source{Topic: "skipped", Hz: 200, Sample: func(time.Time) (interface{}, bool) { return nil, false }},
			Source{Topic: "disabled", Hz: 0, Sample: func(time.Time) (interface{}, bool) { return 1, true }},
		)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for pub.count("fast") < 5 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 5 frames, got %d", pub.count("fast"))
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if n := pub.count("skipped"); n != 0 {
		t.Errorf("skipped source published %d frames", n)
	}
	if n := pub.count("disabled"); n != 0 {
		t.Errorf("disabled source published %d frames", n)
	}
}

func TestRunStopsWhenPublisherCloses(t *testing.T) {
	pub := &countingPublisher{counts: map[string]int{}, closed: true}
	err := Run(context.Background(), pub, customlog.NewNopLogger(),
		Source{Topic: "t", Hz: 100, Sample: func(time.Time) (interface{}, bool) { return 1, true }})
	if err != nil {
		t.Fatalf("Run returned %v", err)
	}
}
