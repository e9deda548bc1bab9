package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"shelf/internal/thermostat"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

type recordingPublisher struct {
	mu       sync.Mutex
	calls    int
	failN    int
	topics   []string
	payloads []UnitPayload
	sent     chan struct{}
}

func newRecordingPublisher(failN int) *recordingPublisher {
	return &recordingPublisher{failN: failN, sent: make(chan struct{}, 16)}
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failN {
		return errors.New("broker unavailable")
	}
	var up UnitPayload
	if err := json.Unmarshal(payload, &up); err != nil {
		return err
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, up)
	p.sent <- struct{}{}
	return nil
}

func (p *recordingPublisher) snapshot() (int, []UnitPayload) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls, append([]UnitPayload(nil), p.payloads...)
}

func waitSent(t *testing.T, p *recordingPublisher) {
	t.Helper()
	select {
	case <-p.sent:
	case <-time.After(2 * time.Second):
		t.Fatalf("no command delivered")
	}
}

func TestCommander_CoalescesToLatest(t *testing.T) {
	pub := newRecordingPublisher(0)
	c := NewCommander(pub, NewTopics("shelf"), BreakerSettings{Failures: 3}, nil)

	c.SetUnit(thermostat.ModeHeat, 20)
	c.SetUnit(thermostat.ModeHeat, 21)
	c.SetUnit(thermostat.ModeCool, 24)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)
	waitSent(t, pub)

	select {
	case <-pub.sent:
		t.Fatalf("superseded commands must not be delivered")
	case <-time.After(50 * time.Millisecond):
	}
	_, got := pub.snapshot()
	if len(got) != 1 || got[0].Mode != "COOL" || got[0].TargetC != 24 || got[0].IssuedAt.IsZero() {
		t.Fatalf("payloads = %+v", got)
	}
	if pub.topics[0] != "shelf/unit/set" {
		t.Fatalf("topic = %q", pub.topics[0])
	}
}

func TestCommander_SetUnitNeverBlocks(t *testing.T) {
	c := NewCommander(newRecordingPublisher(0), NewTopics("shelf"), BreakerSettings{Failures: 1}, nil)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			c.SetUnit(thermostat.ModeHeat, float64(i))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("SetUnit blocked without a running consumer")
	}
}

func TestCommander_RetriesAfterFailure(t *testing.T) {
	pub := newRecordingPublisher(2)
	var failures int
	var mu sync.Mutex
	c := NewCommander(pub, NewTopics("shelf"), BreakerSettings{Failures: 5, OpenFor: time.Minute}, nil,
		WithRetryBackOff(backoff.NewConstantBackOff(time.Millisecond)),
		WithFailureHook(func(error) { mu.Lock(); failures++; mu.Unlock() }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)
	c.SetUnit(thermostat.ModeHeat, 22)
	waitSent(t, pub)

	calls, got := pub.snapshot()
	if calls != 3 || len(got) != 1 || got[0].TargetC != 22 {
		t.Fatalf("calls = %d payloads = %+v", calls, got)
	}
	mu.Lock()
	defer mu.Unlock()
	if failures != 2 {
		t.Fatalf("failures = %d, want 2", failures)
	}
}

func TestCommander_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	pub := newRecordingPublisher(1000)
	errs := make(chan error, 16)
	c := NewCommander(pub, NewTopics("shelf"), BreakerSettings{Failures: 2, OpenFor: time.Hour}, nil,
		WithRetryBackOff(backoff.NewConstantBackOff(time.Millisecond)),
		WithFailureHook(func(err error) {
			select {
			case errs <- err:
			default:
			}
		}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)
	c.SetUnit(thermostat.ModeHeat, 22)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case err := <-errs:
			if errors.Is(err, gobreaker.ErrOpenState) {
				if calls, _ := pub.snapshot(); calls != 2 {
					t.Fatalf("publisher called %d times, want 2 before the breaker opened", calls)
				}
				return
			}
		case <-deadline:
			t.Fatalf("breaker never opened")
		}
	}
}
