package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shelf/internal/logger"
	"shelf/internal/thermostat"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// Publisher delivers one message to the broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

type BreakerSettings struct {
	Failures int
	OpenFor  time.Duration
	Interval time.Duration
}

const maxRetryWait = 30 * time.Second

// Commander implements thermostat.UnitCommander on top of MQTT. SetUnit only records the
// latest command; Run delivers it. Commands are absolute setpoints, so an undelivered one
// is simply replaced by the next.
type Commander struct {
	pending chan UnitPayload
	pub     Publisher
	topic   string
	breaker *gobreaker.CircuitBreaker
	retry   backoff.BackOff
	clock   func() time.Time
	log     *logger.Logger

	onFailure func(error)
}

type CommanderOption func(*Commander)

// WithRetryBackOff sets the wait policy between failed deliveries.
func WithRetryBackOff(b backoff.BackOff) CommanderOption {
	return func(c *Commander) { c.retry = b }
}

// WithFailureHook is called for every failed delivery.
func WithFailureHook(fn func(error)) CommanderOption {
	return func(c *Commander) { c.onFailure = fn }
}

func WithCommanderClock(clock func() time.Time) CommanderOption {
	return func(c *Commander) { c.clock = clock }
}

func NewCommander(pub Publisher, topics Topics, bs BreakerSettings, log *logger.Logger, opts ...CommanderOption) *Commander {
	if log == nil {
		log = logger.NewNop()
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = maxRetryWait
	bo.MaxElapsedTime = 0

	c := &Commander{
		pending:   make(chan UnitPayload, 1),
		pub:       pub,
		topic:     topics.UnitSet(),
		breaker:   newBreaker("unit-publish", bs),
		retry:     bo,
		clock:     time.Now,
		log:       log.Component("commander"),
		onFailure: func(error) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newBreaker(name string, bs BreakerSettings) *gobreaker.CircuitBreaker {
	fails := bs.Failures
	if fails < 1 {
		fails = 1
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: bs.Interval,
		Timeout:  bs.OpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(fails)
		},
	})
}

var _ thermostat.UnitCommander = (*Commander)(nil)

// SetUnit never blocks. A command still waiting for delivery is replaced.
func (c *Commander) SetUnit(mode thermostat.Mode, targetC float64) {
	c.offer(UnitPayload{Mode: mode.String(), TargetC: targetC, IssuedAt: c.clock().UTC()})
}

func (c *Commander) offer(p UnitPayload) {
	for {
		select {
		case c.pending <- p:
			return
		default:
		}
		select {
		case <-c.pending:
		default:
		}
	}
}

// Run delivers commands until ctx is cancelled. A failed delivery is retried after a
// backoff unless a newer command arrived in the meantime.
func (c *Commander) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-c.pending:
			if err := c.deliver(ctx, p); err != nil {
				c.onFailure(err)
				wait := c.retry.NextBackOff()
				if wait == backoff.Stop {
					wait = maxRetryWait
				}
				c.log.Warnw("unit_publish_failed", "mode", p.Mode, "target_c", p.TargetC,
					"retry_in", wait.String(), "breaker", c.breaker.State().String(), "err", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(wait):
				}
				select {
				case c.pending <- p:
				default:
				}
				continue
			}
			c.retry.Reset()
			c.log.Infow("unit_published", "mode", p.Mode, "target_c", p.TargetC)
		}
	}
}

func (c *Commander) deliver(ctx context.Context, p UnitPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode unit command: %w", err)
	}
	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.pub.Publish(ctx, c.topic, body)
	})
	return err
}
