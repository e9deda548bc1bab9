package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shelf/internal/logger"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Options struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	ConnectRetries int
}

const (
	qos            = 1
	disconnectWait = 250
	connectTimeout = 10 * time.Second
)

// Client is the MQTT session to the hub's broker. It resubscribes on every reconnect.
// It can be handed to a Commander before Connect; publishes fail until the session is up.
type Client struct {
	opts   Options
	topics Topics
	router *Router
	log    *logger.Logger

	mu     sync.RWMutex
	client mqtt.Client
}

func NewClient(o Options, topics Topics, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{opts: o, topics: topics, log: log.Component("mqtt")}
}

// Connect dials the broker, retrying with exponential backoff, and subscribes the router.
func (c *Client) Connect(ctx context.Context, router *Router) error {
	c.router = router
	o := c.opts

	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetUsername(o.Username)
	opts.SetPassword(o.Password)
	opts.SetClientID(o.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetOrderMatters(false)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) { router.BrokerLost(err) })

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	retries := o.ConnectRetries
	if retries < 1 {
		retries = 1
	}

	// Publishes may start as soon as onConnect subscribes, before Connect returns.
	cl := mqtt.NewClient(opts)
	c.setClient(cl)

	err := backoff.Retry(func() error {
		if token := cl.Connect(); token.Wait() && token.Error() != nil {
			c.log.Warnw("mqtt_connect_failed", "broker", o.Broker, "err", token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries-1)), ctx))
	if err != nil {
		return fmt.Errorf("mqtt connect %s: %w", o.Broker, err)
	}
	c.log.Infow("mqtt_connected", "broker", o.Broker, "prefix", c.topics.Prefix)
	return nil
}

func (c *Client) setClient(cl mqtt.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = cl
}

func (c *Client) session() mqtt.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

func (c *Client) onConnect(cl mqtt.Client) {
	subs := map[string]func(string, []byte){
		c.topics.TelemetryFilter(): c.router.HandleTelemetry,
		c.topics.MasterStatus():    c.router.HandleMasterStatus,
	}
	for topic, handle := range subs {
		handle := handle
		topic := topic
		token := cl.Subscribe(topic, qos, func(_ mqtt.Client, m mqtt.Message) {
			handle(m.Topic(), m.Payload())
		})
		go func() {
			if token.Wait() && token.Error() != nil {
				c.log.Errorw("mqtt_subscribe_failed", "topic", topic, "err", token.Error())
				return
			}
			c.log.Infow("mqtt_subscribed", "topic", topic)
		}()
	}
}

// Publish sends one message at QoS 1 and waits for the broker's acknowledgment.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	cl := c.session()
	if cl == nil || !cl.IsConnectionOpen() {
		return fmt.Errorf("publish %s: not connected", topic)
	}
	token := cl.Publish(topic, qos, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) Close() {
	if cl := c.session(); cl != nil && cl.IsConnected() {
		cl.Disconnect(disconnectWait)
		c.log.Infow("mqtt_disconnected")
	}
}
