package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// pendingCapacity bounds the number of outbound messages held while the
// broker is unreachable.
const pendingCapacity = 64

// commandCapacity bounds the queue between paho's receive goroutine and the
// run loop. Commands beyond it are dropped, never blocked on: the control
// loop must keep ticking.
const commandCapacity = 16

// RealClient talks to an actual MQTT broker: it subscribes to the per-output
// set topics and publishes state changes, acks and system events. Outbound
// messages queue while disconnected and replay on reconnect.
type RealClient struct {
	client   paho.Client
	prefix   string
	log      *logrus.Logger
	commands chan Command
	pending  *outbox
}

// NewRealClient connects to the given broker and subscribes to the command
// topics under prefix.
func NewRealClient(broker, prefix string, log *logrus.Logger) (*RealClient, error) {
	c := &RealClient{
		prefix:   prefix,
		log:      log,
		commands: make(chan Command, commandCapacity),
		pending:  newOutbox(pendingCapacity, log),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("timeprop-relay").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)

	c.client = paho.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return c, nil
}

// Commands returns the channel on which parsed power requests are delivered.
func (c *RealClient) Commands() <-chan Command {
	return c.commands
}

func (c *RealClient) onConnect(client paho.Client) {
	filter := CommandFilter(c.prefix)
	if token := client.Subscribe(filter, 1, c.handleCommand); token.Wait() && token.Error() != nil {
		c.log.WithField("filter", filter).Errorf("subscribe failed: %v", token.Error())
	} else {
		c.log.WithField("filter", filter).Info("subscribed to command topics")
	}

	for _, msg := range c.pending.drain() {
		token := client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		if !token.WaitTimeout(5 * time.Second) {
			c.log.WithField("topic", msg.topic).Warn("replay timeout")
		}
	}
}

func (c *RealClient) onConnectionLost(client paho.Client, err error) {
	c.log.Errorf("mqtt connection lost: %v", err)
}

func (c *RealClient) handleCommand(client paho.Client, msg paho.Message) {
	cmd, err := ParseCommand(c.prefix, msg.Topic(), msg.Payload())
	if err != nil {
		c.log.WithField("topic", msg.Topic()).Warnf("dropping malformed command: %v", err)
		return
	}
	select {
	case c.commands <- cmd:
	default:
		c.log.WithField("index", cmd.Index).Warn("command queue full, dropping")
	}
}

// PublishState sends a retained state change.
func (c *RealClient) PublishState(change StateChange) error {
	payload, err := FormatStatePayload(change)
	if err != nil {
		return fmt.Errorf("format state payload: %w", err)
	}
	// QoS 1, retained: a late subscriber must see the current relay state.
	return c.publish(StateTopic(c.prefix, change.Index), 1, true, payload)
}

// PublishAck echoes an accepted set request.
func (c *RealClient) PublishAck(ack Ack) error {
	payload, err := FormatAckPayload(ack)
	if err != nil {
		return fmt.Errorf("format ack payload: %w", err)
	}
	// QoS 0: acks are advisory.
	return c.publish(AckTopic(c.prefix, ack.Index), 0, false, payload)
}

// PublishSystem sends a system lifecycle event.
func (c *RealClient) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	return c.publish(SystemTopic(c.prefix), 1, event.Retained, payload)
}

func (c *RealClient) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !c.client.IsConnected() {
		c.pending.add(outMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return nil
	}
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnected()
}

// Close disconnects from the broker.
func (c *RealClient) Close() error {
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}
