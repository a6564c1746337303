package device

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"supercycler"
)

const (
	connectTimeout = 10 * time.Second
	commandQoS     = 1 // at-least-once: relay commands are idempotent
)

// MQTTCommander publishes relay commands to the plug's native MQTT
// command topic (cmnd/<topic>/POWER).
type MQTTCommander struct {
	client  paho.Client
	topic   string
	timeout time.Duration
}

// NewMQTTCommander connects to the broker and returns a commander for
// the given Tasmota device topic.
func NewMQTTCommander(broker, topic, clientID string, timeout time.Duration) (*MQTTCommander, error) {
	if clientID == "" {
		clientID = "supercycler"
	}
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}

	return &MQTTCommander{
		client:  client,
		topic:   fmt.Sprintf("cmnd/%s/POWER", topic),
		timeout: timeout,
	}, nil
}

// Send publishes ON or OFF to the command topic.
func (c *MQTTCommander) Send(ctx context.Context, phase supercycler.Phase) error {
	if err := ctx.Err(); err != nil {
		return &CommandError{Reason: ReasonTimeout, Err: err}
	}
	if !c.client.IsConnected() {
		return &CommandError{Reason: ReasonUnreachable, Err: fmt.Errorf("broker not connected")}
	}

	token := c.client.Publish(c.topic, commandQoS, false, string(phase))
	if !token.WaitTimeout(c.timeout) {
		return &CommandError{
			Reason: ReasonTimeout,
			Err:    fmt.Errorf("publish to %s: no ack after %s", c.topic, c.timeout),
		}
	}
	if err := token.Error(); err != nil {
		return &CommandError{Reason: ReasonUnreachable, Err: err}
	}
	return nil
}

// Close disconnects from the broker, allowing in-flight work to finish.
func (c *MQTTCommander) Close() {
	c.client.Disconnect(1000)
}
