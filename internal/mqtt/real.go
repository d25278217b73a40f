package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/switch-led/internal/control"
	"github.com/sweeney/switch-led/internal/metrics"
)

// ClientID identifies the daemon to the broker.
const ClientID = "switch-led"

// outboxCapacity bounds the messages held while the broker is unreachable.
const outboxCapacity = 100

// RealPublisher publishes to an actual MQTT broker.
// Messages published while disconnected are queued and replayed on reconnect.
type RealPublisher struct {
	client paho.Client

	// mu guards connected and out. send checks connected and queues under
	// one hold; onConnect replays the outbox before setting connected.
	mu        sync.Mutex
	connected bool
	out       *outbox
}

// NewRealPublisher creates a publisher for the given broker. The connection
// is retried in the background, so a missing broker does not block startup.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{out: newOutbox(outboxCapacity)}

	will, err := WillPayload()
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.onConnectionLost(err)
		}).
		SetOnConnectHandler(func(_ paho.Client) {
			p.onConnect()
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		return nil, fmt.Errorf("connect to broker: %w", token.Error())
	}

	return p, nil
}

func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending := p.out.drain()
	log.Printf("mqtt: connected, replaying %d queued messages", len(pending))
	for _, m := range pending {
		p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	}
	p.connected = true
	metrics.SetMQTTQueued(0)
}

func (p *RealPublisher) onConnectionLost(err error) {
	log.Printf("mqtt: connection lost: %v", err)
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
}

// Publish sends an LED change to the MQTT broker.
func (p *RealPublisher) Publish(sample control.Sample) error {
	payload, err := FormatPayload(sample)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.send(message{topic: Topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events
	return p.send(message{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) send(m message) error {
	p.mu.Lock()
	if !p.connected {
		before := p.out.dropped
		p.out.push(m)
		dropped, queued := p.out.dropped-before, p.out.len()
		p.mu.Unlock()
		metrics.ObserveMQTTQueued(queued, dropped)
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

// Queued returns the number of messages waiting for a connection.
func (p *RealPublisher) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.len()
}
