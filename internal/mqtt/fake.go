package mqtt

import (
	"github.com/sweeney/switch-led/internal/control"
)

// Sent is a message as it would reach the broker.
type Sent struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

// FakePublisher records what the daemon publishes. It routes messages the
// way RealPublisher does: while Offline they wait in an outbox and
// Reconnect replays them into Wire.
type FakePublisher struct {
	// Samples and SystemEvents are the accepted calls, in order.
	Samples      []control.Sample
	SystemEvents []SystemEvent

	// Payloads and SystemPayloads are the formatted JSON for each call.
	Payloads       [][]byte
	SystemPayloads [][]byte

	// Wire holds the messages delivered to the broker.
	Wire []Sent

	// Offline queues messages instead of delivering them.
	Offline bool

	// PublishError and PublishSystemError, if set, are returned by
	// Publish and PublishSystem and nothing is recorded.
	PublishError       error
	PublishSystemError error

	Closed    bool
	Connected bool

	out *outbox
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{out: newOutbox(outboxCapacity)}
}

// Publish records the LED change.
func (f *FakePublisher) Publish(sample control.Sample) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(sample)
	if err != nil {
		return err
	}
	f.Samples = append(f.Samples, sample)
	f.Payloads = append(f.Payloads, payload)
	f.deliver(message{topic: Topic, payload: payload})
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	f.deliver(message{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
	return nil
}

func (f *FakePublisher) deliver(m message) {
	if f.out == nil {
		f.out = newOutbox(outboxCapacity)
	}
	if f.Offline {
		f.out.push(m)
		return
	}
	f.Wire = append(f.Wire, Sent{Topic: m.topic, Payload: m.payload, QoS: m.qos, Retained: m.retained})
}

// Reconnect clears Offline and delivers everything queued meanwhile.
func (f *FakePublisher) Reconnect() {
	f.Offline = false
	if f.out == nil {
		return
	}
	for _, m := range f.out.drain() {
		f.deliver(m)
	}
}

// Queued returns the number of messages waiting for Reconnect.
func (f *FakePublisher) Queued() int {
	if f.out == nil {
		return 0
	}
	return f.out.len()
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected returns Connected.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears everything recorded and every flag.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{out: newOutbox(outboxCapacity)}
}
