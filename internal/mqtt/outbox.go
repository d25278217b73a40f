package mqtt

import "log"

// message is a serialized MQTT message held for replay after reconnection.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages published while the broker is unreachable.
// LED changes queue in order up to capacity, after which the oldest change
// is dropped. A retained message replaces any queued retained message on
// the same topic, since the broker would only keep the last one.
// Not safe for concurrent use; the caller must synchronize.
type outbox struct {
	queue    []message
	capacity int
	dropped  int // total changes dropped on overflow
	full     bool
}

func newOutbox(capacity int) *outbox {
	return &outbox{capacity: capacity}
}

func (o *outbox) push(m message) {
	if m.retained {
		for i, q := range o.queue {
			if q.retained && q.topic == m.topic {
				o.queue = append(o.queue[:i], o.queue[i+1:]...)
				break
			}
		}
	}

	if len(o.queue) >= o.capacity {
		o.evict()
	}
	o.queue = append(o.queue, m)
}

// evict drops the oldest non-retained message, or the oldest message if
// everything queued is retained.
func (o *outbox) evict() {
	if !o.full {
		log.Printf("mqtt: outbox full (%d messages), dropping oldest changes", o.capacity)
		o.full = true
	}
	victim := 0
	for i, q := range o.queue {
		if !q.retained {
			victim = i
			break
		}
	}
	o.queue = append(o.queue[:victim], o.queue[victim+1:]...)
	o.dropped++
}

// drain returns the queued messages oldest first and empties the outbox.
func (o *outbox) drain() []message {
	if len(o.queue) == 0 {
		return nil
	}
	out := o.queue
	o.queue = nil
	o.full = false
	return out
}

func (o *outbox) len() int {
	return len(o.queue)
}
