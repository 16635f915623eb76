package mqtt

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// outMsg is a serialized MQTT message held for replay after reconnection.
type outMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds outbound messages while the broker is unreachable, dropping
// the oldest when full. Safe for concurrent use: the run loop queues while
// paho's reconnect goroutine drains.
type outbox struct {
	mu      sync.Mutex
	msgs    []outMsg
	max     int
	dropped int
	log     *logrus.Logger
}

func newOutbox(max int, log *logrus.Logger) *outbox {
	return &outbox{max: max, log: log}
}

func (o *outbox) add(msg outMsg) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.msgs) == o.max {
		if o.dropped == 0 {
			o.log.WithField("capacity", o.max).Warn("outbox full, dropping oldest messages")
		}
		o.dropped++
		o.msgs = o.msgs[1:]
	}
	o.msgs = append(o.msgs, msg)
}

// drain returns and clears all queued messages, oldest first.
func (o *outbox) drain() []outMsg {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.msgs) == 0 {
		return nil
	}
	msgs := o.msgs
	o.msgs = nil
	if o.dropped > 0 {
		o.log.WithField("dropped", o.dropped).Warn("messages lost while disconnected")
		o.dropped = 0
	}
	return msgs
}

func (o *outbox) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.msgs)
}
