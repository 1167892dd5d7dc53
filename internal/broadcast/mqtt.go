package broadcast

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/nerrad567/ups-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/ups-monitor/internal/infrastructure/mqtt"
)

// relayQueueSize bounds the events waiting for the broker.
const relayQueueSize = 32

// MessagePublisher is the subset of *mqtt.Client the relay needs.
type MessagePublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

type outbound struct {
	event string
	topic string
	body  []byte
}

// MQTTRelay republishes live-update events to upsmonitor/event/<event>.
//
// Messages use QoS 0 and are not retained. Publish only enqueues; Run
// drains the queue to the broker. When the queue is full the event is
// dropped, matching the fire-and-forget contract of the websocket hub.
type MQTTRelay struct {
	client MessagePublisher
	logger *logging.Logger
	queue  chan outbound

	published atomic.Uint64
	failed    atomic.Uint64
}

// NewMQTTRelay creates a relay over client. Call Run to start delivery.
func NewMQTTRelay(client MessagePublisher, logger *logging.Logger) *MQTTRelay {
	if logger == nil {
		logger = logging.Discard()
	}
	return &MQTTRelay{
		client: client,
		logger: logger,
		queue:  make(chan outbound, relayQueueSize),
	}
}

// Publish marshals payload and queues it. It never blocks and never
// returns an error.
func (r *MQTTRelay) Publish(event string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		r.failed.Add(1)
		r.logger.Warn("mqtt relay: marshal failed", "event", event, "error", err)
		return
	}

	select {
	case r.queue <- outbound{event: event, topic: mqtt.Topics{}.Event(event), body: body}:
	default:
		r.failed.Add(1)
		r.logger.Warn("mqtt relay: queue full, event dropped", "event", event)
	}
}

// Run sends queued events until ctx is cancelled. Events still queued at
// that point are discarded.
func (r *MQTTRelay) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.queue:
			if err := r.client.Publish(msg.topic, msg.body, 0, false); err != nil {
				r.failed.Add(1)
				r.logger.Warn("mqtt relay: publish failed", "event", msg.event, "error", err)
				continue
			}
			r.published.Add(1)
		}
	}
}

// Stats returns counts of relayed and dropped events.
func (r *MQTTRelay) Stats() (published, failed uint64) {
	return r.published.Load(), r.failed.Load()
}
