package broadcast

// Event names pushed to live subscribers.
const (
	// EventUPSUpdate carries a full SystemSnapshot from the broadcast tick.
	EventUPSUpdate = "ups_update"

	// EventChartUpdate carries map[device]ChartPoint from the logging tick.
	EventChartUpdate = "chart_update"
)

// Publisher delivers an event to whoever is listening, best effort.
// Implementations must not block the caller on slow subscribers.
type Publisher interface {
	Publish(event string, payload any)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(event string, payload any)

// Publish calls f.
func (f PublisherFunc) Publish(event string, payload any) {
	f(event, payload)
}

// Fanout publishes every event to each of its members in order.
type Fanout []Publisher

// Publish forwards to every non-nil member.
func (f Fanout) Publish(event string, payload any) {
	for _, p := range f {
		if p != nil {
			p.Publish(event, payload)
		}
	}
}

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(string, any) {})
