package mqtt

import "fmt"

// TopicPrefix is the root of every topic the monitor publishes.
const TopicPrefix = "upsmonitor"

// Topics builds the monitor's MQTT topic names.
//
//	topic := mqtt.Topics{}.Event("ups_update")
//	// Returns: "upsmonitor/event/ups_update"
type Topics struct{}

// Event returns the topic for a live-update event.
//
// Example: upsmonitor/event/chart_update
func (Topics) Event(name string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, name)
}

// Status returns the retained online/offline status topic (also the LWT topic).
//
// Example: upsmonitor/status
func (Topics) Status() string {
	return TopicPrefix + "/status"
}
