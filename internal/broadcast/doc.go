// Package broadcast defines how live-update events leave the scheduler.
//
// The scheduler publishes through a Publisher. The websocket hub in
// package api is one; MQTTRelay is another; Fanout sends to several.
// Delivery is fire-and-forget: no acknowledgement, no retry, no ordering
// guarantee across subscribers.
package broadcast
