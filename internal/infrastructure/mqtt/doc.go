// Package mqtt relays the monitor's live-update events to an MQTT broker.
//
// The client is publish-only. Events go to upsmonitor/event/<name>; the
// monitor's own presence is kept retained on upsmonitor/status, with a
// Last Will so subscribers notice a crash.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Publish(mqtt.Topics{}.Event("ups_update"), payload, 0, false)
//
// Use TLS (cfg.Broker.TLS) when the broker is not on the same host.
package mqtt
