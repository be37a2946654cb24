// Package mqtt wraps paho.mqtt.golang for publishing registry events.
//
// The registry publishes device lifecycle events (created, updated,
// deleted, pinged) so dashboards and inventory consumers can react to
// changes without polling. The client maintains the connection with
// auto-reconnect and announces its own availability on a retained
// status topic with a Last Will for crash detection.
//
// Topic layout:
//
//	netregistry/system/status    retained online/offline status
//	netregistry/device/created   one JSON event per created device
//	netregistry/device/updated
//	netregistry/device/deleted
//	netregistry/device/pinged
//
// MQTT is optional: when disabled in config the events package simply
// isn't wired and the rest of the service runs unchanged.
package mqtt
