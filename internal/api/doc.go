// Package api implements the HTTP surface of the device registry: a REST
// API for device CRUD and reachability probes, plus a WebSocket event
// stream for live updates.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────┐
//	│                     Server                      │
//	│                                                 │
//	│  ┌───────────┐   ┌───────────┐   ┌───────────┐  │
//	│  │  Router   │──▶│ Handlers  │──▶│  Service  │  │
//	│  │  (chi)    │   │ devices.go│   │ (device)  │  │
//	│  └───────────┘   └───────────┘   └───────────┘  │
//	│        │                                        │
//	│        ▼                                        │
//	│  ┌───────────┐      broadcast   ┌───────────┐   │
//	│  │    Hub    │◀─────────────────│  events   │   │
//	│  │ (gorilla) │                  │  fan-out  │   │
//	│  └───────────┘                  └───────────┘   │
//	└─────────────────────────────────────────────────┘
//
// # Routes
//
// All routes live under /api/v1:
//
//	GET    /health               server status
//	GET    /devices              paged listing (type, status, q, page,
//	                             page_size, sort, order)
//	POST   /devices              register a device
//	GET    /devices/{id}         fetch one device
//	PUT    /devices/{id}         full replace of client-settable fields
//	PATCH  /devices/{id}         partial update
//	DELETE /devices/{id}         remove (404 when absent)
//	POST   /devices/{id}/ping    probe reachability, update status
//	GET    /ws                   WebSocket event stream
//
// # Error shape
//
// Validation failures return 400 with per-field messages:
//
//	{"errors": {"ip_address": "Invalid IP address format"}}
//
// Duplicate addresses return 409 in the same shape. Everything else uses the
// structured Error{status, code, message} envelope.
//
// # WebSocket protocol
//
// Clients subscribe to channels (device.created, device.updated,
// device.deleted, device.pinged) and receive JSON event frames. The Hub
// implements device.EventPublisher, so the same lifecycle events that go to
// MQTT are broadcast to connected clients.
package api
