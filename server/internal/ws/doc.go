// Package ws implements the live calculation feed.
//
// Hub manages a set of connected WebSocket clients. The calculation service
// publishes an event whenever a record is created or deleted; Run adds a
// periodic heartbeat with store totals.
//
// Message format sent to clients:
//
//	{
//	  "event": "calculation.created",
//	  "time":  "2026-03-01T12:00:00Z",
//	  "data":  { /* the calculation record */ }
//	}
//
// Events: hello (on connect), heartbeat, calculation.created,
// calculation.deleted ({"id": ...}), alert.fired.
//
// The upgrader accepts all origins. The endpoint is mounted at /ws.
package ws
