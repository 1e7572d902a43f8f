// Package api implements the HTTP REST API for balance-plus-server.
//
// New(svc, alerts, opts) returns a chi router that serves:
//
//	POST   /api/v1/calculations                 run, store and announce; 201
//	POST   /api/v1/calculations/preview         run without storing
//	GET    /api/v1/calculations[?valve=]        stored results, newest first
//	GET    /api/v1/calculations/{id}            one stored result
//	DELETE /api/v1/calculations/{id}            remove a stored result; 204
//	GET    /api/v1/calculations/{id}/diagnostics engineering hints
//	GET    /api/v1/turbines                     catalog turbines
//	GET    /api/v1/turbines/{name}/valves       valves fitted to a turbine
//	GET    /api/v1/valves/{drawing}             valve geometry
//	GET    /api/v1/valves/{drawing}/results     stored results for a valve
//	GET    /api/v1/units                        pressure unit table
//	GET    /api/v1/alerts                       firing alerts
//	GET    /api/v1/health                       store, catalog and cache summary
//
// /metrics and /ws are mounted when Options carries handlers for them.
//
// Rejected calculations answer 422 with {"error", "kind", "section"}.
// Unknown valves, turbines and records answer 404; malformed bodies 400.
package api
