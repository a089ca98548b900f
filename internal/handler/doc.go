// Package handler implements the HTTP API for a served node graph document.
//
// # Endpoints
//
//	GET    /api/graph                  flow charts with their nodes, ports and connectors
//	GET    /api/nodes/{id}             one node and its ports
//	GET    /api/export/{format}        the document encoded as xml, yaml, json or binary
//	POST   /api/reload                 re-read the served file
//	GET    /api/documents              stored documents
//	PUT    /api/documents/{name}       store the current document
//	POST   /api/documents/{name}/load  replace the current document with a stored one
//	DELETE /api/documents/{name}       delete a stored document
//	GET    /events                     Server-Sent Events stream of graph events
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 201).
// Error responses return JSON with {error, details} structure.
//
// The served store is treated as read-only. Loads and reloads replace it
// wholesale, so concurrent requests never observe a half-built graph.
package handler
