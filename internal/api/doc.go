// Package api implements the HTTP handlers for the avatar generation
// service. Handlers translate between the JSON wire format and the service
// layer, map internal errors to status codes, and never expose raw error
// strings to clients.
package api
