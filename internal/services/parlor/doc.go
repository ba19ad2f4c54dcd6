// Package parlor hosts the live table surface: the request/response JSON API,
// the persistent WebSocket channel, and the fan-out of table state to
// subscribers.
//
// Both ingress channels mutate tables through the same serialized registry
// entry points, so races between them are resolved once, centrally.
package parlor
