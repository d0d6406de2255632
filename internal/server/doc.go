// Package server provides the relay HTTP API, its router and middleware.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally. Several methods may share a path;
// a request with any other method receives 405 and an Allow header.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [HealthHandler] is registered this way.
//
// # Relay
//
// [RelayHandler] serves
//
//   - POST /api/search   {"link": string} -> resolved playlist JSON
//   - POST /api/download {"playlist_name": string, "tracks": [...]} -> archive stream
//
// Both relay to the external service through the gateways in the services package.
// Errors are always {"detail": string}; upstream reasons pass through verbatim, every other failure
// is reported with a localized generic message so no internal error text is exposed.
//
// # Middleware
//
// [New] stacks [RequestID], [Logger], [Recover] and [CORS] in front of every route and [RateLimit]
// in front of the relay routes only, so health checks are never throttled.
package server
