// Package server provides HTTP routing, middleware, and the API routes of the playlist viewer.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally; routes are "METHOD /path/{wildcard}" patterns.
//
// # API Routes
//
// [APIHandler] forwards each /api request to the Spotify-backed backend through [services.BackendClient], attaching
// the caller's sessionId cookie and JWT. Backend statuses are relayed as JSON error bodies written by
// [apierr.Writer]; transport failures become 502s and routes needing a JWT answer 401 without one.
//
// Track and favorites listings accept ?sort= and ?dir=, and the charts route buckets tracks per artist or album.
//
// # Login
//
// [AuthHandler] redirects the browser to the backend login and stores the JWT the backend returns for the
// session. [CallbackHandler] is the one-shot variant used by the CLI login command: a temporary server on
// localhost receives the redirect and hands the token back through a channel.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
