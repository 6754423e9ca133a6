// Package server exposes a [tasks.Session] over HTTP as a small JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally; methods are part of the registered pattern.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [API] is one such handler: it owns the /catalog, /playlist and /history trees.
//
// # Adding Songs
//
// POST /playlist/items resolves the song in the loaded catalog and runs the duplicate and recency checks.
// A recently sung song is only added when the request carries "confirm": true; otherwise the response is a
// 409 describing the earlier list, and the client repeats the request once the user agrees.
//
// # Errors
//
// Domain errors map to status codes: duplicates, declined repeats and stale results are 409, unknown songs
// and entries are 404, bad indices and input are 400, saving an empty list is 422, and history store
// failures are 502.
package server
