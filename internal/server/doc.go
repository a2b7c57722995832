// Package server hosts the short-lived HTTP listener used to sign in.
//
// # OAuth Callback
//
// [OAuthHandler] receives the browser redirect at the path of the configured redirect URI,
// checks the state token, and trades the code for a token through an [Exchanger]
// (the Spotify service). It handles a single callback; later hits are rejected.
//
// # Routing
//
// [BasicRouter] is an [http.ServeMux] with method filtering and a middleware stack.
// Middleware is applied in reverse order (last added executes first). [RequestLogger]
// logs each request at debug level.
//
// [Start] binds the listener before returning, so the authorization URL can be opened
// immediately after.
package server
