// Package server provides the loopback HTTP routing and OAuth callback
// handling used for Spotify authorization.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the
// authorization code for tokens, and sends the result through a channel. It
// only processes one callback to prevent replay attacks.
//
// # Usage
//
// When the user runs the auth command, [AwaitCallback] starts a temporary
// HTTP server on the configured host and port, handles the single callback,
// and shuts down after delivering the OAuth token.
package server
