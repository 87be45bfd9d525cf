// package server hosts the loopback HTTP surface used during Spotify authorization
package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers.
// Implementations encapsulate their own route registration.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}
