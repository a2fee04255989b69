// Package middlewares contiene los middlewares HTTP del servicio.
package middlewares

import "net/http"

// Middleware tiene la misma firma que acepta chi.Router.Use.
type Middleware func(http.Handler) http.Handler

// Chain aplica mws sobre h. El primero de la lista queda más afuera.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}
