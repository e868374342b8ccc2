package web

import (
	"net/http"
)

func (c *WebController) RegisterRoutes(mux *http.ServeMux) {

	// Public routes
	mux.HandleFunc("GET /{$}", c.indexHandler)
	mux.HandleFunc("GET /login", c.loginPageHandler)
	mux.HandleFunc("POST /login", c.loginSubmitHandler)
	mux.HandleFunc("GET /static/videos/{name}", c.videoHandler)

	// Protected routes
	mux.HandleFunc("GET /admin", c.RequireAuth(c.adminHandler))
	mux.HandleFunc("GET /logout", c.RequireAuth(c.logoutHandler))

	// Everything not claimed above is an unknown path
	mux.HandleFunc("/", c.notFoundHandler)
}
