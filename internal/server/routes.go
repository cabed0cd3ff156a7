package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("StationTrail API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(deps.Logger, deps.Stores.DB()))

	// Player routes — device resolved from the X-Device-ID header.
	r.Route("/api", func(r chi.Router) {
		r.Use(deviceMiddleware)
		r.Post("/entry/resolve", handleResolveEntry(deps.Quest))
		r.Post("/session", handleEnsureSession(deps.Quest))
		r.Get("/session", handleGetSession(deps.Quest))
		r.Post("/session/abandon", handleAbandonRun(deps.Quest, deps.Broker))
		r.Post("/checkin/gps", handleGPSCheckin(deps.Quest, deps.Broker))
		r.Post("/checkin/qr", handleQRCheckin(deps.Quest, deps.Broker))
		r.Get("/events", handleEvents(deps.Quest, deps.Broker))
	})

	// Admin content surface — cookie session auth.
	r.Post("/api/admin/login", handleAdminLogin(deps.Stores.Admins))
	r.Post("/api/admin/logout", handleAdminLogout(deps.Stores.Admins))
	r.Get("/api/admin/me", handleAdminMe(deps.Stores.Admins))

	r.Route("/api/admin/routes", func(r chi.Router) {
		r.Use(adminAuthMiddleware(deps.Stores.Admins))
		r.Get("/", handleAdminListRoutes(deps.Stores))
		r.Post("/", handleAdminCreateRoute(deps.Stores))
		r.Put("/{routeID}", handleAdminUpdateRoute(deps.Stores))
		r.Get("/{routeID}/locations", handleAdminListLocations(deps.Stores))
		r.Post("/{routeID}/locations", handleAdminCreateLocation(deps.Stores, deps.Bounds))
		r.Put("/{routeID}/locations/{locationID}", handleAdminUpdateLocation(deps.Stores, deps.Bounds))
	})
}
