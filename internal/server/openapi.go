package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "StationTrail API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the StationTrail scavenger hunt.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/entry/resolve
	postResolve, _ := r.NewOperationContext(http.MethodPost, "/api/entry/resolve")
	postResolve.SetSummary("Resolve entry route")
	postResolve.SetDescription("Given a scanned station QR and a desired profile, names the active route the player should enter. Requires X-Device-ID header.")
	postResolve.AddReqStructure(ResolveEntryRequest{})
	postResolve.AddRespStructure(ResolveEntryResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postResolve.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postResolve)

	// POST /api/session
	postSession, _ := r.NewOperationContext(http.MethodPost, "/api/session")
	postSession.SetSummary("Ensure run session")
	postSession.SetDescription("Bootstraps or resumes the device's run for an entry scan. Fails with 409 when an active run exists on another route.")
	postSession.AddReqStructure(EnsureSessionRequest{})
	postSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postSession.AddRespStructure(RunConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postSession)

	// GET /api/session
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/session")
	getSession.SetSummary("Get session")
	getSession.SetDescription("Returns the device's active run with a fresh snapshot.")
	getSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSession)

	// POST /api/session/abandon
	postAbandon, _ := r.NewOperationContext(http.MethodPost, "/api/session/abandon")
	postAbandon.SetSummary("Abandon run")
	postAbandon.SetDescription("Ends the device's active run. Fails with 404 when no active run exists.")
	postAbandon.AddRespStructure(RunInfo{}, openapi.WithHTTPStatus(http.StatusOK))
	postAbandon.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postAbandon)

	// POST /api/checkin/gps
	postGPS, _ := r.NewOperationContext(http.MethodPost, "/api/checkin/gps")
	postGPS.SetSummary("Validate GPS check-in")
	postGPS.SetDescription("Proves presence at the target station by GPS proximity. Rejections return 200 with accepted=false and a reason code.")
	postGPS.AddReqStructure(GPSCheckinRequest{})
	postGPS.AddRespStructure(CheckinResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postGPS.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postGPS)

	// POST /api/checkin/qr
	postQR, _ := r.NewOperationContext(http.MethodPost, "/api/checkin/qr")
	postQR.SetSummary("Validate QR check-in")
	postQR.SetDescription("Proves presence at the target station by QR token plus question answer. Rejections return 200 with accepted=false and a reason code.")
	postQR.AddReqStructure(QRCheckinRequest{})
	postQR.AddRespStructure(CheckinResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postQR.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postQR)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE run event stream")
	getEvents.SetDescription("Server-Sent Events stream for the device's active run.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// POST /api/admin/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postLogin.SetSummary("Admin login")
	postLogin.SetDescription("Authenticate with email and password. Sets admin_session cookie.")
	postLogin.AddReqStructure(AdminLoginRequest{})
	postLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/admin/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postLogout.SetSummary("Admin logout")
	postLogout.SetDescription("Clears admin session and cookie.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/admin/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getMe.SetSummary("Current admin")
	getMe.SetDescription("Returns the currently authenticated admin.")
	getMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/admin/routes
	listRoutes, _ := r.NewOperationContext(http.MethodGet, "/api/admin/routes")
	listRoutes.SetSummary("List routes")
	listRoutes.AddRespStructure([]AdminRouteItem{}, openapi.WithHTTPStatus(http.StatusOK))
	listRoutes.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listRoutes)

	// POST /api/admin/routes
	createRoute, _ := r.NewOperationContext(http.MethodPost, "/api/admin/routes")
	createRoute.SetSummary("Create route")
	createRoute.AddReqStructure(AdminRouteRequest{})
	createRoute.AddRespStructure(AdminRouteItem{}, openapi.WithHTTPStatus(http.StatusCreated))
	createRoute.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(createRoute)

	// PUT /api/admin/routes/{routeID}
	updateRoute, _ := r.NewOperationContext(http.MethodPut, "/api/admin/routes/{routeID}")
	updateRoute.SetSummary("Update route")
	updateRoute.AddReqStructure(AdminRouteRequest{})
	updateRoute.AddRespStructure(AdminRouteItem{}, openapi.WithHTTPStatus(http.StatusOK))
	updateRoute.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateRoute)

	// GET /api/admin/routes/{routeID}/locations
	listLocations, _ := r.NewOperationContext(http.MethodGet, "/api/admin/routes/{routeID}/locations")
	listLocations.SetSummary("List route stations")
	listLocations.AddRespStructure([]AdminLocationItem{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listLocations)

	// POST /api/admin/routes/{routeID}/locations
	createLocation, _ := r.NewOperationContext(http.MethodPost, "/api/admin/routes/{routeID}/locations")
	createLocation.SetSummary("Create station")
	createLocation.AddReqStructure(AdminLocationRequest{})
	createLocation.AddRespStructure(AdminLocationItem{}, openapi.WithHTTPStatus(http.StatusCreated))
	createLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(createLocation)

	// PUT /api/admin/routes/{routeID}/locations/{locationID}
	updateLocation, _ := r.NewOperationContext(http.MethodPut, "/api/admin/routes/{routeID}/locations/{locationID}")
	updateLocation.SetSummary("Update station")
	updateLocation.AddReqStructure(AdminLocationRequest{})
	updateLocation.AddRespStructure(AdminLocationItem{}, openapi.WithHTTPStatus(http.StatusOK))
	updateLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateLocation)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(spec)
	}
}
