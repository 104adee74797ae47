package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"xjsf/internal/logger"
	"xjsf/internal/models"
	"xjsf/internal/service"
	"xjsf/internal/version"

	"github.com/gorilla/mux"
)

// Handlers adapts the service hub to HTTP routes.
type Handlers struct {
	hub     *service.Hub
	started time.Time
}

func NewHandlers(hub *service.Hub) *Handlers {
	return &Handlers{hub: hub, started: time.Now()}
}

// Dispatch hands the request to the hub.
// GET|POST {base_path}/{service}
//
// The hub answers every condition in-band. It only returns an error when a
// direct-mode service failed; if nothing reached the client yet a JSON 500
// is sent, otherwise the connection is aborted so the caller sees a
// truncated response instead of a corrupt one.
func (h *Handlers) Dispatch(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["service"]

	rec := wrapWriter(w)
	err := h.hub.Dispatch(rec, r, name)
	if err == nil {
		return
	}
	if !rec.wroteHeader {
		h.writeErrorResponse(w, r, http.StatusInternalServerError, models.ErrorCodeInternalError, "Service failed to produce output")
		return
	}
	logger.FromContext(r.Context()).Warn("Aborting partially written response", "service", name, "error", err)
	panic(http.ErrAbortHandler)
}

// HealthCheck reports liveness plus the readiness of every hosted service.
// GET /health, GET /api/v1/health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.NewHealthCheckResponse(models.StatusHealthy)
	response.Version = version.GetInfo().Version
	response.Uptime = time.Since(h.started).Truncate(time.Second).String()

	services := h.hub.Services()
	ready := 0
	for _, svc := range services {
		name := svc.Descriptor().Name
		progress := 1.0
		if init, ok := svc.(service.Initializer); ok {
			progress = init.InitProgress()
		}
		if progress >= 1 {
			ready++
			response.AddComponent("service:"+name, models.StatusHealthy, "ready")
			continue
		}
		response.Status = models.StatusDegraded
		response.AddComponent("service:"+name, models.StatusDegraded,
			fmt.Sprintf("initialising, %.0f%% complete", progress*100))
	}

	response.AddMetric("services", len(services))
	response.AddMetric("services_ready", ready)
	response.AddMetric("clients", h.hub.Clients().Len())

	h.writeJSONResponse(w, r, http.StatusOK, response)
}

// NotFound answers requests that match no route.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeErrorResponse(w, r, http.StatusNotFound, models.ErrorCodeNotFound,
		fmt.Sprintf("No route for %s %s", r.Method, r.URL.Path))
}

func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeErrorResponse(w, r, http.StatusMethodNotAllowed, models.ErrorCodeMethodNotAllowed, "Method not allowed")
}

func (h *Handlers) writeJSONResponse(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are gone; nothing else can be sent.
		logger.FromContext(r.Context()).Error("Failed to encode JSON response", "error", err)
	}
}

func (h *Handlers) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	errorResp := models.NewErrorResponse(message, errorCode)
	errorResp.RequestID = RequestID(r.Context())
	h.writeJSONResponse(w, r, statusCode, errorResp)
}
