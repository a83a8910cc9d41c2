package telemetry

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP exposes the read-only status surface: the latest tick snapshot, recent
// lap summaries and Prometheus metrics. It never mutates loop state.
type HTTP struct {
	server *http.Server
	logger Logger

	port uint16
	loop *TelemetryLoop
}

func NewHTTP(port uint16, loop *TelemetryLoop, logger Logger) *HTTP {
	return &HTTP{
		port:   port,
		loop:   loop,
		logger: logger,
	}
}

func (h *HTTP) Listen() error {
	h.logger.Infof("Status server listening on port: %d", h.port)

	h.server = &http.Server{
		Handler: h.Router(),
		Addr:    fmt.Sprintf(":%d", h.port),
	}

	go func() {
		err := h.server.ListenAndServe()

		if err == http.ErrServerClosed {
			return
		} else if err != nil {
			h.logger.WithError(err).Errorf("Could not start status server")
		}
	}()

	return nil
}

func (h *HTTP) Router() http.Handler {
	router := chi.NewRouter()
	router.Get("/status", h.status)
	router.Get("/laps", h.laps)
	router.Mount("/metrics", promhttp.Handler())

	return router
}

func (h *HTTP) status(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.loop.Status())
}

func (h *HTTP) laps(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.loop.RecentLaps())
}

func (h *HTTP) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Errorf("Could not encode status response")
	}
}

func (h *HTTP) Close() error {
	if h.server == nil {
		return nil
	}

	return h.server.Close()
}
