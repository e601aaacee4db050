package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"aquaview.dev/monitor/internal/ingest"
	"aquaview.dev/monitor/pkg/quality"
)

const reportTimeout = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// statusResponse is the payload for GET /api/status. View is nil while the
// monitor is idle.
type statusResponse struct {
	Active bool         `json:"active"`
	View   *ingest.View `json:"view,omitempty"`
}

type historyResponse struct {
	Kind   quality.ParameterKind  `json:"kind"`
	Unit   string                 `json:"unit"`
	Points []quality.HistoryPoint `json:"points"`
}

type alertsResponse struct {
	Alerts []quality.Alert `json:"alerts"`
}

type reportResponse struct {
	Report string `json:"report"`
}

type settingsResponse struct {
	Selected  []quality.ParameterKind `json:"selected"`
	Available []quality.ParameterKind `json:"available"`
}

type settingsRequest struct {
	Selected []quality.ParameterKind `json:"selected"`
}

// statusRecorder captures the response status code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument wraps a handler with request counting and duration metrics.
func (s *Server) instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next(w, r)
			return
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next(recorder, r)

		s.metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method, path, strconv.Itoa(recorder.status),
		).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(
			r.Method, path,
		).Observe(time.Since(start).Seconds())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to write JSON response", "error", err)
	}
}

// handleStatus serves the latest consolidated view.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	view, ok := s.ingestor.View()
	s.writeJSON(w, http.StatusOK, statusResponse{Active: ok, View: view})
}

// handleHistory serves the sliding-window history for one parameter.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	kind := quality.ParameterKind(r.PathValue("kind"))
	if !kind.Valid() {
		http.Error(w, "Unknown parameter", http.StatusNotFound)
		return
	}

	points := []quality.HistoryPoint{}
	if view, ok := s.ingestor.View(); ok {
		if h, ok := view.History[kind]; ok {
			points = h
		}
	}

	s.writeJSON(w, http.StatusOK, historyResponse{
		Kind:   kind,
		Unit:   kind.Unit(),
		Points: points,
	})
}

// handleAlerts serves the alerts derived from the latest reading.
func (s *Server) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	alerts := []quality.Alert{}
	if view, ok := s.ingestor.View(); ok && view.Alerts != nil {
		alerts = view.Alerts
	}
	s.writeJSON(w, http.StatusOK, alertsResponse{Alerts: alerts})
}

// handleStandards serves the classifier threshold reference table.
func (s *Server) handleStandards(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, quality.Standards())
}

// handleReport generates an AI report for the latest reading.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		if s.metrics != nil {
			s.metrics.ReportRequests.WithLabelValues("unavailable").Inc()
		}
		http.Error(w, "Report service not configured", http.StatusServiceUnavailable)
		return
	}

	view, ok := s.ingestor.View()
	if !ok {
		http.Error(w, "No reading available yet", http.StatusConflict)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()

	text, err := s.reports.Generate(ctx, view.Values)
	if err != nil {
		s.logger.Error("failed to generate report", "error", err)
		if s.metrics != nil {
			s.metrics.ReportRequests.WithLabelValues("error").Inc()
		}
		http.Error(w, "Failed to generate report", http.StatusBadGateway)
		return
	}

	if s.metrics != nil {
		s.metrics.ReportRequests.WithLabelValues("success").Inc()
	}
	s.writeJSON(w, http.StatusOK, reportResponse{Report: text})
}

// handleGetSettings serves the selected parameter subset.
func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, settingsResponse{
		Selected:  s.ingestor.Selected(),
		Available: quality.AllKinds(),
	})
}

// handlePutSettings replaces the selected parameter subset.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.ingestor.SetSelected(req.Selected)

	s.writeJSON(w, http.StatusOK, settingsResponse{
		Selected:  s.ingestor.Selected(),
		Available: quality.AllKinds(),
	})
}

// handleWS upgrades the connection and streams consolidated views.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade websocket", "error", err)
		return
	}

	client := &wsClient{
		logger: s.logger,
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, 256),
	}
	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// handleHealth serves the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
		s.logger.Error("failed to write health response", "error", err)
	}
}

// handleIndex serves the dashboard page.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	view, active := s.ingestor.View()

	if err := renderPage(w, &pageData{
		Active:    active,
		View:      view,
		Standards: quality.Standards(),
		Kinds:     quality.AllKinds(),
	}); err != nil {
		s.logger.Error("failed to render dashboard page", "error", err)
		if s.metrics != nil {
			s.metrics.TemplateRenderErrors.Inc()
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
