package api

import (
	"bytes"
	"net/http"

	"github.com/nerrad567/ups-monitor/internal/history"
	"github.com/nerrad567/ups-monitor/internal/panel"
)

// detailParam is the dashboard query parameter forwarded to the page.
const detailParam = "dettaglio"

// handleDashboard polls upsd and renders the dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshots.Build(r.Context())
	view := panel.NewView(snap, r.URL.Query().Get(detailParam))

	var buf bytes.Buffer
	if err := panel.Render(&buf, view); err != nil {
		s.logger.Error("dashboard render failed", "error", err)
		writeInternalError(w, "dashboard unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	buf.WriteTo(w)
}

// handleStatus returns the most recent snapshot in the ups_update payload
// shape. upsd is polled only when nothing has been cached yet. An
// unreachable upsd still yields 200 with {"error": ...}.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshots.Latest()
	if snap == nil {
		snap = s.snapshots.Build(r.Context())
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleHistory returns the readings of one UPS inside a look-back window.
//
// Query parameters:
//   - ups: device identifier, required
//   - period: 1d, 1w or 1m; anything else means 1d
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ups := q.Get("ups")
	if ups == "" {
		writeBadRequest(w, "Parameter 'ups' is required")
		return
	}
	period := history.ParsePeriod(q.Get("period"))

	points, err := s.history.Query(r.Context(), ups, period)
	if err != nil {
		s.logger.Error("history query failed", "ups", ups, "period", string(period), "error", err)
		writeInternalError(w, "history query failed")
		return
	}
	if points == nil {
		points = []history.Point{}
	}
	writeJSON(w, http.StatusOK, points)
}
