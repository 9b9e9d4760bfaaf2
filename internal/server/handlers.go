package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/dhuston/livingmap/pkg/errors"
	"github.com/dhuston/livingmap/pkg/graph"
	"github.com/dhuston/livingmap/pkg/layout"
	"github.com/dhuston/livingmap/pkg/pipeline"
	"github.com/dhuston/livingmap/pkg/sim"
)

// maxRequestBytes caps request bodies. Graphs past ~50k nodes exceed what
// the engine handles interactively anyway.
const maxRequestBytes = 32 << 20

var validate = validator.New()

// layoutRequest is the POST /api/v1/layout body.
type layoutRequest struct {
	ViewID    string          `json:"view_id,omitempty" validate:"omitempty,max=128"`
	Graph     graph.Graph     `json:"graph" validate:"required"`
	Layout    *layoutSettings `json:"layout,omitempty"`
	Refresh   bool            `json:"refresh,omitempty"`
	ColdStart bool            `json:"cold_start,omitempty"`

	// Render-only fields, ignored by the layout endpoint.
	Format     string `json:"format,omitempty" validate:"omitempty,oneof=json dot svg png"`
	Style      string `json:"style,omitempty" validate:"omitempty,oneof=light dark"`
	ShowLabels bool   `json:"show_labels,omitempty"`
}

// layoutSettings mirrors sim.Settings with pointer fields so an absent key
// and an explicit zero are distinguishable. Absent keys fall back to the
// server's configured defaults; present keys win, including zero values.
type layoutSettings struct {
	Iterations                     *int     `json:"iterations,omitempty" validate:"omitempty,gt=0"`
	Gravity                        *float64 `json:"gravity,omitempty" validate:"omitempty,gte=0"`
	ScalingRatio                   *float64 `json:"scalingRatio,omitempty" validate:"omitempty,gte=0"`
	SlowDown                       *float64 `json:"slowDown,omitempty" validate:"omitempty,gt=0"`
	Theta                          *float64 `json:"theta,omitempty" validate:"omitempty,gte=0"`
	Epsilon                        *float64 `json:"epsilon,omitempty" validate:"omitempty,gte=0"`
	Seed                           *uint64  `json:"seed,omitempty"`
	BarnesHutOptimize              *bool    `json:"barnesHutOptimize,omitempty"`
	PreventOverlap                 *bool    `json:"preventOverlap,omitempty"`
	LinLogMode                     *bool    `json:"linLogMode,omitempty"`
	OutboundAttractionDistribution *bool    `json:"outboundAttractionDistribution,omitempty"`
}

// apply overlays the request's explicit fields onto base.
func (ls *layoutSettings) apply(base sim.Settings) sim.Settings {
	if ls == nil {
		return base
	}
	if ls.Iterations != nil {
		base.Iterations = *ls.Iterations
	}
	if ls.Gravity != nil {
		base.Gravity = *ls.Gravity
	}
	if ls.ScalingRatio != nil {
		base.ScalingRatio = *ls.ScalingRatio
	}
	if ls.SlowDown != nil {
		base.SlowDown = *ls.SlowDown
	}
	if ls.Theta != nil {
		base.Theta = *ls.Theta
	}
	if ls.Epsilon != nil {
		base.Epsilon = *ls.Epsilon
	}
	if ls.Seed != nil {
		base.Seed = *ls.Seed
	}
	if ls.BarnesHutOptimize != nil {
		base.BarnesHutOptimize = *ls.BarnesHutOptimize
	}
	if ls.PreventOverlap != nil {
		base.PreventOverlap = *ls.PreventOverlap
	}
	if ls.LinLogMode != nil {
		base.LinLogMode = *ls.LinLogMode
	}
	if ls.OutboundAttractionDistribution != nil {
		base.OutboundAttractionDistribution = *ls.OutboundAttractionDistribution
	}
	return base
}

// layoutResponse is the POST /api/v1/layout response.
type layoutResponse struct {
	Positions   []layout.PositionedNode `json:"positions"`
	Iterations  int                     `json:"iterations"`
	Converged   bool                    `json:"converged"`
	Seed        uint64                  `json:"seed"`
	GraphHash   string                  `json:"graph_hash"`
	Cached      bool                    `json:"cached"`
	WarmStarted bool                    `json:"warm_started"`
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeLayoutRequest(w, r)
	if !ok {
		return
	}

	opts := pipeline.Options{
		ViewID:    req.ViewID,
		Layout:    req.Layout.apply(s.layoutDefaults),
		Refresh:   req.Refresh,
		ColdStart: req.ColdStart,
		Formats:   []string{pipeline.FormatJSON},
		Logger:    s.logger,
	}
	result, err := s.runner.Execute(r.Context(), req.Graph, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, layoutResponse{
		Positions:   result.Layout.Positions,
		Iterations:  result.Layout.Iterations,
		Converged:   result.Layout.Converged,
		Seed:        result.Layout.Seed,
		GraphHash:   result.GraphHash,
		Cached:      result.CacheInfo.LayoutHit,
		WarmStarted: result.CacheInfo.WarmStarted,
	})
}

// contentTypes maps artifact formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeLayoutRequest(w, r)
	if !ok {
		return
	}
	if req.Format == "" {
		req.Format = pipeline.FormatSVG
	}

	opts := pipeline.Options{
		ViewID:     req.ViewID,
		Layout:     req.Layout.apply(s.layoutDefaults),
		Refresh:    req.Refresh,
		ColdStart:  req.ColdStart,
		Formats:    []string{req.Format},
		Style:      req.Style,
		ShowLabels: req.ShowLabels,
		Logger:     s.logger,
	}
	result, err := s.runner.Execute(r.Context(), req.Graph, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[req.Format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[req.Format])
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	viewID := chi.URLParam(r, "viewID")
	if err := apperrors.ValidateViewID(viewID); err != nil {
		s.writeError(w, err)
		return
	}
	if s.snapshots == nil {
		s.writeError(w, apperrors.New(apperrors.ErrCodeUnsupported, "snapshot store not configured"))
		return
	}
	if err := s.snapshots.Delete(r.Context(), viewID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeLayoutRequest(w http.ResponseWriter, r *http.Request) (layoutRequest, bool) {
	var req layoutRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "decode request"))
		return req, false
	}
	if len(req.Graph.Nodes) == 0 {
		s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidGraph, "graph must contain at least one node"))
		return req, false
	}
	if err := validate.Struct(&req); err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid request"))
		return req, false
	}
	return req, true
}

// statusFor maps error codes to HTTP statuses.
func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidGraph,
		apperrors.ErrCodeInvalidFormat, apperrors.ErrCodeInvalidViewID:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeSuperseded:
		return http.StatusConflict
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed", "code", code, "err", err)
	}
	writeJSON(w, status, errorResponse{
		Code:  string(code),
		Error: apperrors.UserMessage(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
