package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	lterrors "github.com/matzehuels/layouttester/pkg/errors"
	"github.com/matzehuels/layouttester/pkg/fixture"
	"github.com/matzehuels/layouttester/pkg/pipeline"
	"github.com/matzehuels/layouttester/pkg/render"
	"github.com/matzehuels/layouttester/pkg/scheduler"
)

type submitRequest struct {
	Fixture string          `json:"fixture"`
	Toggles map[string]bool `json:"toggles,omitempty"`
}

type submitResponse struct {
	ID      string `json:"id"`
	Fixture string `json:"fixture"`
}

type stageView struct {
	Label      string `json:"label"`
	DurationMS int64  `json:"duration_ms"`
	Skipped    bool   `json:"skipped,omitempty"`
}

type failureView struct {
	Stage string `json:"stage"`
	Value string `json:"value"`
}

type runView struct {
	ID         string        `json:"id"`
	Fixture    string        `json:"fixture"`
	Finished   time.Time     `json:"finished"`
	Failed     bool          `json:"failed"`
	Code       string        `json:"code,omitempty"`
	Error      string        `json:"error,omitempty"`
	Planned    int           `json:"planned"`
	Cells      int           `json:"cells"`
	Stages     []stageView   `json:"stages"`
	Failures   []failureView `json:"failures,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
	Log        []string      `json:"log"`
	DurationMS int64         `json:"duration_ms"`
}

type cellView struct {
	Hit       bool    `json:"hit"`
	Text      string  `json:"text,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	Content   string  `json:"content,omitempty"`
	Marker    string  `json:"marker,omitempty"`
	Direction string  `json:"direction,omitempty"`
}

type errorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFixtures(w http.ResponseWriter, r *http.Request) {
	entries, err := fixture.List(s.cfg.FixturesDir)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []fixture.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, lterrors.Wrap(lterrors.ErrCodeInvalidInput, err, "decode run request"))
		return
	}
	entry, err := fixture.Find(s.cfg.FixturesDir, req.Fixture)
	if err != nil {
		s.writeError(w, err)
		return
	}
	src, err := fixture.Load(entry.Path)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts := s.cfg.Options
	for toggle, on := range req.Toggles {
		if err := opts.SetToggle(toggle, on); err != nil {
			s.writeError(w, err)
			return
		}
	}

	id := s.cfg.Scheduler.Submit(scheduler.Request{Source: src, Options: opts})
	writeJSON(w, http.StatusAccepted, submitResponse{ID: id.String(), Fixture: src.Name})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	run, ok := s.latest(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newRunView(run))
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if format != pipeline.FormatSVG && format != pipeline.FormatJSON {
		s.writeError(w, lterrors.New(lterrors.ErrCodeNotFound, "no grid.%s view", format))
		return
	}
	run, ok := s.latest(w)
	if !ok {
		return
	}
	opts := run.Request.Options
	opts.Formats = []string{format}
	artifacts, err := s.cfg.Runner.Render(r.Context(), run.Result, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	contentType := "application/json"
	if format == pipeline.FormatSVG {
		contentType = "image/svg+xml"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func (s *Server) handleCell(w http.ResponseWriter, r *http.Request) {
	px, errX := strconv.ParseFloat(r.URL.Query().Get("px"), 64)
	py, errY := strconv.ParseFloat(r.URL.Query().Get("py"), 64)
	if errX != nil || errY != nil {
		s.writeError(w, lterrors.New(lterrors.ErrCodeInvalidInput, "px and py must be numbers"))
		return
	}
	run, ok := s.latest(w)
	if !ok {
		return
	}
	if run.Result.Layout == nil {
		s.writeError(w, lterrors.New(lterrors.ErrCodeInvalidInput, "latest run produced no layout"))
		return
	}

	opts := run.Request.Options
	opts.SetDefaults()
	proj := render.NewProjection(run.Result.Layout.Grid, opts.Width, opts.Height)
	hit, ok := proj.HitTest(px, py)
	if !ok {
		writeJSON(w, http.StatusOK, cellView{})
		return
	}
	view := cellView{
		Hit:     true,
		Text:    hit.Text(),
		X:       hit.Cell.X,
		Y:       hit.Cell.Y,
		Content: hit.Cell.Content,
		Marker:  hit.Cell.Marker,
	}
	if hit.Cell.Direction.Valid() {
		view.Direction = hit.Cell.Direction.String()
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{"scheduler": s.cfg.Scheduler.Stats()}
	if s.cfg.Recorder != nil {
		out["runs"] = s.cfg.Recorder.Snapshot()
	}
	writeJSON(w, http.StatusOK, out)
}

// latest writes a 404 when no run has completed yet.
func (s *Server) latest(w http.ResponseWriter) (*scheduler.Run, bool) {
	run, ok := s.cfg.Scheduler.Latest()
	if !ok {
		s.writeError(w, lterrors.New(lterrors.ErrCodeNotFound, "no run has completed yet"))
		return nil, false
	}
	return run, true
}

func newRunView(run *scheduler.Run) runView {
	res := run.Result
	v := runView{
		ID:         run.ID.String(),
		Fixture:    run.Request.Fixture(),
		Finished:   run.Finished,
		Failed:     res.Failed(),
		Code:       string(res.Diagnostics.Code),
		Planned:    res.Stats.Planned,
		Cells:      res.Stats.Cells,
		Stages:     []stageView{},
		Warnings:   res.Diagnostics.Warnings,
		Log:        []string{},
		DurationMS: res.Stats.Duration.Milliseconds(),
	}
	if res.Diagnostics.Err != nil {
		v.Error = lterrors.UserMessage(res.Diagnostics.Err)
	}
	if res.Diagnostics.Log != nil {
		v.Log = res.Diagnostics.Log.Lines()
	}
	for _, st := range res.Stats.Stages {
		v.Stages = append(v.Stages, stageView{Label: st.Label, DurationMS: st.Duration.Milliseconds(), Skipped: st.Skipped})
	}
	for _, f := range res.Diagnostics.StageFailures {
		v.Failures = append(v.Failures, failureView{Stage: f.Stage, Value: f.Value.String()})
	}
	return v
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := lterrors.GetCodeOr(err, lterrors.ErrCodeInternal)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorView{Code: string(code), Message: lterrors.UserMessage(err)})
}

func statusFor(code lterrors.Code) int {
	switch code {
	case lterrors.ErrCodeNotFound:
		return http.StatusNotFound
	case lterrors.ErrCodeInvalidInput, lterrors.ErrCodeInvalidConfig, lterrors.ErrCodeFormat, lterrors.ErrCodeSchema:
		return http.StatusBadRequest
	case lterrors.ErrCodeEnvironment:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
