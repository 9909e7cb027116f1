// Package api serves the JSON HTTP interface over the phase engine and the
// session store.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/zensetag/internal/config"
	"github.com/banshee-data/zensetag/internal/db"
	"github.com/banshee-data/zensetag/internal/httputil"
	"github.com/banshee-data/zensetag/internal/tagdata"
	"github.com/banshee-data/zensetag/internal/units"
	"github.com/banshee-data/zensetag/internal/version"
)

// DefaultTagCount is the number of records /api/tags returns without ?n=.
const DefaultTagCount = 50

// Engine is the subset of *tagdata.Engine the handlers read and drive.
type Engine interface {
	Latest() (float64, bool)
	History() []float64
	Selection() tagdata.Selection
	Select(command string) tagdata.Selection
	Records(n int) []tagdata.TagRecord
	Warped() bool
	SetWarped(on bool)
	Stats() tagdata.Stats
}

// SessionStore lists recorded sessions. *db.DB implements it.
type SessionStore interface {
	Sessions(ctx context.Context, limit int) ([]db.Session, error)
	SessionByID(ctx context.Context, id string) (db.Session, error)
	SessionValues(ctx context.Context, id string) ([]float64, error)
}

type Server struct {
	engine   Engine
	profiles *config.Profiles
	sessions SessionStore
	live     http.Handler
}

// NewServer wires the handlers. sessions and live may be nil, in which case
// /api/sessions and /ws respond 404.
func NewServer(engine Engine, profiles *config.Profiles, sessions SessionStore, live http.Handler) *Server {
	return &Server{
		engine:   engine,
		profiles: profiles,
		sessions: sessions,
		live:     live,
	}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/phase", s.showPhase)
	mux.HandleFunc("/api/history", s.showHistory)
	mux.HandleFunc("/api/profiles", s.listProfiles)
	mux.HandleFunc("/api/profile", s.selectProfile)
	mux.HandleFunc("/api/dtw", s.handleDTW)
	mux.HandleFunc("/api/tags", s.listTags)
	mux.HandleFunc("/api/stats", s.showStats)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/sessions/", s.showSession)
	mux.HandleFunc("/api/version", s.showVersion)
	if s.live != nil {
		mux.Handle("/ws", s.live)
	}
	return mux
}

// PhaseResponse is the latest reading. Value is the raw average in degrees;
// Display has the sensor's curve applied unless ?units=deg was requested.
type PhaseResponse struct {
	Available bool    `json:"available"`
	Value     float64 `json:"value"`
	Display   float64 `json:"display"`
	Phase     string  `json:"phase"`
	Unit      string  `json:"unit"`
	Sensor    string  `json:"sensor"`
	Auto      bool    `json:"auto"`
}

func (s *Server) curveFor(sensor, unit string) units.Curve {
	if unit == units.Degrees {
		return nil
	}
	p, _ := s.profiles.Profile(sensor)
	return p.DisplayCurve
}

func (s *Server) showPhase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	unit := r.URL.Query().Get("units")
	if unit != "" && !units.IsValid(unit) {
		httputil.BadRequest(w, "units must be one of: "+strings.Join(units.ValidUnits, ", "))
		return
	}

	sel := s.engine.Selection()
	resp := PhaseResponse{Value: tagdata.Insufficient, Sensor: sel.Profile, Auto: sel.Auto}
	v, ok := s.engine.Latest()
	curve := s.curveFor(sel.Profile, unit)
	resp.Unit = curve.Unit()
	if ok {
		resp.Available = true
		resp.Value = v
		resp.Display = curve.Apply(v)
		resp.Phase = units.FormatReading(v, curve)
	}
	httputil.WriteJSONOK(w, resp)
}

// HistoryResponse carries every computed average and summary statistics.
type HistoryResponse struct {
	Values []float64 `json:"values"`
	Count  int       `json:"count"`
	Mean   float64   `json:"mean"`
	StdDev float64   `json:"stddev"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
}

// Summarize computes the history statistics. The standard deviation needs at
// least two values and is zero otherwise.
func Summarize(values []float64) HistoryResponse {
	resp := HistoryResponse{Values: values, Count: len(values)}
	if resp.Values == nil {
		resp.Values = []float64{}
	}
	if len(values) == 0 {
		return resp
	}
	resp.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		resp.StdDev = stat.StdDev(values, nil)
	}
	resp.Min = floats.Min(values)
	resp.Max = floats.Max(values)
	return resp
}

func (s *Server) showHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, Summarize(s.engine.History()))
}

// ProfileInfo describes one configured sensor profile.
type ProfileInfo struct {
	Name   string   `json:"name"`
	EPCs   []string `json:"epcs"`
	Window float64  `json:"window"`
	YRange int      `json:"y_range"`
	Unit   string   `json:"unit"`
}

// ProfilesResponse lists the profiles and the current selection.
type ProfilesResponse struct {
	Profiles    []ProfileInfo     `json:"profiles"`
	SensorNames []string          `json:"sensorNames"`
	Selection   tagdata.Selection `json:"selection"`
}

func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	resp := ProfilesResponse{
		Profiles:    []ProfileInfo{},
		SensorNames: s.profiles.SelectableNames(),
		Selection:   s.engine.Selection(),
	}
	for _, name := range s.profiles.Names() {
		p, _ := s.profiles.Profile(name)
		resp.Profiles = append(resp.Profiles, ProfileInfo{
			Name:   p.Name,
			EPCs:   p.Identities(),
			Window: p.Window,
			YRange: p.YRange,
			Unit:   p.DisplayCurve.Unit(),
		})
	}
	httputil.WriteJSONOK(w, resp)
}

type selectRequest struct {
	Command string `json:"command"`
}

// selectProfile applies a selection command, the same one websocket clients
// send. It accepts a JSON body or a "command" form value.
func (s *Server) selectProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req selectRequest
	if httputil.IsJSON(r) {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
	} else {
		req.Command = r.FormValue("command")
	}
	if strings.TrimSpace(req.Command) == "" {
		httputil.BadRequest(w, "command is required")
		return
	}
	httputil.WriteJSONOK(w, s.engine.Select(req.Command))
}

type dtwState struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleDTW(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req dtwState
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		if req.Enabled == nil {
			httputil.BadRequest(w, "enabled is required")
			return
		}
		s.engine.SetWarped(*req.Enabled)
	default:
		httputil.MethodNotAllowed(w)
		return
	}
	on := s.engine.Warped()
	httputil.WriteJSONOK(w, dtwState{Enabled: &on})
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	n, err := httputil.QueryInt(r, "n", DefaultTagCount)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, s.engine.Records(n))
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.engine.Stats())
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.sessions == nil {
		httputil.NotFound(w, "session storage is disabled")
		return
	}
	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	sessions, err := s.sessions.Sessions(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, "failed to list sessions")
		return
	}
	httputil.WriteJSONOK(w, sessions)
}

// SessionResponse is a session with its recorded values.
type SessionResponse struct {
	db.Session
	Values []float64 `json:"values"`
}

func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.sessions == nil {
		httputil.NotFound(w, "session storage is disabled")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	if id == "" || strings.Contains(id, "/") {
		httputil.NotFound(w, "session not found")
		return
	}

	session, err := s.sessions.SessionByID(r.Context(), id)
	if errors.Is(err, db.ErrSessionNotFound) {
		httputil.NotFound(w, "session not found")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, "failed to load session")
		return
	}
	values, err := s.sessions.SessionValues(r.Context(), id)
	if err != nil {
		httputil.InternalServerError(w, "failed to load session values")
		return
	}
	httputil.WriteJSONOK(w, SessionResponse{Session: session, Values: values})
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, version.Current())
}
