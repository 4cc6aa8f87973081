// Package web provides the HTTP surface of the blowout daemon: a status page,
// status and scene JSON, and endpoints that post user intents to the session.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/sweeney/blowout/internal/scene"
	"github.com/sweeney/blowout/internal/status"
)

// Poster delivers a user intent to the running session.
// *scene.Session implements it.
type Poster interface {
	Post(in scene.Intent) bool
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	scenes     *SceneStore
	poster     Poster
}

// New creates a Server that reads state from the given tracker and scene
// store and posts intents to poster. scenes and poster may be nil, in which
// case the corresponding endpoints report 503.
func New(addr string, tracker *status.Tracker, scenes *SceneStore, poster Poster) *Server {
	s := &Server{tracker: tracker, scenes: scenes, poster: poster}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("GET /scene.json", s.handleScene)
	mux.HandleFunc("POST /intent/{name}", s.handleIntent)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Handler returns the request multiplexer. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	if s.scenes == nil {
		http.Error(w, "scene unavailable", http.StatusServiceUnavailable)
		return
	}
	data, err := s.scenes.JSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// IntentResponse is the body returned by POST /intent/{name}.
type IntentResponse struct {
	Intent string `json:"intent"`
	Queued bool   `json:"queued"`
}

func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	in, err := scene.ParseIntent(r.PathValue("name"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if s.poster == nil {
		http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		return
	}

	resp := IntentResponse{Intent: string(in), Queued: s.poster.Post(in)}
	code := http.StatusAccepted
	if !resp.Queued {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
