// Package api exposes a read-only HTTP surface over the checkpoint:
// health, a JSON progress summary, and Prometheus metrics. It is a
// thin wrapper; it never mutates crawl state.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ccampell/lyricscrawler/internal/archive"
)

// TreeLoader supplies the current checkpoint tree for status requests.
type TreeLoader interface {
	Load() (*archive.Tree, error)
}

// Server wires HTTP handlers to the checkpoint store.
type Server struct {
	router   chi.Router
	loader   TreeLoader
	registry *prometheus.Registry
	logger   *zap.Logger
}

// NewServer constructs a Server with routes attached.
func NewServer(loader TreeLoader, registry *prometheus.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{loader: loader, registry: registry, logger: logger}

	r := chi.NewRouter()
	r.Get("/healthz", s.healthz)
	r.Get("/status", s.status)
	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusSummary is the JSON body returned by /status.
type StatusSummary struct {
	Artists          int  `json:"artists"`
	ArtistsComplete  int  `json:"artists_complete"`
	Albums           int  `json:"albums"`
	AlbumsScraped    int  `json:"albums_scraped"`
	Songs            int  `json:"songs"`
	SongsTranscribed int  `json:"songs_transcribed"`
	SongsFailed      int  `json:"songs_failed"`
	Complete         bool `json:"complete"`
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	tree, err := s.loader.Load()
	if err != nil {
		if errors.Is(err, archive.ErrNoCheckpoint) {
			s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no checkpoint yet"})
			return
		}
		s.logger.Error("status load failed", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "checkpoint unreadable"})
		return
	}
	s.writeJSON(w, http.StatusOK, Summarize(tree))
}

// Summarize rolls the tree up into counts for reporting.
func Summarize(tree *archive.Tree) StatusSummary {
	var summary StatusSummary
	for _, aid := range tree.Artists.Keys() {
		artist, _ := tree.Artists.Get(aid)
		summary.Artists++
		if artist.Stage.Terminal() {
			summary.ArtistsComplete++
		}
		for _, alid := range artist.Albums.Keys() {
			album, _ := artist.Albums.Get(alid)
			summary.Albums++
			if album.Scraped {
				summary.AlbumsScraped++
			}
			for _, sid := range album.Songs.Keys() {
				song, _ := album.Songs.Get(sid)
				summary.Songs++
				if song.Failed {
					summary.SongsFailed++
				} else if song.Stage.Terminal() {
					summary.SongsTranscribed++
				}
			}
		}
	}
	summary.Complete = tree.Complete()
	return summary
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write response failed", zap.Error(err))
	}
}
