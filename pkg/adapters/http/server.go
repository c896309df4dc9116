// Package http exposes a read-only inspection API over the stores:
// saved sessions, their world state, chapter documents, and link
// indexes. It never mutates a session; play happens through the CLI or
// the MCP surface.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	vellum "github.com/softgrove/vellum"
	"github.com/softgrove/vellum/pkg/domain"
	"github.com/softgrove/vellum/pkg/ports"
)

// Server serves the inspection API.
type Server struct {
	states   ports.StateStore
	chapters ports.ChapterStore
	links    ports.LinkStore
	logger   *slog.Logger
}

type Option func(*Server)

// WithLinkStore enables the /links endpoint.
func WithLinkStore(links ports.LinkStore) Option {
	return func(s *Server) {
		s.links = links
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler builds the router.
func NewHandler(states ports.StateStore, chapters ports.ChapterStore, opts ...Option) http.Handler {
	s := &Server{
		states:   states,
		chapters: chapters,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Route("/{namespace}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Get("/chapters/latest", s.getLatestChapter)
			r.Get("/chapters/{seq}", s.getChapter)
			r.Get("/links", s.getLinks)
		})
	})

	return r
}

type sessionSummary struct {
	ID        string    `json:"id"`
	Chapters  int       `json:"chapters"`
	LastSaved time.Time `json:"last_saved"`
}

type sessionResponse struct {
	ID     string         `json:"id"`
	Player map[string]any `json:"player"`
	World  map[string]any `json:"world"`
	Story  storyResponse  `json:"story"`
	Meta   metaResponse   `json:"meta"`
}

type storyResponse struct {
	Chapters    int      `json:"chapters"`
	Choices     []string `json:"choices"`
	EndingsSeen []string `json:"endings_seen"`
}

type metaResponse struct {
	Created   time.Time `json:"created"`
	LastSaved time.Time `json:"last_saved"`
	Version   string    `json:"version"`
}

type chapterResponse struct {
	Namespace string `json:"namespace"`
	Seq       int    `json:"seq"`
	Text      string `json:"text"`
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "vellum-http",
		"version": vellum.Version,
	})
}

// listSessions returns a summary per saved namespace. Namespaces whose
// state no longer loads are skipped with a warning, matching how resume
// picks the most recent save.
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	namespaces, err := s.states.List(r.Context())
	if err != nil {
		s.serverError(w, "list sessions", err)
		return
	}

	summaries := make([]sessionSummary, 0, len(namespaces))
	for _, ns := range namespaces {
		state, err := s.states.Load(r.Context(), ns)
		if err != nil {
			s.logger.Warn("skipping unreadable session", "namespace", ns, "err", err)
			continue
		}
		summaries = append(summaries, sessionSummary{
			ID:        ns,
			Chapters:  state.Story.ChapterCount,
			LastSaved: state.Meta.LastSaved,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	ns := chi.URLParam(r, "namespace")
	state, err := s.states.Load(r.Context(), ns)
	if err != nil {
		s.storeError(w, fmt.Sprintf("load session %s", ns), err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		ID:     ns,
		Player: state.Player,
		World:  state.World,
		Story: storyResponse{
			Chapters:    state.Story.ChapterCount,
			Choices:     state.Story.Choices,
			EndingsSeen: state.Story.EndingsSeen,
		},
		Meta: metaResponse{
			Created:   state.Meta.Created,
			LastSaved: state.Meta.LastSaved,
			Version:   state.Meta.Version,
		},
	})
}

func (s *Server) getLatestChapter(w http.ResponseWriter, r *http.Request) {
	ns := chi.URLParam(r, "namespace")
	ref, err := s.chapters.Latest(r.Context(), ns)
	if err != nil {
		s.storeError(w, fmt.Sprintf("latest chapter of %s", ns), err)
		return
	}
	s.writeChapter(w, r, ref)
}

func (s *Server) getChapter(w http.ResponseWriter, r *http.Request) {
	ns := chi.URLParam(r, "namespace")
	seq, err := strconv.Atoi(chi.URLParam(r, "seq"))
	if err != nil || seq < 1 {
		http.Error(w, "chapter sequence must be a positive integer", http.StatusBadRequest)
		return
	}
	s.writeChapter(w, r, domain.ChapterRef{Namespace: ns, Seq: seq})
}

func (s *Server) writeChapter(w http.ResponseWriter, r *http.Request, ref domain.ChapterRef) {
	text, err := s.chapters.Read(r.Context(), ref)
	if err != nil {
		s.storeError(w, fmt.Sprintf("read chapter %d of %s", ref.Seq, ref.Namespace), err)
		return
	}
	writeJSON(w, http.StatusOK, chapterResponse{
		Namespace: ref.Namespace,
		Seq:       ref.Seq,
		Text:      text,
	})
}

func (s *Server) getLinks(w http.ResponseWriter, r *http.Request) {
	if s.links == nil {
		http.Error(w, "link index not configured", http.StatusNotFound)
		return
	}
	ns := chi.URLParam(r, "namespace")
	index, err := s.links.Get(r.Context(), ns)
	if err != nil {
		s.storeError(w, fmt.Sprintf("links of %s", ns), err)
		return
	}
	writeJSON(w, http.StatusOK, index)
}

// storeError maps store sentinels onto status codes: absent data is the
// client's 404, everything else is our 500.
func (s *Server) storeError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, msg+": not found", http.StatusNotFound)
		return
	}
	s.serverError(w, msg, err)
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "err", err)
	http.Error(w, msg, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
