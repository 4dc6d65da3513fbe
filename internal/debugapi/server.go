// Package debugapi exposes a read-only introspection API over a
// *raftlog.Log: health, next index and last term, and entry lookups. It carries
// no write endpoints, since the spec's single-writer model means mutation
// belongs to whatever owns the Log (the raft storage adapter or a local
// caller), not to this HTTP surface. Grounded on the teacher's
// internal/http.Server, trimmed down to what a read-only debug surface
// needs: chi router, JSON response envelope, same handler shape.
package debugapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"raftlog"
)

const (
	contentTypeJSON        = "application/json"
	defaultShutdownTimeout = 5 * time.Second
)

// Server serves introspection endpoints over a single *raftlog.Log.
type Server struct {
	log        *raftlog.Log
	httpServer *http.Server
	addr       string
}

// NewServer builds a Server bound to addr (":8080" style) and backed by log.
func NewServer(log *raftlog.Log, addr string) *Server {
	return &Server{log: log, addr: addr}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/entry", s.handleEntry)
	r.Get("/entries", s.handleEntries)
	return r
}

// Start begins serving in the background. Errors after a successful bind
// are logged, not returned, matching the teacher's startHTTPServer.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("debugapi: listen on %s: %w", s.addr, err)
	}
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router(),
		ReadHeaderTimeout: time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("debugapi: server error", "error", err)
		}
	}()

	slog.Info("debugapi: server started", "addr", s.addr)
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("debugapi: shutdown: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Warn("debugapi: error encoding response", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, newOKResponse())
}

type statusPayload struct {
	NextIndex raftlog.LogIndex `json:"next_index"`
	LastTerm  raftlog.Term     `json:"last_term"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	last := s.log.LastEntry()
	s.writeJSON(w, http.StatusOK, newDataResponse(statusPayload{
		NextIndex: s.log.NextIndex(),
		LastTerm:  last.Term,
	}))
}

type entryPayload struct {
	Index     raftlog.LogIndex  `json:"index"`
	Term      raftlog.Term      `json:"term"`
	ValueType raftlog.ValueType `json:"value_type"`
	BlobSize  int               `json:"blob_size"`
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r.URL.Query().Get("index"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, newErrorResponse(err.Error()))
		return
	}

	entry, ok := s.log.EntryAt(index)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, newErrorResponse("index not live"))
		return
	}

	s.writeJSON(w, http.StatusOK, newDataResponse(entryPayload{
		Index: index, Term: entry.Term, ValueType: entry.ValueType, BlobSize: len(entry.Blob),
	}))
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	from, err := parseIndex(r.URL.Query().Get("from"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, newErrorResponse(err.Error()))
		return
	}
	to, err := parseIndex(r.URL.Query().Get("to"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, newErrorResponse(err.Error()))
		return
	}

	raw := s.log.EntriesBetween(from, to)
	out := make([]*entryPayload, len(raw))
	for i, entry := range raw {
		if entry == nil {
			continue
		}
		out[i] = &entryPayload{
			Index: from + raftlog.LogIndex(i), Term: entry.Term, ValueType: entry.ValueType, BlobSize: len(entry.Blob),
		}
	}
	s.writeJSON(w, http.StatusOK, newDataResponse(out))
}

func parseIndex(s string) (raftlog.LogIndex, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: %w", s, err)
	}
	return raftlog.LogIndex(n), nil
}
