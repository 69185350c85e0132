package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/alf"
	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:generate go tool oapi-codegen -package http -generate types,chi-server,spec -o api.gen.go ../../../api/openapi.yaml

// maxBody bounds request payloads (query trees and acceptance streams included).
const maxBody = 16 << 20

// Server implements the generated ServerInterface. Membership queries travel in
// the binary query tree format, answers as acceptance streams.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager
	Logger   *slog.Logger
}

var _ ServerInterface = (*Server)(nil)

// NewHandler creates a new HTTP handler serving the sessions of mgr.
func NewHandler(mgr *session.Manager, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Sessions: mgr,
		Streams:  NewStreamManager(logger),
		Logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			logger.Error("Failed to load OpenAPI spec", "err", err)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(spec)
	})

	return HandlerWithOptions(s, ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		},
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

// statusFor maps learner errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrKnowledgeConflict),
		errors.Is(err, domain.ErrAnswerCountMismatch),
		errors.Is(err, domain.ErrNoConjecture),
		errors.Is(err, domain.ErrInconsistentCounterexample),
		errors.Is(err, domain.ErrStaleCounterexample):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMalformedData),
		errors.Is(err, domain.ErrInvalidWord),
		errors.Is(err, domain.ErrInvalidAlphabet):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.Logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", code, "err", err)
	}
	s.writeJSON(w, code, ErrorResponse{Error: err.Error()})
}

func summarize(id string, l *alf.Learner) SessionResponse {
	stats := l.Table().Stats()
	return SessionResponse{
		Id:              id,
		Mode:            l.Mode(),
		AlphabetSize:    stats.Alphabet,
		Round:           l.Round(),
		PendingQueries:  l.Knowledge().CountQueries(),
		Answers:         l.Knowledge().CountAnswers(),
		ConfirmedRows:   stats.Confirmed,
		Columns:         stats.Columns,
		Counterexamples: len(l.Counterexamples()),
	}
}

func (s *Server) publish(id, event string, l *alf.Learner) {
	msg, err := json.Marshal(struct {
		Event string `json:"event"`
		SessionResponse
	}{event, summarize(id, l)})
	if err != nil {
		return
	}
	s.Streams.Broadcast(id, string(msg))
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionJSONRequestBody
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		s.Logger.Warn("CreateSession: invalid request body", "err", err)
		return
	}
	var mode string
	if body.Mode != nil {
		mode = string(*body.Mode)
	}
	id, err := s.Sessions.Create(r.Context(), body.AlphabetSize, mode)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusCreated, CreateSessionResponse{Id: id})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, id SessionID) {
	var resp SessionResponse
	err := s.Sessions.View(r.Context(), id, func(ctx context.Context, l *alf.Learner) error {
		status, err := l.Advance(ctx)
		if err != nil {
			return err
		}
		resp = summarize(id, l)
		name := status.String()
		resp.Status = &name
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, id SessionID) {
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetQueries handles GET /sessions/{id}/queries. It advances the learner and
// returns the pending query tree, or 204 when a conjecture is ready.
func (s *Server) GetQueries(w http.ResponseWriter, r *http.Request, id SessionID) {
	var (
		status alf.Status
		data   []byte
	)
	err := s.Sessions.Update(r.Context(), id, func(ctx context.Context, l *alf.Learner) error {
		var err error
		status, err = l.Advance(ctx)
		if err != nil {
			return err
		}
		if status == alf.StatusQueriesPending {
			data = l.PendingQueries()
		}
		s.publish(id, status.String(), l)
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if status == alf.StatusConjectureReady {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.Logger.Error("query tree write failed", "session_id", id, "err", err)
	}
}

// PostAnswers handles POST /sessions/{id}/answers.
func (s *Server) PostAnswers(w http.ResponseWriter, r *http.Request, id SessionID) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unreadable body"})
		return
	}
	var resp SessionResponse
	err = s.Sessions.Update(r.Context(), id, func(ctx context.Context, l *alf.Learner) error {
		// Rebuilds the queries the client was shown.
		if _, err := l.Advance(ctx); err != nil {
			return err
		}
		if err := l.SubmitAnswers(ctx, data); err != nil {
			return err
		}
		resp = summarize(id, l)
		s.publish(id, string(domain.EventAnswers), l)
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetConjecture handles GET /sessions/{id}/conjecture.
func (s *Server) GetConjecture(w http.ResponseWriter, r *http.Request, id SessionID) {
	var conj *domain.Automaton
	err := s.Sessions.View(r.Context(), id, func(ctx context.Context, l *alf.Learner) error {
		if _, err := l.Advance(ctx); err != nil {
			return err
		}
		var err error
		conj, err = l.Conjecture(ctx)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, conj)
}

// PostCounterexample handles POST /sessions/{id}/counterexamples.
func (s *Server) PostCounterexample(w http.ResponseWriter, r *http.Request, id SessionID) {
	var body PostCounterexampleJSONRequestBody
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	var resp SessionResponse
	err := s.Sessions.Update(r.Context(), id, func(ctx context.Context, l *alf.Learner) error {
		if _, err := l.Advance(ctx); err != nil {
			return err
		}
		if err := l.AddCounterexample(ctx, domain.Counterexample{Word: wordOf(body.Word), Answer: body.Answer}); err != nil {
			return err
		}
		resp = summarize(id, l)
		s.publish(id, string(domain.EventCounterexample), l)
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func wordOf(symbols []int) domain.Word {
	w := make(domain.Word, len(symbols))
	for i, v := range symbols {
		w[i] = domain.Symbol(v)
	}
	return w
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	s.writeJSON(w, http.StatusOK, InfoResponse{
		App:        "alf-http",
		Version:    strings.TrimSpace(alf.Version),
		ApiVersion: apiVersion,
	})
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE). Every mutation of the
// session is pushed as a JSON summary.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, id SessionID) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "streaming not supported"})
		return
	}
	if _, err := s.Sessions.Load(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("SSE client disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
