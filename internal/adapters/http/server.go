// Package http exposes conversations over a JSON API, keeping live
// sessions in memory and persisting them through a ConversationStore.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/adapters/file"
	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/observability"
	"github.com/aretw0/espalier/pkg/ports"
)

// session pairs a live conversation with its own lock. Navigators are
// single-threaded by contract, so concurrent requests against the same
// conversation ID must take turns.
type session struct {
	mu   sync.Mutex
	conv *espalier.Conversation
}

// Server holds the engine, live sessions, and the document store.
type Server struct {
	engine  *espalier.Engine
	store   ports.ConversationStore
	logger  *slog.Logger
	metrics *observability.Metrics

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewHandler builds the HTTP handler. The registry, when non-nil, is
// served at /metrics; the metrics bundle may be nil.
func NewHandler(engine *espalier.Engine, store ports.ConversationStore, logger *slog.Logger, registry *prometheus.Registry, metrics *observability.Metrics) http.Handler {
	s := &Server{
		engine:   engine,
		store:    store,
		logger:   logger,
		metrics:  metrics,
		sessions: make(map[string]*session),
	}

	r := chi.NewRouter()

	r.Get("/healthz", s.health)
	if registry != nil {
		r.Method("GET", "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Get("/tree", s.getTree)
	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", s.createConversation)
		r.Get("/", s.listConversations)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getConversation)
			r.Post("/respond", s.respond)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type createRequest struct {
	ExpertType string `json:"expert_type"`
}

type nodeView struct {
	NodeID       string   `json:"node_id"`
	Question     string   `json:"question"`
	QuestionType string   `json:"question_type"`
	Options      []string `json:"options"`
}

type conversationView struct {
	ID     string    `json:"id"`
	Status string    `json:"status"`
	Turns  int       `json:"turns"`
	Node   *nodeView `json:"node,omitempty"`
}

type respondRequest struct {
	Input string `json:"input"`
}

type respondResponse struct {
	Outcome  string    `json:"outcome"`
	Reply    string    `json:"reply,omitempty"`
	Fallback bool      `json:"fallback,omitempty"`
	Node     *nodeView `json:"node,omitempty"`
	Status   string    `json:"status"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Graph().Document())
}

// createConversation starts a session and returns its first node.
func (s *Server) createConversation(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("create: invalid request body", "err", err)
		return
	}
	if body.ExpertType == "" {
		http.Error(w, "expert_type is required", http.StatusBadRequest)
		return
	}

	conv, err := s.engine.Start(body.ExpertType)
	if err != nil {
		http.Error(w, fmt.Sprintf("Start error: %v", err), http.StatusInternalServerError)
		s.logger.Error("create: start failed", "err", err)
		return
	}

	id := file.DocumentID(body.ExpertType, time.Now())
	s.mu.Lock()
	s.sessions[id] = &session{conv: conv}
	s.mu.Unlock()

	node, err := conv.Present()
	if err != nil {
		http.Error(w, fmt.Sprintf("Present error: %v", err), http.StatusInternalServerError)
		s.logger.Error("create: present failed", "err", err)
		return
	}

	writeJSON(w, http.StatusCreated, conversationView{
		ID:     id,
		Status: string(conv.Status()),
		Node:   viewOf(node),
	})
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("list failed", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"conversations": ids})
}

// getConversation reports a live session when one exists, otherwise
// the stored document.
func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	sess, live := s.sessions[id]
	s.mu.RUnlock()

	if live {
		sess.mu.Lock()
		view := conversationView{
			ID:     id,
			Status: string(sess.conv.Status()),
			Turns:  len(sess.conv.Trace()),
		}
		sess.mu.Unlock()
		writeJSON(w, http.StatusOK, view)
		return
	}

	doc, err := s.store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("get: load failed", "err", err, "id", id)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// respond feeds one input to a live session. Exit outcomes persist the
// document and drop the session.
func (s *Server) respond(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "No live conversation with that ID", http.StatusNotFound)
		return
	}

	var body respondRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("respond: invalid request body", "err", err)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	conv := sess.conv

	// Present is idempotent while a response is pending; this covers
	// clients that never rendered the node themselves.
	if _, err := conv.Present(); err != nil {
		http.Error(w, fmt.Sprintf("Present error: %v", err), http.StatusInternalServerError)
		return
	}

	outcome, err := conv.Respond(r.Context(), body.Input)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
		s.logger.Warn("respond: input rejected", "err", err, "id", id)
		return
	}

	resp := respondResponse{
		Outcome: string(outcome.Kind),
		Status:  string(conv.Status()),
	}
	if outcome.Entry != nil {
		resp.Reply = outcome.Entry.AssistantResponse
		resp.Fallback = outcome.Reply.Fallback
	}

	switch outcome.Kind {
	case runtime.OutcomeExit, runtime.OutcomeEnd:
		s.save(r.Context(), id, conv, outcome.Kind)
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
	case runtime.OutcomeSave:
		s.save(r.Context(), id, conv, outcome.Kind)
	}

	if conv.Status() != runtime.StatusTerminated {
		if node, err := conv.Present(); err == nil {
			resp.Node = viewOf(node)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) save(ctx context.Context, id string, conv *espalier.Conversation, kind runtime.OutcomeKind) {
	if err := s.store.Save(ctx, id, conv.Document()); err != nil {
		s.logger.Error("respond: save failed", "err", err, "id", id)
		return
	}
	if s.metrics != nil {
		s.metrics.SavesTotal.WithLabelValues(string(kind)).Inc()
	}
}

func viewOf(node *domain.Node) *nodeView {
	return &nodeView{
		NodeID:       node.NodeID,
		Question:     node.Question,
		QuestionType: string(node.QuestionType),
		Options:      node.OptionTexts(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
