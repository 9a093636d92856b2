// Package server exposes the chat host over HTTP. Each prompt runs through the
// plugin hooks so registered plugins see the inbound message and the reply.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/m2tx/dialogue_archiver/internal/plugin"
)

// Responder generates the bot's reply to a prompt.
type Responder interface {
	Reply(ctx context.Context, sessionID string, prompt string) (string, error)
}

// Server wires HTTP requests to the responder and the plugin registry.
type Server struct {
	responder Responder
	plugins   *plugin.Registry
	logger    *zap.Logger
	now       func() time.Time
}

func New(responder Responder, plugins *plugin.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if plugins == nil {
		plugins = plugin.NewRegistry(logger)
	}
	return &Server{
		responder: responder,
		plugins:   plugins,
		logger:    logger,
		now:       time.Now,
	}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Post("/prompt", s.prompt)

	return r
}

type promptRequest struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
}

type promptResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) prompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Prompt == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	ctx := r.Context()

	msg := plugin.NewContext(plugin.ContextText, req.Prompt)
	msg.Set("session_id", req.SessionID)
	msg.Set("create_time", s.now().Unix())
	msg.Set("request_id", middleware.GetReqID(ctx))

	ec := s.plugins.Emit(ctx, &plugin.EventContext{Event: plugin.EventOnHandleContext, Context: msg})

	var reply *plugin.Reply
	switch {
	case ec.Reply != nil:
		reply = ec.Reply
	case ec.IsPass():
		reply = &plugin.Reply{Type: plugin.ReplyInfo}
	default:
		text, err := s.responder.Reply(ctx, req.SessionID, req.Prompt)
		if err != nil {
			s.logger.Error("reply generation failed", zap.String("session_id", req.SessionID), zap.Error(err))
			http.Error(w, "reply generation failed", http.StatusBadGateway)
			return
		}
		reply = &plugin.Reply{Type: plugin.ReplyText, Content: text}
	}

	ec = s.plugins.Emit(ctx, &plugin.EventContext{Event: plugin.EventOnDecorateReply, Context: msg, Reply: reply})
	if ec.Reply != nil {
		reply = ec.Reply
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, promptResponse{SessionID: req.SessionID, Reply: reply.Content})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
