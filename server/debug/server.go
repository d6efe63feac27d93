//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package debug provides an HTTP server for driving and inspecting agents
// during development: run a query, stream the event feed over SSE, list
// the registered tools, and look into memory and preferences.
package debug

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"trpc.group/trpc-go/compound-agent-go/agent"
	"trpc.group/trpc-go/compound-agent-go/event"
	"trpc.group/trpc-go/compound-agent-go/log"
	"trpc.group/trpc-go/compound-agent-go/memory"
	"trpc.group/trpc-go/compound-agent-go/preferences"
	"trpc.group/trpc-go/compound-agent-go/server/debug/internal/schema"
)

// Server exposes HTTP endpoints for registered agents. Runs go straight
// through the agent's event stream; no session state is kept server side.
type Server struct {
	agents map[string]agent.Agent
	router *mux.Router

	memorySvc memory.Service
	prefs     *preferences.Manager
}

// Option configures the Server instance.
type Option func(*Server)

// WithMemoryService exposes a memory backend on the inspection endpoints.
// Pass the same service the agents write to.
func WithMemoryService(svc memory.Service) Option {
	return func(s *Server) { s.memorySvc = svc }
}

// WithPreferencesManager exposes saved user preferences on /preferences.
func WithPreferencesManager(m *preferences.Manager) Option {
	return func(s *Server) { s.prefs = m }
}

// New creates a debug HTTP server with explicit agent registration. The
// behaviour can be tweaked via functional options.
func New(agents map[string]agent.Agent, opts ...Option) *Server {
	s := &Server{
		agents: agents,
		router: mux.NewRouter(),
	}

	// Apply user-provided options.
	for _, opt := range opts {
		opt(s)
	}

	// Add CORS middleware so browser-based debug UIs can call the API.
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

// registerRoutes sets up all REST endpoints.
func (s *Server) registerRoutes() {
	s.router.HandleFunc("/list-apps", s.handleListApps).Methods(http.MethodGet)
	s.router.HandleFunc("/apps/{appName}/tools", s.handleListTools).Methods(http.MethodGet)

	// Runner APIs.
	s.router.HandleFunc("/run", s.handleRun).Methods(http.MethodPost)
	s.router.HandleFunc("/run_sse", s.handleRunSSE).Methods(http.MethodPost)

	// Inspection APIs.
	s.router.HandleFunc("/apps/{appName}/users/{userId}/memory",
		s.handleReadMemory).Methods(http.MethodGet)
	s.router.HandleFunc("/apps/{appName}/users/{userId}/memory",
		s.handleClearMemory).Methods(http.MethodDelete)
	s.router.HandleFunc("/preferences", s.handlePreferences).Methods(http.MethodGet)

	// OPTIONS handlers to allow CORS pre-flight.
	preflight := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	s.router.HandleFunc("/run", preflight).Methods(http.MethodOptions)
	s.router.HandleFunc("/run_sse", preflight).Methods(http.MethodOptions)
}

// ---- Handlers -----------------------------------------------------------

func (s *Server) handleListApps(w http.ResponseWriter, r *http.Request) {
	log.Infof("handleListApps called: path=%s", r.URL.Path)
	apps := make([]string, 0, len(s.agents))
	for name := range s.agents {
		apps = append(apps, name)
	}
	sort.Strings(apps)
	s.writeJSON(w, apps)
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	log.Infof("handleListTools called: path=%s", r.URL.Path)
	ag, ok := s.agents[mux.Vars(r)["appName"]]
	if !ok {
		http.Error(w, "agent not found", http.StatusNotFound)
		return
	}
	decls, err := ag.Tools(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, decls)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	log.Infof("handleRun called: path=%s", r.URL.Path)

	var req schema.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Streaming {
		s.streamRun(w, r, &req)
		return
	}

	ch, err := s.startRun(r.Context(), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	events := make([]*schema.RunEvent, 0, 8)
	for e := range ch {
		if ev := convertEvent(e); ev != nil {
			events = append(events, ev)
		}
	}
	s.writeJSON(w, events)
}

func (s *Server) handleRunSSE(w http.ResponseWriter, r *http.Request) {
	log.Infof("handleRunSSE called: path=%s", r.URL.Path)

	var req schema.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	s.streamRun(w, r, &req)
}

// streamRun sends each converted event as one SSE data frame. The run is
// bound to the request context, so a dropped connection stops it.
func (s *Server) streamRun(w http.ResponseWriter, r *http.Request, req *schema.RunRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, err := s.startRun(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for e := range ch {
		ev := convertEvent(e)
		if ev == nil {
			continue
		}
		data, err := json.Marshal(ev)
		if err != nil {
			log.Errorf("Error marshalling SSE event: %v", err)
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
}

func (s *Server) handleReadMemory(w http.ResponseWriter, r *http.Request) {
	log.Infof("handleReadMemory called: path=%s", r.URL.Path)
	if s.memorySvc == nil {
		http.Error(w, "memory service not configured", http.StatusNotFound)
		return
	}
	vars := mux.Vars(r)
	userKey := memory.UserKey{AppName: vars["appName"], UserID: vars["userId"]}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.memorySvc.ReadEntries(r.Context(), userKey, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []memory.Entry{}
	}
	s.writeJSON(w, entries)
}

func (s *Server) handleClearMemory(w http.ResponseWriter, r *http.Request) {
	log.Infof("handleClearMemory called: path=%s", r.URL.Path)
	if s.memorySvc == nil {
		http.Error(w, "memory service not configured", http.StatusNotFound)
		return
	}
	vars := mux.Vars(r)
	userKey := memory.UserKey{AppName: vars["appName"], UserID: vars["userId"]}

	if err := s.memorySvc.ClearEntries(r.Context(), userKey); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, schema.Status{Status: "cleared"})
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	log.Infof("handlePreferences called: path=%s", r.URL.Path)
	if s.prefs == nil {
		http.Error(w, "preferences not configured", http.StatusNotFound)
		return
	}
	p, ok := s.prefs.Preferences()
	if !ok {
		http.Error(w, "no preferences saved", http.StatusNotFound)
		return
	}
	s.writeJSON(w, p)
}

// ---- helpers ------------------------------------------------------------

func (s *Server) startRun(ctx context.Context, req *schema.RunRequest) (<-chan *event.Event, error) {
	ag, ok := s.agents[req.AppName]
	if !ok {
		return nil, fmt.Errorf("agent not found")
	}
	return ag.Run(ctx, agent.NewInvocation(req.Query))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// convertEvent flattens an agent event for the wire. Events carrying no
// content, payload or error are dropped.
func convertEvent(e *event.Event) *schema.RunEvent {
	if e == nil {
		return nil
	}
	ev := &schema.RunEvent{
		ID:           e.ID,
		InvocationID: e.InvocationID,
		Author:       e.Author,
		Timestamp:    e.Timestamp.UnixMilli(),
	}
	if e.Response != nil {
		ev.Object = e.Response.Object
		ev.Done = e.Response.Done
		if e.Response.Error != nil {
			ev.Error = &schema.RunError{
				Type:    e.Response.Error.Type,
				Message: e.Response.Error.Message,
			}
		}
		if len(e.Response.Choices) > 0 {
			ev.Content = e.Response.Choices[0].Message.Content
		}
	}
	ev.Payload = e.StructuredOutput
	if ev.Content == "" && ev.Error == nil && ev.Payload == nil {
		return nil
	}
	return ev
}
