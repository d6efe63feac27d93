//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package debug

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/compound-agent-go/agent"
	"trpc.group/trpc-go/compound-agent-go/event"
	"trpc.group/trpc-go/compound-agent-go/finance"
	"trpc.group/trpc-go/compound-agent-go/memory"
	"trpc.group/trpc-go/compound-agent-go/memory/local"
	"trpc.group/trpc-go/compound-agent-go/model"
	"trpc.group/trpc-go/compound-agent-go/preferences"
	"trpc.group/trpc-go/compound-agent-go/server/debug/internal/schema"
	"trpc.group/trpc-go/compound-agent-go/tool"
)

const demoQuery = "Calculate the final amount after 5 years if you invest $10,000 " +
	"in a savings account with an annual interest rate of 4.5%, compounded quarterly. " +
	"The bank also offers a bonus of 0.5% on the initial deposit."

func newTestServer(t *testing.T, agentOpts []agent.Option, opts ...Option) *Server {
	t.Helper()
	channel := tool.NewLocalChannel(finance.Tools()...)
	a, err := agent.New("compound-agent",
		append([]agent.Option{agent.WithChannel(channel)}, agentOpts...)...)
	require.NoError(t, err)
	return New(map[string]agent.Agent{"compound-agent": a}, opts...)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_ListApps(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodGet, "/list-apps", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var apps []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apps))
	assert.Equal(t, []string{"compound-agent"}, apps)
}

func TestServer_ListTools(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodGet, "/apps/compound-agent/tools", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var decls []*tool.Declaration
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decls))
	require.Len(t, decls, 7)
	assert.Equal(t, "calculate_quarterly_rate", decls[0].Name)
	assert.NotNil(t, decls[0].InputSchema)

	w = doJSON(t, s, http.MethodGet, "/apps/unknown/tools", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Run(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodPost, "/run",
		schema.RunRequest{AppName: "compound-agent", Query: demoQuery})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var events []*schema.RunEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	// Perception, seven plan steps, final answer.
	require.Len(t, events, 9)

	assert.Equal(t, model.ObjectTypePerception, events[0].Object)

	first := events[1]
	assert.Equal(t, model.ObjectTypePlanStep, first.Object)
	assert.Contains(t, first.Content, "calculate_quarterly_rate(annual_rate=0.045)")
	payload, ok := first.Payload.(map[string]any)
	require.True(t, ok, "plan step payload should decode as an object")
	assert.Equal(t, "calculate_quarterly_rate", payload["tool"])

	last := events[len(events)-1]
	assert.True(t, last.Done)
	assert.Contains(t, last.Content, "$12,557.51")
}

func TestServer_Run_AgentNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodPost, "/run",
		schema.RunRequest{AppName: "unknown", Query: "hi there"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Run_BadJSON(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader("{"))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func sseFrames(t *testing.T, body string) []*schema.RunEvent {
	t.Helper()
	var out []*schema.RunEvent
	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		line := strings.TrimSpace(block)
		if line == "" {
			continue
		}
		require.True(t, strings.HasPrefix(line, "data: "), "unexpected frame %q", line)
		var ev schema.RunEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		out = append(out, &ev)
	}
	return out
}

func TestServer_RunSSE(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodPost, "/run_sse",
		schema.RunRequest{AppName: "compound-agent", Query: demoQuery, Streaming: true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	frames := sseFrames(t, w.Body.String())
	require.Len(t, frames, 9)
	assert.True(t, frames[len(frames)-1].Done)
	assert.Contains(t, frames[len(frames)-1].Content, "$12,557.51")
}

// The /run endpoint delegates to the SSE path when the body asks for
// streaming.
func TestServer_Run_StreamingDelegates(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodPost, "/run",
		schema.RunRequest{AppName: "compound-agent", Query: demoQuery, Streaming: true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, sseFrames(t, w.Body.String()))
}

// noFlusher is a ResponseWriter without http.Flusher support.
type noFlusher struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (r *noFlusher) Header() http.Header {
	if r.header == nil {
		r.header = make(http.Header)
	}
	return r.header
}

func (r *noFlusher) Write(b []byte) (int, error) { return r.body.Write(b) }

func (r *noFlusher) WriteHeader(status int) { r.status = status }

func TestServer_RunSSE_StreamingUnsupported(t *testing.T) {
	s := newTestServer(t, nil)

	body, err := json.Marshal(schema.RunRequest{AppName: "compound-agent", Query: demoQuery})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/run_sse", bytes.NewReader(body))
	w := &noFlusher{}
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.status)
}

func TestServer_Memory(t *testing.T) {
	svc, err := local.NewService(local.WithRoot(t.TempDir()))
	require.NoError(t, err)
	s := newTestServer(t, nil, WithMemoryService(svc))

	key := memory.UserKey{AppName: "compound-agent", UserID: "user-1"}
	ctx := context.Background()
	require.NoError(t, svc.AddEntry(ctx, key, memory.Entry{
		Timestamp:       time.Now().Add(-time.Minute),
		InteractionType: memory.InteractionUserQuery,
		Content:         map[string]any{"query": "first"},
	}))
	require.NoError(t, svc.AddEntry(ctx, key, memory.Entry{
		InteractionType: memory.InteractionFinalAnswer,
		Content:         map[string]any{"answer": "second"},
	}))

	w := doJSON(t, s, http.MethodGet, "/apps/compound-agent/users/user-1/memory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []memory.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, memory.InteractionFinalAnswer, entries[0].InteractionType, "newest first")

	w = doJSON(t, s, http.MethodGet, "/apps/compound-agent/users/user-1/memory?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Len(t, entries, 1)

	w = doJSON(t, s, http.MethodGet, "/apps/compound-agent/users/user-1/memory?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodDelete, "/apps/compound-agent/users/user-1/memory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status schema.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "cleared", status.Status)

	w = doJSON(t, s, http.MethodGet, "/apps/compound-agent/users/user-1/memory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String(), "cleared memory reads as an empty list")
}

func TestServer_Memory_NotConfigured(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodGet, "/apps/compound-agent/users/default/memory", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, s, http.MethodDelete, "/apps/compound-agent/users/default/memory", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// A run through the server lands in the shared memory service, so the
// inspection endpoint shows it.
func TestServer_MemoryReflectsRun(t *testing.T) {
	svc, err := local.NewService(local.WithRoot(t.TempDir()))
	require.NoError(t, err)
	s := newTestServer(t, []agent.Option{agent.WithMemory(svc)}, WithMemoryService(svc))

	w := doJSON(t, s, http.MethodPost, "/run",
		schema.RunRequest{AppName: "compound-agent", Query: demoQuery})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/apps/compound-agent/users/default/memory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []memory.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	// user_query, seven tool calls, final answer.
	require.Len(t, entries, 9)
	assert.Equal(t, memory.InteractionFinalAnswer, entries[0].InteractionType)
}

func TestServer_Preferences(t *testing.T) {
	mgr, err := preferences.NewManager(preferences.WithPath(
		t.TempDir() + "/prefs.json"))
	require.NoError(t, err)
	s := newTestServer(t, nil, WithPreferencesManager(mgr))

	w := doJSON(t, s, http.MethodGet, "/preferences", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "nothing saved yet")

	require.NoError(t, mgr.Save(preferences.Preferences{
		AgentName:       "Atlas",
		Personality:     "professional",
		ResponseStyle:   "detailed",
		MemoryRetention: 50,
	}))

	w = doJSON(t, s, http.MethodGet, "/preferences", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p preferences.Preferences
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "Atlas", p.AgentName)
	assert.Equal(t, 50, p.MemoryRetention)
}

func TestServer_Preferences_NotConfigured(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodGet, "/preferences", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConvertEvent(t *testing.T) {
	assert.Nil(t, convertEvent(nil))
	assert.Nil(t, convertEvent(event.New("inv-1", "author")), "empty events are dropped")

	errEvt := event.NewErrorEvent("inv-1", "author", "invalid_query_error", "query too short")
	converted := convertEvent(errEvt)
	require.NotNil(t, converted)
	require.NotNil(t, converted.Error)
	assert.Equal(t, "invalid_query_error", converted.Error.Type)
	assert.Equal(t, "query too short", converted.Error.Message)
	assert.True(t, converted.Done)
}
