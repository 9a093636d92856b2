package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/m2tx/dialogue_archiver/internal/plugin"
)

type fakeResponder struct {
	reply string
	err   error
	calls []string
}

func (f *fakeResponder) Reply(ctx context.Context, sessionID string, prompt string) (string, error) {
	f.calls = append(f.calls, sessionID+":"+prompt)
	return f.reply, f.err
}

// hookRecorder captures every event it sees.
type hookRecorder struct {
	events []*plugin.EventContext
	onCtx  func(ec *plugin.EventContext)
}

func (h *hookRecorder) Name() string        { return "recorder" }
func (h *hookRecorder) Description() string { return "" }
func (h *hookRecorder) Version() string     { return "0" }
func (h *hookRecorder) HelpText() string    { return "" }
func (h *hookRecorder) Handlers() map[plugin.Event]plugin.Handler {
	record := func(ctx context.Context, ec *plugin.EventContext) {
		h.events = append(h.events, ec)
		if ec.Event == plugin.EventOnHandleContext && h.onCtx != nil {
			h.onCtx(ec)
		}
	}
	return map[plugin.Event]plugin.Handler{
		plugin.EventOnHandleContext: record,
		plugin.EventOnDecorateReply: record,
	}
}

func newTestServer(t *testing.T, responder Responder, rec *hookRecorder) http.Handler {
	t.Helper()
	reg := plugin.NewRegistry(nil)
	require.NoError(t, reg.Register(rec))
	return New(responder, reg, nil).Router()
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/prompt", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPromptEmitsBothHooks(t *testing.T) {
	responder := &fakeResponder{reply: "hi there"}
	rec := &hookRecorder{}
	h := newTestServer(t, responder, rec)

	rr := post(h, `{"session_id":"abc","prompt":"hello"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp promptResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, promptResponse{SessionID: "abc", Reply: "hi there"}, resp)
	require.Equal(t, []string{"abc:hello"}, responder.calls)

	require.Len(t, rec.events, 2)
	in := rec.events[0]
	require.Equal(t, plugin.EventOnHandleContext, in.Event)
	require.Equal(t, plugin.ContextText, in.Context.Type)
	require.Equal(t, "hello", in.Context.Content)
	require.Equal(t, "abc", in.Context.String("session_id"))
	require.NotNil(t, in.Context.Get("create_time", nil))

	out := rec.events[1]
	require.Equal(t, plugin.EventOnDecorateReply, out.Event)
	require.Equal(t, &plugin.Reply{Type: plugin.ReplyText, Content: "hi there"}, out.Reply)
	require.Equal(t, "abc", out.Context.String("session_id"))
}

func TestPromptAssignsSessionID(t *testing.T) {
	rec := &hookRecorder{}
	h := newTestServer(t, &fakeResponder{reply: "ok"}, rec)

	rr := post(h, `{"prompt":"hello"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp promptResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	_, err := uuid.Parse(resp.SessionID)
	require.NoError(t, err)
	require.Equal(t, resp.SessionID, rec.events[0].Context.String("session_id"))
}

func TestPromptValidation(t *testing.T) {
	rec := &hookRecorder{}
	h := newTestServer(t, &fakeResponder{}, rec)

	require.Equal(t, http.StatusBadRequest, post(h, `not json`).Code)
	require.Equal(t, http.StatusBadRequest, post(h, `{"session_id":"abc"}`).Code)
	require.Empty(t, rec.events)

	req := httptest.NewRequest(http.MethodGet, "/prompt", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestPromptResponderFailure(t *testing.T) {
	rec := &hookRecorder{}
	h := newTestServer(t, &fakeResponder{err: errors.New("quota")}, rec)

	rr := post(h, `{"session_id":"abc","prompt":"hello"}`)
	require.Equal(t, http.StatusBadGateway, rr.Code)
	require.Len(t, rec.events, 1)
}

func TestPromptPluginSuppliedReply(t *testing.T) {
	responder := &fakeResponder{reply: "unused"}
	rec := &hookRecorder{onCtx: func(ec *plugin.EventContext) {
		ec.Reply = &plugin.Reply{Type: plugin.ReplyText, Content: "from plugin"}
		ec.Action = plugin.ActionBreakPass
	}}
	h := newTestServer(t, responder, rec)

	rr := post(h, `{"session_id":"abc","prompt":"#help"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "from plugin")
	require.Empty(t, responder.calls)
}

func TestHealth(t *testing.T) {
	h := New(&fakeResponder{}, nil, nil).Router()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
