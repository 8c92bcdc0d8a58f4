package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kairosci/ai-crm/internal/agent"
	"github.com/kairosci/ai-crm/internal/config"
	"github.com/kairosci/ai-crm/internal/store"
	"github.com/kairosci/ai-crm/internal/tools"
)

// stubBackend replays canned completions in order.
type stubBackend struct {
	replies []string
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Complete(ctx context.Context, prompt string) (string, error) {
	if len(b.replies) == 0 {
		return "", nil
	}
	reply := b.replies[0]
	b.replies = b.replies[1:]
	return reply, nil
}

func newTestServer(t *testing.T, backend agent.Backend) *Server {
	t.Helper()
	cfg := config.Default()
	st, err := store.Open(filepath.Join(t.TempDir(), "crm.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	reg := tools.NewRegistry()
	tools.RegisterCRM(reg, st)
	ag := agent.New(reg, backend, cfg.Agent, zap.NewNop())
	return New(cfg, st, ag, zap.NewNop())
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestContactLifecycle(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/contacts",
		`{"first_name":"John","last_name":"Doe","email":"john@example.com","company":"Acme"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, float64(1), created["id"])
	assert.Equal(t, "John", created["first_name"])
	assert.NotEmpty(t, created["created_at"])

	rec = doJSON(t, h, http.MethodGet, "/api/v1/contacts/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/v1/contacts/1", `{"company":"Globex"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Globex", updated["company"])
	assert.Equal(t, "John", updated["first_name"])

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/contacts/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/contacts/1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Contact not found"}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/contacts/1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateContactValidation(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/contacts",
		`{"first_name":"John","last_name":"Doe","email":"not-an-email"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")
}

func TestCreateContactUnknownField(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/contacts",
		`{"first_name":"John","last_name":"Doe","email":"john@example.com","nickname":"JD"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request body")
}

func TestNonNumericID(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/v1/contacts/first", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"detail":"Invalid id"}`, rec.Body.String())
}

func TestListPaginationParams(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	for i := 0; i < 4; i++ {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/pipelines", `{"name":"p"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, h, http.MethodGet, "/api/v1/pipelines?skip=1&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page, 2)
	assert.Equal(t, float64(2), page[0]["id"])
	assert.Equal(t, float64(3), page[1]["id"])
}

func TestDealTerminalTransitionOverHTTP(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/deals",
		`{"title":"Enterprise Deal","value":50000,"pipeline_id":1,"contact_id":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var deal map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deal))
	assert.Equal(t, "lead", deal["status"])
	assert.Nil(t, deal["closed_at"])

	rec = doJSON(t, h, http.MethodPut, "/api/v1/deals/1", `{"status":"won"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deal))
	assert.Equal(t, "won", deal["status"])
	assert.NotNil(t, deal["closed_at"])
}

func TestChatDegraded(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/chat", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "AI agent is not initialized. Please ensure the model file is available.", resp["response"])
	assert.Nil(t, resp["action_taken"])
}

func TestChatEmptyMessage(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/chat", `{"message":"   "}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestChatToolInvocation(t *testing.T) {
	backend := &stubBackend{replies: []string{
		"Thought: create it\nAction: create_contact\nAction Input: {\"first_name\":\"Jane\",\"last_name\":\"Doe\",\"email\":\"jane@example.com\"}",
		"Thought: done\nFinal Answer: Created Jane Doe.",
	}}
	h := newTestServer(t, backend).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/chat", `{"message":"add Jane Doe"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Created Jane Doe.", resp["response"])
	assert.Equal(t, "create_contact", resp["action_taken"])

	// The tool call really hit the store.
	rec = doJSON(t, h, http.MethodGet, "/api/v1/contacts/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jane@example.com")
}

func TestChatConversationsAreIsolated(t *testing.T) {
	backend := &stubBackend{replies: []string{
		"Final Answer: first", "Final Answer: second",
	}}
	srv := newTestServer(t, backend)
	h := srv.Handler()

	doJSON(t, h, http.MethodPost, "/api/v1/chat", `{"message":"hi","context":"alice"}`)
	doJSON(t, h, http.MethodPost, "/api/v1/chat", `{"message":"hi","context":"bob"}`)

	if srv.convs.Get("alice").Len() != 2 || srv.convs.Get("bob").Len() != 2 {
		t.Error("each conversation should hold exactly its own user/agent exchange")
	}
}

func TestRootAndHealth(t *testing.T) {
	h := newTestServer(t, &stubBackend{}).Handler()

	rec := doJSON(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Enterprise CRM API")
	assert.Contains(t, rec.Body.String(), Version)

	rec = doJSON(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, true, health["agent_available"])
	assert.Equal(t, "stub", health["agent_backend"])
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/contacts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSUnknownOrigin(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	rec := doJSON(t, h, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
