package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHealth(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		relay := NewRelay(nil, nil, nil, 0.15, 0.60, zerolog.Nop())
		handler := NewHandler(relay, setupMetricsDB(t), "", "", zerolog.Nop())

		req := httptest.NewRequest("GET", "/api/chat/health", nil)
		w := httptest.NewRecorder()
		handler.HandleHealth(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, false, resp["configured"])
	})

	t.Run("configured", func(t *testing.T) {
		client := NewClient("http://localhost:1", "key", "gpt-4o-mini", zerolog.Nop())
		relay := NewRelay(client, nil, nil, 0.15, 0.60, zerolog.Nop())
		handler := NewHandler(relay, setupMetricsDB(t), "", "", zerolog.Nop())

		req := httptest.NewRequest("GET", "/api/chat/health", nil)
		w := httptest.NewRecorder()
		handler.HandleHealth(w, req)

		var resp map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, true, resp["configured"])
	})
}

func TestHandleChat(t *testing.T) {
	t.Run("503 when unconfigured", func(t *testing.T) {
		relay := NewRelay(nil, nil, nil, 0.15, 0.60, zerolog.Nop())
		handler := NewHandler(relay, setupMetricsDB(t), "", "", zerolog.Nop())

		req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message":"Olá"}`))
		w := httptest.NewRecorder()
		handler.HandleChat(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("single message reply", func(t *testing.T) {
		upstream := fakeUpstream(t, "Olá! Sou o assistente da RealCred.")
		defer upstream.Close()

		client := NewClient(upstream.URL, "key", "gpt-4o-mini", zerolog.Nop())
		relay := NewRelay(client, nil, nil, 0.15, 0.60, zerolog.Nop())
		handler := NewHandler(relay, setupMetricsDB(t), "", "", zerolog.Nop())

		req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message":"Olá"}`))
		w := httptest.NewRecorder()
		handler.HandleChat(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp chatResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, resp.Success)
		assert.Contains(t, resp.Reply, "RealCred")
	})

	t.Run("empty payload is a 400", func(t *testing.T) {
		relay := NewRelay(nil, nil, nil, 0.15, 0.60, zerolog.Nop())
		handler := NewHandler(relay, setupMetricsDB(t), "", "", zerolog.Nop())

		req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		handler.HandleChat(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("streaming reply is chunked text", func(t *testing.T) {
		upstream := sseUpstream(t, []string{"Olá", ", tudo bem?"}, 10, 5)
		defer upstream.Close()

		metrics := setupMetricsDB(t)
		client := NewClient(upstream.URL, "key", "gpt-4o-mini", zerolog.Nop())
		relay := NewRelay(client, nil, metrics, 0.15, 0.60, zerolog.Nop())
		handler := NewHandler(relay, metrics, "", "", zerolog.Nop())

		req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message":"Olá","stream":true}`))
		w := httptest.NewRecorder()
		handler.HandleChat(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
		assert.Equal(t, "no", w.Header().Get("X-Accel-Buffering"))
		assert.True(t, w.Flushed)
		assert.Equal(t, "Olá, tudo bem?", w.Body.String())

		rows := waitForMetrics(t, metrics, 1)
		assert.True(t, rows[0].Streaming)
		assert.Equal(t, 10, rows[0].PromptTokens)
	})

	t.Run("streaming 503 when unconfigured", func(t *testing.T) {
		relay := NewRelay(nil, nil, nil, 0.15, 0.60, zerolog.Nop())
		handler := NewHandler(relay, setupMetricsDB(t), "", "", zerolog.Nop())

		req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message":"Olá","stream":true}`))
		w := httptest.NewRecorder()
		handler.HandleChat(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("502 when upstream fails", func(t *testing.T) {
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer broken.Close()

		client := NewClient(broken.URL, "key", "gpt-4o-mini", zerolog.Nop())
		relay := NewRelay(client, nil, nil, 0.15, 0.60, zerolog.Nop())
		handler := NewHandler(relay, setupMetricsDB(t), "", "", zerolog.Nop())

		req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message":"Olá"}`))
		w := httptest.NewRecorder()
		handler.HandleChat(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestHandleMetricsAuth(t *testing.T) {
	t.Run("403 when admin access unconfigured", func(t *testing.T) {
		relay := NewRelay(nil, nil, nil, 0.15, 0.60, zerolog.Nop())
		handler := NewHandler(relay, setupMetricsDB(t), "", "", zerolog.Nop())

		req := httptest.NewRequest("GET", "/admin/chat-metrics", nil)
		w := httptest.NewRecorder()
		handler.HandleMetrics(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("401 without credentials", func(t *testing.T) {
		relay := NewRelay(nil, nil, nil, 0.15, 0.60, zerolog.Nop())
		handler := NewHandler(relay, setupMetricsDB(t), "admin", "secret", zerolog.Nop())

		req := httptest.NewRequest("GET", "/admin/chat-metrics", nil)
		w := httptest.NewRecorder()
		handler.HandleMetrics(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")
	})

	t.Run("metrics returned with valid credentials", func(t *testing.T) {
		metrics := setupMetricsDB(t)
		require.NoError(t, metrics.Insert(Metric{Model: "gpt-4o-mini", PromptTokens: 10}))

		relay := NewRelay(nil, nil, nil, 0.15, 0.60, zerolog.Nop())
		handler := NewHandler(relay, metrics, "admin", "secret", zerolog.Nop())

		req := httptest.NewRequest("GET", "/admin/chat-metrics", nil)
		req.SetBasicAuth("admin", "secret")
		w := httptest.NewRecorder()
		handler.HandleMetrics(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var rows []Metric
		require.NoError(t, json.NewDecoder(w.Body).Decode(&rows))
		assert.Len(t, rows, 1)
	})
}
