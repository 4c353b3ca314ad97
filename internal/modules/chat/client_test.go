package chat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientComplete(t *testing.T) {
	t.Run("returns reply and usage", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"choices": [{"message": {"role": "assistant", "content": "Olá! Como posso ajudar?"}}],
				"usage": {"prompt_tokens": 42, "completion_tokens": 7}
			}`)
		}))
		defer upstream.Close()

		client := NewClient(upstream.URL, "test-key", "gpt-4o-mini", zerolog.Nop())
		reply, usage, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "Oi"}})
		require.NoError(t, err)
		assert.Equal(t, "Olá! Como posso ajudar?", reply)
		assert.Equal(t, 42, usage.PromptTokens)
		assert.Equal(t, 7, usage.CompletionTokens)
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
		}))
		defer upstream.Close()

		client := NewClient(upstream.URL, "test-key", "gpt-4o-mini", zerolog.Nop())
		_, _, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "Oi"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("empty choices is an error", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices": []}`)
		}))
		defer upstream.Close()

		client := NewClient(upstream.URL, "test-key", "gpt-4o-mini", zerolog.Nop())
		_, _, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "Oi"}})
		assert.Error(t, err)
	})
}

func TestClientStream(t *testing.T) {
	t.Run("accumulates deltas and usage", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Olá\"}}]}\n\n")
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\", tudo bem?\"}}]}\n\n")
			fmt.Fprint(w, "data: {not valid json}\n\n")
			fmt.Fprint(w, "data: {\"choices\":[],\"usage\":{\"prompt_tokens\":10,\"completion_tokens\":5}}\n\n")
			fmt.Fprint(w, "data: [DONE]\n\n")
		}))
		defer upstream.Close()

		client := NewClient(upstream.URL, "test-key", "gpt-4o-mini", zerolog.Nop())

		var deltas []string
		full, usage, err := client.Stream(context.Background(),
			[]Message{{Role: "user", Content: "Oi"}},
			func(delta string) error {
				deltas = append(deltas, delta)
				return nil
			})
		require.NoError(t, err)

		assert.Equal(t, "Olá, tudo bem?", full)
		assert.Equal(t, []string{"Olá", ", tudo bem?"}, deltas)
		assert.Equal(t, 10, usage.PromptTokens)
		assert.Equal(t, 5, usage.CompletionTokens)
	})

	t.Run("delta callback error aborts the stream", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n")
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n\n")
			fmt.Fprint(w, "data: [DONE]\n\n")
		}))
		defer upstream.Close()

		client := NewClient(upstream.URL, "test-key", "gpt-4o-mini", zerolog.Nop())

		sentinel := fmt.Errorf("client went away")
		full, _, err := client.Stream(context.Background(),
			[]Message{{Role: "user", Content: "Oi"}},
			func(delta string) error { return sentinel })

		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, "a", full)
	})

	t.Run("cancelled context aborts the upstream request", func(t *testing.T) {
		started := make(chan struct{})
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Drain the body so the server's background read can detect the
			// client disconnect and cancel r.Context().
			io.Copy(io.Discard, r.Body)
			close(started)
			<-r.Context().Done()
		}))
		defer upstream.Close()

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-started
			cancel()
		}()

		client := NewClient(upstream.URL, "test-key", "gpt-4o-mini", zerolog.Nop())
		_, _, err := client.Stream(ctx, []Message{{Role: "user", Content: "Oi"}}, func(string) error { return nil })
		assert.Error(t, err)
	})
}
