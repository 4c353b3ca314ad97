package chat

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
)

// Handler handles chat HTTP requests
type Handler struct {
	relay     *Relay
	metrics   *MetricsRepository
	adminUser string
	adminPass string
	log       zerolog.Logger
}

// NewHandler creates a new chat handler
func NewHandler(relay *Relay, metrics *MetricsRepository, adminUser, adminPass string, log zerolog.Logger) *Handler {
	return &Handler{
		relay:     relay,
		metrics:   metrics,
		adminUser: adminUser,
		adminPass: adminPass,
		log:       log.With().Str("handler", "chat").Logger(),
	}
}

// chatRequest accepts either a full message list or a single message
type chatRequest struct {
	Messages []Message `json:"messages"`
	Message  string    `json:"message"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Success bool   `json:"success"`
	Reply   string `json:"reply,omitempty"`
	Message string `json:"message,omitempty"`
}

// HandleHealth handles GET /api/chat/health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"configured": h.relay.Configured(),
	})
}

// HandleChat handles POST /api/chat
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatResponse{Message: "Dados da requisição inválidos"})
		return
	}

	messages := req.Messages
	if len(messages) == 0 {
		if req.Message == "" {
			writeJSON(w, http.StatusBadRequest, chatResponse{Message: "Nenhuma mensagem recebida"})
			return
		}
		messages = []Message{{Role: "user", Content: req.Message}}
	}

	meta := RequestMeta{
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}

	if req.Stream {
		h.streamChat(w, r, messages, meta)
		return
	}

	reply, err := h.relay.Ask(r.Context(), messages, meta)
	if err != nil {
		h.writeChatError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Success: true, Reply: reply})
}

// streamChat forwards completion deltas as raw text/plain chunks
func (h *Handler) streamChat(w http.ResponseWriter, r *http.Request, messages []Message, meta RequestMeta) {
	if !h.relay.Configured() {
		h.writeChatError(w, ErrNotConfigured)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	err := h.relay.AskStream(r.Context(), messages, meta, func(delta string) error {
		if _, werr := w.Write([]byte(delta)); werr != nil {
			return werr
		}
		flusher.Flush()
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		// Headers are already sent; the best we can do is log and close
		h.log.Warn().Err(err).Msg("Chat stream ended with error")
	}
}

// HandleMetrics handles GET /admin/chat-metrics, protected by BasicAuth
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.adminUser == "" || h.adminPass == "" {
		http.Error(w, "Admin access not configured", http.StatusForbidden)
		return
	}

	user, pass, ok := r.BasicAuth()
	if !ok ||
		subtle.ConstantTimeCompare([]byte(user), []byte(h.adminUser)) != 1 ||
		subtle.ConstantTimeCompare([]byte(pass), []byte(h.adminPass)) != 1 {
		w.Header().Set("WWW-Authenticate", `Basic realm="chat-metrics"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 200
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 || l > 10000 {
			http.Error(w, "Invalid limit. Must be 1-10000", http.StatusBadRequest)
			return
		}
		limit = l
	}

	metrics, err := h.metrics.ListRecent(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list chat metrics")
		http.Error(w, "Failed to retrieve metrics", http.StatusInternalServerError)
		return
	}
	if metrics == nil {
		metrics = []Metric{}
	}

	writeJSON(w, http.StatusOK, metrics)
}

func (h *Handler) writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, chatResponse{
			Message: "O assistente virtual está temporariamente indisponível.",
		})
	case errors.Is(err, ErrUpstream):
		writeJSON(w, http.StatusBadGateway, chatResponse{
			Message: "Não foi possível obter resposta do assistente. Tente novamente.",
		})
	default:
		h.log.Error().Err(err).Msg("Chat request failed")
		writeJSON(w, http.StatusInternalServerError, chatResponse{
			Message: "Erro interno do servidor.",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
