package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
)

// Handler handles lead and contact HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new leads handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "leads").Logger(),
	}
}

type leadResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Protocolo string `json:"protocolo,omitempty"`
	Field     string `json:"field,omitempty"`
}

// HandleLead handles POST /api/lead
func (h *Handler) HandleLead(w http.ResponseWriter, r *http.Request) {
	var req LeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, leadResponse{Message: "Dados da requisição inválidos"})
		return
	}

	receipt, err := h.service.SubmitLead(r.Context(), req)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, leadResponse{
				Message: verr.Message,
				Field:   verr.Field,
			})
			return
		}

		h.log.Error().Err(err).Msg("Lead submission failed")
		writeJSON(w, http.StatusInternalServerError, leadResponse{
			Message: "Erro interno do servidor. Por favor, tente novamente mais tarde.",
		})
		return
	}

	writeJSON(w, http.StatusOK, leadResponse{
		Success:   true,
		Message:   receipt.Message,
		Protocolo: receipt.Protocolo,
	})
}

// HandleContact handles POST /api/contact
func (h *Handler) HandleContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, leadResponse{Message: "Dados da requisição inválidos"})
		return
	}

	if err := h.service.SubmitContact(r.Context(), req); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, leadResponse{
				Message: verr.Message,
				Field:   verr.Field,
			})
			return
		}

		h.log.Error().Err(err).Msg("Contact submission failed")
		writeJSON(w, http.StatusInternalServerError, leadResponse{
			Message: "Ocorreu um erro ao processar sua mensagem. Por favor, tente novamente mais tarde.",
		})
		return
	}

	writeJSON(w, http.StatusOK, leadResponse{
		Success: true,
		Message: "Mensagem enviada com sucesso! Entraremos em contato em breve.",
	})
}

// HandleListLeads handles GET /admin/leads - newest first, ?limit=N
func (h *Handler) HandleListLeads(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 || l > 10000 {
			http.Error(w, "Invalid limit. Must be 1-10000", http.StatusBadRequest)
			return
		}
		limit = l
	}

	leads, err := h.service.ListRecent(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list leads")
		http.Error(w, "Failed to retrieve leads", http.StatusInternalServerError)
		return
	}
	if leads == nil {
		leads = []Lead{}
	}

	writeJSON(w, http.StatusOK, leads)
}

// HandleLeadSummary handles GET /admin/leads/summary - per-category counts
func (h *Handler) HandleLeadSummary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.CountByCategory()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to summarize leads")
		http.Error(w, "Failed to retrieve summary", http.StatusInternalServerError)
		return
	}

	total := 0
	for _, c := range counts {
		total += c
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":        total,
		"porCategoria": counts,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
