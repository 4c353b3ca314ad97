package simulation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/realcredplus/credito/internal/money"
	"github.com/realcredplus/credito/internal/modules/rates"
	"github.com/realcredplus/credito/pkg/cache"
)

// Handler handles simulation and portability HTTP requests
type Handler struct {
	evaluator *Evaluator
	table     *rates.Table
	cache     cache.Cache
	log       zerolog.Logger
}

// NewHandler creates a new simulation handler
func NewHandler(evaluator *Evaluator, table *rates.Table, quoteCache cache.Cache, log zerolog.Logger) *Handler {
	return &Handler{
		evaluator: evaluator,
		table:     table,
		cache:     quoteCache,
		log:       log.With().Str("handler", "simulation").Logger(),
	}
}

// simulationRequest mirrors the form field names. Numeric fields accept
// either JSON numbers or comma-decimal strings ("1.234,56").
type simulationRequest struct {
	Categoria string       `json:"categoria"`
	Valor     money.Amount `json:"valor"`
	Salario   money.Amount `json:"salario"`
	Prazo     int          `json:"prazo"`
}

type simulationResponse struct {
	Success         bool    `json:"success"`
	Categoria       string  `json:"categoria"`
	ValorSolicitado float64 `json:"valorSolicitado"`
	Taxa            float64 `json:"taxa"`
	Prazo           int     `json:"prazo"`
	Parcela         float64 `json:"parcela"`
	TotalPagar      float64 `json:"totalPagar"`
	ExcedeuMargem   bool    `json:"excedeuMargem"`
	ValorMaximo     float64 `json:"valorMaximo,omitempty"`
	ParcelaMaxima   float64 `json:"parcelaMaxima,omitempty"`
	Mensagem        string  `json:"mensagem,omitempty"`
}

type portabilityRequest struct {
	ParcelaAtual  money.Amount `json:"parcelaAtual"`
	TaxaAtual     float64      `json:"taxaAtual"`
	PrazoRestante int          `json:"prazoRestante"`
	NovaTaxa      float64      `json:"novaTaxa"`
	Categoria     string       `json:"categoria"`
}

type portabilityResponse struct {
	Success        bool    `json:"success"`
	SaldoDevedor   float64 `json:"saldoDevedor,omitempty"`
	NovaTaxa       float64 `json:"novaTaxa,omitempty"`
	NovaParcela    float64 `json:"novaParcela,omitempty"`
	EconomiaMensal float64 `json:"economiaMensal,omitempty"`
	EconomiaTotal  float64 `json:"economiaTotal,omitempty"`
	PrazoRestante  int     `json:"prazoRestante,omitempty"`
	Mensagem       string  `json:"mensagem,omitempty"`
}

type errorResponse struct {
	Success  bool   `json:"success"`
	Mensagem string `json:"mensagem"`
}

// HandleSimulate handles POST /api/simulation
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Mensagem: "Dados inválidos"})
		return
	}

	cacheKey := fmt.Sprintf("sim:%s|%.2f|%.2f|%d",
		req.Categoria, req.Valor.Float64(), req.Salario.Float64(), req.Prazo)
	if cached, ok := h.cacheGet(r.Context(), cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cached))
		return
	}

	quote, err := h.evaluator.Evaluate(LoanApplication{
		Category:           rates.Category(req.Categoria),
		PrincipalRequested: req.Valor.Float64(),
		MonthlyIncome:      req.Salario.Float64(),
		TermMonths:         req.Prazo,
	})
	if err != nil {
		h.writeEvaluationError(w, err)
		return
	}

	resp := simulationResponse{
		Success:         true,
		Categoria:       string(quote.Category),
		ValorSolicitado: money.Round2(quote.Principal),
		Taxa:            quote.MonthlyRatePct,
		Prazo:           quote.TermMonths,
		Parcela:         money.Round2(quote.Installment),
		TotalPagar:      money.Round2(quote.TotalRepaid),
		ExcedeuMargem:   quote.ExceedsCap,
		Mensagem:        quote.Reason,
	}
	if quote.ExceedsCap {
		resp.ValorMaximo = money.Round2(quote.MaxPrincipalAllowed)
		resp.ParcelaMaxima = money.Round2(quote.IncomeCap)
	}

	h.cacheSet(r.Context(), cacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

// HandlePortability handles POST /api/portability
func (h *Handler) HandlePortability(w http.ResponseWriter, r *http.Request) {
	var req portabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Mensagem: "Dados inválidos"})
		return
	}

	newRate := req.NovaTaxa
	if newRate == 0 && req.Categoria != "" {
		// No explicit target rate: port at the category's ceiling
		cfg, ok := h.table.Get(rates.Category(req.Categoria))
		if !ok {
			writeJSON(w, http.StatusBadRequest,
				errorResponse{Mensagem: fmt.Sprintf("Categoria desconhecida: %s", req.Categoria)})
			return
		}
		newRate = cfg.RateCeilingPctPerMonth
	}

	quote, err := Portability(req.ParcelaAtual.Float64(), req.TaxaAtual, req.PrazoRestante, newRate)
	if err != nil {
		if errors.Is(err, ErrNoBenefit) {
			// Not an error condition for the caller: an honest "keep your
			// current loan" answer.
			writeJSON(w, http.StatusOK, portabilityResponse{
				Success:  false,
				Mensagem: userMessage(err),
			})
			return
		}
		h.writeEvaluationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, portabilityResponse{
		Success:        true,
		SaldoDevedor:   money.Round2(quote.OutstandingBalance),
		NovaTaxa:       quote.NewRatePct,
		NovaParcela:    money.Round2(quote.NewInstallment),
		EconomiaMensal: money.Round2(quote.MonthlySavings),
		EconomiaTotal:  money.Round2(quote.TotalSavings),
		PrazoRestante:  quote.RemainingTermMonths,
	})
}

// HandleGetRates handles GET /api/rates - the public rate table
func (h *Handler) HandleGetRates(w http.ResponseWriter, r *http.Request) {
	type rateEntry struct {
		Categoria   string  `json:"categoria"`
		Nome        string  `json:"nome"`
		Taxa        float64 `json:"taxa"`
		Margem      float64 `json:"margem,omitempty"`
		PrazoMaximo int     `json:"prazoMaximo"`
		ValorMinimo float64 `json:"valorMinimo"`
		ValorMaximo float64 `json:"valorMaximo"`
	}

	categories := h.table.Categories()
	entries := make([]rateEntry, 0, len(categories))
	for _, cat := range categories {
		cfg, _ := h.table.Get(cat)
		entries = append(entries, rateEntry{
			Categoria:   string(cat),
			Nome:        cfg.Name,
			Taxa:        cfg.RateCeilingPctPerMonth,
			Margem:      cfg.MarginCapPct,
			PrazoMaximo: cfg.TermCapMonths,
			ValorMinimo: cfg.MinPrincipal,
			ValorMaximo: cfg.MaxPrincipal,
		})
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) writeEvaluationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownCategory), errors.Is(err, ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Mensagem: userMessage(err)})
	case errors.Is(err, ErrOutOfBounds):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Mensagem: userMessage(err)})
	default:
		h.log.Error().Err(err).Msg("Evaluation failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Mensagem: "Erro interno ao processar a simulação"})
	}
}

func (h *Handler) cacheGet(ctx context.Context, key string) (string, bool) {
	if h.cache == nil {
		return "", false
	}
	return h.cache.Get(ctx, key)
}

func (h *Handler) cacheSet(ctx context.Context, key string, resp simulationResponse) {
	if h.cache == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, key, string(data), cache.DefaultTTL); err != nil {
		h.log.Debug().Err(err).Str("key", key).Msg("Quote cache write failed")
	}
}

// userMessage strips the sentinel prefix, leaving the display text.
// Sentinel errors are wrapped as "<sentinel>: <message>".
func userMessage(err error) string {
	for _, sentinel := range []error{ErrInvalidInput, ErrUnknownCategory, ErrOutOfBounds, ErrNoBenefit} {
		if errors.Is(err, sentinel) {
			msg := err.Error()
			prefix := sentinel.Error() + ": "
			if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
				return msg[len(prefix):]
			}
			return msg
		}
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
