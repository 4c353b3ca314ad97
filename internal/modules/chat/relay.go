package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrNotConfigured - no API key was provided at startup
	ErrNotConfigured = errors.New("chat backend not configured")

	// ErrUpstream - the completion call failed, including the fallback
	ErrUpstream = errors.New("chat backend unavailable")
)

// systemPrompt frames the assistant for the loan brokerage site
const systemPrompt = "Você é o assistente virtual da RealCred +, uma correspondente bancária brasileira " +
	"especializada em crédito consignado (INSS, servidor público, militar), empréstimo CLT, " +
	"antecipação do saque-aniversário FGTS e portabilidade de crédito. Responda em português " +
	"do Brasil, de forma clara, educada e objetiva. Não invente taxas ou condições: oriente o " +
	"cliente a fazer uma simulação no site para valores exatos."

// RequestMeta carries caller identity for the metrics trail
type RequestMeta struct {
	IP        string
	UserAgent string
	Streaming bool
}

// Relay forwards conversations to the upstream LLM API. Metrics are
// recorded fire-and-forget: a metrics failure is logged and never
// surfaced to the caller.
type Relay struct {
	primary     *Client
	fallback    *Client
	metrics     *MetricsRepository
	promptPrice float64 // USD per 1M prompt tokens
	outputPrice float64 // USD per 1M completion tokens
	log         zerolog.Logger
}

// NewRelay creates a chat relay. primary may be nil when no API key is
// configured; fallback and metrics are optional.
func NewRelay(primary, fallback *Client, metrics *MetricsRepository, promptPrice, outputPrice float64, log zerolog.Logger) *Relay {
	return &Relay{
		primary:     primary,
		fallback:    fallback,
		metrics:     metrics,
		promptPrice: promptPrice,
		outputPrice: outputPrice,
		log:         log.With().Str("service", "chat_relay").Logger(),
	}
}

// Configured reports whether an upstream client is available
func (r *Relay) Configured() bool {
	return r.primary != nil
}

// Ask performs a non-streaming completion with one fallback retry
func (r *Relay) Ask(ctx context.Context, messages []Message, meta RequestMeta) (string, error) {
	if !r.Configured() {
		return "", ErrNotConfigured
	}

	messages = withSystemPrompt(messages)

	reply, usage, err := r.primary.Complete(ctx, messages)
	model := r.primary.Model()
	if err != nil {
		if r.fallback == nil {
			r.log.Error().Err(err).Msg("Completion failed, no fallback configured")
			return "", fmt.Errorf("%w: %v", ErrUpstream, err)
		}

		r.log.Warn().Err(err).Msg("Completion failed, retrying against fallback")
		reply, usage, err = r.fallback.Complete(ctx, messages)
		model = r.fallback.Model()
		if err != nil {
			r.log.Error().Err(err).Msg("Fallback completion failed")
			return "", fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	}

	r.recordMetric(model, usage, meta)
	return reply, nil
}

// AskStream performs a streaming completion, forwarding each delta to
// onDelta. No fallback retry: once tokens have been forwarded the
// response cannot be restarted.
func (r *Relay) AskStream(ctx context.Context, messages []Message, meta RequestMeta, onDelta func(string) error) error {
	if !r.Configured() {
		return ErrNotConfigured
	}

	messages = withSystemPrompt(messages)
	meta.Streaming = true

	_, usage, err := r.primary.Stream(ctx, messages, onDelta)
	if err != nil {
		// Usage from a broken stream is still worth recording
		r.recordMetric(r.primary.Model(), usage, meta)
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	r.recordMetric(r.primary.Model(), usage, meta)
	return nil
}

// EstimateCost converts token usage to USD
func (r *Relay) EstimateCost(usage Usage) float64 {
	return float64(usage.PromptTokens)*r.promptPrice/1e6 +
		float64(usage.CompletionTokens)*r.outputPrice/1e6
}

func (r *Relay) recordMetric(model string, usage Usage, meta RequestMeta) {
	if r.metrics == nil {
		return
	}

	metric := Metric{
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		Model:            model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		EstimatedCostUSD: r.EstimateCost(usage),
		IP:               meta.IP,
		UserAgent:        meta.UserAgent,
		Streaming:        meta.Streaming,
	}

	go func() {
		if err := r.metrics.Insert(metric); err != nil {
			r.log.Warn().Err(err).Msg("Failed to record chat metric")
		}
	}()
}

// withSystemPrompt prepends the site persona unless the caller already
// supplied a system message
func withSystemPrompt(messages []Message) []Message {
	for _, m := range messages {
		if m.Role == "system" {
			return messages
		}
	}
	out := make([]Message, 0, len(messages)+1)
	out = append(out, Message{Role: "system", Content: systemPrompt})
	return append(out, messages...)
}
