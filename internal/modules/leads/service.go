package leads

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/realcredplus/credito/internal/mailer"
	"github.com/realcredplus/credito/internal/money"
	"github.com/realcredplus/credito/internal/modules/rates"
	"github.com/realcredplus/credito/internal/modules/simulation"
)

// Service runs the lead intake pipeline: validate, quote, persist, notify.
// Persistence is best-effort; a database failure does not lose the lead
// as long as the notification goes out.
type Service struct {
	evaluator       *simulation.Evaluator
	table           *rates.Table
	repo            *Repository
	mail            mailer.Mailer
	leadReceiver    string
	contactReceiver string
	log             zerolog.Logger
}

// NewService creates a new lead service
func NewService(
	evaluator *simulation.Evaluator,
	table *rates.Table,
	repo *Repository,
	mail mailer.Mailer,
	leadReceiver string,
	contactReceiver string,
	log zerolog.Logger,
) *Service {
	return &Service{
		evaluator:       evaluator,
		table:           table,
		repo:            repo,
		mail:            mail,
		leadReceiver:    leadReceiver,
		contactReceiver: contactReceiver,
		log:             log.With().Str("service", "leads").Logger(),
	}
}

// SubmitLead validates the submission, enriches it with a quote when the
// eligibility engine can produce one, stores it and notifies the broker.
func (s *Service) SubmitLead(ctx context.Context, req LeadRequest) (Receipt, error) {
	_, categoriaValid := s.table.Get(rates.Category(req.Categoria))
	if verr := req.Validate(categoriaValid); verr != nil {
		return Receipt{}, verr
	}

	lead := &Lead{
		Protocolo: uuid.New().String(),
		Nome:      strings.TrimSpace(req.Nome),
		CPF:       req.CPF,
		Email:     req.Email,
		Telefone:  req.Telefone,
		Categoria: req.Categoria,
		Salario:   req.Salario.Float64(),
		Valor:     req.Valor.Float64(),
		Prazo:     req.Prazo,
	}

	// Quote enrichment is advisory: an out-of-bounds request is still a
	// lead worth contacting, so evaluation failures only skip the quote.
	quote, err := s.evaluator.Evaluate(simulation.LoanApplication{
		Category:           rates.Category(req.Categoria),
		PrincipalRequested: lead.Valor,
		MonthlyIncome:      lead.Salario,
		TermMonths:         lead.Prazo,
	})
	if err != nil {
		s.log.Debug().Err(err).Str("protocolo", lead.Protocolo).Msg("Lead quote skipped")
	} else {
		lead.Parcela = money.Round2(quote.Installment)
		lead.ExcedeuMargem = quote.ExceedsCap
	}

	if err := s.repo.Insert(lead); err != nil {
		s.log.Error().Err(err).Str("protocolo", lead.Protocolo).Msg("Failed to persist lead")
	}

	msg := mailer.Message{
		To:      s.leadReceiver,
		Subject: "Novo Lead - Simulação de Empréstimo",
		Body:    leadEmailHTML(lead, quote, err == nil),
		HTML:    true,
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Error().Err(err).Str("protocolo", lead.Protocolo).Msg("Failed to send lead notification")
		return Receipt{}, fmt.Errorf("failed to deliver lead notification: %w", err)
	}

	return Receipt{
		Protocolo: lead.Protocolo,
		Message:   "Solicitação enviada com sucesso! Entraremos em contato em breve.",
	}, nil
}

// SubmitContact validates and relays a contact message
func (s *Service) SubmitContact(ctx context.Context, req ContactRequest) error {
	if verr := req.Validate(); verr != nil {
		return verr
	}

	body := fmt.Sprintf(
		"Novo contato recebido através do site:\n\nNome: %s\nE-mail: %s\nTelefone: %s\nAssunto: %s\nMensagem: %s\n",
		strings.TrimSpace(req.Nome), req.Email, req.Telefone, req.Assunto, req.Mensagem)

	msg := mailer.Message{
		To:      s.contactReceiver,
		Subject: fmt.Sprintf("Novo Contato: %s", req.Assunto),
		Body:    body,
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Error().Err(err).Msg("Failed to send contact message")
		return fmt.Errorf("failed to deliver contact message: %w", err)
	}

	return nil
}

// ListRecent exposes stored leads for the admin endpoint
func (s *Service) ListRecent(limit int) ([]Lead, error) {
	return s.repo.ListRecent(limit)
}

// CountByCategory exposes per-category lead counts for the admin endpoint
func (s *Service) CountByCategory() (map[string]int, error) {
	return s.repo.CountByCategory()
}

// formatCPF renders 12345678901 as 123.456.789-01
func formatCPF(cpf string) string {
	if len(cpf) != 11 {
		return cpf
	}
	return fmt.Sprintf("%s.%s.%s-%s", cpf[0:3], cpf[3:6], cpf[6:9], cpf[9:11])
}

func leadEmailHTML(lead *Lead, quote simulation.LoanQuote, hasQuote bool) string {
	var b strings.Builder

	b.WriteString(`<html><body style="font-family: 'Inter', sans-serif; color: #333;">`)
	b.WriteString(`<h1 style="background: #0066cc; color: white; padding: 20px;">Novo Lead - Simulação de Empréstimo</h1>`)

	// Submission fields are untrusted text; escape before rendering
	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, `<p><strong style="color: #0066cc;">%s:</strong> %s</p>`, label, html.EscapeString(value))
	}

	row("Protocolo", lead.Protocolo)
	row("Nome Completo", lead.Nome)
	row("CPF", formatCPF(lead.CPF))
	row("E-mail", lead.Email)
	row("Telefone", lead.Telefone)
	row("Categoria", lead.Categoria)
	row("Salário/Benefício Líquido", money.FormatBRL(lead.Salario))
	row("Valor Desejado", money.FormatBRL(lead.Valor))
	row("Prazo", fmt.Sprintf("%d meses", lead.Prazo))

	if hasQuote {
		if quote.ExceedsCap {
			row("Situação", quote.Reason)
			row("Valor Máximo Viável", money.FormatBRL(quote.MaxPrincipalAllowed))
		} else {
			row("Parcela Estimada", money.FormatBRL(quote.Installment))
			row("Total a Pagar", money.FormatBRL(quote.TotalRepaid))
		}
	}

	fmt.Fprintf(&b, `<p style="color: #666; font-size: 12px;">Data/Hora: %s</p>`,
		time.Now().Format("02/01/2006 15:04:05"))
	b.WriteString(`</body></html>`)

	return b.String()
}
