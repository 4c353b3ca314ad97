package leads

import (
	"time"

	"github.com/realcredplus/credito/internal/money"
)

// LeadRequest is a simulation form submission. Field names mirror the
// form; salario and valor accept comma-decimal strings ("1.234,56").
type LeadRequest struct {
	Nome      string       `json:"nome"`
	CPF       string       `json:"cpf"`
	Email     string       `json:"email"`
	Telefone  string       `json:"telefone"`
	Categoria string       `json:"categoria"`
	Salario   money.Amount `json:"salario"`
	Valor     money.Amount `json:"valor"`
	Prazo     int          `json:"prazo"`
}

// ContactRequest is a contact form submission
type ContactRequest struct {
	Nome     string `json:"nome"`
	Email    string `json:"email"`
	Telefone string `json:"telefone"`
	Assunto  string `json:"assunto"`
	Mensagem string `json:"mensagem"`
}

// Lead is a persisted lead row
type Lead struct {
	ID        int       `json:"id"`
	Protocolo string    `json:"protocolo"`
	Nome      string    `json:"nome"`
	CPF       string    `json:"cpf"`
	Email     string    `json:"email,omitempty"`
	Telefone  string    `json:"telefone,omitempty"`
	Categoria string    `json:"categoria"`
	Salario   float64   `json:"salario"`
	Valor     float64   `json:"valor"`
	Prazo     int       `json:"prazo"`

	// Quote enrichment, zero when the evaluation did not produce a quote
	Parcela       float64 `json:"parcela,omitempty"`
	ExcedeuMargem bool    `json:"excedeuMargem,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Receipt is returned to the submitter on success
type Receipt struct {
	Protocolo string `json:"protocolo"`
	Message   string `json:"message"`
}
