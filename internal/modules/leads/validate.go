package leads

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError carries the offending field so the client can focus it
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	cpfPattern = regexp.MustCompile(`^\d{11}$`)
	// Accepts (99) 99999-9999 or (99) 9999-9999
	phonePattern = regexp.MustCompile(`^\(\d{2}\)\s*\d{4,5}-?\d{4}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Validate checks a lead submission. categoriaValid reports whether the
// category exists in the rate table; the caller owns that lookup.
func (r *LeadRequest) Validate(categoriaValid bool) *ValidationError {
	if strings.TrimSpace(r.Nome) == "" {
		return &ValidationError{Field: "nome", Message: "Todos os campos são obrigatórios."}
	}
	if r.CPF == "" {
		return &ValidationError{Field: "cpf", Message: "Todos os campos são obrigatórios."}
	}
	if !cpfPattern.MatchString(r.CPF) {
		return &ValidationError{Field: "cpf", Message: "CPF inválido. Deve conter 11 dígitos numéricos."}
	}
	if r.Email != "" && !emailPattern.MatchString(r.Email) {
		return &ValidationError{Field: "email", Message: "Formato de e-mail inválido."}
	}
	if r.Telefone != "" && !phonePattern.MatchString(r.Telefone) {
		return &ValidationError{Field: "telefone", Message: "Formato de telefone inválido. Use (99) 99999-9999."}
	}
	if r.Categoria == "" {
		return &ValidationError{Field: "categoria", Message: "Todos os campos são obrigatórios."}
	}
	if !categoriaValid {
		return &ValidationError{
			Field:   "categoria",
			Message: fmt.Sprintf("Categoria selecionada não é válida. Categoria recebida: %s", r.Categoria),
		}
	}
	if r.Salario.Float64() <= 0 {
		return &ValidationError{Field: "salario", Message: "Valores numéricos inválidos"}
	}
	if r.Valor.Float64() <= 0 {
		return &ValidationError{Field: "valor", Message: "Valores numéricos inválidos"}
	}
	if r.Prazo <= 0 {
		return &ValidationError{Field: "prazo", Message: "Valores numéricos inválidos"}
	}
	return nil
}

// Validate checks a contact submission. All fields are required.
func (r *ContactRequest) Validate() *ValidationError {
	if strings.TrimSpace(r.Nome) == "" {
		return &ValidationError{Field: "nome", Message: "Todos os campos são obrigatórios."}
	}
	if r.Email == "" || !emailPattern.MatchString(r.Email) {
		return &ValidationError{Field: "email", Message: "Formato de e-mail inválido."}
	}
	if r.Telefone != "" && !phonePattern.MatchString(r.Telefone) {
		return &ValidationError{Field: "telefone", Message: "Formato de telefone inválido. Use (99) 99999-9999."}
	}
	if strings.TrimSpace(r.Assunto) == "" {
		return &ValidationError{Field: "assunto", Message: "Todos os campos são obrigatórios."}
	}
	if strings.TrimSpace(r.Mensagem) == "" {
		return &ValidationError{Field: "mensagem", Message: "Todos os campos são obrigatórios."}
	}
	return nil
}
