package leads

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/realcredplus/credito/internal/database"
)

// Repository handles lead persistence. The table is append-only; leads
// are never updated or deleted through the application.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new lead repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "leads").Logger(),
	}
}

// Insert appends a lead row and fills in its ID and CreatedAt
func (r *Repository) Insert(lead *Lead) error {
	query := `
		INSERT INTO leads (
			protocolo, nome, cpf, email, telefone, categoria,
			salario, valor, prazo, parcela, excedeu_margem, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := time.Now().UTC().Format("2006-01-02 15:04:05")

	// Insert and ID read share one transaction so the ID cannot come
	// from another pooled connection
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			query,
			lead.Protocolo,
			lead.Nome,
			lead.CPF,
			lead.Email,
			lead.Telefone,
			lead.Categoria,
			lead.Salario,
			lead.Valor,
			lead.Prazo,
			lead.Parcela,
			boolToInt(lead.ExcedeuMargem),
			createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert lead: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert ID: %w", err)
		}

		lead.ID = int(id)
		return nil
	})
	if err != nil {
		return err
	}

	lead.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)

	return nil
}

// ListRecent returns the newest leads first, up to limit
func (r *Repository) ListRecent(limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, protocolo, nome, cpf, email, telefone, categoria,
		       salario, valor, prazo, parcela, excedeu_margem, created_at
		FROM leads
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var lead Lead
		var excedeu int
		var createdAt string

		err := rows.Scan(
			&lead.ID,
			&lead.Protocolo,
			&lead.Nome,
			&lead.CPF,
			&lead.Email,
			&lead.Telefone,
			&lead.Categoria,
			&lead.Salario,
			&lead.Valor,
			&lead.Prazo,
			&lead.Parcela,
			&excedeu,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}

		lead.ExcedeuMargem = excedeu != 0
		lead.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		leads = append(leads, lead)
	}

	return leads, rows.Err()
}

// CountByCategory returns lead counts per category for operator reporting
func (r *Repository) CountByCategory() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT categoria, COUNT(*) FROM leads GROUP BY categoria`)
	if err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var categoria string
		var count int
		if err := rows.Scan(&categoria, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[categoria] = count
	}

	return counts, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
