package chat

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// MetricsSchema holds the chat_metrics table, kept in chat_metrics.db
const MetricsSchema = `
CREATE TABLE IF NOT EXISTS chat_metrics (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TEXT NOT NULL,
    model TEXT,
    prompt_tokens INTEGER,
    completion_tokens INTEGER,
    estimated_cost_usd REAL,
    ip TEXT,
    user_agent TEXT,
    streaming INTEGER DEFAULT 0
);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(MetricsSchema)
	return err
}

// Metric is one recorded chat completion
type Metric struct {
	ID               int     `json:"id"`
	Timestamp        string  `json:"timestamp"`
	Model            string  `json:"model"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	IP               string  `json:"ip"`
	UserAgent        string  `json:"user_agent"`
	Streaming        bool    `json:"streaming"`
}

// MetricsRepository handles chat metric persistence. The table is
// append-only operator telemetry; rows never block the chat path.
type MetricsRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewMetricsRepository creates a new chat metrics repository
func NewMetricsRepository(db *sql.DB, log zerolog.Logger) *MetricsRepository {
	return &MetricsRepository{
		db:  db,
		log: log.With().Str("repo", "chat_metrics").Logger(),
	}
}

// Insert appends one metric row
func (r *MetricsRepository) Insert(metric Metric) error {
	if metric.Timestamp == "" {
		metric.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	query := `
		INSERT INTO chat_metrics (
			timestamp, model, prompt_tokens, completion_tokens,
			estimated_cost_usd, ip, user_agent, streaming
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(
		query,
		metric.Timestamp,
		metric.Model,
		metric.PromptTokens,
		metric.CompletionTokens,
		metric.EstimatedCostUSD,
		metric.IP,
		metric.UserAgent,
		boolToInt(metric.Streaming),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat metric: %w", err)
	}

	return nil
}

// ListRecent returns the newest metrics first, up to limit
func (r *MetricsRepository) ListRecent(limit int) ([]Metric, error) {
	if limit <= 0 {
		limit = 200
	}

	query := `
		SELECT id, timestamp, model, prompt_tokens, completion_tokens,
		       estimated_cost_usd, ip, user_agent, streaming
		FROM chat_metrics
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat metrics: %w", err)
	}
	defer rows.Close()

	var metrics []Metric
	for rows.Next() {
		var m Metric
		var streaming int

		err := rows.Scan(
			&m.ID,
			&m.Timestamp,
			&m.Model,
			&m.PromptTokens,
			&m.CompletionTokens,
			&m.EstimatedCostUSD,
			&m.IP,
			&m.UserAgent,
			&streaming,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat metric: %w", err)
		}

		m.Streaming = streaming != 0
		metrics = append(metrics, m)
	}

	return metrics, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
