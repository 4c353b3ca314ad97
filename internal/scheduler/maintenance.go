package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/realcredplus/credito/internal/database"
)

// WALCheckpointJob periodically forces a TRUNCATE checkpoint so the WAL
// files of the append-heavy databases do not grow without bound
type WALCheckpointJob struct {
	log       zerolog.Logger
	databases []*database.DB
}

// NewWALCheckpointJob creates a new WALCheckpointJob
func NewWALCheckpointJob(log zerolog.Logger, databases ...*database.DB) *WALCheckpointJob {
	return &WALCheckpointJob{
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
		databases: databases,
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run executes the WAL checkpoint job
func (j *WALCheckpointJob) Run() error {
	var firstErr error
	for _, db := range j.databases {
		if db == nil {
			continue
		}
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("checkpoint %s: %w", db.Name(), err)
			}
			continue
		}
		j.log.Debug().Str("database", db.Name()).Msg("WAL checkpoint complete")
	}
	return firstErr
}

// IntegrityCheckJob runs a full PRAGMA integrity_check against each
// database. Corruption in the lead ledger is worth catching early.
type IntegrityCheckJob struct {
	log       zerolog.Logger
	timeout   time.Duration
	databases []*database.DB
}

// NewIntegrityCheckJob creates a new IntegrityCheckJob
func NewIntegrityCheckJob(log zerolog.Logger, databases ...*database.DB) *IntegrityCheckJob {
	return &IntegrityCheckJob{
		log:       log.With().Str("job", "integrity_check").Logger(),
		timeout:   5 * time.Minute,
		databases: databases,
	}
}

// Name returns the job name
func (j *IntegrityCheckJob) Name() string {
	return "integrity_check"
}

// Run executes the integrity check job
func (j *IntegrityCheckJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	var firstErr error
	for _, db := range j.databases {
		if db == nil {
			continue
		}
		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("Integrity check failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("integrity %s: %w", db.Name(), err)
			}
			continue
		}
		j.log.Debug().Str("database", db.Name()).Msg("Integrity check passed")
	}
	return firstErr
}
