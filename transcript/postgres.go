package transcript

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createTranscriptTable = `
CREATE TABLE IF NOT EXISTS transcript (
	id                  BIGSERIAL PRIMARY KEY,
	conn_id             UUID NOT NULL,
	base_revision       INT NOT NULL,
	submitted_ops       TEXT[] NOT NULL,
	submitted_selection JSONB,
	committed_ops       TEXT[] NOT NULL,
	revision            INT NOT NULL,
	at                  TIMESTAMPTZ NOT NULL
)`

// Postgres appends transcript entries to a Postgres table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to url and ensures the transcript table exists.
func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createTranscriptTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create transcript table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Append inserts one entry.
func (p *Postgres) Append(ctx context.Context, e Entry) error {
	var sel *string
	if e.SubmittedSelection != nil {
		b, err := json.Marshal(e.SubmittedSelection)
		if err != nil {
			return fmt.Errorf("encode selection: %w", err)
		}
		s := string(b)
		sel = &s
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO transcript
		 (conn_id, base_revision, submitted_ops, submitted_selection, committed_ops, revision, at)
		 VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7)`,
		e.ConnID, e.BaseRevision, e.SubmittedOps, sel, e.CommittedOps, e.Revision, e.At)
	if err != nil {
		return fmt.Errorf("append transcript entry: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
