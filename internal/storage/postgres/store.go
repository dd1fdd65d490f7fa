package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"txLogScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS decoded_events (
	tx_hash          TEXT        NOT NULL,
	log_index        BIGINT      NOT NULL,
	run_id           TEXT        NOT NULL,
	contract_address TEXT        NOT NULL,
	name             TEXT        NOT NULL,
	signature        TEXT        NOT NULL,
	inputs           JSONB       NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (tx_hash, log_index)
);

CREATE TABLE IF NOT EXISTS decode_failures (
	tx_hash         TEXT        NOT NULL,
	log_index       BIGINT      NOT NULL,
	run_id          TEXT        NOT NULL,
	address         TEXT        NOT NULL,
	topic_signature TEXT        NOT NULL,
	kind            TEXT        NOT NULL,
	reason          TEXT        NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (tx_hash, log_index, run_id)
);
`

// Store provides Postgres persistence for decoded events and failures.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// PutEvents upserts decoded events keyed by transaction and log index.
func (s *Store) PutEvents(ctx context.Context, runID string, events []model.DecodedEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ev := range events {
		inputs, err := json.Marshal(ev.Inputs)
		if err != nil {
			return fmt.Errorf("marshal inputs: %w", err)
		}
		batch.Queue(`
			INSERT INTO decoded_events (
				tx_hash, log_index, run_id, contract_address, name, signature, inputs, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			ON CONFLICT (tx_hash, log_index)
			DO UPDATE SET
				run_id = EXCLUDED.run_id,
				contract_address = EXCLUDED.contract_address,
				name = EXCLUDED.name,
				signature = EXCLUDED.signature,
				inputs = EXCLUDED.inputs,
				updated_at = now()
		`,
			ev.TxHash,
			int64(ev.EventIndex),
			runID,
			ev.ContractAddress,
			ev.Name,
			ev.Signature,
			inputs,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutFailures records the logs a run could not decode.
func (s *Store) PutFailures(ctx context.Context, runID string, failures []model.DecodeFailure) error {
	if len(failures) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, f := range failures {
		batch.Queue(`
			INSERT INTO decode_failures (
				tx_hash, log_index, run_id, address, topic_signature, kind, reason, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			ON CONFLICT (tx_hash, log_index, run_id) DO NOTHING
		`,
			f.TxHash,
			int64(f.LogIndex),
			runID,
			f.Address,
			f.Topic0,
			f.Kind,
			f.Reason,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range failures {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// CountEvents returns how many decoded events are stored for txHash.
func (s *Store) CountEvents(ctx context.Context, txHash string) (int, error) {
	var n int
	row := s.pool.QueryRow(ctx, `SELECT count(*) FROM decoded_events WHERE tx_hash=$1`, txHash)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
