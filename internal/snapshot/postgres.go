package snapshot

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"telecom-network/pkg/utils"
)

// Schema creates the snapshot table. Rows are append-only; Save prunes old ones.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS network_snapshots (
	id         BIGSERIAL PRIMARY KEY,
	version    INTEGER     NOT NULL,
	body       JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS network_snapshots_created_at_idx ON network_snapshots (created_at)`,
}

// PostgresStore saves snapshots as JSONB rows through database/sql (pgx stdlib driver).
type PostgresStore struct {
	db *sql.DB
	// Keep is how many snapshots survive a save. Zero keeps everything.
	Keep int
}

func NewPostgresStore(db *sql.DB, keep int) *PostgresStore {
	return &PostgresStore{db: db, Keep: keep}
}

func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	return utils.Migrate(ctx, p.db, Schema...)
}

func (p *PostgresStore) Save(ctx context.Context, s Snapshot) error {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return err
	}
	return utils.WithTx(ctx, p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO network_snapshots (version, body) VALUES ($1, $2)`,
			s.Version, buf.String(),
		); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		if p.Keep <= 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx,
			`DELETE FROM network_snapshots WHERE id NOT IN (
				SELECT id FROM network_snapshots ORDER BY id DESC LIMIT $1
			)`, p.Keep)
		if err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
		return nil
	})
}

func (p *PostgresStore) Load(ctx context.Context) (Snapshot, error) {
	var body []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT body FROM network_snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return Decode(bytes.NewReader(body))
}
