package store

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSlot keeps the blob in a single row of the app_state table,
// keyed by the configured state key.
type PostgresSlot struct {
	conn *pgxpool.Pool
	key  string
}

func NewPostgresSlot(ctx context.Context, url, key string) (*PostgresSlot, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "pgxpool.New failed: ")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "pool.Ping failed: ")
	}
	return &PostgresSlot{conn: pool, key: key}, nil
}

func (p *PostgresSlot) Get(ctx context.Context) ([]byte, error) {
	row := p.conn.QueryRow(ctx, "select blob from app_state where key = $1", p.key)
	var blob []byte
	err := row.Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, errors.Wrap(err, "row.Scan failed: ")
	}
	return blob, nil
}

func (p *PostgresSlot) Set(ctx context.Context, blob []byte) error {
	_, err := p.conn.Exec(ctx, "insert into app_state (key, blob, updated_at) values ($1, $2, now()) on conflict (key) do update set blob = $2, updated_at = now()", p.key, blob)
	if err != nil {
		return errors.Wrap(err, "conn.Exec failed: ")
	}
	return nil
}

func (p *PostgresSlot) Close() error {
	p.conn.Close()
	return nil
}
