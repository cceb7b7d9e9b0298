package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HaidarGhanem/management-crud/internal/config"
)

// Postgres stores each collection as a single jsonb document row. It serves
// deployments where the data directory is not durable; the file driver
// remains the default.
type Postgres struct {
	pool *pgxpool.Pool
}

func ConnectPostgres(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewPostgres creates the collections table if it does not exist yet.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	_, err := pool.Exec(ctx, `
        create table if not exists collections (
            name text primary key,
            doc jsonb not null,
            updated_at timestamptz not null default now()
        )
    `)
	if err != nil {
		return nil, fmt.Errorf("create collections table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Load(ctx context.Context, collection string) ([]byte, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx, `
		select doc from collections where name = $1
	`, collection).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, &Error{Op: "load", Collection: collection, Err: err}
	}
	return doc, nil
}

func (p *Postgres) Save(ctx context.Context, collection string, data []byte) error {
	_, err := p.pool.Exec(ctx, `
		insert into collections (name, doc, updated_at)
		values ($1, $2, now())
		on conflict (name) do update
		set doc = excluded.doc, updated_at = now()
	`, collection, data)
	if err != nil {
		return &Error{Op: "save", Collection: collection, Err: err}
	}
	return nil
}
