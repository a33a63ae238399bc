// Package postgres — queries.go содержит миграции и backend документов.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/discord-economy-bot/internal/storage"
)

// ExecMigrationSQL выполняет один SQL-запрос миграции в транзакции.
// Если запрос упадёт — транзакция откатится автоматически.
func ExecMigrationSQL(ctx context.Context, pool *pgxpool.Pool, version int, sql string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("ошибка проверки миграции: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("ошибка выполнения миграции %d: %w", version, err)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version) VALUES ($1)", version,
	); err != nil {
		return fmt.Errorf("ошибка записи версии миграции: %w", err)
	}

	return tx.Commit(ctx)
}

// DocumentBackend реализует storage.Backend поверх таблицы documents.
// Снимок пишется одной транзакцией: либо все документы, либо ни одного.
type DocumentBackend struct {
	pool *pgxpool.Pool
}

var _ storage.Backend = (*DocumentBackend)(nil)

// NewDocumentBackend создаёт backend поверх готового пула.
func NewDocumentBackend(pool *pgxpool.Pool) *DocumentBackend {
	return &DocumentBackend{pool: pool}
}

func (b *DocumentBackend) Load(ctx context.Context, name string) ([]byte, error) {
	var body string
	err := b.pool.QueryRow(ctx,
		"SELECT body::text FROM documents WHERE name = $1", name,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("чтение документа %s: %w", name, err)
	}
	return []byte(body), nil
}

func (b *DocumentBackend) Save(ctx context.Context, docs []storage.Document) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, d := range docs {
		batch.Queue(`
			INSERT INTO documents (name, body, updated_at)
			VALUES ($1, $2::jsonb, NOW())
			ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()
		`, d.Name, string(d.Body))
	}

	br := tx.SendBatch(ctx, batch)
	for _, d := range docs {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("запись документа %s: %w", d.Name, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("запись документов: %w", err)
	}

	return tx.Commit(ctx)
}

func (b *DocumentBackend) Close() error {
	b.pool.Close()
	return nil
}
