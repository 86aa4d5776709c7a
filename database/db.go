package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"foa-chat/web/types"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

type PostgresStore struct {
	DB     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(ctx context.Context, connStr string, logger *zap.Logger) (*PostgresStore, error) {
	if strings.TrimSpace(connStr) == "" {
		return nil, fmt.Errorf("database url is required for the postgres store")
	}
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Successfully connected to the database", zap.String("driver", "postgres"))
	return &PostgresStore{DB: db, logger: logger}, nil
}

// EnsureSchema creates the required tables if they do not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS responses (
            seq BIGSERIAL PRIMARY KEY,
            id UUID NOT NULL UNIQUE,
            question TEXT NOT NULL,
            answer TEXT NOT NULL,
            created_at TIMESTAMPTZ DEFAULT NOW()
        )`,
	}

	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// ListEntries returns every stored entry in insertion order.
func (s *PostgresStore) ListEntries(ctx context.Context) ([]types.QAEntry, error) {
	query := `
		SELECT id, question, answer, created_at
		FROM responses
		ORDER BY seq ASC
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	var entries []types.QAEntry
	for rows.Next() {
		var entry types.QAEntry
		if err := rows.Scan(&entry.ID, &entry.Question, &entry.Answer, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate responses: %w", err)
	}
	return entries, nil
}

// AppendEntry stores a new entry. Duplicate questions are allowed.
func (s *PostgresStore) AppendEntry(ctx context.Context, question, answer string) error {
	query := `
		INSERT INTO responses (id, question, answer, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.DB.ExecContext(ctx, query, uuid.New(), question, answer, time.Now()); err != nil {
		return fmt.Errorf("failed to insert response: %w", err)
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}
