package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"foa-chat/web/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists the knowledge base in a single SQLite file. The
// table layout is compatible with chat.db files created by earlier
// releases, which only had id, question and answer columns.
type SQLiteStore struct {
	sqlDB  *sql.DB
	logger *zap.Logger
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// NewSQLiteStore opens (creating if needed) the SQLite database at path.
func NewSQLiteStore(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	logger.Info("Successfully connected to the database", zap.String("driver", "sqlite"), zap.String("path", cleanPath))
	return &SQLiteStore{sqlDB: sqlDB, logger: logger}, nil
}

// EnsureSchema creates the responses table and adds the columns missing from
// older chat.db files.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS responses (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            question TEXT NOT NULL,
            answer TEXT NOT NULL,
            entry_id TEXT,
            created_at INTEGER NOT NULL DEFAULT 0
        )`); err != nil {
		return fmt.Errorf("failed to execute schema statement: %w", err)
	}

	legacyColumns := []struct{ name, ddl string }{
		{"entry_id", `ALTER TABLE responses ADD COLUMN entry_id TEXT`},
		{"created_at", `ALTER TABLE responses ADD COLUMN created_at INTEGER NOT NULL DEFAULT 0`},
	}
	for _, col := range legacyColumns {
		if err := s.addColumnIfMissing(ctx, col.name, col.ddl); err != nil {
			return err
		}
	}
	return nil
}

// addColumnIfMissing runs ddl only when responses lacks column.
func (s *SQLiteStore) addColumnIfMissing(ctx context.Context, column, ddl string) error {
	exists, err := s.hasColumn(ctx, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if _, err := s.sqlDB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to add column %s to responses: %w", column, err)
	}
	s.logger.Info("Upgraded legacy responses table", zap.String("column", column))
	return nil
}

func (s *SQLiteStore) hasColumn(ctx context.Context, column string) (bool, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT name FROM pragma_table_info('responses')`)
	if err != nil {
		return false, fmt.Errorf("failed to inspect responses columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, fmt.Errorf("failed to scan responses column: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("failed to inspect responses columns: %w", err)
	}
	return false, nil
}

// ListEntries returns every stored entry in insertion order.
func (s *SQLiteStore) ListEntries(ctx context.Context) ([]types.QAEntry, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT entry_id, question, answer, created_at FROM responses ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	var entries []types.QAEntry
	for rows.Next() {
		var (
			entry     types.QAEntry
			entryID   sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&entryID, &entry.Question, &entry.Answer, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		if entryID.Valid {
			if parsed, err := uuid.Parse(entryID.String); err == nil {
				entry.ID = parsed
			}
		}
		if createdAt > 0 {
			entry.CreatedAt = fromMillis(createdAt)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate responses: %w", err)
	}
	return entries, nil
}

// AppendEntry stores a new entry. Duplicate questions are allowed.
func (s *SQLiteStore) AppendEntry(ctx context.Context, question, answer string) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO responses (question, answer, entry_id, created_at) VALUES (?, ?, ?, ?)`,
		question, answer, uuid.New().String(), toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert response: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
