package database

import (
	"context"
	"fmt"

	"foa-chat/config"
	"foa-chat/web/types"

	"go.uber.org/zap"
)

// DefaultQuestion and DefaultAnswer form the entry a fresh knowledge base
// starts with.
const (
	DefaultQuestion = "what is ai?"
	DefaultAnswer   = "Artificial Intelligence (AI) refers to the simulation of human intelligence in machines that are programmed to think like humans and mimic their actions. The term may also be applied to any machine that exhibits traits associated with a human mind such as learning and problem-solving. AI can be categorized as either weak AI or strong AI. Weak AI, also known as narrow AI, is designed to perform a narrow task (e.g. facial recognition). Strong AI, also known as artificial general intelligence, is AI that more fully replicates the autonomy of the human brain—AI that can solve many types of problems on its own, rather than focusing on one specific task."
)

// Store is a persisted, append-only question/answer knowledge base.
// ListEntries returns entries in insertion order. AppendEntry never
// deduplicates or overwrites.
type Store interface {
	EnsureSchema(ctx context.Context) error
	ListEntries(ctx context.Context) ([]types.QAEntry, error)
	AppendEntry(ctx context.Context, question, answer string) error
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the backend selected by cfg.StoreDriver and ensures its
// schema exists.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		store, err = NewPostgresStore(ctx, cfg.DatabaseURL, logger)
	case config.StoreDriverSQLite, "":
		store, err = NewSQLiteStore(ctx, cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	if cfg.SeedDefaultEntry {
		if err := EnsureDefaultEntry(ctx, store); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}

// EnsureDefaultEntry inserts the default entry when the store is empty.
func EnsureDefaultEntry(ctx context.Context, store Store) error {
	n, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count entries: %w", err)
	}
	if n > 0 {
		return nil
	}
	if err := store.AppendEntry(ctx, DefaultQuestion, DefaultAnswer); err != nil {
		return fmt.Errorf("failed to insert default entry: %w", err)
	}
	return nil
}
