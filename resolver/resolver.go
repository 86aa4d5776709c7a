// Package resolver answers a question from the knowledge base, falling back
// to a remote model and remembering what it learns.
package resolver

import (
	"context"
	"strings"
	"time"

	apperrors "foa-chat/errors"
	"foa-chat/matcher"
	"foa-chat/web/types"

	"go.uber.org/zap"
)

// DefaultAnswer is returned when nothing matched and the oracle had no answer.
const DefaultAnswer = "I don't have information about that yet. Please try asking something else."

// DefaultOracleTimeout bounds a single oracle call when none is configured.
const DefaultOracleTimeout = 8 * time.Second

// Source tells which branch produced an answer.
type Source string

const (
	SourceMatched Source = "matched"
	SourceOracle  Source = "oracle"
	SourceDefault Source = "default"
)

// KnowledgeStore is the part of the store the resolver needs.
type KnowledgeStore interface {
	ListEntries(ctx context.Context) ([]types.QAEntry, error)
	AppendEntry(ctx context.Context, question, answer string) error
}

// Oracle produces an answer for questions the store cannot answer.
type Oracle interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Answer is the outcome of one Resolve call.
type Answer struct {
	Text            string
	Source          Source
	Score           int    // match score, set when Source is SourceMatched
	MatchedQuestion string // stored question that matched, as stored
}

type Resolver struct {
	store         KnowledgeStore
	oracle        Oracle
	cutoff        int
	oracleTimeout time.Duration
	logger        *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCutoff sets the minimum match score (0-100).
func WithCutoff(cutoff int) Option {
	return func(r *Resolver) { r.cutoff = cutoff }
}

// WithOracleTimeout bounds each oracle call.
func WithOracleTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.oracleTimeout = d
		}
	}
}

func New(store KnowledgeStore, oracle Oracle, logger *zap.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		store:         store,
		oracle:        oracle,
		cutoff:        matcher.DefaultCutoff,
		oracleTimeout: DefaultOracleTimeout,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the stored answer of the closest stored question, or asks
// the oracle and appends its answer to the store. It writes at most once and
// never on a match. Only store failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, question string) (Answer, error) {
	entries, err := r.store.ListEntries(ctx)
	if err != nil {
		return Answer{}, apperrors.Categorize(apperrors.ErrDatabaseOperation, err, "read knowledge base")
	}

	if len(entries) > 0 {
		if m, ok := matcher.BestMatch(question, types.Questions(entries), r.cutoff); ok {
			entry := entries[m.Index]
			r.logger.Debug("Answered from knowledge base",
				zap.String("question", question),
				zap.String("matched_question", entry.Question),
				zap.Int("score", m.Score))
			return Answer{
				Text:            entry.Answer,
				Source:          SourceMatched,
				Score:           m.Score,
				MatchedQuestion: entry.Question,
			}, nil
		}
	}

	text, err := r.ask(ctx, question)
	if err != nil {
		if apperrors.IsOracleUnavailable(err) {
			r.logger.Warn("No fallback answer obtained", zap.String("question", question), zap.Error(err))
		} else {
			r.logger.Error("Fallback oracle failed", zap.String("question", question), zap.Error(err))
		}
		return Answer{Text: DefaultAnswer, Source: SourceDefault}, nil
	}

	if err := r.store.AppendEntry(ctx, question, text); err != nil {
		return Answer{}, apperrors.Categorize(apperrors.ErrDatabaseOperation, err, "store fallback answer")
	}
	r.logger.Info("Learned new answer from fallback oracle", zap.String("question", question))
	return Answer{Text: text, Source: SourceOracle}, nil
}

type askResult struct {
	text string
	err  error
}

// ask calls the oracle under the resolver's timeout. The deadline is enforced
// here as well, so an oracle that ignores its context still cannot hold the
// request past the timeout.
func (r *Resolver) ask(ctx context.Context, question string) (string, error) {
	if r.oracle == nil {
		return "", apperrors.WrapError(apperrors.ErrOracleUnavailable, "no oracle configured")
	}
	askCtx, cancel := context.WithTimeout(ctx, r.oracleTimeout)
	defer cancel()

	done := make(chan askResult, 1)
	go func() {
		text, err := r.oracle.Ask(askCtx, question)
		done <- askResult{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		if strings.TrimSpace(res.text) == "" {
			return "", apperrors.WrapError(apperrors.ErrOracleUnavailable, "oracle returned an empty answer")
		}
		return res.text, nil
	case <-askCtx.Done():
		return "", apperrors.Categorize(apperrors.ErrOracleUnavailable, askCtx.Err(), "oracle call abandoned")
	}
}
