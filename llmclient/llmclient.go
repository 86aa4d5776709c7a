// Package llmclient talks to remote generative-text services that answer
// questions the knowledge base cannot.
package llmclient

import (
	"context"
	"strings"

	"foa-chat/config"
	apperrors "foa-chat/errors"

	"go.uber.org/zap"
)

// Oracle answers a free-text prompt. A nil error always comes with a
// non-blank answer; every failure wraps apperrors.ErrOracleUnavailable.
type Oracle interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Disabled is the oracle used when no provider is configured.
type Disabled struct {
	Reason string
}

func (d Disabled) Ask(ctx context.Context, prompt string) (string, error) {
	return "", apperrors.WrapError(apperrors.ErrOracleUnavailable, d.Reason)
}

// New builds the oracle selected by cfg.OracleProvider. A provider without
// its credential or host resolves to Disabled.
func New(cfg *config.Config, logger *zap.Logger) Oracle {
	switch cfg.OracleProvider {
	case config.OracleProviderGemini, "":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			logger.Warn("Gemini API key not configured, fallback answers disabled")
			return Disabled{Reason: "gemini api key not configured"}
		}
		return NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey, cfg.OracleTimeout, logger)
	case config.OracleProviderOpenAI:
		if strings.TrimSpace(cfg.OracleHost) == "" {
			logger.Warn("ORACLE_HOST not configured, fallback answers disabled")
			return Disabled{Reason: "oracle host not configured"}
		}
		return NewChatClient(cfg.OracleHost, cfg.OracleModel, cfg.OracleAPIKey, cfg.OracleTimeout, logger)
	case config.OracleProviderNone:
		return Disabled{Reason: "fallback disabled by configuration"}
	default:
		logger.Warn("Unknown oracle provider, fallback answers disabled", zap.String("provider", cfg.OracleProvider))
		return Disabled{Reason: "unknown oracle provider " + cfg.OracleProvider}
	}
}

// answerText rejects blank answers, which callers must treat like any
// other unavailability.
func answerText(provider, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperrors.WrapErrorf(apperrors.ErrOracleUnavailable, "%s returned an empty answer", provider)
	}
	return text, nil
}
