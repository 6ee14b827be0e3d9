package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/rs/zerolog"

	"github.com/srgjo27/ticketchief/internal/core/ports"
	"github.com/srgjo27/ticketchief/internal/platform/metrics"
)

// NonceGuard accepts each replay token at most once.
type NonceGuard struct {
	store  ports.NonceStore
	logger zerolog.Logger
}

func NewNonceGuard(store ports.NonceStore, logger zerolog.Logger) *NonceGuard {
	return &NonceGuard{
		store:  store,
		logger: logger.With().Str("component", "nonce").Logger(),
	}
}

// Validate consumes token. Blank tokens, replays and store failures are all
// rejected.
func (g *NonceGuard) Validate(ctx context.Context, token string) bool {
	if strings.TrimSpace(token) == "" {
		metrics.NonceRejections.Inc()
		return false
	}

	added, err := g.store.Add(ctx, token)
	if err != nil {
		g.logger.Error().Err(err).Msg("nonce store unavailable, rejecting request")
		metrics.NonceRejections.Inc()
		return false
	}
	if !added {
		g.logger.Warn().Str("nonce_sha256", fingerprint(token)).Msg("replayed nonce rejected")
		metrics.NonceRejections.Inc()
	}
	return added
}

// fingerprint identifies a client token in logs without recording it.
func fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
