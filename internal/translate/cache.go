package translate

import (
	"context"
	"log/slog"
	"strings"

	"gnurante/internal/logging"
)

// CacheKey identifies one cached translation.
type CacheKey struct {
	Backend string
	Source  string
	Target  string
	Text    string
}

// Cache stores translations across runs.
type Cache interface {
	Lookup(ctx context.Context, key CacheKey) (string, bool, error)
	Store(ctx context.Context, key CacheKey, translated string) error
}

// CachingBackend serves repeated requests from a Cache and only forwards misses.
// Cache errors are logged and never fail a translation.
type CachingBackend struct {
	next   Backend
	cache  Cache
	logger *slog.Logger
}

// NewCachingBackend wraps next with cache.
func NewCachingBackend(next Backend, cache Cache, logger *slog.Logger) *CachingBackend {
	return &CachingBackend{next: next, cache: cache, logger: logging.NewComponentLogger(logger, "translation-cache")}
}

func (c *CachingBackend) Name() string {
	return c.next.Name()
}

// MaxChars forwards the wrapped backend limit.
func (c *CachingBackend) MaxChars() int {
	if limited, ok := c.next.(Limited); ok {
		return limited.MaxChars()
	}
	return 0
}

// MaxBytes forwards the wrapped backend byte limit.
func (c *CachingBackend) MaxBytes() int {
	if limited, ok := c.next.(ByteLimited); ok {
		return limited.MaxBytes()
	}
	return 0
}

func (c *CachingBackend) Translate(ctx context.Context, text, source, target string) (string, error) {
	key := CacheKey{Backend: c.next.Name(), Source: source, Target: target, Text: text}
	if cached, ok, err := c.cache.Lookup(ctx, key); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "translation cache lookup failed", "cache_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "request sent to backend"),
			logging.String(logging.FieldErrorHint, "check translation.cache_path permissions or disable translation.cache_enabled"),
		)
	} else if ok {
		return cached, nil
	}

	translated, err := c.next.Translate(ctx, text, source, target)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(translated) == "" {
		return translated, nil
	}
	if err := c.cache.Store(ctx, key, translated); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "translation cache store failed", "cache_store_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "translation will be requested again next run"),
			logging.String(logging.FieldErrorHint, "check translation.cache_path permissions"),
		)
	}
	return translated, nil
}
