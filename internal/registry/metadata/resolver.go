// Package metadata computes the locator URI for a minted token. Resolution
// policy: a configured, non-empty base URI always wins and yields
// base + decimal(id) + ".json"; otherwise the per-token stored URI is used;
// otherwise the empty string. Never resolves an identifier that was never
// minted.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"mintgate/internal/platform/config"
	platformredis "mintgate/internal/platform/redis"
	"mintgate/internal/registry/ports"
	"mintgate/pkg/domain"
	dErrors "mintgate/pkg/domain-errors"
	"mintgate/pkg/platform/sentinel"
)

const uriSuffix = ".json"

// Redis keys for the read-through cache. Entries embed a version counter
// bumped on every base or per-token URI change, so a configuration change
// orphans all previously cached URIs at once.
const (
	cacheVersionKey = "mintgate:uri:version"
	cacheKeyFormat  = "mintgate:uri:%d:v%d"
)

// Resolver answers tokenURI queries over the ledger and settings stores,
// optionally caching resolved URIs in Redis.
type Resolver struct {
	tokens   ports.TokenStore
	settings ports.SettingsStore
	cache    *platformredis.Client
	logger   *slog.Logger
}

type Option func(*Resolver)

// WithCache enables the Redis read-through cache. A nil client leaves
// caching disabled.
func WithCache(cache *platformredis.Client) Option {
	return func(r *Resolver) {
		r.cache = cache
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func New(tokens ports.TokenStore, settings ports.SettingsStore, opts ...Option) (*Resolver, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token store is required")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings store is required")
	}

	r := &Resolver{tokens: tokens, settings: settings}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve computes the metadata URI for a minted token. Fails with a
// not-found error for an identifier that was never minted; a minted token
// with no base URI and no override resolves to the empty string.
func (r *Resolver) Resolve(ctx context.Context, id domain.TokenID) (string, error) {
	if uri, ok := r.cacheGet(ctx, id); ok {
		return uri, nil
	}

	// Existence check mirrors the ownership ledger: resolution is only
	// defined over minted identifiers.
	if _, err := r.tokens.OwnerOf(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.Wrap(err, dErrors.CodeNotFound, "token was never minted")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "token lookup failed")
	}

	base, err := r.settings.BaseURI(ctx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read base uri")
	}

	var uri string
	if base != "" {
		uri = base + id.String() + uriSuffix
	} else {
		override, err := r.tokens.URIOverride(ctx, id)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read token uri")
		}
		uri = override
	}

	r.cacheSet(ctx, id, uri)
	return uri, nil
}

// InvalidateURIs orphans every cached URI by bumping the version counter.
// Called by the service after base or per-token URI changes.
func (r *Resolver) InvalidateURIs(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Incr(ctx, cacheVersionKey).Err()
}

func (r *Resolver) cacheGet(ctx context.Context, id domain.TokenID) (string, bool) {
	if r.cache == nil {
		return "", false
	}
	key, err := r.cacheKey(ctx, id)
	if err != nil {
		r.warn(ctx, "uri cache version read failed", err)
		return "", false
	}
	uri, err := r.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.warn(ctx, "uri cache read failed", err)
		}
		return "", false
	}
	return uri, true
}

func (r *Resolver) cacheSet(ctx context.Context, id domain.TokenID, uri string) {
	if r.cache == nil {
		return
	}
	key, err := r.cacheKey(ctx, id)
	if err != nil {
		r.warn(ctx, "uri cache version read failed", err)
		return
	}
	if err := r.cache.Set(ctx, key, uri, config.TokenURICacheTTL).Err(); err != nil {
		r.warn(ctx, "uri cache write failed", err)
	}
}

func (r *Resolver) cacheKey(ctx context.Context, id domain.TokenID) (string, error) {
	version, err := r.cache.Get(ctx, cacheVersionKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return "", err
		}
		version = "0"
	}
	v, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(cacheKeyFormat, uint64(id), v), nil
}

func (r *Resolver) warn(ctx context.Context, msg string, err error) {
	if r.logger != nil {
		r.logger.WarnContext(ctx, msg, "error", err)
	}
}
