//go:build integration

package metadata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"mintgate/internal/platform/config"
	platformredis "mintgate/internal/platform/redis"
	settingsstore "mintgate/internal/registry/store/settings"
	tokenstore "mintgate/internal/registry/store/tokens"
	"mintgate/pkg/domain"
	"mintgate/pkg/testutil/containers"
)

type ResolverCacheSuite struct {
	suite.Suite
	redis    *containers.RedisContainer
	cache    *platformredis.Client
	tokens   *tokenstore.InMemoryStore
	settings *settingsstore.InMemoryStore
	resolver *Resolver
}

func TestResolverCacheSuite(t *testing.T) {
	suite.Run(t, new(ResolverCacheSuite))
}

func (s *ResolverCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())

	var err error
	s.cache, err = platformredis.New(config.RedisConfig{
		URL:          s.redis.Addr,
		PoolSize:     5,
		MinIdleConns: 1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	s.Require().NoError(err)
	s.Require().NotNil(s.cache)
}

func (s *ResolverCacheSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.redis.FlushAll(ctx))

	s.tokens = tokenstore.NewInMemoryStore()
	s.settings = settingsstore.NewInMemoryStore()

	var err error
	s.resolver, err = New(s.tokens, s.settings, WithCache(s.cache))
	s.Require().NoError(err)
}

func (s *ResolverCacheSuite) TestResolveCaches() {
	ctx := context.Background()

	ids, err := s.tokens.CreateTokens(ctx, []domain.Principal{"alice"})
	s.Require().NoError(err)
	s.Require().NoError(s.settings.SetBaseURI(ctx, "https://meta.example/"))

	uri, err := s.resolver.Resolve(ctx, ids[0])
	s.Require().NoError(err)
	s.Equal("https://meta.example/1.json", uri)

	// A direct settings change is invisible until the cache is invalidated.
	s.Require().NoError(s.settings.SetBaseURI(ctx, "https://new.example/"))

	uri, err = s.resolver.Resolve(ctx, ids[0])
	s.Require().NoError(err)
	s.Equal("https://meta.example/1.json", uri)
}

func (s *ResolverCacheSuite) TestInvalidateURIs() {
	ctx := context.Background()

	ids, err := s.tokens.CreateTokens(ctx, []domain.Principal{"alice"})
	s.Require().NoError(err)
	s.Require().NoError(s.settings.SetBaseURI(ctx, "https://meta.example/"))

	uri, err := s.resolver.Resolve(ctx, ids[0])
	s.Require().NoError(err)
	s.Equal("https://meta.example/1.json", uri)

	s.Require().NoError(s.settings.SetBaseURI(ctx, "https://new.example/"))
	s.Require().NoError(s.resolver.InvalidateURIs(ctx))

	uri, err = s.resolver.Resolve(ctx, ids[0])
	s.Require().NoError(err)
	s.Equal("https://new.example/1.json", uri)
}

func (s *ResolverCacheSuite) TestCacheSurvivesStoreOutage() {
	ctx := context.Background()

	ids, err := s.tokens.CreateTokens(ctx, []domain.Principal{"alice"})
	s.Require().NoError(err)
	s.Require().NoError(s.tokens.SetURIOverride(ctx, ids[0], "ipfs://custom"))

	uri, err := s.resolver.Resolve(ctx, ids[0])
	s.Require().NoError(err)
	s.Equal("ipfs://custom", uri)

	// Cached entries answer without touching the stores at all: a resolver
	// over empty stores still serves the cached URI.
	fresh, err := New(tokenstore.NewInMemoryStore(), settingsstore.NewInMemoryStore(), WithCache(s.cache))
	s.Require().NoError(err)

	uri, err = fresh.Resolve(ctx, ids[0])
	s.Require().NoError(err)
	s.Equal("ipfs://custom", uri)
}
