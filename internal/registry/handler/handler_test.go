package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	jwttoken "mintgate/internal/jwt_token"
	platformmetrics "mintgate/internal/platform/metrics"
	"mintgate/internal/registry/metadata"
	"mintgate/internal/registry/models"
	"mintgate/internal/registry/service"
	rolestore "mintgate/internal/registry/store/roles"
	settingsstore "mintgate/internal/registry/store/settings"
	tokenstore "mintgate/internal/registry/store/tokens"
	"mintgate/pkg/domain"
)

const (
	rootPrincipal   = domain.Principal("0xroot")
	adminPrincipal  = domain.Principal("0xadmin")
	minterPrincipal = domain.Principal("0xminter")
	holderPrincipal = domain.Principal("0xholder")
)

// shared across the suite: promauto registers collectors on the default
// registry, so metrics must be constructed once per test binary.
var httpMetrics = platformmetrics.New()

type HandlerSuite struct {
	suite.Suite
	server     *httptest.Server
	jwtService *jwttoken.JWTService
	registry   *service.Service
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctx := context.Background()

	tokens := tokenstore.NewInMemoryStore()
	roles := rolestore.NewInMemoryStore()
	settings := settingsstore.NewInMemoryStore()

	resolver, err := metadata.New(tokens, settings)
	s.Require().NoError(err)

	s.registry, err = service.New(tokens, roles, settings,
		models.Collection{Name: "Test Collection", Symbol: "TST"})
	s.Require().NoError(err)

	s.Require().NoError(s.registry.Bootstrap(ctx, rootPrincipal))
	s.Require().NoError(s.registry.GrantRole(ctx, rootPrincipal, models.RoleAdmin, adminPrincipal))
	s.Require().NoError(s.registry.GrantRole(ctx, rootPrincipal, models.RoleMinter, minterPrincipal))

	s.jwtService = jwttoken.NewJWTService("test-secret", "mintgate", "mintgate-api")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	New(s.registry, resolver, logger, httpMetrics, s.jwtService).Register(router)

	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)
}

func (s *HandlerSuite) token(principal domain.Principal) string {
	token, err := s.jwtService.GenerateAccessToken(principal, time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *HandlerSuite) request(method, path, bearer string, body any) *http.Response {
	s.T().Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](s *HandlerSuite, resp *http.Response) T {
	var out T
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (s *HandlerSuite) TestMint() {
	s.Run("mint succeeds with minter token", func() {
		resp := s.request(http.MethodPost, "/tokens/mint", s.token(minterPrincipal),
			models.MintRequest{Recipient: holderPrincipal.String()})
		s.Equal(http.StatusCreated, resp.StatusCode)

		body := decode[models.MintResponse](s, resp)
		s.Equal(uint64(1), body.TokenID)
	})

	s.Run("mint without a token is unauthorized", func() {
		resp := s.request(http.MethodPost, "/tokens/mint", "",
			models.MintRequest{Recipient: holderPrincipal.String()})
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("mint with a garbage token is unauthorized", func() {
		resp := s.request(http.MethodPost, "/tokens/mint", "not-a-jwt",
			models.MintRequest{Recipient: holderPrincipal.String()})
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("mint without the minter role is forbidden", func() {
		resp := s.request(http.MethodPost, "/tokens/mint", s.token(holderPrincipal),
			models.MintRequest{Recipient: holderPrincipal.String()})
		s.Equal(http.StatusForbidden, resp.StatusCode)
	})

	s.Run("mint to an empty recipient is a bad request", func() {
		resp := s.request(http.MethodPost, "/tokens/mint", s.token(minterPrincipal),
			models.MintRequest{Recipient: ""})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestBatchMint() {
	s.Run("batch mint returns consecutive identifiers", func() {
		resp := s.request(http.MethodPost, "/tokens/batch-mint", s.token(minterPrincipal),
			models.BatchMintRequest{Recipients: []string{"0xa", "0xb", "0xa"}})
		s.Equal(http.StatusCreated, resp.StatusCode)

		body := decode[models.BatchMintResponse](s, resp)
		s.Equal([]uint64{1, 2, 3}, body.TokenIDs)
	})

	s.Run("empty batch is a bad request", func() {
		resp := s.request(http.MethodPost, "/tokens/batch-mint", s.token(minterPrincipal),
			models.BatchMintRequest{})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestPause() {
	s.Run("admin can pause and minting then conflicts", func() {
		resp := s.request(http.MethodPut, "/config/paused", s.token(adminPrincipal),
			models.PausedRequest{Paused: true})
		s.Equal(http.StatusNoContent, resp.StatusCode)

		resp = s.request(http.MethodGet, "/config/paused", "", nil)
		s.Equal(http.StatusOK, resp.StatusCode)
		s.True(decode[models.PausedResponse](s, resp).Paused)

		resp = s.request(http.MethodPost, "/tokens/mint", s.token(minterPrincipal),
			models.MintRequest{Recipient: holderPrincipal.String()})
		s.Equal(http.StatusConflict, resp.StatusCode)
	})

	s.Run("non-admin cannot pause", func() {
		resp := s.request(http.MethodPut, "/config/paused", s.token(minterPrincipal),
			models.PausedRequest{Paused: true})
		s.Equal(http.StatusForbidden, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestTokenQueries() {
	ctx := context.Background()
	id, err := s.registry.Mint(ctx, minterPrincipal, holderPrincipal)
	s.Require().NoError(err)

	s.Run("get token returns owner and resolved uri", func() {
		s.Require().NoError(s.registry.SetBaseURI(ctx, adminPrincipal, "https://meta.example/"))

		resp := s.request(http.MethodGet, "/tokens/"+id.String(), "", nil)
		s.Equal(http.StatusOK, resp.StatusCode)

		body := decode[models.TokenResponse](s, resp)
		s.Equal(uint64(id), body.TokenID)
		s.Equal(holderPrincipal.String(), body.Owner)
		s.Equal("https://meta.example/1.json", body.URI)
	})

	s.Run("unknown token is not found", func() {
		resp := s.request(http.MethodGet, "/tokens/999", "", nil)
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})

	s.Run("malformed token id is a bad request", func() {
		resp := s.request(http.MethodGet, "/tokens/zero", "", nil)
		s.Equal(http.StatusBadRequest, resp.StatusCode)

		resp = s.request(http.MethodGet, "/tokens/0", "", nil)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("owner token listing", func() {
		resp := s.request(http.MethodGet, "/owners/"+holderPrincipal.String()+"/tokens", "", nil)
		s.Equal(http.StatusOK, resp.StatusCode)

		body := decode[models.OwnedTokensResponse](s, resp)
		s.Equal(holderPrincipal.String(), body.Owner)
		s.Equal([]uint64{uint64(id)}, body.TokenIDs)
	})

	s.Run("supply and collection", func() {
		resp := s.request(http.MethodGet, "/supply", "", nil)
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal(uint64(1), decode[models.SupplyResponse](s, resp).TotalSupply)

		resp = s.request(http.MethodGet, "/collection", "", nil)
		s.Equal(http.StatusOK, resp.StatusCode)
		body := decode[models.CollectionResponse](s, resp)
		s.Equal("Test Collection", body.Name)
		s.Equal("TST", body.Symbol)
	})
}

func (s *HandlerSuite) TestTransfer() {
	ctx := context.Background()
	id, err := s.registry.Mint(ctx, minterPrincipal, holderPrincipal)
	s.Require().NoError(err)

	s.Run("owner transfers via the api", func() {
		resp := s.request(http.MethodPost, "/tokens/"+id.String()+"/transfer", s.token(holderPrincipal),
			models.TransferRequest{To: "0xnew"})
		s.Equal(http.StatusNoContent, resp.StatusCode)

		owner, err := s.registry.OwnerOf(ctx, id)
		s.NoError(err)
		s.Equal(domain.Principal("0xnew"), owner)
	})

	s.Run("non-owner transfer is forbidden", func() {
		resp := s.request(http.MethodPost, "/tokens/"+id.String()+"/transfer", s.token(minterPrincipal),
			models.TransferRequest{To: "0xelse"})
		s.Equal(http.StatusForbidden, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestRoles() {
	s.Run("super admin grants via the api", func() {
		resp := s.request(http.MethodPost, "/roles/grant", s.token(rootPrincipal),
			models.RoleChangeRequest{Role: string(models.RoleMinter), Principal: "0xnewminter"})
		s.Equal(http.StatusNoContent, resp.StatusCode)

		resp = s.request(http.MethodGet, "/roles/0xnewminter", "", nil)
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal([]string{string(models.RoleMinter)}, decode[models.RolesResponse](s, resp).Roles)
	})

	s.Run("non super admin cannot grant", func() {
		resp := s.request(http.MethodPost, "/roles/grant", s.token(adminPrincipal),
			models.RoleChangeRequest{Role: string(models.RoleMinter), Principal: "0xnope"})
		s.Equal(http.StatusForbidden, resp.StatusCode)
	})

	s.Run("unknown role is a bad request", func() {
		resp := s.request(http.MethodPost, "/roles/grant", s.token(rootPrincipal),
			models.RoleChangeRequest{Role: "owner", Principal: "0xnope"})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestBaseURIConfig() {
	s.Run("admin sets and reads back the base uri", func() {
		resp := s.request(http.MethodPut, "/config/base-uri", s.token(adminPrincipal),
			models.BaseURIRequest{BaseURI: "https://meta.example/"})
		s.Equal(http.StatusNoContent, resp.StatusCode)

		resp = s.request(http.MethodGet, "/config/base-uri", "", nil)
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal("https://meta.example/", decode[models.BaseURIResponse](s, resp).BaseURI)
	})

	s.Run("token uri override via the api", func() {
		ctx := context.Background()
		id, err := s.registry.Mint(ctx, minterPrincipal, holderPrincipal)
		s.Require().NoError(err)

		resp := s.request(http.MethodPut, "/tokens/"+id.String()+"/uri", s.token(adminPrincipal),
			models.SetTokenURIRequest{URI: "ipfs://custom"})
		s.Equal(http.StatusNoContent, resp.StatusCode)

		resp = s.request(http.MethodGet, "/tokens/"+id.String()+"/uri", "", nil)
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal("ipfs://custom", decode[models.TokenURIResponse](s, resp).URI)
	})
}
