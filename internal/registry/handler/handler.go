package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	platformmetrics "mintgate/internal/platform/metrics"
	"mintgate/internal/platform/middleware"
	"mintgate/internal/registry/models"
	"mintgate/internal/transport/http/shared"
	"mintgate/pkg/domain"
	dErrors "mintgate/pkg/domain-errors"
)

// Service defines the interface for registry operations.
type Service interface {
	Mint(ctx context.Context, caller, to domain.Principal) (domain.TokenID, error)
	BatchMint(ctx context.Context, caller domain.Principal, recipients []domain.Principal) ([]domain.TokenID, error)
	Transfer(ctx context.Context, caller domain.Principal, id domain.TokenID, to domain.Principal) error
	OwnerOf(ctx context.Context, id domain.TokenID) (domain.Principal, error)
	TokensOf(ctx context.Context, owner domain.Principal) ([]domain.TokenID, error)
	TotalSupply(ctx context.Context) (uint64, error)
	Collection() models.Collection
	GrantRole(ctx context.Context, caller domain.Principal, role models.Role, principal domain.Principal) error
	RevokeRole(ctx context.Context, caller domain.Principal, role models.Role, principal domain.Principal) error
	RolesOf(ctx context.Context, principal domain.Principal) ([]models.Role, error)
	SetPaused(ctx context.Context, caller domain.Principal, paused bool) error
	IsPaused(ctx context.Context) (bool, error)
	SetBaseURI(ctx context.Context, caller domain.Principal, uri string) error
	BaseURI(ctx context.Context) (string, error)
	SetTokenURI(ctx context.Context, caller domain.Principal, id domain.TokenID, uri string) error
}

// URIResolver answers tokenURI queries.
type URIResolver interface {
	Resolve(ctx context.Context, id domain.TokenID) (string, error)
}

// Handler handles registry endpoints.
type Handler struct {
	logger       *slog.Logger
	registry     Service
	resolver     URIResolver
	metrics      *platformmetrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new registry Handler.
func New(
	registry Service,
	resolver URIResolver,
	logger *slog.Logger,
	metrics *platformmetrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		registry:     registry,
		resolver:     resolver,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the registry routes with the chi router. Reads are
// public; every mutation goes through the authenticated subrouter so the
// caller principal is always present.
func (h *Handler) Register(r chi.Router) {
	base := chi.NewRouter()
	base.Use(middleware.Recovery(h.logger))
	base.Use(middleware.RequestID)
	base.Use(middleware.Logger(h.logger))
	base.Use(middleware.Timeout(30 * time.Second))
	base.Use(middleware.ContentTypeJSON)
	base.Use(middleware.LatencyMiddleware(h.metrics))

	base.Get("/tokens/{id}", h.handleGetToken)
	base.Get("/tokens/{id}/uri", h.handleGetTokenURI)
	base.Get("/owners/{principal}/tokens", h.handleTokensOf)
	base.Get("/supply", h.handleSupply)
	base.Get("/collection", h.handleCollection)
	base.Get("/config/base-uri", h.handleGetBaseURI)
	base.Get("/config/paused", h.handleGetPaused)
	base.Get("/roles/{principal}", h.handleRolesOf)

	base.Group(func(auth chi.Router) {
		auth.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		auth.Post("/tokens/mint", h.handleMint)
		auth.Post("/tokens/batch-mint", h.handleBatchMint)
		auth.Post("/tokens/{id}/transfer", h.handleTransfer)
		auth.Put("/tokens/{id}/uri", h.handleSetTokenURI)
		auth.Put("/config/base-uri", h.handleSetBaseURI)
		auth.Put("/config/paused", h.handleSetPaused)
		auth.Post("/roles/grant", h.handleGrantRole)
		auth.Post("/roles/revoke", h.handleRevokeRole)
	})

	r.Mount("/", base)
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	id, err := h.registry.Mint(ctx, caller, principalField(req.Recipient))
	if err != nil {
		h.logFailure(r, "mint failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, models.MintResponse{TokenID: uint64(id)})
}

func (h *Handler) handleBatchMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.BatchMintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	recipients := make([]domain.Principal, len(req.Recipients))
	for i, raw := range req.Recipients {
		recipients[i] = principalField(raw)
	}

	ids, err := h.registry.BatchMint(ctx, caller, recipients)
	if err != nil {
		h.logFailure(r, "batch mint failed", err)
		shared.WriteError(w, err)
		return
	}

	raw := make([]uint64, len(ids))
	for i, id := range ids {
		raw[i] = uint64(id)
	}
	shared.WriteJSON(w, http.StatusCreated, models.BatchMintResponse{TokenIDs: raw})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, err := domain.ParseTokenID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.registry.Transfer(ctx, caller, id, principalField(req.To)); err != nil {
		h.logFailure(r, "transfer failed", err)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseTokenID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	owner, err := h.registry.OwnerOf(ctx, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	uri, err := h.resolver.Resolve(ctx, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, models.TokenResponse{
		TokenID: uint64(id),
		Owner:   owner.String(),
		URI:     uri,
	})
}

func (h *Handler) handleGetTokenURI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseTokenID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	uri, err := h.resolver.Resolve(ctx, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, models.TokenURIResponse{TokenID: uint64(id), URI: uri})
}

func (h *Handler) handleSetTokenURI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, err := domain.ParseTokenID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req models.SetTokenURIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.registry.SetTokenURI(ctx, caller, id, req.URI); err != nil {
		h.logFailure(r, "set token uri failed", err)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTokensOf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := domain.ParsePrincipal(chi.URLParam(r, "principal"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	ids, err := h.registry.TokensOf(ctx, owner)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	raw := make([]uint64, len(ids))
	for i, id := range ids {
		raw[i] = uint64(id)
	}
	shared.WriteJSON(w, http.StatusOK, models.OwnedTokensResponse{
		Owner:    owner.String(),
		TokenIDs: raw,
	})
}

func (h *Handler) handleSupply(w http.ResponseWriter, r *http.Request) {
	supply, err := h.registry.TotalSupply(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, models.SupplyResponse{TotalSupply: supply})
}

func (h *Handler) handleCollection(w http.ResponseWriter, r *http.Request) {
	collection := h.registry.Collection()
	shared.WriteJSON(w, http.StatusOK, models.CollectionResponse{
		Name:   collection.Name,
		Symbol: collection.Symbol,
	})
}

func (h *Handler) handleGetBaseURI(w http.ResponseWriter, r *http.Request) {
	uri, err := h.registry.BaseURI(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, models.BaseURIResponse{BaseURI: uri})
}

func (h *Handler) handleSetBaseURI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.BaseURIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.registry.SetBaseURI(ctx, caller, req.BaseURI); err != nil {
		h.logFailure(r, "set base uri failed", err)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetPaused(w http.ResponseWriter, r *http.Request) {
	paused, err := h.registry.IsPaused(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, models.PausedResponse{Paused: paused})
}

func (h *Handler) handleSetPaused(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.PausedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.registry.SetPaused(ctx, caller, req.Paused); err != nil {
		h.logFailure(r, "set paused failed", err)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	h.handleRoleChange(w, r, h.registry.GrantRole)
}

func (h *Handler) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	h.handleRoleChange(w, r, h.registry.RevokeRole)
}

func (h *Handler) handleRoleChange(
	w http.ResponseWriter,
	r *http.Request,
	change func(ctx context.Context, caller domain.Principal, role models.Role, principal domain.Principal) error,
) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.RoleChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := change(ctx, caller, models.Role(req.Role), principalField(req.Principal)); err != nil {
		h.logFailure(r, "role change failed", err)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRolesOf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, err := domain.ParsePrincipal(chi.URLParam(r, "principal"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	roles, err := h.registry.RolesOf(ctx, principal)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	raw := make([]string, len(roles))
	for i, role := range roles {
		raw[i] = string(role)
	}
	shared.WriteJSON(w, http.StatusOK, models.RolesResponse{
		Principal: principal.String(),
		Roles:     raw,
	})
}

// caller extracts the authenticated principal set by the auth middleware.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == "" {
		// This should never happen if RequireAuth middleware is configured
		// correctly.
		h.logger.ErrorContext(r.Context(), "principal missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(r.Context()),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return domain.NullPrincipal, false
	}
	return domain.Principal(principal), true
}

func (h *Handler) logFailure(r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		return
	}
	h.logger.WarnContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
}

// principalField converts a request body field into a Principal without
// rejecting the null value; the service decides whether null is legal for
// the operation.
func principalField(raw string) domain.Principal {
	return domain.Principal(strings.TrimSpace(raw))
}
