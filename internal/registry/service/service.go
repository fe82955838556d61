// Package service implements the registry's mutation and query operations:
// minting, transfers, role administration, and configuration. Every gated
// operation checks the caller's role first, and every precondition is
// validated before any state is touched, so a failed operation never consumes
// an identifier and never leaves partial state behind.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	regmetrics "mintgate/internal/registry/metrics"
	"mintgate/internal/registry/models"
	"mintgate/internal/registry/ports"
	"mintgate/pkg/domain"
	dErrors "mintgate/pkg/domain-errors"
	"mintgate/pkg/platform/sentinel"
)

// Type aliases for shared interfaces.
type (
	TokenStore     = ports.TokenStore
	RoleStore      = ports.RoleStore
	SettingsStore  = ports.SettingsStore
	AuditPublisher = ports.AuditPublisher
)

// CacheInvalidator drops derived metadata caches after a configuration
// change so resolve never serves a stale base URI.
type CacheInvalidator interface {
	InvalidateURIs(ctx context.Context) error
}

type Service struct {
	tokens         TokenStore
	roles          RoleStore
	settings       SettingsStore
	collection     models.Collection
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *regmetrics.Metrics
	invalidator    CacheInvalidator
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *regmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithCacheInvalidator(inv CacheInvalidator) Option {
	return func(s *Service) {
		s.invalidator = inv
	}
}

func New(tokens TokenStore, roles RoleStore, settings SettingsStore, collection models.Collection, opts ...Option) (*Service, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token store is required")
	}
	if roles == nil {
		return nil, fmt.Errorf("role store is required")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings store is required")
	}

	svc := &Service{
		tokens:     tokens,
		roles:      roles,
		settings:   settings,
		collection: collection,
		tracer:     otel.Tracer("mintgate/registry"),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Bootstrap grants all roles to the constructing principal. Called once at
// startup; granting is idempotent so restarts are safe.
func (s *Service) Bootstrap(ctx context.Context, principal domain.Principal) error {
	if principal.IsNull() {
		return dErrors.New(dErrors.CodeInvalidInput, "bootstrap principal must not be null")
	}
	for _, role := range models.AllRoles() {
		if err := s.roles.Grant(ctx, role, principal); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed bootstrap roles")
		}
	}
	return nil
}

// Collection returns the opaque name/symbol labels given at construction.
func (s *Service) Collection() models.Collection {
	return s.collection
}

// Mint allocates one identifier and assigns initial ownership. Precondition
// order is fixed: minter role, pause switch, recipient - first failure wins.
func (s *Service) Mint(ctx context.Context, caller, to domain.Principal) (domain.TokenID, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Mint",
		trace.WithAttributes(attribute.String("recipient", to.String())))
	defer span.End()

	if err := s.checkMintPreconditions(ctx, caller); err != nil {
		return 0, err
	}
	if to.IsNull() {
		s.countMintFailure("invalid_recipient")
		return 0, dErrors.New(dErrors.CodeInvalidRecipient, "recipient must not be the null principal")
	}

	ids, err := s.tokens.CreateTokens(ctx, []domain.Principal{to})
	if err != nil {
		return 0, s.translateMintError(err)
	}

	if s.metrics != nil {
		s.metrics.AddMints(1)
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, "token_minted", caller, ids,
		"recipient", to.String(),
	)
	return ids[0], nil
}

// BatchMint allocates consecutive identifiers for each recipient, in order.
// Every precondition - role, pause, non-empty batch, and each recipient - is
// validated before the first allocation, so the batch is all-or-nothing.
func (s *Service) BatchMint(ctx context.Context, caller domain.Principal, recipients []domain.Principal) ([]domain.TokenID, error) {
	ctx, span := s.tracer.Start(ctx, "registry.BatchMint",
		trace.WithAttributes(attribute.Int("batch_size", len(recipients))))
	defer span.End()

	if err := s.checkMintPreconditions(ctx, caller); err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		s.countMintFailure("empty_batch")
		return nil, dErrors.New(dErrors.CodeEmptyBatch, "batch must contain at least one recipient")
	}
	for i, recipient := range recipients {
		if recipient.IsNull() {
			s.countMintFailure("invalid_recipient")
			return nil, dErrors.New(dErrors.CodeInvalidRecipient,
				fmt.Sprintf("recipient at index %d is the null principal", i))
		}
	}

	ids, err := s.tokens.CreateTokens(ctx, recipients)
	if err != nil {
		return nil, s.translateMintError(err)
	}

	if s.metrics != nil {
		s.metrics.AddMints(len(ids))
		s.metrics.ObserveBatchSize(len(ids))
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, "tokens_batch_minted", caller, ids,
		"batch_size", len(ids),
	)
	return ids, nil
}

// Transfer moves a token to a new holder. Only the current owner may
// transfer; the pause switch does not apply.
func (s *Service) Transfer(ctx context.Context, caller domain.Principal, id domain.TokenID, to domain.Principal) error {
	ctx, span := s.tracer.Start(ctx, "registry.Transfer",
		trace.WithAttributes(attribute.Int64("token_id", int64(id))))
	defer span.End()

	owner, err := s.tokens.OwnerOf(ctx, id)
	if err != nil {
		return s.translateLookupError(err)
	}
	if caller != owner {
		return dErrors.New(dErrors.CodeUnauthorized, "only the current owner may transfer")
	}
	if to.IsNull() {
		return dErrors.New(dErrors.CodeInvalidRecipient, "recipient must not be the null principal")
	}

	if err := s.tokens.UpdateOwner(ctx, id, to); err != nil {
		return s.translateLookupError(err)
	}

	if s.metrics != nil {
		s.metrics.IncrementTransfers()
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, "token_transferred", caller, []domain.TokenID{id},
		"from", owner.String(),
		"to", to.String(),
	)
	return nil
}

// OwnerOf returns the current holder of a token.
func (s *Service) OwnerOf(ctx context.Context, id domain.TokenID) (domain.Principal, error) {
	owner, err := s.tokens.OwnerOf(ctx, id)
	if err != nil {
		return domain.NullPrincipal, s.translateLookupError(err)
	}
	return owner, nil
}

// TokensOf lists identifiers held by owner in ascending order. Querying an
// unknown owner is not an error; it returns an empty list.
func (s *Service) TokensOf(ctx context.Context, owner domain.Principal) ([]domain.TokenID, error) {
	ids, err := s.tokens.TokensOf(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tokens")
	}
	return ids, nil
}

// BalanceOf counts tokens currently held by owner.
func (s *Service) BalanceOf(ctx context.Context, owner domain.Principal) (uint64, error) {
	balance, err := s.tokens.BalanceOf(ctx, owner)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
	}
	return balance, nil
}

// TotalSupply is the count of mints ever performed. Nothing is ever burned,
// so this equals the highest allocated identifier.
func (s *Service) TotalSupply(ctx context.Context) (uint64, error) {
	supply, err := s.tokens.TotalSupply(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read supply")
	}
	return supply, nil
}

// GrantRole adds a principal to a role. SuperAdmin only.
func (s *Service) GrantRole(ctx context.Context, caller domain.Principal, role models.Role, principal domain.Principal) error {
	if err := s.requireRole(ctx, models.RoleSuperAdmin, caller); err != nil {
		return err
	}
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown role %q", role))
	}
	if principal.IsNull() {
		return dErrors.New(dErrors.CodeInvalidInput, "cannot grant a role to the null principal")
	}

	if err := s.roles.Grant(ctx, role, principal); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant role")
	}

	if s.metrics != nil {
		s.metrics.IncrementRoleChanges("grant")
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, "role_granted", caller, nil,
		"role", string(role),
		"principal", principal.String(),
	)
	return nil
}

// RevokeRole removes a principal from a role. SuperAdmin only. There is no
// self-revocation guard: a SuperAdmin can revoke its own SuperAdmin role and
// lock out administration.
func (s *Service) RevokeRole(ctx context.Context, caller domain.Principal, role models.Role, principal domain.Principal) error {
	if err := s.requireRole(ctx, models.RoleSuperAdmin, caller); err != nil {
		return err
	}
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown role %q", role))
	}

	if err := s.roles.Revoke(ctx, role, principal); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke role")
	}

	if s.metrics != nil {
		s.metrics.IncrementRoleChanges("revoke")
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, "role_revoked", caller, nil,
		"role", string(role),
		"principal", principal.String(),
	)
	return nil
}

// RolesOf lists the roles held by a principal. Pure read, never fails on an
// unknown principal.
func (s *Service) RolesOf(ctx context.Context, principal domain.Principal) ([]models.Role, error) {
	roles, err := s.roles.RolesOf(ctx, principal)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list roles")
	}
	return roles, nil
}

// HasRole answers a single membership query.
func (s *Service) HasRole(ctx context.Context, role models.Role, principal domain.Principal) (bool, error) {
	ok, err := s.roles.HasRole(ctx, role, principal)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check role")
	}
	return ok, nil
}

// SetPaused flips the global mint pause switch. Admin only. The switch gates
// minting exclusively; transfers, role changes, and reads are unaffected.
func (s *Service) SetPaused(ctx context.Context, caller domain.Principal, paused bool) error {
	if err := s.requireRole(ctx, models.RoleAdmin, caller); err != nil {
		return err
	}
	if err := s.settings.SetPaused(ctx, paused); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set pause flag")
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, "minting_pause_set", caller, nil,
		"paused", paused,
	)
	return nil
}

// IsPaused reports the pause switch state.
func (s *Service) IsPaused(ctx context.Context) (bool, error) {
	paused, err := s.settings.IsPaused(ctx)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read pause flag")
	}
	return paused, nil
}

// SetBaseURI replaces the global base URI. Admin only. No well-formedness
// validation is performed; an empty string clears the base and re-enables
// per-token overrides.
func (s *Service) SetBaseURI(ctx context.Context, caller domain.Principal, uri string) error {
	if err := s.requireRole(ctx, models.RoleAdmin, caller); err != nil {
		return err
	}
	if err := s.settings.SetBaseURI(ctx, uri); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set base uri")
	}
	s.invalidateURIs(ctx)
	ports.LogAudit(ctx, s.logger, s.auditPublisher, "base_uri_set", caller, nil,
		"base_uri", uri,
	)
	return nil
}

// BaseURI returns the global base URI, empty if unset.
func (s *Service) BaseURI(ctx context.Context) (string, error) {
	uri, err := s.settings.BaseURI(ctx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read base uri")
	}
	return uri, nil
}

// SetTokenURI stores a per-token URI override. Admin only. The override is
// only visible while no base URI is configured.
func (s *Service) SetTokenURI(ctx context.Context, caller domain.Principal, id domain.TokenID, uri string) error {
	if err := s.requireRole(ctx, models.RoleAdmin, caller); err != nil {
		return err
	}
	if err := s.tokens.SetURIOverride(ctx, id, uri); err != nil {
		return s.translateLookupError(err)
	}
	s.invalidateURIs(ctx)
	ports.LogAudit(ctx, s.logger, s.auditPublisher, "token_uri_set", caller, []domain.TokenID{id},
		"uri", uri,
	)
	return nil
}

// checkMintPreconditions enforces the shared mint gate order: minter role
// first, then the pause switch.
func (s *Service) checkMintPreconditions(ctx context.Context, caller domain.Principal) error {
	if err := s.requireRole(ctx, models.RoleMinter, caller); err != nil {
		s.countMintFailure("unauthorized")
		return err
	}
	paused, err := s.settings.IsPaused(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read pause flag")
	}
	if paused {
		s.countMintFailure("minting_paused")
		return dErrors.New(dErrors.CodeMintingPaused, "minting is paused")
	}
	return nil
}

func (s *Service) requireRole(ctx context.Context, role models.Role, caller domain.Principal) error {
	ok, err := s.roles.HasRole(ctx, role, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check role")
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, fmt.Sprintf("caller lacks the %s role", role))
	}
	return nil
}

func (s *Service) translateMintError(err error) error {
	if errors.Is(err, sentinel.ErrExhausted) {
		s.countMintFailure("exhausted")
		return dErrors.Wrap(err, dErrors.CodeExhausted, "identifier space exhausted")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint")
}

func (s *Service) translateLookupError(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "token was never minted")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "token lookup failed")
}

func (s *Service) countMintFailure(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementMintFailures(reason)
	}
}

func (s *Service) invalidateURIs(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateURIs(ctx); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to invalidate uri cache", "error", err)
	}
}
