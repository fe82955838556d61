// Package ports defines shared interfaces for the registry module.
// Interfaces are placed here when consumed by multiple services to avoid
// duplication. Stores report infrastructure facts via pkg/platform/sentinel
// errors; services translate those into domain errors.
package ports

import (
	"context"
	"log/slog"

	"mintgate/internal/audit"
	"mintgate/internal/platform/middleware"
	"mintgate/internal/registry/models"
	"mintgate/pkg/domain"
)

// TokenStore owns the identifier sequence and the ownership ledger so that a
// mint is a single atomic step: identifiers are allocated and ownership rows
// created together or not at all.
type TokenStore interface {
	// CreateTokens allocates len(owners) consecutive identifiers and records
	// ownership for each, in order. All-or-nothing: a failure leaves the
	// sequence and the ledger untouched. Returns sentinel.ErrExhausted when
	// the identifier range cannot cover the batch.
	CreateTokens(ctx context.Context, owners []domain.Principal) ([]domain.TokenID, error)

	// OwnerOf returns the current holder. sentinel.ErrNotFound for an
	// identifier that was never minted.
	OwnerOf(ctx context.Context, id domain.TokenID) (domain.Principal, error)

	// UpdateOwner moves a token to a new holder, keeping balance counters
	// consistent. sentinel.ErrNotFound for a never-minted identifier.
	UpdateOwner(ctx context.Context, id domain.TokenID, newOwner domain.Principal) error

	// TokensOf lists identifiers held by owner in ascending order.
	TokensOf(ctx context.Context, owner domain.Principal) ([]domain.TokenID, error)

	// BalanceOf counts tokens currently held by owner.
	BalanceOf(ctx context.Context, owner domain.Principal) (uint64, error)

	// TotalSupply is the count of mints ever performed.
	TotalSupply(ctx context.Context) (uint64, error)

	// URIOverride returns the per-token stored URI, empty if never set.
	// sentinel.ErrNotFound for a never-minted identifier.
	URIOverride(ctx context.Context, id domain.TokenID) (string, error)

	// SetURIOverride stores a per-token URI. sentinel.ErrNotFound for a
	// never-minted identifier.
	SetURIOverride(ctx context.Context, id domain.TokenID, uri string) error
}

// RoleStore holds role membership. Gating of Grant/Revoke is the service's
// responsibility; the store is a plain set.
type RoleStore interface {
	HasRole(ctx context.Context, role models.Role, principal domain.Principal) (bool, error)
	Grant(ctx context.Context, role models.Role, principal domain.Principal) error
	Revoke(ctx context.Context, role models.Role, principal domain.Principal) error
	RolesOf(ctx context.Context, principal domain.Principal) ([]models.Role, error)
}

// SettingsStore holds the mutable registry configuration: the global mint
// pause switch and the base metadata URI.
type SettingsStore interface {
	IsPaused(ctx context.Context) (bool, error)
	SetPaused(ctx context.Context, paused bool) error
	BaseURI(ctx context.Context) (string, error)
	SetBaseURI(ctx context.Context, uri string) error
}

// AuditPublisher emits audit events for security-relevant operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit is a shared helper for logging audit events across registry
// operations. It logs to both the structured logger and the audit publisher
// if available. Audit emission is best-effort and never fails the operation.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, action string, actor domain.Principal, tokenIDs []domain.TokenID, attrs ...any) {
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}

	args := append(attrs, "event", action, "actor", actor.String(), "log_type", "audit")

	if logger != nil {
		logger.InfoContext(ctx, action, args...)
	}

	if publisher == nil {
		return
	}

	ids := make([]uint64, len(tokenIDs))
	for i, id := range tokenIDs {
		ids[i] = uint64(id)
	}
	event := audit.Event{Actor: actor.String(), Action: action, TokenIDs: ids}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", action, "error", err)
	}
}
