// Package domain holds the typed identifiers shared across the registry.
// Parsing lives here so trust boundaries (HTTP, JWT claims) reject malformed
// identities before they reach business logic.
package domain

import (
	"strconv"
	"strings"

	dErrors "mintgate/pkg/domain-errors"
)

// Principal identifies an external account capable of holding tokens and
// roles. The zero value is the reserved null principal: it must never hold a
// token or be the target of a role grant.
type Principal string

// NullPrincipal is the reserved sentinel identity.
const NullPrincipal Principal = ""

// ParsePrincipal validates an externally supplied principal string.
func ParsePrincipal(s string) (Principal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return NullPrincipal, dErrors.New(dErrors.CodeInvalidInput, "principal must not be empty")
	}
	return Principal(trimmed), nil
}

// IsNull reports whether p is the reserved null principal.
func (p Principal) IsNull() bool {
	return p == NullPrincipal
}

func (p Principal) String() string {
	return string(p)
}

// TokenID is the unique sequential handle of a minted item. Valid identifiers
// start at 1; zero means "never minted".
type TokenID uint64

// ParseTokenID validates an externally supplied identifier string.
func ParseTokenID(s string) (TokenID, error) {
	raw, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "token id must be a positive integer")
	}
	if raw == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "token id 0 is never assigned")
	}
	return TokenID(raw), nil
}

// IsZero reports whether the identifier is outside the assigned range.
func (id TokenID) IsZero() bool {
	return id == 0
}

func (id TokenID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
