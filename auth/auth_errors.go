package auth

import (
	apperrors "github.com/hcplatform/portal-bff/internal/errors"
)

// Sentinel errors surfaced by the auth flow. Handlers map these onto HTTP
// status codes: state errors are client-correctable (400), exchange errors
// indicate provider failure or misconfiguration (500).
var (
	ErrStateMismatch = apperrors.ErrStateMismatch
	ErrInvalidState  = apperrors.ErrInvalidState
	ErrTokenExchange = apperrors.ErrTokenExchange
)
