package auth

import "errors"

var (
	// ErrInvalidToken covers malformed tokens, bad signatures, and wrong token types.
	ErrInvalidToken = errors.New("invalid authentication token")

	ErrExpiredToken = errors.New("authentication token has expired")

	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	ErrMissingToken = errors.New("authentication token is missing")

	// ErrInvalidState is returned when an OAuth callback carries a state that
	// was not issued by this server, expired, or belongs to another provider.
	ErrInvalidState = errors.New("invalid oauth state")

	ErrUnknownProvider = errors.New("unknown oauth provider")

	// ErrNoEmail means the provider did not disclose a verified email address.
	ErrNoEmail = errors.New("oauth provider returned no email")

	ErrOAuthExchange = errors.New("oauth code exchange failed")
)
