package auth

import "errors"

var (
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("token type not accepted here")
)
