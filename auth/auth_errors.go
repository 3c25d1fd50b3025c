package auth

import "errors"

var (
	InvalidCredentialsErr = errors.New("invalid credentials")
	MalformedResponseErr  = errors.New("malformed auth response")
	NoRefreshTokenErr     = errors.New("no refresh token available")
	RefreshRejectedErr    = errors.New("refresh token rejected")
)
