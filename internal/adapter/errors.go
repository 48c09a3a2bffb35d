package adapter

import "errors"

var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrRateLimited         = errors.New("rate limited")
	ErrInternalServerError = errors.New("internal server error")
	ErrServerUnavailable   = errors.New("homeserver unavailable")
	ErrUnexpectedStatus    = errors.New("unexpected http status")
	ErrInvalidBaseURL      = errors.New("invalid homeserver url")
	ErrDecodingResponse    = errors.New("error decoding response")
)
