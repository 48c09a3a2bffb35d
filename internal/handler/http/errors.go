package http

import "errors"

var (
	errInvalidQuery = errors.New("invalid query parameter")
	errInvalidBody  = errors.New("invalid request body")
)
