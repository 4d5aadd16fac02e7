package models

import (
	"errors"
)

var (
	ErrMissingAPIKey = errors.New("missing api key")
	ErrInvalidConfig = errors.New("invalid configuration")

	ErrUpstreamUnreachable = errors.New("no response received from upstream")
)
