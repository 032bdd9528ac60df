package schedule

import "errors"

var (
	ErrMalformedDocument = errors.New("malformed schedule document")
	ErrUnexpectedStatus  = errors.New("unexpected schedule response status")
)
