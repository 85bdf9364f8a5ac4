package domain

import "errors"

// Sentinel errors used for domain-level discrimination. Services wrap these
// with context so the HTTP layer can pick a status code via errors.Is
// without inspecting infrastructure errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)
