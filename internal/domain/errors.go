package domain

import "errors"

// Error classes surfaced at the HTTP boundary. Wrap them with fmt.Errorf("...: %w")
// and classify with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
