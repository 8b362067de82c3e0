package services

import "errors"

// Error taxonomy shared by the queue engine and its stores. Handlers map
// these onto HTTP status codes; everything else is a 500.
var (
	// ErrNotFound: item, stage or order absent (or item archived where an
	// active item is required).
	ErrNotFound = errors.New("registro não encontrado")

	// ErrInvalidState: a reconstruction precondition is violated, e.g. an
	// item with an empty event log.
	ErrInvalidState = errors.New("estado inválido")

	// ErrConflict: duplicate order link. The caller may retry with
	// forcar=true and the operation succeeds.
	ErrConflict = errors.New("conflito de vinculação")

	// ErrUnauthorized: mutating call without an acting user identity.
	ErrUnauthorized = errors.New("usuário não identificado")
)
