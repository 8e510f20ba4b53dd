package entity

import "errors"

var (
	// ErrNotFound is returned by the store when no row matches, including
	// a conditional bind that found no unbound row for the code.
	ErrNotFound = errors.New("member not found")
	// ErrDuplicateCode translates the storage-level unique key violation
	// on reference_code into a domain error.
	ErrDuplicateCode = errors.New("reference code already exists")
	// ErrJournalDisabled marks deployments that run without a redemption
	// journal, so the API can refuse journal reads explicitly.
	ErrJournalDisabled = errors.New("redemption journal not enabled")
)
