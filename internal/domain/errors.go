package domain

import "errors"

// Sentinel errors for the storefront core. Services wrap these with
// fmt.Errorf("%w: detail", ...) and the HTTP layer maps them to status codes.
var (
	ErrValidation          = errors.New("validation")           // 400
	ErrNotFound            = errors.New("not found")            // 404
	ErrInsufficientCredits = errors.New("insufficient credits") // 400
	ErrVariantUnavailable  = errors.New("variant unavailable")  // 400
	ErrInvalidTransition   = errors.New("invalid transition")   // 409
	ErrConflict            = errors.New("conflict")             // 409
)
