package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing trip name, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when the acting principal is not allowed to
// perform an operation — e.g. a share member trying to edit or delete a
// trip it does not own. Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrAuthentication is returned when no valid session is present or a
// provider token cannot be verified. Handlers should map this to HTTP 401.
var ErrAuthentication = errors.New("authentication required")
