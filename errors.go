package refptr

import "github.com/refptr/refptr/internal/errors"

// ErrExpired is the distinguished dangling-reference condition: explicit
// promotion of an already-expired Weak (FromWeak) fails with an error that
// matches it under errors.Is. Lock never raises it; it degrades to a null
// Shared instead.
var ErrExpired error = errors.ExpiredReference("promotion")
