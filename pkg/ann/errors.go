package ann

import "errors"

// ErrDimensionMismatch is returned when a vector's length does not match
// the index's configured dimensionality.
var ErrDimensionMismatch = errors.New("ann: vector dimension mismatch")
