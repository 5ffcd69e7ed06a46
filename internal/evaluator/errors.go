package evaluator

import "errors"

// ErrInvalidRule is returned by New and Validate for malformed rules.
var ErrInvalidRule = errors.New("invalid evaluator rule")
