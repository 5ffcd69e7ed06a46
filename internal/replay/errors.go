package replay

import "errors"

// ErrTraceShape is returned when the action, activity and snapshot logs of a
// trace directory cannot be aligned.
var ErrTraceShape = errors.New("invalid trace shape")
