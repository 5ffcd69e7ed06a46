package hierarchy

import "errors"

// ErrParse is returned when a bounds string or a hierarchy document is malformed.
// A trace with unparseable geometry cannot be scored.
var ErrParse = errors.New("hierarchy parse error")
