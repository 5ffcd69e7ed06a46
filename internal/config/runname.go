package config

import "regexp"

var runNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// ValidRunName reports whether name can be used as one path component of a
// trace layout (an LLM or observation mode name): at most 64 characters of
// [A-Za-z0-9_.-], not starting with a separator or dot.
func ValidRunName(name string) bool {
	return runNameRe.MatchString(name)
}
