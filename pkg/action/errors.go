package action

import "errors"

var (
	// ErrConstruction is returned when an action is built without the payload its type requires.
	ErrConstruction = errors.New("invalid action")
	// ErrActionParse is returned when an agent action string does not follow the grammar.
	ErrActionParse = errors.New("action parse error")
)
