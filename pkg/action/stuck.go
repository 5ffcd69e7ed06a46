package action

// stuckWindow is how many identical trailing actions mark an agent as stuck.
const stuckWindow = 3

// IsStuck returns true when the last three actions are equal.
func IsStuck(actions []Action) bool {
	if len(actions) < stuckWindow {
		return false
	}
	tail := actions[len(actions)-stuckWindow:]
	for _, a := range tail[1:] {
		if !Equal(tail[0], a) {
			return false
		}
	}
	return true
}
