package lifecycle

// KeyState is the error key used when an action is not defined for the
// participant's current state.
const KeyState = "state"

// Errors maps a field or guard key to the human-readable messages collected
// during the most recent transition attempt. A successful attempt yields an
// empty map; a failed one carries exactly one entry per failed guard.
type Errors map[string][]string

// Add records a message under key.
func (e Errors) Add(key, msg string) {
	e[key] = append(e[key], msg)
}

// Any reports whether at least one error was recorded.
func (e Errors) Any() bool {
	return len(e) > 0
}

// Has reports whether any message was recorded under key.
func (e Errors) Has(key string) bool {
	return len(e[key]) > 0
}

// On returns the messages recorded under key.
func (e Errors) On(key string) []string {
	return e[key]
}

// Keys returns every key that has at least one message.
func (e Errors) Keys() []string {
	keys := make([]string, 0, len(e))
	for key := range e {
		keys = append(keys, key)
	}
	return keys
}
