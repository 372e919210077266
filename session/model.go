package session

import "time"

// Record is a snapshot of the active token ids for one subject.
type Record struct {
	Subject string
	// Tokens maps token type to the active token id.
	Tokens map[string]string
	// TTL is the remaining key lifetime. Zero means the key has no expiry.
	TTL time.Duration
}

// Active reports the active id for tokenType.
func (r Record) Active(tokenType string) (string, bool) {
	id, ok := r.Tokens[tokenType]
	return id, ok
}

// Empty reports whether no token is active for the subject.
func (r Record) Empty() bool {
	return len(r.Tokens) == 0
}
