package directory

import (
	"context"
	"errors"
	"sync"

	"github.com/seedkit/seedauth/permission"
)

// ErrInvalidBan is returned by Put for bans that name both or neither of a role and
// an ability.
var ErrInvalidBan = errors.New("directory: ban must name exactly one role or ability")

// Memory is a concurrency-safe in-process directory.
type Memory struct {
	mu    sync.RWMutex
	users map[string]permission.Identity
}

// NewMemory returns an empty Memory directory.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]permission.Identity)}
}

// Put stores id under id.Subject, replacing any previous identity.
func (m *Memory) Put(id permission.Identity) error {
	if id.Subject == "" {
		return errors.New("directory: subject required")
	}
	for _, b := range id.Bans {
		if !b.Valid() {
			return ErrInvalidBan
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id.Subject] = cloneIdentity(id)
	return nil
}

// Delete removes subject. Unknown subjects are ignored.
func (m *Memory) Delete(subject string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, subject)
}

// Lookup returns a copy of the stored identity, or nil for unknown subjects.
func (m *Memory) Lookup(_ context.Context, subject string) (*permission.Identity, error) {
	m.mu.RLock()
	id, ok := m.users[subject]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	out := cloneIdentity(id)
	return &out, nil
}

func cloneIdentity(id permission.Identity) permission.Identity {
	out := id
	out.Roles = make([]permission.Role, len(id.Roles))
	for i, r := range id.Roles {
		out.Roles[i] = permission.Role{Name: r.Name, Abilities: append([]string(nil), r.Abilities...)}
	}
	out.Bans = make([]permission.Ban, len(id.Bans))
	for i, b := range id.Bans {
		out.Bans[i] = b
		if b.UntilAt != nil {
			until := *b.UntilAt
			out.Bans[i].UntilAt = &until
		}
	}
	return out
}
