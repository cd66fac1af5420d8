// Package sessions implements the session registry: the mapping of
// authenticated usernames to their peer endpoint.
//
// The peer endpoint is the system's only per-request identity. Resolve
// attributes an inbound control request to a user by source address alone;
// spoofing the endpoint spoofs the identity. This is the documented
// contract of the wire protocol and is deliberately not strengthened here.
package sessions

import (
	"sync"

	"forum/internal/common"
)

// SecretSource looks up a user's stored secret. Satisfied by the
// credential store.
type SecretSource interface {
	Lookup(name string) (string, error)
}

// LoginNext tells the client how a login attempt should proceed.
type LoginNext int

const (
	// LoginPasswordRequired means the username is known; AUTH must follow.
	LoginPasswordRequired LoginNext = iota + 1
	// LoginNewUser means the username is unknown; REGISTER must follow.
	LoginNewUser
)

// Registry binds each authenticated username to exactly one peer endpoint.
// All operations take one exclusive lock; reads and writes are not split
// because the table is small and contention is not a design target.
type Registry struct {
	mu      sync.Mutex
	active  map[string]string // username -> peer endpoint
	secrets SecretSource
}

func NewRegistry(secrets SecretSource) *Registry {
	return &Registry{
		active:  make(map[string]string),
		secrets: secrets,
	}
}

// BeginLogin reports how a login for name from peer should proceed. When
// name is already bound to a different endpoint it returns
// common.ErrConflict along with the existing endpoint.
func (r *Registry) BeginLogin(name, peer string) (LoginNext, string, error) {
	if name == "" {
		return 0, "", common.ErrInvalidName
	}

	r.mu.Lock()
	if existing, ok := r.active[name]; ok && existing != peer {
		r.mu.Unlock()
		return 0, existing, common.ErrConflict
	}
	r.mu.Unlock()

	if _, err := r.secrets.Lookup(name); err != nil {
		return LoginNewUser, "", nil
	}
	return LoginPasswordRequired, "", nil
}

// Authenticate binds name to peer if secret matches the stored one.
// The secret check comes first, so a wrong password is reported even for a
// user who is active elsewhere. Re-binding from the same peer is idempotent.
func (r *Registry) Authenticate(name, secret, peer string) error {
	stored, err := r.secrets.Lookup(name)
	if err != nil || stored != secret {
		return common.ErrInvalidSecret
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.active[name]; ok && existing != peer {
		return common.ErrConflict
	}
	r.active[name] = peer
	return nil
}

// Bind associates name with peer without a secret check. Used by the
// registration path, which has just created the credentials.
func (r *Registry) Bind(name, peer string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[name] = peer
}

// End unbinds name. Returns common.ErrNotFound if no session exists.
func (r *Registry) End(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[name]; !ok {
		return common.ErrNotFound
	}
	delete(r.active, name)
	return nil
}

// Resolve returns the username bound to peer, if any.
func (r *Registry) Resolve(peer string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, addr := range r.active {
		if addr == peer {
			return name, true
		}
	}
	return "", false
}
