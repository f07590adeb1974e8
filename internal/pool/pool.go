// Package pool tracks which players are currently available. It is a plain
// presence set, decoupled from matchmaking; clients use the count to decide
// whether a human opponent is plausible right now.
package pool

import (
	"sync"

	"github.com/neo/turring_backend/internal/commit"
	"github.com/neo/turring_backend/internal/logging"
)

// Registry is a thread-safe set of presence tokens.
type Registry struct {
	mu     sync.Mutex
	tokens map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tokens: make(map[string]struct{})}
}

// Count returns how many tokens are currently present.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// Join adds a token to the pool, minting one when none is given. Joining
// with an existing token is a no-op; the same token is returned either way.
func (r *Registry) Join(token string) string {
	if token == "" {
		token = commit.RandomToken(8)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; !ok {
		r.tokens[token] = struct{}{}
		logging.Debug("pool join", map[string]interface{}{"token": token, "count": len(r.tokens)})
	}
	return token
}

// Leave removes a token from the pool. Unknown tokens are ignored.
func (r *Registry) Leave(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; ok {
		delete(r.tokens, token)
		logging.Debug("pool leave", map[string]interface{}{"token": token, "count": len(r.tokens)})
	}
}
