package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionCache remembers which (user, session) pairs recently passed an
// ownership check, so hot conversation paths skip one lookup per request.
// Entries expire quickly to bound staleness across instances; deletes
// invalidate immediately on the instance that performed them.
type SessionCache struct {
	cache *cache.Cache
}

func NewSessionCache() *SessionCache {
	c := cache.New(5*time.Minute, 10*time.Minute)
	return &SessionCache{
		cache: c,
	}
}

func scopeKey(userId, sessionId uuid.UUID) string {
	return fmt.Sprintf("%s:%s", userId, sessionId)
}

func (r *SessionCache) MarkValid(userId, sessionId uuid.UUID) {
	r.cache.Set(scopeKey(userId, sessionId), true, cache.DefaultExpiration)
}

func (r *SessionCache) IsValid(userId, sessionId uuid.UUID) bool {
	_, found := r.cache.Get(scopeKey(userId, sessionId))
	return found
}

func (r *SessionCache) Invalidate(userId, sessionId uuid.UUID) {
	r.cache.Delete(scopeKey(userId, sessionId))
}
