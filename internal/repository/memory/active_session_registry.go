package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// ActiveSessionRegistry tracks which stored session a user's front end is
// currently talking to. It is deliberately NOT durable: entries expire and the
// registry starts empty after a restart, at which point the front end creates
// or reattaches a session. The durable record of conversations is the session
// store, never this registry.
type ActiveSessionRegistry struct {
	cache *cache.Cache
}

func NewActiveSessionRegistry() *ActiveSessionRegistry {
	// Hour-long idle expiry; an expired entry just means the next message
	// opens a fresh session.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &ActiveSessionRegistry{
		cache: c,
	}
}

func (r *ActiveSessionRegistry) Set(userId, sessionId string) {
	r.cache.Set(userId, sessionId, cache.DefaultExpiration)
}

func (r *ActiveSessionRegistry) Get(userId string) (string, bool) {
	if x, found := r.cache.Get(userId); found {
		return x.(string), true
	}
	return "", false
}

func (r *ActiveSessionRegistry) Clear(userId string) {
	r.cache.Delete(userId)
}
