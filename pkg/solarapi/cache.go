package solarapi

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// responseCache keeps decoded responses by URL for a fixed TTL. A zero TTL
// disables it.
type responseCache struct {
	items *ttlcache.Cache[string, any]
}

func newResponseCache(ttl time.Duration) *responseCache {
	if ttl <= 0 {
		return &responseCache{}
	}
	return &responseCache{
		items: ttlcache.New(
			ttlcache.WithTTL[string, any](ttl),
			// a hit must not extend the entry
			ttlcache.WithDisableTouchOnHit[string, any](),
		),
	}
}

func (rc *responseCache) get(key string) (any, bool) {
	if rc.items == nil {
		return nil, false
	}
	item := rc.items.Get(key)
	if item == nil || item.IsExpired() {
		return nil, false
	}
	return item.Value(), true
}

func (rc *responseCache) put(key string, value any) {
	if rc.items == nil {
		return
	}
	rc.items.Set(key, value, ttlcache.DefaultTTL)
}
