package registry

import (
	"time"

	"github.com/monopub/engine/internal/cache"
)

// connCache wraps the generic TTL+LRU cache to memoize ValidateConnection's
// who-am-I result per registry URL for the lifetime of a pipeline run, so
// precheck and the pipeline's own preflight don't double up on network calls.
type connCache struct {
	c *cache.Cache
}

func newConnCache() *connCache {
	return &connCache{c: cache.New(32, 2*time.Minute)}
}

func (cc *connCache) get(registryURL string) (string, bool) {
	v, ok := cc.c.Get(registryURL)
	if !ok {
		return "", false
	}
	user, ok := v.(string)
	return user, ok
}

func (cc *connCache) set(registryURL, user string) {
	cc.c.Set(registryURL, user, 0)
}
