package server

import (
	"fmt"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/patrickmn/go-cache"

	v1 "github.com/taskalign/taskalign/pkg/apis/v1"
)

// responseCache memoizes responses for explicitly seeded requests. The
// solver is deterministic given input plus seed, so serving a cached
// response is indistinguishable from re-solving. Unseeded requests derive
// their seed from the clock and are never cached.
type responseCache struct {
	store *cache.Cache
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{store: cache.New(ttl, 2*ttl)}
}

// key hashes the full request. The second return is false when the
// request is not cacheable.
func (c *responseCache) key(req *v1.ScheduleRequest) (string, bool) {
	if req.Seed == nil {
		return "", false
	}
	hash, err := hashstructure.Hash(req, hashstructure.FormatV2, nil)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%016x", hash), true
}

func (c *responseCache) get(key string) (*v1.ScheduleResponse, bool) {
	if v, ok := c.store.Get(key); ok {
		return v.(*v1.ScheduleResponse), true
	}
	return nil, false
}

func (c *responseCache) set(key string, resp *v1.ScheduleResponse) {
	c.store.SetDefault(key, resp)
}
