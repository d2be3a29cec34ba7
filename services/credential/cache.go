package credential

import (
	"context"
	"sync"

	"travelops-dispatch/services/funnel"
)

// resolveFunc lets the cache sit on top of anything with Resolve semantics.
type resolveFunc func(ctx context.Context, ref TenantRef, channel funnel.Channel) (*MessagingCredential, error)

type cacheKey struct {
	kind    TenantKind
	id      string
	channel funnel.Channel
}

type cacheEntry struct {
	cred *MessagingCredential
	err  error
}

// CycleCache memoizes credential lookups for the duration of one dispatch
// cycle. Many tasks in a cycle share a tenant, so the same lookup would
// otherwise run once per task. The cache also remembers unavailability.
// It must be discarded at the end of the cycle: credentials can change
// between polls.
type CycleCache struct {
	mu      sync.Mutex
	resolve resolveFunc
	entries map[cacheKey]cacheEntry
}

// CycleCache returns a fresh cache bound to this resolver. Safe for use from
// concurrent workers within the same cycle.
func (r *Resolver) CycleCache() *CycleCache {
	return &CycleCache{
		resolve: r.Resolve,
		entries: make(map[cacheKey]cacheEntry),
	}
}

func (c *CycleCache) Resolve(ctx context.Context, ref TenantRef, channel funnel.Channel) (*MessagingCredential, error) {
	key := cacheKey{kind: ref.Kind, id: ref.ID, channel: channel}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return e.cred, e.err
	}
	c.mu.Unlock()

	cred, err := c.resolve(ctx, ref, channel)

	c.mu.Lock()
	c.entries[key] = cacheEntry{cred: cred, err: err}
	c.mu.Unlock()

	return cred, err
}
