package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/me/mesas/pkg/model"
)

// SubscriptionStore keeps recipient id → push endpoints. Implementations
// must be safe for concurrent use.
type SubscriptionStore interface {
	// Add stores ep for recipient. It returns false if an endpoint with the
	// same URL was already present.
	Add(recipient string, ep model.Endpoint) bool
	// Remove deletes the endpoint with url. It returns false if absent.
	Remove(recipient, url string) bool
	// Endpoints returns a copy of recipient's endpoints.
	Endpoints(recipient string) []model.Endpoint
	// Recipients lists every recipient with at least one endpoint.
	Recipients() []string
}

// Registry is the in-memory SubscriptionStore. Entries live in a go-cache
// keyed by recipient id; the mutex makes read-modify-write sequences atomic.
type Registry struct {
	mu    sync.Mutex
	items *cache.Cache
	ttl   time.Duration
}

// NewRegistry creates an empty registry. A ttl of zero keeps subscriptions
// until they are removed; a positive ttl expires recipients that have not
// subscribed again within that window.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		return &Registry{items: cache.New(cache.NoExpiration, 0), ttl: cache.NoExpiration}
	}
	return &Registry{items: cache.New(ttl, ttl/2), ttl: ttl}
}

func (r *Registry) endpoints(recipient string) []model.Endpoint {
	if v, ok := r.items.Get(recipient); ok {
		return v.([]model.Endpoint)
	}
	return nil
}

func (r *Registry) Add(recipient string, ep model.Endpoint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.endpoints(recipient)
	for _, existing := range current {
		if existing.URL == ep.URL {
			r.items.Set(recipient, current, r.ttl)
			return false
		}
	}
	next := make([]model.Endpoint, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, ep)
	r.items.Set(recipient, next, r.ttl)
	return true
}

func (r *Registry) Remove(recipient, url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.endpoints(recipient)
	next := make([]model.Endpoint, 0, len(current))
	for _, existing := range current {
		if existing.URL != url {
			next = append(next, existing)
		}
	}
	if len(next) == len(current) {
		return false
	}
	if len(next) == 0 {
		r.items.Delete(recipient)
	} else {
		r.items.Set(recipient, next, r.ttl)
	}
	return true
}

func (r *Registry) Endpoints(recipient string) []model.Endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Endpoint(nil), r.endpoints(recipient)...)
}

func (r *Registry) Recipients() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.items.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
