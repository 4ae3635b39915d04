package watermilldb

import (
	"sync"
	"time"

	"github.com/ark-network/oracle/internal/core/domain"
	gocache "github.com/patrickmn/go-cache"
)

// eventCache keeps the events of each resolver of a topic. Entries expire
// after ttl of inactivity, a zero ttl keeps them forever.
type eventCache struct {
	cache *gocache.Cache // id -> []domain.Event
	lock  *sync.Mutex
}

func newEventCache(ttl time.Duration) *eventCache {
	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = ttl / 2
	}
	return &eventCache{
		cache: gocache.New(expiration, cleanup),
		lock:  &sync.Mutex{},
	}
}

func (c *eventCache) add(id string, events []domain.Event) {
	c.lock.Lock()
	defer c.lock.Unlock()

	current := c.unsafeGet(id)
	all := make([]domain.Event, 0, len(current)+len(events))
	all = append(all, current...)
	all = append(all, events...)
	c.cache.SetDefault(id, all)
}

func (c *eventCache) get(id string) []domain.Event {
	c.lock.Lock()
	defer c.lock.Unlock()

	return append([]domain.Event{}, c.unsafeGet(id)...)
}

func (c *eventCache) unsafeGet(id string) []domain.Event {
	value, ok := c.cache.Get(id)
	if !ok {
		return nil
	}
	return value.([]domain.Event)
}
