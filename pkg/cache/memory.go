package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type entry struct {
	key     string
	data    []byte
	expires time.Time
}

// MemoryCache is a bounded in-process LRU. Expired entries are dropped on
// read and by a periodic sweep.
type MemoryCache struct {
	mu    sync.Mutex
	opts  MemoryOptions
	order *list.List // front is most recently used
	items map[string]*list.Element
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func NewMemoryCache(opts MemoryOptions) *MemoryCache {
	fill(&opts)
	mc := &MemoryCache{
		opts:  opts,
		order: list.New(),
		items: make(map[string]*list.Element, opts.MaxEntries),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go mc.sweepLoop()
	return mc
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	el, ok := mc.items[key]
	if !ok {
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	e := el.Value.(*entry)
	if !mc.now().Before(e.expires) {
		mc.removeElement(el)
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	mc.order.MoveToFront(el)
	data := e.data
	mc.mu.Unlock()

	return decode(data, dest)
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = mc.opts.DefaultTTL
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	expires := mc.now().Add(ttl)
	if el, ok := mc.items[key]; ok {
		e := el.Value.(*entry)
		e.data, e.expires = data, expires
		mc.order.MoveToFront(el)
		return nil
	}
	for mc.order.Len() >= mc.opts.MaxEntries {
		mc.removeElement(mc.order.Back())
	}
	mc.items[key] = mc.order.PushFront(&entry{key: key, data: data, expires: expires})
	return nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, k := range keys {
		if el, ok := mc.items[k]; ok {
			mc.removeElement(el)
		}
	}
	return nil
}

// Len counts stored entries, including expired ones not yet swept.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.order.Len()
}

func (mc *MemoryCache) Close() error {
	mc.stopOnce.Do(func() { close(mc.stop) })
	return nil
}

// caller holds mu
func (mc *MemoryCache) removeElement(el *list.Element) {
	mc.order.Remove(el)
	delete(mc.items, el.Value.(*entry).key)
}

func (mc *MemoryCache) sweep() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	now := mc.now()
	for el := mc.order.Back(); el != nil; {
		prev := el.Prev()
		if !now.Before(el.Value.(*entry).expires) {
			mc.removeElement(el)
		}
		el = prev
	}
}

func (mc *MemoryCache) sweepLoop() {
	t := time.NewTicker(mc.opts.Sweep)
	defer t.Stop()
	for {
		select {
		case <-mc.stop:
			return
		case <-t.C:
			mc.sweep()
		}
	}
}
