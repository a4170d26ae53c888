// Package indexcache memoizes hash indices per image for one matching job.
//
// Every image's index is built at most once, even when many pair matches
// request it concurrently. Built indices are charged to a resource
// controller's memory budget until the cache is closed.
package indexcache

import (
	"context"
	"encoding/binary"
	"errors"
	"hash/maphash"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/cascade/internal/hasher"
	"github.com/hupe1980/cascade/model"
	"github.com/hupe1980/cascade/resource"
)

const numShards = 64

// ErrClosed is returned by GetOrBuild after Close.
var ErrClosed = errors.New("index cache closed")

// BuildFunc builds the index of one image.
type BuildFunc func(ctx context.Context, id model.ImageID) (*hasher.Index, error)

type shard struct {
	mu      sync.RWMutex
	entries map[model.ImageID]*hasher.Index
	group   singleflight.Group
}

// Cache is a sharded, build-once map from image id to hash index.
type Cache struct {
	shards [numShards]*shard
	seed   maphash.Seed
	build  BuildFunc
	rc     *resource.Controller

	bytes  atomic.Int64
	count  atomic.Int64
	builds atomic.Int64
	closed atomic.Bool
}

// New creates a cache that builds missing indices with build and charges
// their memory to rc (which may be nil).
func New(build BuildFunc, rc *resource.Controller) *Cache {
	c := &Cache{
		seed:  maphash.MakeSeed(),
		build: build,
		rc:    rc,
	}
	for i := range numShards {
		c.shards[i] = &shard{entries: make(map[model.ImageID]*hasher.Index)}
	}
	return c
}

func (c *Cache) shard(id model.ImageID) *shard {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(id))
	return c.shards[maphash.Bytes(c.seed, buf[:])%numShards]
}

// Get returns a cached index without building it.
func (c *Cache) Get(id model.ImageID) (*hasher.Index, bool) {
	s := c.shard(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	x, ok := s.entries[id]
	return x, ok
}

// GetOrBuild returns the index of id, building it on first use.
// Concurrent callers for the same id share one build.
func (c *Cache) GetOrBuild(ctx context.Context, id model.ImageID) (*hasher.Index, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if x, ok := c.Get(id); ok {
		return x, nil
	}

	s := c.shard(id)
	v, err, _ := s.group.Do(strconv.FormatUint(uint64(id), 10), func() (any, error) {
		// A build for id may have completed between the lookup and Do.
		if x, ok := c.Get(id); ok {
			return x, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		x, err := c.build(ctx, id)
		if err != nil {
			return nil, err
		}
		c.builds.Add(1)

		size := x.SizeBytes()
		if err := c.rc.AcquireMemory(size); err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.entries[id] = x
		s.mu.Unlock()

		c.bytes.Add(size)
		c.count.Add(1)
		return x, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*hasher.Index), nil
}

// Len returns the number of cached indices.
func (c *Cache) Len() int {
	return int(c.count.Load())
}

// Bytes returns the memory held by cached indices.
func (c *Cache) Bytes() int64 {
	return c.bytes.Load()
}

// Builds returns the number of completed builds.
func (c *Cache) Builds() int64 {
	return c.builds.Load()
}

// Close drops every cached index and releases its memory.
func (c *Cache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	for _, s := range c.shards {
		s.mu.Lock()
		for id, x := range s.entries {
			c.rc.ReleaseMemory(x.SizeBytes())
			delete(s.entries, id)
		}
		s.mu.Unlock()
	}
	c.bytes.Store(0)
	c.count.Store(0)
	return nil
}
