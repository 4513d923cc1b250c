// Copyright 2016 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache provides NodeCache, a bounded read-through cache in front
// of any storage.Store. The teacher codebase caches whole log subtrees in
// front of its storage transactions; this tree has no subtree concept (it
// is node-addressed, not index-addressed), so the cache here holds
// individual node/value blobs instead, ordered by insertion sequence so
// the oldest entry can be evicted once the cache is full.
package cache

import (
	"context"
	"sync"

	"github.com/google/btree"

	"github.com/smtree/smt/storage"
)

// entry is a btree.Item ordering cached blobs by insertion sequence.
type entry struct {
	key   string
	value []byte
	seq   uint64
}

// Less orders entries by insertion sequence, so btree.Min always finds
// the least recently (re-)written entry to evict first.
func (e *entry) Less(than btree.Item) bool {
	return e.seq < than.(*entry).seq
}

// NodeCache wraps a storage.Store with a bounded read-through cache.
// Writes and removes go straight through to the backing store and update
// the cache; reads are served from the cache when possible. It is safe
// for concurrent use.
type NodeCache struct {
	backing storage.Store
	maxLen  int

	mu      sync.Mutex
	tree    *btree.BTree
	bykey   map[string]*entry
	nextSeq uint64
}

// NewNodeCache returns a NodeCache of at most maxLen entries in front of
// backing.
func NewNodeCache(backing storage.Store, maxLen int) *NodeCache {
	return &NodeCache{
		backing: backing,
		maxLen:  maxLen,
		tree:    btree.New(32),
		bykey:   make(map[string]*entry),
	}
}

func (c *NodeCache) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	k := string(key)

	c.mu.Lock()
	if e, ok := c.bykey[k]; ok {
		v := append([]byte(nil), e.value...)
		c.mu.Unlock()
		return v, true, nil
	}
	c.mu.Unlock()

	value, ok, err := c.backing.Get(ctx, key)
	if err != nil || !ok {
		return value, ok, err
	}
	c.put(k, value)
	return value, true, nil
}

func (c *NodeCache) Set(ctx context.Context, key []byte, value []byte) error {
	if err := c.backing.Set(ctx, key, value); err != nil {
		return err
	}
	c.put(string(key), value)
	return nil
}

func (c *NodeCache) Remove(ctx context.Context, key []byte) ([]byte, error) {
	old, err := c.backing.Remove(ctx, key)
	if err != nil {
		return nil, err
	}
	c.evict(string(key))
	return old, nil
}

func (c *NodeCache) Contains(ctx context.Context, key []byte) (bool, error) {
	c.mu.Lock()
	_, ok := c.bykey[string(key)]
	c.mu.Unlock()
	if ok {
		return true, nil
	}
	return c.backing.Contains(ctx, key)
}

func (c *NodeCache) put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.bykey[key]; ok {
		c.tree.Delete(old)
	}
	c.nextSeq++
	e := &entry{key: key, value: append([]byte(nil), value...), seq: c.nextSeq}
	c.bykey[key] = e
	c.tree.ReplaceOrInsert(e)

	for len(c.bykey) > c.maxLen {
		oldest := c.tree.Min()
		if oldest == nil {
			break
		}
		c.evictLocked(oldest.(*entry).key)
	}
}

func (c *NodeCache) evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(key)
}

func (c *NodeCache) evictLocked(key string) {
	e, ok := c.bykey[key]
	if !ok {
		return
	}
	delete(c.bykey, key)
	c.tree.Delete(e)
}

// Len reports the number of entries currently cached, for test assertions.
func (c *NodeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bykey)
}
