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

// Package storage defines the content-addressed store contract the tree
// engine is built against (spec §4.3), plus a handful of concrete
// implementations in its subpackages. The tree never talks to a backend
// directly; every call goes through this interface.
package storage

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned by Remove when the key is absent, and may be
// wrapped by backend-specific errors returned from Get.
var ErrNotFound = errors.New("storage: key not found")

// Store is a content-addressed key/value store. Keys are digests (or
// namespaced digests, see NamespaceKey); values are opaque byte blobs.
// Implementations are injected into merkle.Tree at construction and are
// the tree's only shared resource (spec §5).
type Store interface {
	// Get returns the value for key, and ok=false (not an error) if the
	// key is absent.
	Get(ctx context.Context, key []byte) (value []byte, ok bool, err error)

	// Set stores value under key, overwriting any existing value.
	Set(ctx context.Context, key []byte, value []byte) error

	// Remove deletes key and returns its former value. It returns
	// ErrNotFound if key was absent.
	Remove(ctx context.Context, key []byte) ([]byte, error)

	// Contains reports whether key is present, without fetching its value.
	Contains(ctx context.Context, key []byte) (bool, error)
}

// Namespace byte prefixes, see SPEC_FULL.md §D (value storage namespace).
const (
	// NamespaceNode prefixes keys for node encodings (leaf/inner blobs).
	NamespaceNode byte = 'n'
	// NamespaceValue prefixes keys for raw value blobs, keyed by H(v).
	NamespaceValue byte = 'v'
)

// NamespaceKey prepends a one-byte namespace tag to key, so node
// encodings and raw value blobs never collide in a shared backend even
// though both are keyed by a digest of the same width.
func NamespaceKey(ns byte, key []byte) []byte {
	out := make([]byte, 0, len(key)+1)
	out = append(out, ns)
	out = append(out, key...)
	return out
}

// BatchGet fetches keys concurrently via store.Get, preserving input
// order in the returned slice. It is used by Tree.ProveMany
// (SPEC_FULL.md §B.4); it never mutates tree
// state, so concurrent use alongside a single in-flight Update is safe
// as long as the backing Store itself tolerates concurrent reads.
func BatchGet(ctx context.Context, store Store, keys [][]byte) ([][]byte, []bool, error) {
	values := make([][]byte, len(keys))
	oks := make([]bool, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			v, ok, err := store.Get(gctx, key)
			if err != nil {
				return err
			}
			values[i] = v
			oks[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return values, oks, nil
}
