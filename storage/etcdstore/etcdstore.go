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

// Package etcdstore is a storage.Store over an etcd cluster via
// go.etcd.io/etcd/client/v3, for deployments that already run etcd for
// coordination and want the tree's node store co-located with it.
package etcdstore

import (
	"context"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/smtree/smt/storage"
)

// Store wraps a *clientv3.Client. Keys are stored under prefix to keep
// the tree's node/value namespace out of the way of other etcd users of
// the same cluster.
type Store struct {
	client *clientv3.Client
	prefix string
}

// New wraps an already-constructed client, namespacing all keys under
// prefix.
func New(client *clientv3.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) fullKey(key []byte) string {
	return s.prefix + string(key)
}

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	resp, err := s.client.Get(ctx, s.fullKey(key))
	if err != nil {
		return nil, false, err
	}
	if len(resp.Kvs) == 0 {
		return nil, false, nil
	}
	return resp.Kvs[0].Value, true, nil
}

func (s *Store) Set(ctx context.Context, key []byte, value []byte) error {
	_, err := s.client.Put(ctx, s.fullKey(key), string(value))
	return err
}

func (s *Store) Remove(ctx context.Context, key []byte) ([]byte, error) {
	value, found, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrNotFound
	}
	if _, err := s.client.Delete(ctx, s.fullKey(key)); err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) Contains(ctx context.Context, key []byte) (bool, error) {
	resp, err := s.client.Get(ctx, s.fullKey(key), clientv3.WithCountOnly())
	if err != nil {
		return false, err
	}
	return resp.Count > 0, nil
}
