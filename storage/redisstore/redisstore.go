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

// Package redisstore is a storage.Store over a single Redis instance via
// go-redis/redis. Keys and values are opaque strings to Redis; no TTL is
// applied, since the tree's content-addressed nodes never expire on
// their own.
package redisstore

import (
	"context"

	"github.com/go-redis/redis"

	"github.com/smtree/smt/storage"
)

// Store wraps a *redis.Client.
type Store struct {
	client *redis.Client
}

// New wraps an already-constructed client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Open connects to addr (host:port) using database db.
func Open(addr string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping().Err(); err != nil {
		return nil, err
	}
	return &Store{client: client}, nil
}

// Close closes the underlying client.
func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	v, err := s.client.WithContext(ctx).Get(string(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key []byte, value []byte) error {
	return s.client.WithContext(ctx).Set(string(key), value, 0).Err()
}

func (s *Store) Remove(ctx context.Context, key []byte) ([]byte, error) {
	value, found, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrNotFound
	}
	if err := s.client.WithContext(ctx).Del(string(key)).Err(); err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) Contains(ctx context.Context, key []byte) (bool, error) {
	n, err := s.client.WithContext(ctx).Exists(string(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
