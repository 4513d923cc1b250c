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

// Package spannerstore is a storage.Store over a single Cloud Spanner
// table of (Key BYTES PRIMARY KEY, Value BYTES), mirroring the managed
// storage backend Trillian itself runs in production.
package spannerstore

import (
	"context"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"

	"github.com/smtree/smt/storage"
)

// Store is a storage.Store over a Spanner table.
type Store struct {
	client *spanner.Client
	table  string
}

// New wraps an already-constructed client.
func New(client *spanner.Client, table string) *Store {
	return &Store{client: client, table: table}
}

// Open creates a Spanner client for database (the fully-qualified
// "projects/.../instances/.../databases/..." path) and returns a Store
// over table.
func Open(ctx context.Context, database, table string) (*Store, error) {
	client, err := spanner.NewClient(ctx, database)
	if err != nil {
		return nil, err
	}
	return &Store{client: client, table: table}, nil
}

// Close releases the client's resources.
func (s *Store) Close() { s.client.Close() }

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	row, err := s.client.Single().ReadRow(ctx, s.table, spanner.Key{key}, []string{"Value"})
	if spanner.ErrCode(err) == 5 { // codes.NotFound
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var value []byte
	if err := row.Column(0, &value); err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key []byte, value []byte) error {
	mut := spanner.InsertOrUpdate(s.table, []string{"Key", "Value"}, []interface{}{key, value})
	_, err := s.client.Apply(ctx, []*spanner.Mutation{mut})
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
	mut := spanner.Delete(s.table, spanner.Key{key})
	if _, err := s.client.Apply(ctx, []*spanner.Mutation{mut}); err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) Contains(ctx context.Context, key []byte) (bool, error) {
	iter := s.client.Single().Read(ctx, s.table, spanner.KeySets(spanner.Key{key}), []string{"Key"})
	defer iter.Stop()
	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
