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

// Package sqlstore is a storage.Store over a single "nodes" table in any
// database/sql driver, with schema tweaks for the two drivers Trillian
// itself ships against: MySQL (github.com/go-sql-driver/mysql) and
// Postgres (github.com/lib/pq).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Registered for side effects: database/sql dispatches on the driver
	// name passed to sql.Open, never referenced directly here.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/smtree/smt/storage"
)

// Dialect distinguishes the small handful of SQL differences between
// supported drivers (placeholder syntax, upsert statement).
type Dialect int

const (
	// MySQL uses '?' placeholders and "INSERT ... ON DUPLICATE KEY UPDATE".
	MySQL Dialect = iota
	// Postgres uses '$1'-style placeholders and "ON CONFLICT".
	Postgres
)

// Store is a storage.Store over a SQL table of (key BLOB/BYTEA PRIMARY
// KEY, value BLOB/BYTEA).
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

// Open opens driverName (either "mysql" or "postgres") against dsn and
// returns a Store using table (created beforehand by the caller/migration
// tooling; this package does not run DDL).
func Open(driverName, dsn, table string) (*Store, error) {
	var dialect Dialect
	switch driverName {
	case "mysql":
		dialect = MySQL
	case "postgres":
		dialect = Postgres
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driverName)
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, dialect: dialect, table: table}, nil
}

// New wraps an already-open *sql.DB for the given dialect and table.
func New(db *sql.DB, dialect Dialect, table string) *Store {
	return &Store{db: db, dialect: dialect, table: table}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = %s", s.table, s.placeholder(1))
	var value []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key []byte, value []byte) error {
	var query string
	switch s.dialect {
	case MySQL:
		query = fmt.Sprintf("INSERT INTO %s (key, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)", s.table)
	case Postgres:
		query = fmt.Sprintf("INSERT INTO %s (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value", s.table)
	}
	_, err := s.db.ExecContext(ctx, query, key, value)
	return err
}

func (s *Store) Remove(ctx context.Context, key []byte) ([]byte, error) {
	value, ok, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storage.ErrNotFound
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE key = %s", s.table, s.placeholder(1))
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) Contains(ctx context.Context, key []byte) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE key = %s", s.table, s.placeholder(1))
	var one int
	err := s.db.QueryRowContext(ctx, query, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) placeholder(n int) string {
	if s.dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
