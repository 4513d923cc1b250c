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

package cache

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/smtree/smt/storage/memstore"
)

func TestGetHitsCacheOnSecondCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := NewMockStore(ctrl)
	// Exactly one backing Get, even though the cache is asked twice.
	m.EXPECT().Get(gomock.Any(), []byte("k")).Return([]byte("v"), true, nil).Times(1)

	c := NewNodeCache(m, 16)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		v, ok, err := c.Get(ctx, []byte("k"))
		if err != nil {
			t.Fatalf("Get #%d: %v", i, err)
		}
		if !ok || string(v) != "v" {
			t.Fatalf("Get #%d = %q, %v; want v, true", i, v, ok)
		}
	}
}

func TestSetPopulatesCacheWithoutABackingRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := NewMockStore(ctrl)
	m.EXPECT().Set(gomock.Any(), []byte("k"), []byte("v")).Return(nil).Times(1)
	// No Get expectation: Set should warm the cache itself.

	c := NewNodeCache(m, 16)
	ctx := context.Background()

	if err := c.Set(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := c.Get(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || string(v) != "v" {
		t.Fatalf("Get after Set = %q, %v; want v, true", v, ok)
	}
}

func TestRemoveEvictsFromCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := NewMockStore(ctrl)
	m.EXPECT().Set(gomock.Any(), []byte("k"), []byte("v")).Return(nil)
	m.EXPECT().Remove(gomock.Any(), []byte("k")).Return([]byte("v"), nil)
	m.EXPECT().Get(gomock.Any(), []byte("k")).Return(nil, false, nil)

	c := NewNodeCache(m, 16)
	ctx := context.Background()

	if err := c.Set(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := c.Remove(ctx, []byte("k")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	_, ok, err := c.Get(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("Get after Remove: %v", err)
	}
	if ok {
		t.Fatalf("Get after Remove should miss the cache and fall through to the backing store")
	}
}

func TestBoundedCacheEvictsOldestEntry(t *testing.T) {
	backing := memstore.New()
	c := NewNodeCache(backing, 2)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, []byte(k), []byte(k)); err != nil {
			t.Fatalf("Set(%q): %v", k, err)
		}
	}
	if got, want := c.Len(), 2; got != want {
		t.Fatalf("cache length = %d, want %d", got, want)
	}

	// All three keys are still readable (through the backing store for
	// the evicted one), since NodeCache never loses data, only locality.
	for _, k := range []string{"a", "b", "c"} {
		v, ok, err := c.Get(ctx, []byte(k))
		if err != nil || !ok || string(v) != k {
			t.Fatalf("Get(%q) = %q, %v, %v; want %q, true, nil", k, v, ok, err, k)
		}
	}
}
