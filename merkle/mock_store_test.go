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

package merkle

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
)

// MockStore is a hand-written gomock double for storage.Store (the same
// shape as storage/cache's MockStore; mockgen codegen does not run in
// this build, so both are written by hand). It lets these tests feed the
// tree store responses a real backend would never produce, to exercise
// the error paths a well-behaved Store can't reach on its own.
type MockStore struct {
	ctrl     *gomock.Controller
	recorder *MockStoreRecorder
}

type MockStoreRecorder struct {
	mock *MockStore
}

func NewMockStore(ctrl *gomock.Controller) *MockStore {
	m := &MockStore{ctrl: ctrl}
	m.recorder = &MockStoreRecorder{m}
	return m
}

func (m *MockStore) EXPECT() *MockStoreRecorder { return m.recorder }

func (m *MockStore) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	ret := m.ctrl.Call(m, "Get", ctx, key)
	value, _ := ret[0].([]byte)
	ok, _ := ret[1].(bool)
	err, _ := ret[2].(error)
	return value, ok, err
}

func (mr *MockStoreRecorder) Get(ctx, key interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockStore)(nil).Get), ctx, key)
}

func (m *MockStore) Set(ctx context.Context, key []byte, value []byte) error {
	ret := m.ctrl.Call(m, "Set", ctx, key, value)
	err, _ := ret[0].(error)
	return err
}

func (mr *MockStoreRecorder) Set(ctx, key, value interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Set", reflect.TypeOf((*MockStore)(nil).Set), ctx, key, value)
}

func (m *MockStore) Remove(ctx context.Context, key []byte) ([]byte, error) {
	ret := m.ctrl.Call(m, "Remove", ctx, key)
	value, _ := ret[0].([]byte)
	err, _ := ret[1].(error)
	return value, err
}

func (mr *MockStoreRecorder) Remove(ctx, key interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Remove", reflect.TypeOf((*MockStore)(nil).Remove), ctx, key)
}

func (m *MockStore) Contains(ctx context.Context, key []byte) (bool, error) {
	ret := m.ctrl.Call(m, "Contains", ctx, key)
	ok, _ := ret[0].(bool)
	err, _ := ret[1].(error)
	return ok, err
}

func (mr *MockStoreRecorder) Contains(ctx, key interface{}) *gomock.Call {
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Contains", reflect.TypeOf((*MockStore)(nil).Contains), ctx, key)
}
