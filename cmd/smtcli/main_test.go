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

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smtree/smt/hashers"
	"github.com/smtree/smt/merkle"
	"github.com/smtree/smt/storage/memstore"
)

func newScriptTree(t *testing.T) *merkle.Tree {
	t.Helper()
	tr, err := merkle.NewTree(merkle.Config{Hasher: hashers.SHA256, Store: memstore.New()})
	require.NoError(t, err)
	return tr
}

func TestRunUpdateAndGet(t *testing.T) {
	tr := newScriptTree(t)
	var out bytes.Buffer

	err := run(context.Background(), tr, strings.NewReader("update alice 100\nget alice\n"), &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "ok root=")
	require.Contains(t, out.String(), "100\n")
}

func TestRunGetMissingReportsNotFound(t *testing.T) {
	tr := newScriptTree(t)
	var out bytes.Buffer

	err := run(context.Background(), tr, strings.NewReader("get nobody\n"), &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "not found")
}

func TestRunUnknownCommandReportsError(t *testing.T) {
	tr := newScriptTree(t)
	var out bytes.Buffer

	err := run(context.Background(), tr, strings.NewReader("frobnicate\n"), &out)
	require.NoError(t, err) // per-line errors are printed, not returned
	require.Contains(t, out.String(), `error: unknown command "frobnicate"`)
}

func TestRunDeleteThenRoot(t *testing.T) {
	tr := newScriptTree(t)
	var out bytes.Buffer

	err := run(context.Background(), tr, strings.NewReader("update alice 100\ndelete alice\nroot\n"), &out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, strings.Repeat("0", 64), lines[2])
}
