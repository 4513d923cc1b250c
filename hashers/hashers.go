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

// Package hashers provides the fixed-output digest capability required by
// the tree engine (spec §4.1, §6). A Hasher is injected into merkle.Tree at
// construction and is never retained as global state by the tree itself.
package hashers

import "hash"

// Hasher is a fixed-output cryptographic digest with a streaming API and a
// one-shot convenience form. Size() must be stable for the lifetime of a
// Hasher and at most 255, so that one byte of tree depth always fits.
type Hasher interface {
	// New returns a fresh streaming hash.Hash for this algorithm.
	New() hash.Hash

	// Digest is the one-shot form: New().Write(data).Sum(nil).
	Digest(data []byte) []byte

	// Size is N, the fixed digest length in bytes.
	Size() int
}
