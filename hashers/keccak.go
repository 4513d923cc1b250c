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

package hashers

import (
	"hash"

	"golang.org/x/crypto/sha3"
)

type keccak256Hasher struct{}

// Keccak256 is a Keccak-256 Hasher, N=32. Several SMT implementations key
// their trees by Keccak256 rather than SHA-256; this adapter lets callers
// reproduce that behaviour against this engine.
var Keccak256 Hasher = keccak256Hasher{}

func (keccak256Hasher) New() hash.Hash { return sha3.NewLegacyKeccak256() }

func (keccak256Hasher) Digest(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

func (keccak256Hasher) Size() int { return 32 }
