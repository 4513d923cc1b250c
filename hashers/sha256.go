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
	"crypto/sha256"
	"hash"
)

type sha256Hasher struct{}

// SHA256 is the stdlib SHA-256 Hasher, N=32.
var SHA256 Hasher = sha256Hasher{}

func (sha256Hasher) New() hash.Hash { return sha256.New() }

func (sha256Hasher) Digest(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

func (sha256Hasher) Size() int { return sha256.Size }
