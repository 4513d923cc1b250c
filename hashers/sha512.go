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
	"crypto/sha512"
	"hash"
)

type sha512Hasher struct{}

// SHA512 is the stdlib SHA-512 Hasher, N=64.
var SHA512 Hasher = sha512Hasher{}

func (sha512Hasher) New() hash.Hash { return sha512.New() }

func (sha512Hasher) Digest(data []byte) []byte {
	sum := sha512.Sum512(data)
	return sum[:]
}

func (sha512Hasher) Size() int { return sha512.Size }
