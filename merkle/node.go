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

import "bytes"

// node kind tags (spec §4.2, invariant 1).
const (
	tagLeaf  byte = 0x00
	tagInner byte = 0x01
)

// NodeKind classifies a decoded node blob.
type NodeKind int

const (
	// KindLeaf is a leaf node encoding.
	KindLeaf NodeKind = iota
	// KindInner is an inner node encoding.
	KindInner
)

// Digest is a fixed-width byte string of length N (spec §3).
type Digest []byte

// Equal reports byte-lexicographic equality, the only equality the spec
// defines for digests.
func (d Digest) Equal(o Digest) bool { return bytes.Equal(d, o) }

// IsPlaceholder reports whether d is the all-zero placeholder digest for
// its length.
func (d Digest) IsPlaceholder() bool {
	for _, b := range d {
		if b != 0 {
			return false
		}
	}
	return true
}

// clone returns a defensive copy of d.
func (d Digest) clone() Digest {
	out := make(Digest, len(d))
	copy(out, d)
	return out
}

// Placeholder returns the all-zero digest of length n (spec §3).
func Placeholder(n int) Digest { return make(Digest, n) }

// leafNode is the decoded form of a 0x00-tagged blob.
type leafNode struct {
	path      Digest // path(k), length N
	valueHash Digest // H(v), length N
}

// innerNode is the decoded form of a 0x01-tagged blob.
type innerNode struct {
	left  Digest
	right Digest
}

// encodeLeaf implements spec §4.2: 0x00 || path || value_hash.
func encodeLeaf(path, valueHash Digest) []byte {
	out := make([]byte, 0, 1+len(path)+len(valueHash))
	out = append(out, tagLeaf)
	out = append(out, path...)
	out = append(out, valueHash...)
	return out
}

// encodeInner implements spec §4.2: 0x01 || left || right.
func encodeInner(left, right Digest) []byte {
	out := make([]byte, 0, 1+len(left)+len(right))
	out = append(out, tagInner)
	out = append(out, left...)
	out = append(out, right...)
	return out
}

// classify inspects the tag byte without fully decoding, per the "classify
// a loaded blob" responsibility the node codec has under spec §2. It is
// split out of decode so walk can tell a leaf from an inner node before
// choosing decodeLeaf or decodeInner (SPEC_FULL.md §C).
func classify(blob []byte, n int) (NodeKind, error) {
	want := 1 + 2*n
	if len(blob) != want {
		return 0, &BadEncodingError{Reason: "wrong length"}
	}
	switch blob[0] {
	case tagLeaf:
		return KindLeaf, nil
	case tagInner:
		return KindInner, nil
	default:
		return 0, &BadEncodingError{Reason: "unknown prefix"}
	}
}

// decodeLeaf decodes a blob already classified as KindLeaf.
func decodeLeaf(blob []byte, n int) (leafNode, error) {
	if len(blob) != 1+2*n || blob[0] != tagLeaf {
		return leafNode{}, &BadEncodingError{Reason: "not a leaf encoding"}
	}
	return leafNode{
		path:      Digest(blob[1 : 1+n]).clone(),
		valueHash: Digest(blob[1+n : 1+2*n]).clone(),
	}, nil
}

// decodeInner decodes a blob already classified as KindInner.
func decodeInner(blob []byte, n int) (innerNode, error) {
	if len(blob) != 1+2*n || blob[0] != tagInner {
		return innerNode{}, &BadEncodingError{Reason: "not an inner encoding"}
	}
	return innerNode{
		left:  Digest(blob[1 : 1+n]).clone(),
		right: Digest(blob[1+n : 1+2*n]).clone(),
	}, nil
}
