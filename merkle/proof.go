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

	"github.com/golang/glog"

	"github.com/smtree/smt/hashers"
	"github.com/smtree/smt/storage"
)

// NonMembershipLeaf is the "different leaf" found at a proof's
// termination point when the queried key is absent (spec §4.5).
type NonMembershipLeaf struct {
	Path      Digest
	ValueHash Digest
}

// Proof is an inclusion or non-inclusion proof for one key (spec §4.5).
type Proof struct {
	// SideNodes are the sibling digests gathered from root to
	// termination, top-of-tree first.
	SideNodes []Digest

	// NonMembershipLeaf is set iff the walk terminated at a different
	// leaf than the one queried (non-membership by collision).
	NonMembershipLeaf *NonMembershipLeaf
}

// Prove builds a Proof for key against the tree's current root. It never
// writes to the store (spec §4.5).
func (t *Tree) Prove(ctx context.Context, key []byte) (*Proof, error) {
	path := t.path(key)
	wr, err := t.walk(ctx, path)
	if err != nil {
		return nil, err
	}
	p := &Proof{SideNodes: wr.sideNodes}
	if wr.terminal == terminalLeaf && !wr.leaf.path.Equal(path) {
		p.NonMembershipLeaf = &NonMembershipLeaf{
			Path:      wr.leaf.path,
			ValueHash: wr.leaf.valueHash,
		}
	}
	glog.V(2).Infof("merkle: prove key=%x depth=%d sideNodes=%d", key, wr.depth, len(wr.sideNodes))
	return p, nil
}

// ProveMany proves several keys against the same root (SPEC_FULL.md
// §B.4, §C). It reads the root node once via storage.BatchGet, then calls
// Prove once per key, one key after another; the per-key walks are not
// fetched concurrently. Semantically it is just Prove called once per key.
func (t *Tree) ProveMany(ctx context.Context, keys [][]byte) ([]*Proof, error) {
	// BatchGet only reads the root node, which every walk starts from, so
	// a NodeCache underneath Store already holds it for the per-key walks.
	if len(keys) == 0 {
		return nil, nil
	}
	root := t.Root()
	if !root.IsPlaceholder() {
		if _, _, err := storage.BatchGet(ctx, t.store, [][]byte{t.nodeKey(root)}); err != nil {
			return nil, newStoreError("batch-get-root", err)
		}
	}
	proofs := make([]*Proof, len(keys))
	for i, k := range keys {
		p, err := t.Prove(ctx, k)
		if err != nil {
			return nil, err
		}
		proofs[i] = p
	}
	return proofs, nil
}

// AbsentValue, passed to Verify, marks a non-membership query (spec §4.7).
var AbsentValue []byte = nil

// Verify checks proof against the tree's current root using the tree's
// own hasher; a convenience wrapper around the free Verify function for
// callers that already hold the Tree that produced root.
func (t *Tree) Verify(proof *Proof, key, value []byte) (bool, error) {
	return Verify(proof, t.Root(), t.hasher, key, value)
}

// Verify recomputes a candidate root from proof for (key, value) and
// compares it against root. A structurally invalid proof returns
// BadProofError; a structurally valid proof that simply does not
// recompute root returns (false, nil) (spec §4.7, §7).
func Verify(proof *Proof, root Digest, hasher hashers.Hasher, key, value []byte) (bool, error) {
	n := hasher.Size()
	b := n * 8

	if len(proof.SideNodes) > b {
		return false, &BadProofError{Reason: "side-node list longer than B bits"}
	}

	path := Digest(hasher.Digest(key))

	var candidate Digest
	if value == nil {
		if proof.NonMembershipLeaf == nil {
			candidate = Placeholder(n)
		} else {
			nm := proof.NonMembershipLeaf
			if nm.Path.Equal(path) {
				return false, &BadProofError{Reason: "non-membership leaf path equals queried path"}
			}
			candidate = Digest(hasher.Digest(encodeLeaf(nm.Path, nm.ValueHash)))
		}
	} else {
		if proof.NonMembershipLeaf != nil {
			return false, &BadProofError{Reason: "membership query carries a non-membership leaf"}
		}
		vh := Digest(hasher.Digest(value))
		candidate = Digest(hasher.Digest(encodeLeaf(path, vh)))
	}

	for i := len(proof.SideNodes) - 1; i >= 0; i-- {
		sib := proof.SideNodes[i]
		bit := bitAt(path, i)
		var blob []byte
		if bit == 0 {
			blob = encodeInner(candidate, sib)
		} else {
			blob = encodeInner(sib, candidate)
		}
		candidate = Digest(hasher.Digest(blob))
	}

	return candidate.Equal(root), nil
}
