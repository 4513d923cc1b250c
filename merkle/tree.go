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

// Package merkle implements the sparse Merkle tree engine: node encoding,
// path-compressed update/get/delete, and the proof builder/verifier. The
// store and hasher are injected capabilities (spec §4.3, §4.1); the tree
// retains no other global state, matching the teacher's own pattern of
// parameterising Subtree workers by a hasher and a storage transaction.
package merkle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/smtree/smt/hashers"
	"github.com/smtree/smt/monitoring"
	"github.com/smtree/smt/storage"
)

// terminal classifies how a root-to-leaf walk ended.
type terminal int

const (
	terminalEmpty terminal = iota // walk hit a placeholder child: no leaf here
	terminalLeaf                  // walk hit a leaf (may or may not match the queried path)
)

// walkResult captures everything the rebuild pass after an update or
// delete needs: the sibling digests seen on the way down (top-of-tree
// first, spec §4.5) and the old self-hash of every ancestor visited, so
// superseded nodes can be pruned from the store (spec §3, Lifecycles).
type walkResult struct {
	sideNodes       []Digest // sibling digests, index i = depth i
	ancestorDigests []Digest // old self hash at depth i; len == depth, plus one more (the leaf) if terminal == terminalLeaf
	depth           int      // number of inner-node levels descended
	terminal        terminal
	leaf            leafNode // valid iff terminal == terminalLeaf
}

// Config parameterises a Tree. Hasher and Store are required; Metrics is
// optional (SPEC_FULL.md §B.5). Store may be a storage/cache.NodeCache
// wrapping a slower backend — the tree itself does not know or care.
type Config struct {
	Hasher  hashers.Hasher
	Store   storage.Store
	Metrics monitoring.Metrics
}

// Tree is a sparse Merkle tree over an injected Store (spec §4.4). It
// holds the current root and nothing else; all node state lives in Store.
type Tree struct {
	hasher  hashers.Hasher
	store   storage.Store
	metrics monitoring.Metrics
	n       int // digest size N, in bytes

	mu   sync.Mutex // guards root; the tree does not support concurrent writers (spec §5), this only prevents torn reads of root under misuse
	root Digest
}

// NewTree constructs an empty Tree (root == placeholder, spec invariant 2).
// Callers wanting to resume an existing tree should use NewTreeAtRoot.
func NewTree(cfg Config) (*Tree, error) {
	if cfg.Hasher == nil {
		return nil, fmt.Errorf("merkle: NewTree: Hasher is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("merkle: NewTree: Store is required")
	}
	if cfg.Hasher.Size() > 255 {
		return nil, fmt.Errorf("merkle: NewTree: hasher output size %d exceeds 255 bytes (spec §6)", cfg.Hasher.Size())
	}
	return &Tree{
		hasher:  cfg.Hasher,
		store:   cfg.Store,
		metrics: cfg.Metrics,
		n:       cfg.Hasher.Size(),
		root:    Placeholder(cfg.Hasher.Size()),
	}, nil
}

// NewTreeAtRoot constructs a Tree whose root is already known (e.g.
// recovered from a previous session). No validation of root against
// Store's contents is performed until the first operation touches it.
func NewTreeAtRoot(cfg Config, root Digest) (*Tree, error) {
	t, err := NewTree(cfg)
	if err != nil {
		return nil, err
	}
	if len(root) != t.n {
		return nil, fmt.Errorf("merkle: NewTreeAtRoot: root length %d != N (%d)", len(root), t.n)
	}
	t.root = root.clone()
	return t, nil
}

// Root returns the current root digest (placeholder iff the tree is
// empty, spec invariant 2).
func (t *Tree) Root() Digest {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root.clone()
}

// IsEmpty reports whether the tree currently holds no leaves.
func (t *Tree) IsEmpty() bool {
	return t.Root().IsPlaceholder()
}

// bitAt returns bit i of path, MSB-first per byte (spec §3).
func bitAt(path Digest, i int) int {
	return int((path[i/8] >> uint(7-i%8)) & 1)
}

// path computes path(k) = H(k) (spec §3): since N = output_size(H) and
// B = 8N, the raw digest bytes already are the B-bit path.
func (t *Tree) path(key []byte) Digest {
	return t.hasher.Digest(key)
}

func (t *Tree) nodeKey(d Digest) []byte {
	return storage.NamespaceKey(storage.NamespaceNode, d)
}

func (t *Tree) valueKey(vh Digest) []byte {
	return storage.NamespaceKey(storage.NamespaceValue, vh)
}

// loadNode fetches the raw blob stored under digest d; walk classifies and
// decodes it. d must
// not be the placeholder (callers never dereference it, per spec §4.2).
func (t *Tree) loadNode(ctx context.Context, d Digest) ([]byte, error) {
	blob, ok, err := t.store.Get(ctx, t.nodeKey(d))
	if err != nil {
		return nil, newStoreError("get-node", err)
	}
	if !ok {
		return nil, &CorruptStoreError{Digest: d, Reason: "referenced node missing from store"}
	}
	return blob, nil
}

// writeNodeBlob writes blob under hash, the digest the caller has already
// computed for it; it does not hash blob itself.
func (t *Tree) writeNodeBlob(ctx context.Context, hash Digest, blob []byte) error {
	if err := t.store.Set(ctx, t.nodeKey(hash), blob); err != nil {
		return newStoreError("set-node", err)
	}
	return nil
}

// removeNode deletes the encoding stored under d, tolerating absence
// (the node may already have been pruned by an earlier, content-identical
// write — see Lifecycles in spec §3).
func (t *Tree) removeNode(ctx context.Context, d Digest) error {
	if d.IsPlaceholder() {
		return nil
	}
	if _, err := t.store.Remove(ctx, t.nodeKey(d)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return newStoreError("remove-node", err)
	}
	return nil
}

func (t *Tree) removeValue(ctx context.Context, vh Digest) error {
	if _, err := t.store.Remove(ctx, t.valueKey(vh)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return newStoreError("remove-value", err)
	}
	return nil
}

// walk descends from root guided by path, recording side nodes and
// ancestor self-hashes as it goes (spec §4.4, "Traversal primitive").
func (t *Tree) walk(ctx context.Context, path Digest) (*walkResult, error) {
	wr := &walkResult{}
	d := t.Root()
	for !d.IsPlaceholder() {
		wr.ancestorDigests = append(wr.ancestorDigests, d)
		blob, err := t.loadNode(ctx, d)
		if err != nil {
			return nil, err
		}
		kind, err := classify(blob, t.n)
		if err != nil {
			return nil, &CorruptStoreError{Digest: d, Reason: "undecodable node", Err: err}
		}
		if kind == KindLeaf {
			leaf, err := decodeLeaf(blob, t.n)
			if err != nil {
				return nil, &CorruptStoreError{Digest: d, Reason: "undecodable leaf", Err: err}
			}
			wr.terminal = terminalLeaf
			wr.leaf = leaf
			glog.V(4).Infof("merkle: walk terminated at leaf, depth=%d path=%x", wr.depth, []byte(path))
			return wr, nil
		}
		inner, err := decodeInner(blob, t.n)
		if err != nil {
			return nil, &CorruptStoreError{Digest: d, Reason: "undecodable inner", Err: err}
		}
		if inner.left.IsPlaceholder() || inner.right.IsPlaceholder() {
			return nil, &CorruptStoreError{Digest: d, Reason: "inner node has a placeholder child (invariant 4 violation)"}
		}
		bit := bitAt(path, wr.depth)
		var next, sibling Digest
		if bit == 0 {
			next, sibling = inner.left, inner.right
		} else {
			next, sibling = inner.right, inner.left
		}
		wr.sideNodes = append(wr.sideNodes, sibling)
		glog.V(2).Infof("merkle: walk depth=%d bit=%d sibling=%x", wr.depth, bit, []byte(sibling))
		d = next
		wr.depth++
	}
	wr.terminal = terminalEmpty
	return wr, nil
}

// rebuildAndPrune ascends from the bottom of sideNodes to the root,
// recombining bottom with each recorded sibling and writing the new
// ancestor encodings, pruning the superseded ones (spec §4.4 step 4).
// sideNodes and ancestorDigests must be the same length and aligned by
// depth (index i is depth i).
func (t *Tree) rebuildAndPrune(ctx context.Context, sideNodes, ancestorDigests []Digest, path Digest, bottom Digest) (Digest, error) {
	current := bottom
	for i := len(sideNodes) - 1; i >= 0; i-- {
		sibling := sideNodes[i]
		bit := bitAt(path, i)
		var left, right Digest
		if bit == 0 {
			left, right = current, sibling
		} else {
			left, right = sibling, current
		}
		blob := encodeInner(left, right)
		hash := Digest(t.hasher.Digest(blob))
		if !hash.Equal(ancestorDigests[i]) {
			if err := t.writeNodeBlob(ctx, hash, blob); err != nil {
				return nil, err
			}
			if err := t.removeNode(ctx, ancestorDigests[i]); err != nil {
				return nil, err
			}
		}
		current = hash
	}
	return current, nil
}

// combineLeaves materialises the single inner node where two leaves with
// diverging paths first branch, skipping any levels between fromDepth
// and that divergence point (spec §4.4 step 3, path compression).
func (t *Tree) combineLeaves(ctx context.Context, pathA, hashA, pathB, hashB Digest, fromDepth int) (Digest, error) {
	b := t.n * 8
	d := fromDepth
	for d < b && bitAt(pathA, d) == bitAt(pathB, d) {
		d++
	}
	if d >= b {
		return nil, &CorruptStoreError{Reason: "colliding leaves share an identical path beyond tree depth"}
	}
	var left, right Digest
	if bitAt(pathA, d) == 0 {
		left, right = hashA, hashB
	} else {
		left, right = hashB, hashA
	}
	blob := encodeInner(left, right)
	hash := Digest(t.hasher.Digest(blob))
	if err := t.writeNodeBlob(ctx, hash, blob); err != nil {
		return nil, err
	}
	return hash, nil
}

// Get returns the value stored for key, and found=false (not an error)
// if key has no current leaf (spec §4.4 "get").
func (t *Tree) Get(ctx context.Context, key []byte) (value []byte, found bool, err error) {
	if t.metrics != nil {
		stop := t.metrics.ObserveLatency("get")
		defer stop()
		defer func() { t.metrics.IncCounter("get", found) }()
	}

	path := t.path(key)
	wr, err := t.walk(ctx, path)
	if err != nil {
		return nil, false, err
	}
	if wr.terminal != terminalLeaf || !wr.leaf.path.Equal(path) {
		return nil, false, nil
	}
	blob, ok, err := t.store.Get(ctx, t.valueKey(wr.leaf.valueHash))
	if err != nil {
		return nil, false, newStoreError("get-value", err)
	}
	if !ok {
		return nil, false, &CorruptStoreError{Digest: wr.leaf.valueHash, Reason: "leaf's value blob missing from store"}
	}
	return blob, true, nil
}

// Update sets key to value, creating the leaf if absent (spec §4.4
// "update"). Path compression (invariant 4) is maintained by
// combineLeaves/rebuildAndPrune.
func (t *Tree) Update(ctx context.Context, key, value []byte) (err error) {
	if t.metrics != nil {
		stop := t.metrics.ObserveLatency("update")
		defer stop()
		defer func() { t.metrics.IncCounter("update", err == nil) }()
	}

	path := t.path(key)
	vh := Digest(t.hasher.Digest(value))

	wr, err := t.walk(ctx, path)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case wr.terminal == terminalEmpty:
		leafBlob := encodeLeaf(path, vh)
		leafHash := Digest(t.hasher.Digest(leafBlob))
		if err := t.writeNodeBlob(ctx, leafHash, leafBlob); err != nil {
			return err
		}
		if err := t.store.Set(ctx, t.valueKey(vh), value); err != nil {
			return newStoreError("set-value", err)
		}
		newRoot, err := t.rebuildAndPrune(ctx, wr.sideNodes, wr.ancestorDigests, path, leafHash)
		if err != nil {
			return err
		}
		t.root = newRoot
		return nil

	case wr.leaf.path.Equal(path):
		// Matching leaf: spec §9 open question resolved in SPEC_FULL.md
		// §D — skip the write entirely when the value hash is unchanged.
		if wr.leaf.valueHash.Equal(vh) {
			return nil
		}
		oldLeafHash := wr.ancestorDigests[len(wr.ancestorDigests)-1]
		oldValueHash := wr.leaf.valueHash

		leafBlob := encodeLeaf(path, vh)
		leafHash := Digest(t.hasher.Digest(leafBlob))
		if err := t.writeNodeBlob(ctx, leafHash, leafBlob); err != nil {
			return err
		}
		if err := t.store.Set(ctx, t.valueKey(vh), value); err != nil {
			return newStoreError("set-value", err)
		}
		newRoot, err := t.rebuildAndPrune(ctx, wr.sideNodes, wr.ancestorDigests[:len(wr.sideNodes)], path, leafHash)
		if err != nil {
			return err
		}
		if err := t.removeNode(ctx, oldLeafHash); err != nil {
			return err
		}
		if err := t.removeValue(ctx, oldValueHash); err != nil {
			return err
		}
		t.root = newRoot
		return nil

	default:
		// Colliding leaf: different path sharing a prefix of wr.depth bits.
		leafBlob := encodeLeaf(path, vh)
		leafHash := Digest(t.hasher.Digest(leafBlob))
		if err := t.writeNodeBlob(ctx, leafHash, leafBlob); err != nil {
			return err
		}
		if err := t.store.Set(ctx, t.valueKey(vh), value); err != nil {
			return newStoreError("set-value", err)
		}
		oldLeafHash := wr.ancestorDigests[len(wr.ancestorDigests)-1]
		top, err := t.combineLeaves(ctx, path, leafHash, wr.leaf.path, oldLeafHash, wr.depth)
		if err != nil {
			return err
		}
		newRoot, err := t.rebuildAndPrune(ctx, wr.sideNodes, wr.ancestorDigests[:len(wr.sideNodes)], path, top)
		if err != nil {
			return err
		}
		t.root = newRoot
		return nil
	}
}

// Delete removes key's leaf, failing with KeyNotFoundError if absent
// (spec §4.4 "delete"). Exactly one level of path-compression hoisting
// happens at the deleted leaf's immediate parent (see DESIGN.md for why
// that single hoist always suffices); everything above it is a plain
// rebuild identical to Update's.
func (t *Tree) Delete(ctx context.Context, key []byte) (err error) {
	if t.metrics != nil {
		stop := t.metrics.ObserveLatency("delete")
		defer stop()
		defer func() { t.metrics.IncCounter("delete", err == nil) }()
	}

	path := t.path(key)
	wr, err := t.walk(ctx, path)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if wr.terminal != terminalLeaf || !wr.leaf.path.Equal(path) {
		return &KeyNotFoundError{Key: key}
	}

	depth := len(wr.sideNodes)
	oldLeafHash := wr.ancestorDigests[depth]
	if err := t.removeNode(ctx, oldLeafHash); err != nil {
		return err
	}
	if err := t.removeValue(ctx, wr.leaf.valueHash); err != nil {
		return err
	}

	if depth == 0 {
		t.root = Placeholder(t.n)
		return nil
	}

	hoisted := wr.sideNodes[depth-1]
	if err := t.removeNode(ctx, wr.ancestorDigests[depth-1]); err != nil {
		return err
	}
	if depth == 1 {
		t.root = hoisted
		return nil
	}

	newRoot, err := t.rebuildAndPrune(ctx, wr.sideNodes[:depth-1], wr.ancestorDigests[:depth-1], path, hoisted)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}
