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
	"fmt"

	"github.com/smtree/smt/hashers"
)

// CompactProof is the placeholder-elided wire form of a Proof (spec
// §4.6). Bitmask bit i (MSB-first) is 1 iff side node i was a
// placeholder and has been omitted from SideNodesPresent.
type CompactProof struct {
	Bitmask           []byte
	SideNodesPresent  []Digest
	NonMembershipLeaf *NonMembershipLeaf
	NumSideNodes      int
}

// Compact drops placeholder entries out of proof.SideNodes, recording
// their positions in a bitmask (spec §4.6).
func Compact(proof *Proof) *CompactProof {
	n := len(proof.SideNodes)
	bitmask := make([]byte, (n+7)/8)
	present := make([]Digest, 0, n)
	for i, sn := range proof.SideNodes {
		if sn.IsPlaceholder() {
			bitmask[i/8] |= 1 << uint(7-i%8)
		} else {
			present = append(present, sn)
		}
	}
	return &CompactProof{
		Bitmask:           bitmask,
		SideNodesPresent:  present,
		NonMembershipLeaf: proof.NonMembershipLeaf,
		NumSideNodes:      n,
	}
}

// bitAtMask reads bit i (MSB-first) of a compact proof's bitmask.
func bitAtMask(mask []byte, i int) int {
	return int((mask[i/8] >> uint(7-i%8)) & 1)
}

// Uncompact reinserts placeholders into a CompactProof's side-node list
// at the positions its bitmask marks, reconstructing a full Proof (spec
// §4.6). It fails with BadProofError if the mask width, the declared
// side-node count, and the recovered list length disagree — the
// well-formedness condition in spec §4.6.
func Uncompact(cp *CompactProof) (*Proof, error) {
	if cp.NumSideNodes > 2040 { // generous upper bound; Verify enforces the real B limit
		return nil, &BadProofError{Reason: "num_side_nodes implausibly large"}
	}
	wantMaskLen := (cp.NumSideNodes + 7) / 8
	if len(cp.Bitmask) != wantMaskLen {
		return nil, &BadProofError{Reason: fmt.Sprintf("bitmask length %d does not match num_side_nodes %d", len(cp.Bitmask), cp.NumSideNodes)}
	}

	zeroBits := 0
	for i := 0; i < cp.NumSideNodes; i++ {
		if bitAtMask(cp.Bitmask, i) == 0 {
			zeroBits++
		}
	}
	if zeroBits != len(cp.SideNodesPresent) {
		return nil, &BadProofError{Reason: fmt.Sprintf("bitmask has %d zero bits but %d side nodes were supplied", zeroBits, len(cp.SideNodesPresent))}
	}

	sideNodes := make([]Digest, cp.NumSideNodes)
	next := 0
	for i := 0; i < cp.NumSideNodes; i++ {
		if bitAtMask(cp.Bitmask, i) == 1 {
			// placeholder width is recovered from the first present side
			// node, or from the non-membership leaf's digests, or left
			// nil if genuinely unknowable (an all-placeholder proof of
			// length 0 never reaches this branch).
			sideNodes[i] = placeholderWidthHint(cp)
			continue
		}
		sideNodes[i] = cp.SideNodesPresent[next]
		next++
	}

	return &Proof{
		SideNodes:         sideNodes,
		NonMembershipLeaf: cp.NonMembershipLeaf,
	}, nil
}

func placeholderWidthHint(cp *CompactProof) Digest {
	if len(cp.SideNodesPresent) > 0 {
		return Placeholder(len(cp.SideNodesPresent[0]))
	}
	if cp.NonMembershipLeaf != nil {
		return Placeholder(len(cp.NonMembershipLeaf.ValueHash))
	}
	return nil
}

// VerifyCompact is Verify composed with Uncompact (spec §4.6 "verify_compact").
func VerifyCompact(cp *CompactProof, root Digest, hasher hashers.Hasher, key, value []byte) (bool, error) {
	proof, err := Uncompact(cp)
	if err != nil {
		return false, err
	}
	// A proof reconstructed from a compact one with no present side
	// nodes and no non-membership leaf carries no hint for N; fill it in
	// from the hasher so Verify's placeholder comparisons are well sized.
	for i, sn := range proof.SideNodes {
		if sn == nil {
			proof.SideNodes[i] = Placeholder(hasher.Size())
		}
	}
	return Verify(proof, root, hasher, key, value)
}

// wire form (spec §6):
//   encode(non_membership_leaf) || encode(side_nodes)
// non_membership_leaf: 1 byte tag (0x00 absent, 0x01 present) [|| path || value_hash]
// side_nodes: 1 byte length (<=B) || that many N-byte digests

// EncodeProof serialises proof to its spec §6 wire form.
func EncodeProof(proof *Proof, n int) ([]byte, error) {
	var out []byte
	out = appendNonMembership(out, proof.NonMembershipLeaf)

	if len(proof.SideNodes) > 255 {
		return nil, &BadProofError{Reason: "more than 255 side nodes, cannot encode 1-byte length prefix"}
	}
	out = append(out, byte(len(proof.SideNodes)))
	for _, sn := range proof.SideNodes {
		if len(sn) != n {
			return nil, &BadProofError{Reason: "side node has wrong digest length"}
		}
		out = append(out, sn...)
	}
	return out, nil
}

// DecodeProof parses the spec §6 wire form for a fixed digest width n.
func DecodeProof(wire []byte, n int) (*Proof, error) {
	nm, rest, err := parseNonMembership(wire, n)
	if err != nil {
		return nil, err
	}
	if len(rest) < 1 {
		return nil, &BadProofError{Reason: "truncated side-node length"}
	}
	count := int(rest[0])
	rest = rest[1:]
	if len(rest) != count*n {
		return nil, &BadProofError{Reason: "side-node block length mismatch"}
	}
	sideNodes := make([]Digest, count)
	for i := 0; i < count; i++ {
		sideNodes[i] = Digest(rest[i*n : (i+1)*n]).clone()
	}
	return &Proof{SideNodes: sideNodes, NonMembershipLeaf: nm}, nil
}

func appendNonMembership(out []byte, nm *NonMembershipLeaf) []byte {
	if nm == nil {
		return append(out, 0x00)
	}
	out = append(out, 0x01)
	out = append(out, nm.Path...)
	out = append(out, nm.ValueHash...)
	return out
}

func parseNonMembership(wire []byte, n int) (*NonMembershipLeaf, []byte, error) {
	if len(wire) < 1 {
		return nil, nil, &BadProofError{Reason: "truncated non-membership tag"}
	}
	switch wire[0] {
	case 0x00:
		return nil, wire[1:], nil
	case 0x01:
		if len(wire) < 1+2*n {
			return nil, nil, &BadProofError{Reason: "truncated non-membership leaf"}
		}
		nm := &NonMembershipLeaf{
			Path:      Digest(wire[1 : 1+n]).clone(),
			ValueHash: Digest(wire[1+n : 1+2*n]).clone(),
		}
		return nm, wire[1+2*n:], nil
	default:
		return nil, nil, &BadProofError{Reason: "unknown non-membership tag"}
	}
}

// EncodeCompactProof serialises cp to the compact variant of the spec §6
// wire form: num_side_nodes (1 byte) || bitmask || digests_present*.
func EncodeCompactProof(cp *CompactProof, n int) ([]byte, error) {
	var out []byte
	out = appendNonMembership(out, cp.NonMembershipLeaf)

	if cp.NumSideNodes > 255 {
		return nil, &BadProofError{Reason: "more than 255 side nodes, cannot encode 1-byte length prefix"}
	}
	out = append(out, byte(cp.NumSideNodes))
	out = append(out, cp.Bitmask...)
	for _, sn := range cp.SideNodesPresent {
		out = append(out, sn...)
	}
	return out, nil
}

// DecodeCompactProof parses the compact wire form for digest width n.
func DecodeCompactProof(wire []byte, n int) (*CompactProof, error) {
	nm, rest, err := parseNonMembership(wire, n)
	if err != nil {
		return nil, err
	}
	if len(rest) < 1 {
		return nil, &BadProofError{Reason: "truncated num_side_nodes"}
	}
	numSideNodes := int(rest[0])
	rest = rest[1:]

	maskLen := (numSideNodes + 7) / 8
	if len(rest) < maskLen {
		return nil, &BadProofError{Reason: "truncated bitmask"}
	}
	mask := rest[:maskLen]
	rest = rest[maskLen:]

	present := 0
	for i := 0; i < numSideNodes; i++ {
		if bitAtMask(mask, i) == 0 {
			present++
		}
	}
	if len(rest) != present*n {
		return nil, &BadProofError{Reason: "present-digest block length mismatch"}
	}
	digests := make([]Digest, present)
	for i := 0; i < present; i++ {
		digests[i] = Digest(rest[i*n : (i+1)*n]).clone()
	}

	return &CompactProof{
		Bitmask:           append([]byte(nil), mask...),
		SideNodesPresent:  digests,
		NonMembershipLeaf: nm,
		NumSideNodes:      numSideNodes,
	}, nil
}
