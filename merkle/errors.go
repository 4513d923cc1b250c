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

import "fmt"

// StoreError wraps any failure returned by the caller's Store (spec §7).
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("merkle: store error during %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

func newStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// KeyNotFoundError is returned by Delete for a key with no leaf (spec §7).
type KeyNotFoundError struct {
	Key []byte
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("merkle: key not found: %x", e.Key)
}

// CorruptStoreError reports a referenced node digest that is absent,
// decodes to an unknown kind, has the wrong length, or contains a
// placeholder child where invariant 4 forbids one (spec §7).
type CorruptStoreError struct {
	Digest []byte
	Reason string
	Err    error
}

func (e *CorruptStoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("merkle: corrupt store at %x: %s: %v", e.Digest, e.Reason, e.Err)
	}
	return fmt.Sprintf("merkle: corrupt store at %x: %s", e.Digest, e.Reason)
}

func (e *CorruptStoreError) Unwrap() error { return e.Err }

// BadProofError is returned by Verify/Uncompact for a structurally
// invalid proof (spec §7). Verify itself returns a plain bool for a
// structurally valid proof that simply fails to recompute the root.
type BadProofError struct {
	Reason string
}

func (e *BadProofError) Error() string { return fmt.Sprintf("merkle: bad proof: %s", e.Reason) }

// BadEncodingError is returned by node decoding for an unrecognised
// prefix byte or wrong-length blob (spec §4.2, invariant 1).
type BadEncodingError struct {
	Reason string
}

func (e *BadEncodingError) Error() string { return fmt.Sprintf("merkle: bad encoding: %s", e.Reason) }
