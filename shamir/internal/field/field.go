// Copyright 2024 the keysplit authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package field defines a generic definition of a finite field of
// characteristic 2, the algebraic structure the sharing polynomials
// are evaluated over.
package field

// Element is an element in a finite field.
type Element interface {
	// Add element `a` and return a new element.
	Add(a Element) Element
	// Subtract element `a` and return a new element. In fields of
	// characteristic 2 this is the same operation as Add.
	Subtract(a Element) Element
	// Multiply by element `a` and return a new element.
	Multiply(a Element) Element
	// Inverse returns the multiplicative inverse of the element.
	// The zero element has no inverse and returns an error.
	Inverse() (Element, error)
	// Bytes returns a big endian byte representation of the element.
	Bytes() []byte
}

// GaloisField represents a finite field.
type GaloisField interface {
	// CreateElement creates a field element from i. The value of i must be
	// within the range representable in ElementSize() bytes.
	CreateElement(i int) (Element, error)
	// NewRandomNonZero generates a uniformly random nonzero element using a
	// cryptographically secure source.
	NewRandomNonZero() (Element, error)
	// ReadElement reads an element from a big endian encoded byte slice b at
	// element offset i.
	ReadElement(b []byte, i int) (Element, error)
	// EncodeElements encodes a set of field elements into a byte slice of
	// size secLen. The output round-trips through DecodeElements.
	EncodeElements(parts []Element, secLen int) ([]byte, error)
	// DecodeElements creates a set of field elements from a byte slice.
	DecodeElements([]byte) []Element
	// ElementSize returns the size of each element in bytes.
	ElementSize() int
}
