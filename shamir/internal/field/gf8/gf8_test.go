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

package gf8_test

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/keysplit/keysplit/shamir/internal/field/gf8"
)

func getRandomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("Failed to read random bytes: %v", err)
	}
	return b
}

func TestAdditionAndSubtractionAreXOR(t *testing.T) {
	f := gf8.New()
	for i := 0; i < 10; i++ {
		elems := getRandomBytes(t, 2)

		e1, err := f.CreateElement(int(elems[0]))
		if err != nil {
			t.Fatal(err)
		}
		e2, err := f.CreateElement(int(elems[1]))
		if err != nil {
			t.Fatal(err)
		}

		if got, want := e1.Add(e2).Bytes()[0], elems[0]^elems[1]; got != want {
			t.Fatalf("a(%d) + b(%d), got = %d, want = %d", elems[0], elems[1], got, want)
		}
		if got, want := e1.Subtract(e2).Bytes()[0], elems[0]^elems[1]; got != want {
			t.Fatalf("a(%d) - b(%d), got = %d, want = %d", elems[0], elems[1], got, want)
		}
	}
}

func TestMultiplication(t *testing.T) {
	f := gf8.New()
	for _, tc := range []struct {
		a    byte
		b    byte
		want byte
	}{
		// Known vectors for GF(2^8) over the AES irreducible polynomial:
		// https://en.wikipedia.org/wiki/Finite_field_arithmetic#Rijndael's_(AES)_finite_field
		{a: 0x53, b: 0xCA, want: 0x01},
		{a: 0x02, b: 0x87, want: 0x15},
		{a: 0x03, b: 0x6E, want: 0xB2},
		{a: 161, b: 56, want: 102},
		{a: 51, b: 82, want: 15},
		{a: 15, b: 30, want: 170},
		{a: 105, b: 27, want: 20},
		{a: 178, b: 160, want: 67},
		{a: 244, b: 118, want: 55},
	} {
		t.Run(fmt.Sprintf("%d * %d", tc.a, tc.b), func(t *testing.T) {
			a, err := f.CreateElement(int(tc.a))
			if err != nil {
				t.Fatal(err)
			}
			b, err := f.CreateElement(int(tc.b))
			if err != nil {
				t.Fatal(err)
			}
			if got := a.Multiply(b).Bytes()[0]; got != tc.want {
				t.Errorf("a(%d) * b(%d), got = %d, want = %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestInverse(t *testing.T) {
	f := gf8.New()
	for _, tc := range []struct {
		a    byte
		want byte
	}{
		{a: 0x53, want: 0xCA},
		{a: 29, want: 64},
		{a: 180, want: 17},
		{a: 249, want: 156},
		{a: 186, want: 118},
		{a: 209, want: 7},
	} {
		t.Run(fmt.Sprintf("inverse of %d", tc.a), func(t *testing.T) {
			a, err := f.CreateElement(int(tc.a))
			if err != nil {
				t.Fatal(err)
			}
			inv, err := a.Inverse()
			if err != nil {
				t.Fatalf("Inverse() err = %v, want nil", err)
			}
			if got := inv.Bytes()[0]; got != tc.want {
				t.Errorf("inverse of %d, got = %d, want = %d", tc.a, got, tc.want)
			}
		})
	}
}

func TestInverseRoundTrip(t *testing.T) {
	f := gf8.New()
	for i := 1; i <= 255; i++ {
		a, err := f.CreateElement(i)
		if err != nil {
			t.Fatal(err)
		}
		inv, err := a.Inverse()
		if err != nil {
			t.Fatalf("Inverse() of %d err = %v, want nil", i, err)
		}
		if got := a.Multiply(inv).Bytes()[0]; got != 1 {
			t.Errorf("%d * %d^-1 = %d, want 1", i, i, got)
		}
	}
}

func TestInverseOfZeroFails(t *testing.T) {
	f := gf8.New()
	zero, err := f.CreateElement(0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := zero.Inverse(); err == nil {
		t.Error("Inverse() of zero err = nil, want error")
	}
}

func TestCreateElementOutOfRangeFails(t *testing.T) {
	f := gf8.New()
	for _, i := range []int{-1, 256, 1000} {
		if _, err := f.CreateElement(i); err == nil {
			t.Errorf("CreateElement(%d) err = nil, want error", i)
		}
	}
}

func TestEncodeDecodeElementsRoundTrip(t *testing.T) {
	f := gf8.New()
	in := getRandomBytes(t, 32)
	elems := f.DecodeElements(in)
	out, err := f.EncodeElements(elems, len(in))
	if err != nil {
		t.Fatalf("EncodeElements() err = %v, want nil", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("round trip mismatch at %d: got %d, want %d", i, out[i], in[i])
		}
	}
}

func TestNewRandomNonZeroIsNonZero(t *testing.T) {
	f := gf8.New()
	for i := 0; i < 100; i++ {
		e, err := f.NewRandomNonZero()
		if err != nil {
			t.Fatalf("NewRandomNonZero() err = %v, want nil", err)
		}
		if e.Bytes()[0] == 0 {
			t.Fatal("NewRandomNonZero() returned zero")
		}
	}
}
