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

// Package shamirgeneric implements Shamir secret sharing over a generic
// finite field.
package shamirgeneric

import (
	"fmt"

	"github.com/keysplit/keysplit/shamir/internal/field"
	"github.com/keysplit/keysplit/shamir/secrets"
)

// SplitSecret splits a secret into n shares where t or more shares can be
// combined to reconstruct the original secret.
func SplitSecret(metadata secrets.Metadata, secret []byte, gf field.GaloisField) (secrets.Split, error) {
	if err := validateSplitInput(metadata, secret); err != nil {
		return secrets.Split{}, err
	}
	threshold := metadata.Threshold
	numShares := metadata.NumShares
	// The secret can be an arbitrary length byte array, but each element in a
	// field is of a finite size, hence the secret is split into a set of
	// elements in the field.
	subsecrets := gf.DecodeElements(secret)
	shares := make([]secrets.Share, numShares)

	// For each subsecret we build a polynomial of degree threshold-1. The
	// subsecret is the constant coefficient and every other coefficient is a
	// random nonzero field element:
	// subsecret + R_1 * x^1 + R_2 * x^2 + ... + R_{t-1} * x^{t-1}
	for _, subsecret := range subsecrets {
		coefficients := make([]field.Element, threshold)
		coefficients[0] = subsecret
		for i := 1; i < threshold; i++ {
			var err error
			if coefficients[i], err = gf.NewRandomNonZero(); err != nil {
				return secrets.Split{}, err
			}
		}
		for i := 0; i < numShares; i++ {
			// Each sub-share is the evaluation of the polynomial at the point
			// x = i+1, giving the point (X, Y).
			xi, err := gf.CreateElement(i + 1)
			if err != nil {
				return secrets.Split{}, err
			}
			subshare := evaluatePolynomial(coefficients, xi, gf)
			// Share i collects the evaluations of every subsecret polynomial
			// at the same X:
			// shares[0]   = [ F1(1), F2(1), ..., FN(1) ]
			// shares[1]   = [ F1(2), F2(2), ..., FN(2) ]
			// shares[n-1] = [ F1(n), F2(n), ..., FN(n) ]
			shares[i].Value = append(shares[i].Value, subshare.Bytes()...)
			shares[i].X = i + 1
		}
	}
	return secrets.Split{
		Shares:    shares,
		Metadata:  metadata,
		SecretLen: len(secret),
	}, nil
}

// evaluates a polynomial at `x` where `coefficients` take the form:
// f(x) = c[n-1] * x^(n-1) + c[n-2] * x^(n-2) + ... + c[1] * x^1 + c[0]
// All arithmetic is performed over the finite field.
func evaluatePolynomial(coefficients []field.Element, x field.Element, gf field.GaloisField) field.Element {
	sum := coefficients[len(coefficients)-1]
	for i := len(coefficients) - 2; i >= 0; i-- {
		sum = sum.Multiply(x).Add(coefficients[i])
	}
	return sum
}

// Reconstruct reconstructs a secret from at least t out of n shares.
func Reconstruct(splitSecret secrets.Split, gf field.GaloisField) ([]byte, error) {
	if err := validateReconstructInput(splitSecret); err != nil {
		return nil, err
	}
	// Only threshold shares are needed; the committed rule is to use the
	// first threshold shares in the order provided. Any valid subset of that
	// size interpolates to the same constant term.
	shares := splitSecret.Shares[:splitSecret.Metadata.Threshold]

	// A degree-0 polynomial is the secret itself.
	if splitSecret.Metadata.Threshold == 1 {
		return gf.EncodeElements(gf.DecodeElements(shares[0].Value), splitSecret.SecretLen)
	}

	xVals := make([]field.Element, 0, len(shares))
	for _, s := range shares {
		xi, err := gf.CreateElement(s.X)
		if err != nil {
			return nil, err
		}
		xVals = append(xVals, xi)
	}
	// Precompute the Lagrange coefficients once; they depend only on the X
	// coordinates and are reused for every subsecret.
	coefficients, err := lagrangeCoefficients(xVals, gf)
	if err != nil {
		return nil, err
	}
	numSubSecrets := len(shares[0].Value) / gf.ElementSize()
	subsecrets := make([]field.Element, numSubSecrets)
	for i := 0; i < numSubSecrets; i++ {
		yVals := make([]field.Element, len(xVals))
		for j, s := range shares {
			yVals[j], err = gf.ReadElement(s.Value, i)
			if err != nil {
				return nil, err
			}
		}
		// Interpolation at x=0 recovers the constant coefficient, the
		// geometric interpretation of the intersection with the Y axis.
		subsecrets[i], err = interpolatePolynomial(coefficients, yVals, gf)
		if err != nil {
			return nil, err
		}
	}
	return gf.EncodeElements(subsecrets, splitSecret.SecretLen)
}

// performs Lagrange polynomial interpolation at x=0 over the finite field:
// ∑i={1,n} y[i] * ( ∏j={1,n,j≠i} ( x[j] / (x[j] - x[i]) ) )
// The product terms are precalculated by lagrangeCoefficients.
func interpolatePolynomial(lagCoeff []field.Element, yVals []field.Element, gf field.GaloisField) (field.Element, error) {
	if len(lagCoeff) != len(yVals) {
		return nil, fmt.Errorf("invalid lagrange coefficients")
	}
	sum, err := gf.CreateElement(0)
	if err != nil {
		return nil, err
	}
	// ∑i={1,n} y[i] * lagrange_coefficient[i]
	for i, y := range yVals {
		sum = sum.Add(y.Multiply(lagCoeff[i]))
	}
	return sum, nil
}

// recovers the Lagrange coefficients from the x coordinates:
// ∏j={1,n,j≠i} ( x[j] / (x[j] - x[i]) )
// In a field of characteristic 2 subtraction is xor, so the order of the
// operands in the difference does not matter.
func lagrangeCoefficients(x []field.Element, gf field.GaloisField) ([]field.Element, error) {
	if len(x) < 2 {
		return nil, fmt.Errorf("must have at least 2 values")
	}
	out := make([]field.Element, 0, len(x))
	for i := 0; i < len(x); i++ {
		one, err := gf.CreateElement(1)
		if err != nil {
			return nil, err
		}
		out = append(out, one)
		for j := 0; j < len(x); j++ {
			if i == j {
				continue
			}
			if x[i] == x[j] {
				return nil, fmt.Errorf("all shares must be unique points")
			}
			diff, err := x[j].Subtract(x[i]).Inverse()
			if err != nil {
				return nil, err
			}
			out[i] = out[i].Multiply(x[j]).Multiply(diff)
		}
	}
	return out, nil
}

func validateSplitInput(metadata secrets.Metadata, secret []byte) error {
	if len(secret) == 0 {
		return fmt.Errorf("secret must not be empty")
	}
	if metadata.Threshold < 1 {
		return fmt.Errorf("threshold must be at least 1")
	}
	if metadata.Threshold > metadata.NumShares {
		return fmt.Errorf("threshold must be smaller than or equal to numShares")
	}
	if metadata.NumShares > 255 {
		return fmt.Errorf("numShares must be at most 255")
	}
	return nil
}

func validateReconstructInput(splitSecret secrets.Split) error {
	if splitSecret.Metadata.Threshold < 1 {
		return fmt.Errorf("threshold must be at least 1")
	}
	if splitSecret.Metadata.NumShares < splitSecret.Metadata.Threshold {
		return fmt.Errorf("threshold larger than number of shares")
	}
	if len(splitSecret.Shares) < splitSecret.Metadata.Threshold {
		return fmt.Errorf("not enough shares to reconstruct the secret, need at least %d, got: %d", splitSecret.Metadata.Threshold, len(splitSecret.Shares))
	}
	for _, s := range splitSecret.Shares {
		if s.X == 0 {
			return fmt.Errorf("invalid X value")
		}
		if len(s.Value) == 0 {
			return fmt.Errorf("empty share value")
		}
		if len(s.Value) != len(splitSecret.Shares[0].Value) {
			return fmt.Errorf("shares have inconsistent lengths")
		}
	}
	return nil
}
