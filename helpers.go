// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagereport

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Rat is a rational number.
type Rat[T int32 | uint32 | int64] interface {
	Num() T
	Den() T
	Float64() float64

	// String returns the string representation of the rational number.
	// If the denominator is 1, the string will be the numerator only.
	String() string
}

var errZeroDenominator = errors.New("denominator must be non-zero")

// rat is a rational number.
// It's a lightweight version of math/big.rat.
type rat[T int32 | uint32 | int64] struct {
	num T
	den T
}

// Num returns the numerator of the rational number.
func (r rat[T]) Num() T {
	return r.num
}

// Den returns the denominator of the rational number.
func (r rat[T]) Den() T {
	return r.den
}

// Float64 returns the float64 representation of the rational number.
func (r rat[T]) Float64() float64 {
	return float64(r.num) / float64(r.den)
}

// String returns the string representation of the rational number.
// If the denominator is 1, the string will be the numerator only.
func (r rat[T]) String() string {
	if r.den == 1 {
		return fmt.Sprintf("%d", r.num)
	}
	return fmt.Sprintf("%d/%d", r.num, r.den)
}

// NewRat returns a new Rat with the given numerator and denominator.
// The result is normalized: the greatest common divisor is removed and
// the denominator is positive.
func NewRat[T int32 | uint32 | int64](num, den T) (Rat[T], error) {
	if den == 0 {
		return nil, errZeroDenominator
	}

	// Remove the greatest common divisor.
	gcd := func(a, b T) T {
		for b != 0 {
			a, b = b, a%b
		}
		return a
	}
	d := gcd(num, den)
	if d != 1 {
		num, den = num/d, den/d
	}

	// Denominator must be positive.
	if den < 0 {
		num, den = -num, -den
	}

	return rat[T]{num: num, den: den}, nil
}

func isUndefined(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}

func printableString(s string) string {
	ss := strings.Map(func(r rune) rune {
		if unicode.IsGraphic(r) {
			return r
		}
		return -1
	}, s)

	return strings.TrimSpace(ss)
}

// bytesToString converts a byte-typed EXIF value to a printable string.
// Values that are not valid UTF-8 are assumed to be ISO-8859-1.
func bytesToString(b []byte) string {
	b = trimBytesNulls(b)
	if !utf8.Valid(b) {
		if decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b); err == nil {
			b = decoded
		}
	}
	return printableString(string(b))
}

func trimBytesNulls(b []byte) []byte {
	var lo, hi int
	for lo = 0; lo < len(b) && b[lo] == 0; lo++ {
	}
	for hi = len(b) - 1; hi >= 0 && b[hi] == 0; hi-- {
	}
	if lo > hi {
		return nil
	}
	return b[lo : hi+1]
}

// round2 rounds f to two decimals. Negative zero is normalized to zero.
func round2(f float64) float64 {
	r := math.Round(f*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

// formatDecimal formats f using the shortest representation.
func formatDecimal(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatSigned formats f rounded to two decimals with an explicit sign.
// The sign is taken from f, so -0.004 is "-0".
func formatSigned(f float64) string {
	r := formatDecimal(math.Abs(round2(f)))
	if f < 0 {
		return "-" + r
	}
	return "+" + r
}
