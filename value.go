// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagereport

import (
	"fmt"
	"strings"
)

// RawTagSet holds the raw EXIF values of one image keyed by tag ID.
type RawTagSet map[TagID]TagValue

// ValueKind is the kind of a raw EXIF value.
type ValueKind uint8

const (
	// KindInvalid is the zero ValueKind.
	KindInvalid ValueKind = iota
	// KindString is an ASCII tag value.
	KindString
	// KindRational is a rational or integer tag value. Integers have a denominator of 1.
	KindRational
	// KindFloat is a floating point tag value.
	KindFloat
	// KindBytes is an undefined or byte tag value.
	KindBytes
)

// TagValue is a raw EXIF value: a string, a decimal or a byte sequence.
// Use the constructor functions to create one.
type TagValue struct {
	kind ValueKind
	s    string
	r    Rat[int64]
	f    float64
	b    []byte
}

// StringValue creates a new string TagValue.
func StringValue(s string) TagValue {
	return TagValue{kind: KindString, s: s}
}

// RationalValue creates a new rational TagValue.
// It returns an error if den is zero.
func RationalValue(num, den int64) (TagValue, error) {
	r, err := NewRat(num, den)
	if err != nil {
		return TagValue{}, fmt.Errorf("rational %d/%d: %w", num, den, err)
	}
	return TagValue{kind: KindRational, r: r}, nil
}

// IntValue creates a new integer TagValue.
func IntValue(i int64) TagValue {
	return TagValue{kind: KindRational, r: rat[int64]{num: i, den: 1}}
}

// FloatValue creates a new floating point TagValue.
func FloatValue(f float64) TagValue {
	return TagValue{kind: KindFloat, f: f}
}

// BytesValue creates a new byte sequence TagValue.
func BytesValue(b []byte) TagValue {
	return TagValue{kind: KindBytes, b: b}
}

// Kind returns the kind of v.
func (v TagValue) Kind() ValueKind {
	return v.kind
}

// IsZero reports whether v is the zero TagValue.
func (v TagValue) IsZero() bool {
	return v.kind == KindInvalid
}

// Text returns the value as a trimmed, printable string.
// Byte sequences are converted; decimals are not.
func (v TagValue) Text() (string, bool) {
	switch v.kind {
	case KindString:
		return printableString(strings.TrimRight(v.s, "\x00")), true
	case KindBytes:
		return bytesToString(v.b), true
	default:
		return "", false
	}
}

// Rat returns the rational value.
func (v TagValue) Rat() (Rat[int64], bool) {
	if v.kind != KindRational {
		return nil, false
	}
	return v.r, true
}

// Float64 returns the value as a decimal.
// Both rationals and floats are decimals.
func (v TagValue) Float64() (float64, bool) {
	var f float64
	switch v.kind {
	case KindRational:
		f = v.r.Float64()
	case KindFloat:
		f = v.f
	default:
		return 0, false
	}
	if isUndefined(f) {
		return 0, false
	}
	return f, true
}

// Int returns the value as an integer.
// Only rationals with a denominator of 1 are integers.
func (v TagValue) Int() (int64, bool) {
	if v.kind != KindRational || v.r.Den() != 1 {
		return 0, false
	}
	return v.r.Num(), true
}

// Bytes returns the byte sequence.
func (v TagValue) Bytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return v.b, true
}

func (v TagValue) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindRational:
		return v.r.String()
	case KindFloat:
		return formatDecimal(v.f)
	case KindBytes:
		return fmt.Sprintf("(Binary data %d bytes)", len(v.b))
	default:
		return "<invalid>"
	}
}
