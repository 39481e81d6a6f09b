// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lodtensor

import (
	"fmt"

	"github.com/pkg/errors"
)

// DType identifies the element kind stored in a Tensor buffer.
//
// The set is closed: two buffers are compatible only when their DType values
// are equal.
type DType string

const (
	// Boolean type
	BOOL DType = "BOOL"
	// Unsigned byte
	U8 DType = "U8"
	// Signed byte
	I8 DType = "I8"
	// Signed integer (16-bit)
	I16 DType = "I16"
	// Unsigned integer (16-bit)
	U16 DType = "U16"
	// Half-precision floating point
	F16 DType = "F16"
	// Brain floating point
	BF16 DType = "BF16"
	// Signed integer (32-bit)
	I32 DType = "I32"
	// Unsigned integer (32-bit)
	U32 DType = "U32"
	// Floating point (32-bit)
	F32 DType = "F32"
	// Floating point (64-bit)
	F64 DType = "F64"
	// Signed integer (64-bit)
	I64 DType = "I64"
	// Unsigned integer (64-bit)
	U64 DType = "U64"
)

// DTypeToWordSize maps each supported DType to its size in bytes.
var DTypeToWordSize = map[DType]uint64{
	BOOL: 1,
	U8:   1,
	I8:   1,
	I16:  2,
	U16:  2,
	F16:  2,
	BF16: 2,
	I32:  4,
	U32:  4,
	F32:  4,
	F64:  8,
	I64:  8,
	U64:  8,
}

// WordSize returns the size in bytes of one element of this data type.
//
// It returns 0 for an unknown DType.
func (dt DType) WordSize() uint64 {
	return DTypeToWordSize[dt]
}

// Valid returns true if dt is one of the supported element kinds.
func (dt DType) Valid() bool {
	return DTypeToWordSize[dt] != 0
}

func (dt *DType) UnmarshalText(b []byte) error {
	v := DType(b)
	if !v.Valid() {
		return errors.Errorf("%q is not a valid DType", string(b))
	}
	*dt = v
	return nil
}

// Layout is the memory layout tag carried along with a buffer.
//
// The LoD machinery never interprets it, it only requires merged parts to
// agree.
type Layout int

const (
	AnyLayout Layout = iota
	NCHW
	NHWC
)

var layoutNames = [...]string{"ANY", "NCHW", "NHWC"}

func (l Layout) String() string {
	if l < 0 || int(l) >= len(layoutNames) {
		return fmt.Sprintf("Layout(%d)", int(l))
	}
	return layoutNames[l]
}

func (l Layout) MarshalText() ([]byte, error) {
	if l < 0 || int(l) >= len(layoutNames) {
		return nil, errors.Errorf("invalid layout %d", int(l))
	}
	return []byte(layoutNames[l]), nil
}

func (l *Layout) UnmarshalText(b []byte) error {
	for i, n := range layoutNames {
		if n == string(b) {
			*l = Layout(i)
			return nil
		}
	}
	return errors.Errorf("%q is not a valid Layout", string(b))
}
