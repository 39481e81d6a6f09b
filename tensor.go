// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lodtensor

import (
	"encoding/binary"
	"math"
	"slices"
	"strconv"

	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// Tensor is a flat buffer with a shape.
//
// Data is laid out row major and in native byte order. A Tensor obtained
// with Slice borrows the parent's Data; one returned by Copy or Merge owns a
// freshly allocated buffer.
type Tensor struct {
	DType  DType
	Shape  []uint64
	Layout Layout
	Place  Place
	Data   []byte
}

// NewTensor allocates a zeroed buffer of the given type and shape on place.
func NewTensor(dType DType, shape []uint64, place Place) (Tensor, error) {
	t := Tensor{DType: dType, Shape: slices.Clone(shape), Place: place}
	n, err := t.byteSize()
	if err != nil {
		return Tensor{}, err
	}
	t.Data = make([]byte, n)
	return t, nil
}

// Validate validates the object.
func (t *Tensor) Validate() error {
	if !t.DType.Valid() {
		return errors.Errorf("invalid tensor: unknown dtype %q", t.DType)
	}
	n, err := t.byteSize()
	if err != nil {
		return err
	}
	if len(t.Shape) != 0 && t.Shape[0] > math.MaxInt {
		return errors.Errorf("invalid tensor: leading dimension %d exceeds %d", t.Shape[0], math.MaxInt)
	}
	if l := uint64(len(t.Data)); l != n {
		return errors.Errorf("invalid tensor: dtype=%s shape=%+v len(data)=%d", t.DType, t.Shape, l)
	}
	return nil
}

// NumElements returns the number of elements described by the shape.
func (t *Tensor) NumElements() uint64 {
	return numElementsFromShape(t.Shape)
}

// Height returns the leading dimension, or -1 for a rank-0 tensor.
//
// Validate rejects a leading dimension that doesn't fit an int.
func (t *Tensor) Height() int {
	if len(t.Shape) == 0 {
		return -1
	}
	return int(t.Shape[0])
}

// Slice returns a view of rows [begin, end) of the leading dimension.
//
// The view shares Data with t.
func (t *Tensor) Slice(begin, end uint64) (Tensor, error) {
	if len(t.Shape) == 0 {
		return Tensor{}, errors.Wrap(ErrOutOfRange, "cannot slice a rank-0 tensor")
	}
	if begin > end || end > t.Shape[0] {
		return Tensor{}, errors.Wrapf(ErrOutOfRange, "slice [%d, %d) of height %d", begin, end, t.Shape[0])
	}
	row := t.rowSize()
	if end*row > uint64(len(t.Data)) {
		return Tensor{}, errors.Wrapf(ErrOutOfRange, "slice [%d, %d) needs %d bytes, buffer has %d", begin, end, end*row, len(t.Data))
	}
	shape := slices.Clone(t.Shape)
	shape[0] = end - begin
	return Tensor{
		DType:  t.DType,
		Shape:  shape,
		Layout: t.Layout,
		Place:  t.Place,
		Data:   t.Data[begin*row : end*row : end*row],
	}, nil
}

// Copy allocates a buffer on dst and enqueues the transfer of src's contents
// into it.
//
// Only the buffer contents move. The transfer may still be in flight when
// Copy returns if either side is a device; wait on the device context before
// reading.
func Copy(pool *Pool, src Tensor, dst Place) (Tensor, error) {
	out := Tensor{
		DType:  src.DType,
		Shape:  slices.Clone(src.Shape),
		Layout: src.Layout,
		Place:  dst,
		Data:   make([]byte, len(src.Data)),
	}
	if err := CopyInto(pool, src, out); err != nil {
		return Tensor{}, err
	}
	return out, nil
}

// CopyInto enqueues the transfer of src's contents into dst's buffer.
//
// Both buffers must have the same byte size. The transfer runs on a single
// stream, so it is ordered only against work on that stream: when src is
// still being written by another device's stream, wait on that context
// first.
func CopyInto(pool *Pool, src, dst Tensor) error {
	if len(src.Data) != len(dst.Data) {
		return errors.Wrapf(ErrShapeMismatch, "copy %d bytes into %d bytes", len(src.Data), len(dst.Data))
	}
	ctx, err := pool.contextFor(src.Place, dst.Place)
	if err != nil {
		return err
	}
	recordCopy(dst.Place, len(src.Data))
	s, d := src.Data, dst.Data
	ctx.Enqueue(func() error {
		copy(d, s)
		return nil
	})
	return nil
}

// rowSize returns the byte size of one row of the leading dimension.
func (t *Tensor) rowSize() uint64 {
	n := t.DType.WordSize()
	for _, v := range t.Shape[1:] {
		n *= v
	}
	return n
}

// sameTrailing returns true if t and o have the same rank and dimensions
// besides the leading one.
func (t *Tensor) sameTrailing(o *Tensor) bool {
	if len(t.Shape) != len(o.Shape) || len(t.Shape) == 0 {
		return false
	}
	return slices.Equal(t.Shape[1:], o.Shape[1:])
}

func (t *Tensor) byteSize() (uint64, error) {
	numElements := uint64(1)
	if len(t.Shape) == 0 {
		numElements = 0
	}
	for _, v := range t.Shape {
		var err error
		if numElements, err = checkedMul(numElements, v); err != nil {
			return 0, errors.WithMessage(err, "invalid tensor: failed to compute num elements from shape")
		}
	}
	n, err := checkedMul(numElements, t.DType.WordSize())
	if err != nil {
		return 0, errors.WithMessage(err, "invalid tensor: failed to compute num bytes from num elements")
	}
	return n, nil
}

// element formats the i-th element of a host buffer.
func (t *Tensor) element(i uint64) string {
	w := t.DType.WordSize()
	b := t.Data[i*w : (i+1)*w]
	e := binary.NativeEndian
	switch t.DType {
	case BOOL:
		return strconv.FormatBool(b[0] != 0)
	case U8:
		return strconv.FormatUint(uint64(b[0]), 10)
	case I8:
		return strconv.FormatInt(int64(int8(b[0])), 10)
	case I16:
		return strconv.FormatInt(int64(int16(e.Uint16(b))), 10)
	case U16:
		return strconv.FormatUint(uint64(e.Uint16(b)), 10)
	case F16:
		return strconv.FormatFloat(float64(float16.Frombits(e.Uint16(b)).Float32()), 'g', -1, 32)
	case BF16:
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(e.Uint16(b))<<16)), 'g', -1, 32)
	case I32:
		return strconv.FormatInt(int64(int32(e.Uint32(b))), 10)
	case U32:
		return strconv.FormatUint(uint64(e.Uint32(b)), 10)
	case F32:
		return strconv.FormatFloat(float64(math.Float32frombits(e.Uint32(b))), 'g', -1, 32)
	case F64:
		return strconv.FormatFloat(math.Float64frombits(e.Uint64(b)), 'g', -1, 64)
	case I64:
		return strconv.FormatInt(int64(e.Uint64(b)), 10)
	case U64:
		return strconv.FormatUint(e.Uint64(b), 10)
	}
	return "?"
}

// numElementsFromShape returns the product of shape, 0 for rank 0.
func numElementsFromShape(shape []uint64) uint64 {
	if len(shape) == 0 {
		return 0
	}
	n := shape[0]
	for _, v := range shape[1:] {
		n *= v
	}
	return n
}

// checkedMul multiplies a and b and checks for overflow.
func checkedMul(a, b uint64) (uint64, error) {
	c := a * b
	if a > 1 && b > 1 && c/a != b {
		return c, errors.Errorf("multiplication overflow: %d * %d", a, b)
	}
	return c, nil
}
