// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lodtensor implements tensors carrying a Level-of-Detail (LoD) index:
// nested variable-length sequence boundaries over the leading dimension of a
// flat buffer.
//
// The package validates and converts LoDs, extracts sub-ranges, splits a
// LoDTensor across several places, merges partial results back and encodes
// LoDTensors in a versioned binary format.
//
// Buffer transfers go through the DeviceContext of the places involved, held
// by a Pool passed explicitly to each operation. Transfers to or from a
// device may complete asynchronously; call Pool.WaitAll (or Wait on the
// relevant context) before reading the result.
package lodtensor

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// maxPrintedElements is the number of elements rendered by Format.
const maxPrintedElements = 10

// LoDTensor is a Tensor with a LoD over its leading dimension.
//
// It owns its LoD. A LoDTensor must not be mutated concurrently.
type LoDTensor struct {
	Tensor
	LoD LoD
}

// SetLoD replaces the LoD with a copy of lod.
func (t *LoDTensor) SetLoD(lod LoD) {
	t.LoD = lod.Clone()
}

// Validate checks the buffer and the relative-form LoD against the tensor
// height.
func (t *LoDTensor) Validate() error {
	if err := t.Tensor.Validate(); err != nil {
		return err
	}
	return CheckLoD(t.LoD, t.Height())
}

// NumSequences returns the number of ranges at level, or the height when the
// tensor has no LoD and level is 0.
func (t *LoDTensor) NumSequences(level int) (int, error) {
	if len(t.LoD) == 0 && level == 0 {
		if h := t.Height(); h >= 0 {
			return h, nil
		}
	}
	if level < 0 || level >= len(t.LoD) {
		return 0, errors.Wrapf(ErrOutOfRange, "level %d of %d", level, len(t.LoD))
	}
	return len(t.LoD[level]) - 1, nil
}

// SequenceRange returns the rows of the leading dimension covered by the i-th
// range of level.
func (t *LoDTensor) SequenceRange(level, i int) (Range, error) {
	n, err := t.NumSequences(level)
	if err != nil {
		return Range{}, err
	}
	if i < 0 || i >= n {
		return Range{}, errors.Wrapf(ErrOutOfRange, "sequence %d of %d", i, n)
	}
	if len(t.LoD) == 0 {
		return Range{Begin: uint64(i), End: uint64(i + 1)}, nil
	}
	abs, err := ToAbsOffset(t.LoD)
	if err != nil {
		return Range{}, err
	}
	return Range{Begin: abs[level][i], End: abs[level][i+1]}, nil
}

// Format renders the tensor as "dim: <shape>\nlod: <lod>\n" followed by up to
// its first 10 elements.
//
// A tensor residing on a device is first copied to the host and the device
// context is waited on, so Format synchronizes with that device.
func (t *LoDTensor) Format(pool *Pool) (string, error) {
	src := t.Tensor
	if !src.Place.IsHost() {
		h, err := Copy(pool, src, Host)
		if err != nil {
			return "", err
		}
		ctx, err := pool.Get(src.Place)
		if err != nil {
			return "", err
		}
		if err := ctx.Wait(); err != nil {
			return "", err
		}
		src = h
	}
	var b strings.Builder
	b.WriteString("dim: ")
	b.WriteString(formatShape(src.Shape))
	b.WriteString("\nlod: ")
	b.WriteString(t.LoD.String())
	b.WriteString("\n")
	n := src.NumElements()
	if n > maxPrintedElements {
		n = maxPrintedElements
	}
	if avail := uint64(len(src.Data)) / max(src.DType.WordSize(), 1); n > avail {
		n = avail
	}
	for i := uint64(0); i < n; i++ {
		b.WriteString(src.element(i))
		b.WriteByte(' ')
	}
	return b.String(), nil
}

// String implements fmt.Stringer for host tensors. Use Format for tensors on
// a device.
func (t *LoDTensor) String() string {
	if !t.Place.IsHost() {
		return "dim: " + formatShape(t.Shape) + "\nlod: " + t.LoD.String() + "\n<" + t.Place.String() + ">"
	}
	s, _ := t.Format(nil)
	return s
}

func formatShape(shape []uint64) string {
	parts := make([]string, len(shape))
	for i, v := range shape {
		parts[i] = strconv.FormatUint(v, 10)
	}
	return strings.Join(parts, ", ")
}
