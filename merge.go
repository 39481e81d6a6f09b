// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lodtensor

import (
	"slices"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Merge concatenates parts along the leading dimension into a new LoDTensor
// allocated on place.
//
// All parts must have the same DType, Layout, trailing dimensions and LoD
// depth. Each level of a part's LoD is appended after the accumulated level,
// shifted by its last offset. The buffer copies are enqueued in input order
// but not waited on.
func Merge(pool *Pool, parts []*LoDTensor, place Place) (*LoDTensor, error) {
	if len(parts) == 0 {
		return nil, ErrNoParts
	}
	first := parts[0]
	if len(first.Shape) == 0 {
		return nil, errors.Wrap(ErrShapeMismatch, "part 0 is rank-0")
	}
	shape := slices.Clone(first.Shape)
	lod := first.LoD.Clone()
	for j, lvl := range lod {
		if len(lvl) == 0 {
			return nil, errors.Wrapf(ErrInvalidLoD, "part 0: level %d is empty", j)
		}
	}
	for i := 1; i < len(parts); i++ {
		p := parts[i]
		if p.DType != first.DType {
			return nil, errors.Wrapf(ErrTypeMismatch, "part %d is %s, part 0 is %s", i, p.DType, first.DType)
		}
		if p.Layout != first.Layout {
			return nil, errors.Wrapf(ErrLayoutMismatch, "part %d is %s, part 0 is %s", i, p.Layout, first.Layout)
		}
		if !first.sameTrailing(&p.Tensor) {
			return nil, errors.Wrapf(ErrShapeMismatch, "part %d has shape %v, part 0 has shape %v", i, p.Shape, first.Shape)
		}
		if len(p.LoD) != len(lod) {
			return nil, errors.Wrapf(ErrMergeLoDLevelMismatch, "part %d has %d levels, part 0 has %d", i, len(p.LoD), len(lod))
		}
		shape[0] += p.Shape[0]
		for j, lvl := range p.LoD {
			if len(lvl) == 0 {
				return nil, errors.Wrapf(ErrInvalidLoD, "part %d: level %d is empty", i, j)
			}
			shift := lod[j][len(lod[j])-1]
			for _, v := range lvl[1:] {
				lod[j] = append(lod[j], v+shift)
			}
		}
	}

	dst, err := NewTensor(first.DType, shape, place)
	if err != nil {
		return nil, err
	}
	dst.Layout = first.Layout
	out := &LoDTensor{Tensor: dst, LoD: lod}

	var begin uint64
	for i, p := range parts {
		end := begin + p.Shape[0]
		window, err := out.Tensor.Slice(begin, end)
		if err != nil {
			return nil, err
		}
		if err := CopyInto(pool, p.Tensor, window); err != nil {
			return nil, errors.WithMessagef(err, "part %d", i)
		}
		log().Debug("merge part",
			zap.Int("index", i),
			zap.Uint64("begin", begin),
			zap.Uint64("end", end),
			zap.Stringer("from", p.Place),
			zap.Stringer("to", place))
		begin = end
	}
	return out, nil
}
