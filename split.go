// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lodtensor

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Split divides the top-level sequences of t across places.
//
// With n top-level sequences (the height when t has no LoD), min(n,
// len(places)) partitions of n/min(n, len(places)) sequences each are
// produced, in order. The last place additionally receives n%len(places)
// sequences; note the divisor is the number of places, so when n <
// len(places) the last place gets no partition and nothing is added.
//
// Each partition gets its own buffer on its place and a zero-based LoD. The
// copies are enqueued but not waited on.
func (t *LoDTensor) Split(pool *Pool, places []Place) ([]*LoDTensor, error) {
	var n uint64
	if len(t.LoD) == 0 {
		if len(t.Shape) == 0 {
			return nil, errors.Wrap(ErrOutOfRange, "cannot split a rank-0 tensor")
		}
		n = t.Shape[0]
	} else {
		if len(t.LoD[0]) == 0 {
			return nil, errors.Wrap(ErrInvalidLoD, "level 0 is empty")
		}
		n = uint64(len(t.LoD[0]) - 1)
	}
	resultCount := min(n, uint64(len(places)))
	if resultCount == 0 {
		return nil, nil
	}
	stepWidth := n / resultCount
	remainder := n % uint64(len(places))

	results := make([]*LoDTensor, 0, resultCount)
	for i := uint64(0); i < resultCount; i++ {
		begin := i * stepWidth
		end := (i + 1) * stepWidth
		if i+1 == uint64(len(places)) {
			end += remainder
		}
		dst, err := t.partition(pool, begin, end, places[i])
		if err != nil {
			return nil, errors.WithMessagef(err, "partition %d", i)
		}
		log().Debug("split partition",
			zap.Uint64("index", i),
			zap.Uint64("begin", begin),
			zap.Uint64("end", end),
			zap.Stringer("place", places[i]),
			zap.Stringer("lod", dst.LoD))
		results = append(results, dst)
	}
	return results, nil
}

// partition copies the top-level sequences [begin, end) to place.
func (t *LoDTensor) partition(pool *Pool, begin, end uint64, place Place) (*LoDTensor, error) {
	if len(t.LoD) == 0 {
		src, err := t.Tensor.Slice(begin, end)
		if err != nil {
			return nil, err
		}
		dst, err := Copy(pool, src, place)
		if err != nil {
			return nil, err
		}
		return &LoDTensor{Tensor: dst}, nil
	}
	lengths, rng, err := SubLoDAndAbsoluteRange(t.LoD, begin, end, 0)
	if err != nil {
		return nil, err
	}
	src, err := t.Tensor.Slice(rng.Begin, rng.End)
	if err != nil {
		return nil, err
	}
	dst, err := Copy(pool, src, place)
	if err != nil {
		return nil, err
	}
	return &LoDTensor{Tensor: dst, LoD: LengthsToOffsets(lengths)}, nil
}
