// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lodtensor

import (
	"github.com/pkg/errors"
)

// Range is a half-open range [Begin, End) of a tensor's leading dimension.
type Range struct {
	Begin uint64
	End   uint64
}

// Len returns the number of rows covered.
func (r Range) Len() uint64 {
	return r.End - r.Begin
}

// ToAbsOffset converts a relative-form LoD into absolute form.
//
// in is not modified. A LoD with zero or one level is already absolute and is
// returned as a copy. It fails with ErrOutOfRange if an offset doesn't index
// the level below it.
func ToAbsOffset(in LoD) (LoD, error) {
	result := in.Clone()
	for level := len(result) - 2; level >= 0; level-- {
		below := result[level+1]
		for j, v := range result[level] {
			if v >= uint64(len(below)) {
				return nil, errors.Wrapf(ErrOutOfRange, "level %d offset %d indexes %d of %d offsets", level, j, v, len(below))
			}
			result[level][j] = below[v]
		}
	}
	return result, nil
}

// SliceInLevel extracts the ranges begin..end of level and everything below
// them.
//
// end is an inclusive index into lod[level], so end-begin ranges are
// selected. The result has len(lod)-level levels, each shifted to start at 0.
func SliceInLevel(lod LoD, level, begin, end int) (LoD, error) {
	if level < 0 || level >= len(lod) {
		return nil, errors.Wrapf(ErrOutOfRange, "level %d of %d", level, len(lod))
	}
	if begin < 0 || begin > end || end >= len(lod[level]) {
		return nil, errors.Wrapf(ErrOutOfRange, "slice [%d, %d] of level %d with %d offsets", begin, end, level, len(lod[level]))
	}
	res := make(LoD, len(lod)-level)
	res[0] = append(Level(nil), lod[level][begin:end+1]...)
	for lvl := 1; lvl < len(res); lvl++ {
		in := lod[level+lvl]
		above := res[lvl-1]
		front, back := above[0], above[len(above)-1]
		if front > back || back >= uint64(len(in)) {
			return nil, errors.Wrapf(ErrOutOfRange, "level %d offsets [%d, %d] exceed level %d with %d offsets", level+lvl-1, front, back, level+lvl, len(in))
		}
		res[lvl] = append(Level(nil), in[front:back+1]...)
	}
	for _, lvl := range res {
		front := lvl[0]
		for i := range lvl {
			lvl[i] -= front
		}
	}
	return res, nil
}

// SubLoDAndAbsoluteRange descends from startLevel to the innermost level,
// starting with the ranges [start, end) of startLevel.
//
// It returns, for each visited level, the LENGTHS of the selected ranges (use
// LengthsToOffsets to get offsets back) and the absolute range of the
// tensor's leading dimension they cover.
func SubLoDAndAbsoluteRange(lod LoD, start, end uint64, startLevel int) (LoD, Range, error) {
	if startLevel < 0 {
		return nil, Range{}, errors.Wrapf(ErrOutOfRange, "level %d", startLevel)
	}
	var sub LoD
	for level := startLevel; level < len(lod); level++ {
		lvl := lod[level]
		if start > end || end >= uint64(len(lvl)) {
			return nil, Range{}, errors.Wrapf(ErrOutOfRange, "range [%d, %d) of level %d with %d offsets", start, end, level, len(lvl))
		}
		lens := make(Level, 0, end-start)
		for i := start; i < end; i++ {
			lens = append(lens, lvl[i+1]-lvl[i])
		}
		sub = append(sub, lens)
		start, end = lvl[start], lvl[end]
	}
	return sub, Range{Begin: start, End: end}, nil
}

// LengthsToOffsets turns each level of lengths into offsets with a leading 0.
func LengthsToOffsets(lengths LoD) LoD {
	if lengths == nil {
		return nil
	}
	out := make(LoD, len(lengths))
	for i, lens := range lengths {
		lvl := make(Level, 1, len(lens)+1)
		for _, n := range lens {
			lvl = append(lvl, lvl[len(lvl)-1]+n)
		}
		out[i] = lvl
	}
	return out
}

// OffsetsToLengths is the inverse of LengthsToOffsets.
func OffsetsToLengths(lod LoD) LoD {
	if lod == nil {
		return nil
	}
	out := make(LoD, len(lod))
	for i, lvl := range lod {
		lens := make(Level, 0, len(lvl))
		for j := 1; j < len(lvl); j++ {
			lens = append(lens, lvl[j]-lvl[j-1])
		}
		out[i] = lens
	}
	return out
}

// AppendLoD extends lod with the per-level lengths.
//
// lengths must have as many levels as lod; an empty lod is first initialized
// to len(lengths) levels of [0]. Each length n appends back()+n to its level.
// On error lod is left untouched.
func AppendLoD(lod *LoD, lengths LoD) error {
	if len(*lod) != 0 && len(*lod) != len(lengths) {
		return errors.Wrapf(ErrLoDShapeMismatch, "appending %d levels to %d levels", len(lengths), len(*lod))
	}
	for i, lvl := range *lod {
		if len(lvl) == 0 {
			return errors.Wrapf(ErrInvalidLoD, "level %d is empty", i)
		}
	}
	if len(*lod) == 0 {
		*lod = make(LoD, len(lengths))
		for i := range *lod {
			(*lod)[i] = Level{0}
		}
	}
	for i, lens := range lengths {
		lvl := (*lod)[i]
		for _, n := range lens {
			lvl = append(lvl, lvl[len(lvl)-1]+n)
		}
		(*lod)[i] = lvl
	}
	return nil
}
