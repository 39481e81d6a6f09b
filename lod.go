// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lodtensor

import (
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Level is one level of a LoD: k+1 offsets delimiting k consecutive ranges of
// the level below it, or of the buffer's leading dimension for the innermost
// level.
type Level []uint64

// LoD is the Level-of-Detail index of a tensor: nested sequence boundaries,
// outermost level first.
//
// In relative form, level i's offsets index positions of level i+1. In
// absolute form, every level indexes the buffer's leading dimension directly.
// The innermost level is the same in both forms.
type LoD []Level

// Clone returns a deep copy.
func (l LoD) Clone() LoD {
	if l == nil {
		return nil
	}
	out := make(LoD, len(l))
	for i, lvl := range l {
		out[i] = slices.Clone(lvl)
	}
	return out
}

// NumLevels returns the number of levels.
func (l LoD) NumLevels() int {
	return len(l)
}

// Equal compares the level count then each level element-wise.
func (l LoD) Equal(o LoD) bool {
	if len(l) != len(o) {
		return false
	}
	for i := range l {
		if !slices.Equal(l[i], o[i]) {
			return false
		}
	}
	return true
}

// String renders the LoD as {{o0,o1,...,}{o0,...,}}.
func (l LoD) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for _, lvl := range l {
		b.WriteByte('{')
		for _, v := range lvl {
			b.WriteString(strconv.FormatUint(v, 10))
			b.WriteByte(',')
		}
		b.WriteByte('}')
	}
	b.WriteByte('}')
	return b.String()
}

// OrderCheck selects how Checker verifies that a level is sorted.
type OrderCheck int

const (
	// OrderNonStrict requires every level to be non-decreasing. Equal
	// consecutive offsets, i.e. empty sequences, are accepted.
	OrderNonStrict OrderCheck = iota
	// OrderNone skips the ordering check altogether. This matches the
	// historical behavior where the check ran over an empty range and never
	// rejected anything.
	OrderNone
)

// Checker validates LoDs.
type Checker struct {
	Order OrderCheck
}

// DefaultChecker is used by CheckLoD and CheckAbsLoD.
var DefaultChecker = Checker{}

// CheckLoD validates a relative-form LoD with DefaultChecker.
func CheckLoD(lod LoD, height int) error {
	return DefaultChecker.CheckLoD(lod, height)
}

// CheckAbsLoD validates an absolute-form LoD with DefaultChecker.
func CheckAbsLoD(lod LoD, height int) error {
	return DefaultChecker.CheckAbsLoD(lod, height)
}

// ValidLoD returns true if CheckLoD succeeds.
func ValidLoD(lod LoD, height int) bool {
	return CheckLoD(lod, height) == nil
}

// ValidAbsLoD returns true if CheckAbsLoD succeeds.
func ValidAbsLoD(lod LoD, height int) bool {
	return CheckAbsLoD(lod, height) == nil
}

// CheckLoD validates a relative-form LoD.
//
// Each level must have at least two offsets, start at 0 and be sorted. Each
// level's last offset must be the number of ranges of the level below. If
// height is non-negative, the innermost level must end at height.
//
// An empty LoD is valid.
func (c Checker) CheckLoD(lod LoD, height int) error {
	if len(lod) == 0 {
		return nil
	}
	for i, lvl := range lod {
		if err := c.checkLevel(i, lvl); err != nil {
			return logInvalid(err)
		}
	}
	if height >= 0 {
		if last := lod[len(lod)-1]; last[len(last)-1] != uint64(height) {
			return logInvalid(errors.Wrapf(ErrInvalidLoD, "level %d ends at %d, tensor height is %d", len(lod)-1, last[len(last)-1], height))
		}
	}
	for i := 0; i < len(lod)-1; i++ {
		if want := uint64(len(lod[i+1]) - 1); lod[i][len(lod[i])-1] != want {
			return logInvalid(errors.Wrapf(ErrInvalidLoD, "level %d ends at %d, level %d has %d ranges", i, lod[i][len(lod[i])-1], i+1, want))
		}
	}
	return nil
}

// CheckAbsLoD validates an absolute-form LoD.
//
// Each level must have at least two offsets, start at 0 and be sorted, and
// all levels must end at the same value. If height is negative, the first
// level's last offset sets the expected value.
func (c Checker) CheckAbsLoD(lod LoD, height int) error {
	if len(lod) == 0 {
		return nil
	}
	want := int64(height)
	for i, lvl := range lod {
		if err := c.checkLevel(i, lvl); err != nil {
			return logInvalid(err)
		}
		last := lvl[len(lvl)-1]
		if want < 0 {
			want = int64(last)
		} else if uint64(want) != last {
			return logInvalid(errors.Wrapf(ErrInvalidLoD, "level %d ends at %d, want %d", i, last, want))
		}
	}
	return nil
}

func (c Checker) checkLevel(i int, lvl Level) error {
	if len(lvl) < 2 {
		return errors.Wrapf(ErrInvalidLoD, "level %d has %d offsets", i, len(lvl))
	}
	if lvl[0] != 0 {
		return errors.Wrapf(ErrInvalidLoD, "level %d starts at %d", i, lvl[0])
	}
	if c.Order == OrderNonStrict && !slices.IsSorted(lvl) {
		return errors.Wrapf(ErrInvalidLoD, "level %d is not ascending", i)
	}
	return nil
}

func logInvalid(err error) error {
	log().Debug("lod check failed", zap.Error(err))
	return err
}
