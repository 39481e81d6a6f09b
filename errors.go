// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lodtensor

import (
	"github.com/pkg/errors"
)

// Errors returned by this package are wrapped around one of these values and
// can be matched with errors.Is.
var (
	// ErrInvalidLoD is returned when a LoD level violates a structural
	// invariant.
	ErrInvalidLoD = errors.New("invalid lod")
	// ErrOutOfRange is returned when a range exceeds a level's size or when
	// begin > end.
	ErrOutOfRange = errors.New("out of range")
	// ErrLoDShapeMismatch is returned by AppendLoD when the lengths have a
	// different level count than the LoD being extended.
	ErrLoDShapeMismatch = errors.New("lod shape mismatch")
	// ErrTypeMismatch is returned by Merge when parts have different DTypes.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrLayoutMismatch is returned by Merge when parts have different layouts.
	ErrLayoutMismatch = errors.New("layout mismatch")
	// ErrShapeMismatch is returned by Merge when parts disagree on the
	// trailing dimensions.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrMergeLoDLevelMismatch is returned by Merge when parts have a
	// different LoD depth.
	ErrMergeLoDLevelMismatch = errors.New("merge lod level mismatch")
	// ErrUnsupportedVersion is returned by the decoder on an unknown format
	// version.
	ErrUnsupportedVersion = errors.New("unsupported version")
	// ErrUnknownPlace is returned by Pool.Get for a place it doesn't manage.
	ErrUnknownPlace = errors.New("unknown place")
	// ErrNoParts is returned by Merge when called without any part.
	ErrNoParts = errors.New("no parts to merge")
)
