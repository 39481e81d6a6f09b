// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lodtensor

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// FileOptions controls how WriteFile persists a LoDTensor.
type FileOptions struct {
	// Compress wraps the encoding in a zstd stream. Compressed files can't be
	// opened with Mapped.
	Compress bool
	// Level is the zstd level when Compress is set. The zero value selects
	// zstd.SpeedDefault.
	Level zstd.EncoderLevel
}

// WriteFile encodes t into the named file.
func WriteFile(name string, t *LoDTensor, pool *Pool, opts FileOptions) (err error) {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if err2 := f.Close(); err == nil {
			err = err2
		}
	}()
	bw := bufio.NewWriter(f)
	var w io.Writer = bw
	var zw *zstd.Encoder
	if opts.Compress {
		level := opts.Level
		if level == 0 {
			level = zstd.SpeedDefault
		}
		if zw, err = zstd.NewWriter(bw, zstd.WithEncoderLevel(level)); err != nil {
			return err
		}
		w = zw
	}
	if err = SerializeToStream(w, t, pool); err != nil {
		if zw != nil {
			_ = zw.Close()
		}
		return errors.WithMessagef(err, "writing %s", name)
	}
	if zw != nil {
		if err = zw.Close(); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadFile decodes the named file, transparently decompressing zstd files.
func ReadFile(name string, pool *Pool, place Place) (*LoDTensor, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, err := br.Peek(len(zstdMagic)); err == nil && bytes.Equal(magic, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}
	t, err := DeserializeFromStream(r, pool, place)
	if err != nil {
		return nil, errors.WithMessagef(err, "reading %s", name)
	}
	return t, nil
}
