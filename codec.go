// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lodtensor

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"slices"

	"github.com/pkg/errors"
)

// Binary format, all integers in the producer's native byte order:
//
//	uint32  LoDTensor version (0)
//	uint64  number of LoD levels
//	repeated per level:
//	  uint64  byte length of the level (8 * number of offsets)
//	  []uint64 offsets
//	uint32  Tensor version (0)
//	uint64  byte length of the JSON descriptor
//	[]byte  JSON descriptor {"dtype","shape","layout"}
//	[]byte  raw buffer, length implied by the descriptor
//
// There are no delimiters: the segments must be read in this order.
const (
	lodTensorVersion uint32 = 0
	tensorVersion    uint32 = 0
	offsetSize              = 8
	maxDescSize             = 100_000_000
)

// tensorDesc is the buffer descriptor.
type tensorDesc struct {
	DType  DType    `json:"dtype"`
	Shape  []uint64 `json:"shape"`
	Layout Layout   `json:"layout"`
}

// SerializeToStream writes t to w.
//
// A tensor residing on a device is copied to the host first and its device
// context is waited on.
func SerializeToStream(w io.Writer, t *LoDTensor, pool *Pool) error {
	e := binary.NativeEndian
	var b [8]byte
	e.PutUint32(b[:4], lodTensorVersion)
	if _, err := w.Write(b[:4]); err != nil {
		return err
	}
	e.PutUint64(b[:], uint64(len(t.LoD)))
	if _, err := w.Write(b[:]); err != nil {
		return err
	}
	for _, lvl := range t.LoD {
		buf := make([]byte, 8+len(lvl)*offsetSize)
		e.PutUint64(buf, uint64(len(lvl)*offsetSize))
		for i, v := range lvl {
			e.PutUint64(buf[8+i*offsetSize:], v)
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return serializeTensor(w, &t.Tensor, pool)
}

func serializeTensor(w io.Writer, t *Tensor, pool *Pool) error {
	src := *t
	if !src.Place.IsHost() {
		h, err := Copy(pool, src, Host)
		if err != nil {
			return err
		}
		ctx, err := pool.Get(src.Place)
		if err != nil {
			return err
		}
		if err := ctx.Wait(); err != nil {
			return err
		}
		src = h
	}
	if err := src.Validate(); err != nil {
		return err
	}
	desc, err := json.Marshal(tensorDesc{DType: src.DType, Shape: src.Shape, Layout: src.Layout})
	if err != nil {
		return errors.Wrap(err, "failed to JSON-marshal tensor descriptor")
	}
	e := binary.NativeEndian
	hdr := make([]byte, 12, 12+len(desc))
	e.PutUint32(hdr, tensorVersion)
	e.PutUint64(hdr[4:], uint64(len(desc)))
	if _, err := w.Write(append(hdr, desc...)); err != nil {
		return err
	}
	_, err = w.Write(src.Data)
	return err
}

// DeserializeFromStream reads a LoDTensor written by SerializeToStream.
//
// The buffer is decoded on the host then, if place is a device, a copy to
// place is enqueued. The LoD is validated against the tensor height.
func DeserializeFromStream(r io.Reader, pool *Pool, place Place) (*LoDTensor, error) {
	t, err := decode(&streamSource{r: r})
	if err != nil {
		return nil, err
	}
	if !place.IsHost() {
		if t.Tensor, err = Copy(pool, t.Tensor, place); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Parse decodes a LoDTensor from a byte buffer holding exactly one encoded
// LoDTensor.
//
// The returned host tensor's Data references b; no copy is made.
func Parse(b []byte) (*LoDTensor, error) {
	src := &bytesSource{b: b}
	t, err := decode(src)
	if err != nil {
		return nil, err
	}
	if src.off != len(b) {
		return nil, errors.Errorf("trailing data: %d bytes decoded, buffer has %d", src.off, len(b))
	}
	return t, nil
}

func decode(src source) (*LoDTensor, error) {
	e := binary.NativeEndian
	b, err := src.next(4)
	if err != nil {
		return nil, errors.WithMessage(err, "reading version")
	}
	if v := e.Uint32(b); v != lodTensorVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "lod tensor version %d", v)
	}
	if b, err = src.next(8); err != nil {
		return nil, errors.WithMessage(err, "reading lod level count")
	}
	levels := e.Uint64(b)
	var lod LoD
	for i := uint64(0); i < levels; i++ {
		if b, err = src.next(8); err != nil {
			return nil, errors.WithMessagef(err, "reading lod level %d size", i)
		}
		size := e.Uint64(b)
		if size%offsetSize != 0 {
			return nil, errors.Wrapf(ErrInvalidLoD, "level %d byte length %d is not a multiple of %d", i, size, offsetSize)
		}
		if b, err = src.next(size); err != nil {
			return nil, errors.WithMessagef(err, "reading lod level %d", i)
		}
		lvl := make(Level, size/offsetSize)
		for j := range lvl {
			lvl[j] = e.Uint64(b[j*offsetSize:])
		}
		lod = append(lod, lvl)
	}
	t, err := decodeTensor(src)
	if err != nil {
		return nil, err
	}
	out := &LoDTensor{Tensor: t, LoD: lod}
	if err := CheckLoD(out.LoD, out.Height()); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeTensor(src source) (Tensor, error) {
	e := binary.NativeEndian
	b, err := src.next(4)
	if err != nil {
		return Tensor{}, errors.WithMessage(err, "reading tensor version")
	}
	if v := e.Uint32(b); v != tensorVersion {
		return Tensor{}, errors.Wrapf(ErrUnsupportedVersion, "tensor version %d", v)
	}
	if b, err = src.next(8); err != nil {
		return Tensor{}, errors.WithMessage(err, "reading tensor descriptor size")
	}
	n := e.Uint64(b)
	if n > maxDescSize {
		return Tensor{}, errors.Errorf("tensor descriptor too large: max %d, actual %d", maxDescSize, n)
	}
	if b, err = src.next(n); err != nil {
		return Tensor{}, errors.WithMessage(err, "reading tensor descriptor")
	}
	var desc tensorDesc
	if err := json.Unmarshal(b, &desc); err != nil {
		return Tensor{}, errors.Wrap(err, "invalid tensor descriptor")
	}
	t := Tensor{DType: desc.DType, Shape: desc.Shape, Layout: desc.Layout, Place: Host}
	if !t.DType.Valid() {
		return Tensor{}, errors.Errorf("invalid tensor descriptor: missing dtype")
	}
	if len(t.Shape) != 0 && t.Shape[0] > math.MaxInt {
		return Tensor{}, errors.Errorf("invalid tensor descriptor: leading dimension %d exceeds %d", t.Shape[0], math.MaxInt)
	}
	size, err := t.byteSize()
	if err != nil {
		return Tensor{}, err
	}
	if t.Data, err = src.next(size); err != nil {
		return Tensor{}, errors.WithMessage(err, "reading tensor data")
	}
	return t, nil
}

// source yields consecutive chunks of an encoded LoDTensor.
type source interface {
	next(n uint64) ([]byte, error)
}

// streamSource reads from an io.Reader. Each chunk is a fresh allocation that
// only grows as data actually arrives.
type streamSource struct {
	r io.Reader
}

func (s *streamSource) next(n uint64) ([]byte, error) {
	if n <= 4096 {
		b := make([]byte, n)
		if _, err := io.ReadFull(s.r, b); err != nil {
			return nil, unexpectedEOF(err)
		}
		return b, nil
	}
	var buf bytes.Buffer
	m, err := io.CopyN(&buf, s.r, int64(n))
	if err != nil {
		return nil, unexpectedEOF(err)
	}
	if uint64(m) != n {
		return nil, io.ErrUnexpectedEOF
	}
	return slices.Clip(buf.Bytes()), nil
}

// bytesSource slices an in-memory buffer without copying.
type bytesSource struct {
	b   []byte
	off int
}

func (s *bytesSource) next(n uint64) ([]byte, error) {
	if n > uint64(len(s.b)-s.off) {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "need %d bytes at offset %d, buffer has %d", n, s.off, len(s.b))
	}
	b := s.b[s.off : s.off+int(n) : s.off+int(n)]
	s.off += int(n)
	return b, nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
