// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lodtensor_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"
	"math"

	"github.com/maruel/lodtensor"
)

// newSample returns an 8x2 F32 tensor holding 0..15 with two top-level
// sequences of 2 and 3 sentences.
func newSample() *lodtensor.LoDTensor {
	t, err := lodtensor.NewTensor(lodtensor.F32, []uint64{8, 2}, lodtensor.Host)
	if err != nil {
		log.Fatal(err)
	}
	for i := 0; i < 16; i++ {
		binary.NativeEndian.PutUint32(t.Data[4*i:], math.Float32bits(float32(i)))
	}
	return &lodtensor.LoDTensor{Tensor: t, LoD: lodtensor.LoD{{0, 2, 5}, {0, 1, 3, 4, 6, 8}}}
}

func ExampleToAbsOffset() {
	lod := lodtensor.LoD{{0, 2, 5}, {0, 1, 3, 4, 6, 8}}
	abs, err := lodtensor.ToAbsOffset(lod)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(abs)
	fmt.Println(lodtensor.ValidAbsLoD(abs, 8))
	// Output:
	// {{0,3,8,}{0,1,3,4,6,8,}}
	// true
}

func ExampleSubLoDAndAbsoluteRange() {
	lod := lodtensor.LoD{{0, 2, 5}, {0, 1, 3, 4, 6, 8}}
	lengths, rng, err := lodtensor.SubLoDAndAbsoluteRange(lod, 1, 2, 0)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(lengths)
	fmt.Println(lodtensor.LengthsToOffsets(lengths))
	fmt.Printf("rows [%d, %d)\n", rng.Begin, rng.End)
	// Output:
	// {{3,}{1,2,2,}}
	// {{0,3,}{0,1,3,5,}}
	// rows [3, 8)
}

func ExampleLoDTensor_Split() {
	pool := lodtensor.NewPool(lodtensor.Device(0), lodtensor.Device(1))
	src := newSample()
	parts, err := src.Split(pool, []lodtensor.Place{lodtensor.Device(0), lodtensor.Device(1)})
	if err != nil {
		log.Fatal(err)
	}
	for _, p := range parts {
		fmt.Printf("%s: shape=%v lod=%s\n", p.Place, p.Shape, p.LoD)
	}
	merged, err := lodtensor.Merge(pool, parts, lodtensor.Host)
	if err != nil {
		log.Fatal(err)
	}
	if err := pool.WaitAll(); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("merged: shape=%v lod=%s\n", merged.Shape, merged.LoD)
	fmt.Println(bytes.Equal(src.Data, merged.Data))
	// Output:
	// device:0: shape=[3 2] lod={{0,2,}{0,1,3,}}
	// device:1: shape=[5 2] lod={{0,3,}{0,1,3,5,}}
	// merged: shape=[8 2] lod={{0,2,5,}{0,1,3,4,6,8,}}
	// true
}

func ExampleSerializeToStream() {
	pool := lodtensor.NewPool()
	buf := bytes.Buffer{}
	if err := lodtensor.SerializeToStream(&buf, newSample(), pool); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("encoded %d bytes\n", buf.Len())
	loaded, err := lodtensor.DeserializeFromStream(&buf, pool, lodtensor.Host)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(loaded)
	// Output:
	// encoded 220 bytes
	// dim: 8, 2
	// lod: {{0,2,5,}{0,1,3,4,6,8,}}
	// 0 1 2 3 4 5 6 7 8 9
}
