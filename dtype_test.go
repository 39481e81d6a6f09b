// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lodtensor

import (
	"encoding/json"
	"testing"
)

func TestDType(t *testing.T) {
	var data = []struct {
		in   DType
		size uint64
	}{
		{BOOL, 1},
		{U8, 1},
		{I8, 1},
		{I16, 2},
		{U16, 2},
		{F16, 2},
		{BF16, 2},
		{I32, 4},
		{U32, 4},
		{F32, 4},
		{F64, 8},
		{I64, 8},
		{U64, 8},
	}
	if len(data) != len(DTypeToWordSize) {
		t.Fatal("oops")
	}
	for _, tc := range data {
		if tc.in.WordSize() != tc.size {
			t.Fatalf("%d != %d", tc.in.WordSize(), tc.size)
		}
		if !tc.in.Valid() {
			t.Fatalf("%s should be valid", tc.in)
		}
	}
	if DType("F8").Valid() {
		t.Fatal("F8 should be invalid")
	}
}

func TestDType_JSON(t *testing.T) {
	d, err := json.Marshal(BOOL)
	if err != nil {
		t.Fatal(err)
	}
	var got DType
	if err = json.Unmarshal(d, &got); err != nil {
		t.Fatal(err)
	}
	if got != BOOL {
		t.Fatal(got)
	}
}

func TestDType_JSON_Invalid(t *testing.T) {
	var got DType
	d, err := json.Marshal("invalid")
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(d, &got); err == nil || err.Error() != "\"invalid\" is not a valid DType" {
		t.Fatal(err)
	}
}

func TestLayout_JSON(t *testing.T) {
	for _, l := range []Layout{AnyLayout, NCHW, NHWC} {
		d, err := json.Marshal(l)
		if err != nil {
			t.Fatal(err)
		}
		if want := `"` + l.String() + `"`; string(d) != want {
			t.Fatalf("%s != %s", d, want)
		}
		var got Layout
		if err := json.Unmarshal(d, &got); err != nil {
			t.Fatal(err)
		}
		if got != l {
			t.Fatal(got)
		}
	}
	var got Layout
	if err := json.Unmarshal([]byte(`"NWHC"`), &got); err == nil || err.Error() != "\"NWHC\" is not a valid Layout" {
		t.Fatal(err)
	}
	if s := Layout(7).String(); s != "Layout(7)" {
		t.Fatal(s)
	}
}
