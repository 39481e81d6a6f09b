// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lodtensor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestToAbsOffset(t *testing.T) {
	in := sampleLoD()
	got, err := ToAbsOffset(in)
	if err != nil {
		t.Fatal(err)
	}
	want := LoD{{0, 3, 8}, {0, 1, 3, 4, 6, 8}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want,+got)\n%s", diff)
	}
	if diff := cmp.Diff(sampleLoD(), in); diff != "" {
		t.Fatalf("input mutated (-want,+got)\n%s", diff)
	}
	require.NoError(t, CheckAbsLoD(got, 8))
}

func TestToAbsOffset_ThreeLevels(t *testing.T) {
	in := LoD{{0, 1, 3}, {0, 2, 3, 4}, {0, 1, 2, 5, 9}}
	require.NoError(t, CheckLoD(in, 9))
	got, err := ToAbsOffset(in)
	require.NoError(t, err)
	want := LoD{{0, 2, 9}, {0, 2, 5, 9}, {0, 1, 2, 5, 9}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want,+got)\n%s", diff)
	}
	require.NoError(t, CheckAbsLoD(got, 9))
}

func TestToAbsOffset_SingleLevel(t *testing.T) {
	in := LoD{{0, 2, 7}}
	got, err := ToAbsOffset(in)
	require.NoError(t, err)
	require.True(t, got.Equal(in))
	again, err := ToAbsOffset(got)
	require.NoError(t, err)
	require.True(t, again.Equal(in))

	empty, err := ToAbsOffset(nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestToAbsOffset_OutOfRange(t *testing.T) {
	_, err := ToAbsOffset(LoD{{0, 6}, {0, 1, 3}})
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestSliceInLevel(t *testing.T) {
	data := []struct {
		name              string
		level, begin, end int
		want              LoD
	}{
		{"empty selection", 0, 0, 0, LoD{{0}, {0}}},
		{"first", 0, 0, 1, LoD{{0, 2}, {0, 1, 3}}},
		{"second", 0, 1, 2, LoD{{0, 3}, {0, 1, 3, 5}}},
		{"all", 0, 0, 2, sampleLoD()},
		{"inner", 1, 1, 3, LoD{{0, 2, 3}}},
		{"inner single", 1, 4, 4, LoD{{0}}},
	}
	for _, line := range data {
		t.Run(line.name, func(t *testing.T) {
			got, err := SliceInLevel(sampleLoD(), line.level, line.begin, line.end)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(line.want, got); diff != "" {
				t.Fatalf("(-want,+got)\n%s", diff)
			}
		})
	}
}

func TestSliceInLevel_ZeroBased(t *testing.T) {
	lod := sampleLoD()
	for i := range lod[0] {
		got, err := SliceInLevel(lod, 0, i, i)
		require.NoError(t, err)
		for _, lvl := range got {
			require.Equal(t, uint64(0), lvl[0])
		}
	}
}

func TestSliceInLevel_Errors(t *testing.T) {
	lod := sampleLoD()
	for _, c := range [][3]int{{2, 0, 0}, {-1, 0, 0}, {0, 0, 3}, {0, 2, 1}, {1, 0, 6}, {0, -1, 0}} {
		_, err := SliceInLevel(lod, c[0], c[1], c[2])
		require.ErrorIs(t, err, ErrOutOfRange, "%v", c)
	}
}

func TestSubLoDAndAbsoluteRange(t *testing.T) {
	data := []struct {
		name       string
		start, end uint64
		level      int
		want       LoD
		rng        Range
	}{
		{"first", 0, 1, 0, LoD{{2}, {1, 2}}, Range{0, 3}},
		{"second", 1, 2, 0, LoD{{3}, {1, 2, 2}}, Range{3, 8}},
		{"all", 0, 2, 0, LoD{{2, 3}, {1, 2, 1, 2, 2}}, Range{0, 8}},
		{"none", 1, 1, 0, LoD{{}, {}}, Range{3, 3}},
		{"inner", 2, 4, 1, LoD{{1, 2}}, Range{3, 6}},
	}
	for _, line := range data {
		t.Run(line.name, func(t *testing.T) {
			got, rng, err := SubLoDAndAbsoluteRange(sampleLoD(), line.start, line.end, line.level)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(line.want, got); diff != "" {
				t.Fatalf("(-want,+got)\n%s", diff)
			}
			if rng != line.rng {
				t.Fatalf("%+v != %+v", rng, line.rng)
			}
		})
	}
}

func TestSubLoDAndAbsoluteRange_Errors(t *testing.T) {
	_, _, err := SubLoDAndAbsoluteRange(sampleLoD(), 2, 1, 0)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, _, err = SubLoDAndAbsoluteRange(sampleLoD(), 0, 3, 0)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, _, err = SubLoDAndAbsoluteRange(sampleLoD(), 0, 1, -1)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestLengthsToOffsets(t *testing.T) {
	lens := LoD{{2, 3}, {1, 2, 1, 2, 2}}
	got := LengthsToOffsets(lens)
	if diff := cmp.Diff(sampleLoD(), got); diff != "" {
		t.Fatalf("(-want,+got)\n%s", diff)
	}
	if diff := cmp.Diff(lens, OffsetsToLengths(got)); diff != "" {
		t.Fatalf("(-want,+got)\n%s", diff)
	}
	if diff := cmp.Diff(LoD{{0}}, LengthsToOffsets(LoD{{}})); diff != "" {
		t.Fatalf("(-want,+got)\n%s", diff)
	}
	require.Nil(t, LengthsToOffsets(nil))
}

func TestAppendLoD(t *testing.T) {
	var lod LoD
	if err := AppendLoD(&lod, LoD{{2, 3}, {1, 2, 1, 2, 2}}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sampleLoD(), lod); diff != "" {
		t.Fatalf("(-want,+got)\n%s", diff)
	}
	if err := AppendLoD(&lod, LoD{{1}, {4}}); err != nil {
		t.Fatal(err)
	}
	want := LoD{{0, 2, 5, 6}, {0, 1, 3, 4, 6, 8, 12}}
	if diff := cmp.Diff(want, lod); diff != "" {
		t.Fatalf("(-want,+got)\n%s", diff)
	}
}

func TestAppendLoD_EmptyLevel(t *testing.T) {
	lod := LoD{{0, 2}, {}}
	err := AppendLoD(&lod, LoD{{1}, {3}})
	require.ErrorIs(t, err, ErrInvalidLoD)
	require.EqualError(t, err, "level 1 is empty: invalid lod")
	if diff := cmp.Diff(LoD{{0, 2}, {}}, lod); diff != "" {
		t.Fatalf("(-want,+got)\n%s", diff)
	}
}

func TestAppendLoD_Mismatch(t *testing.T) {
	lod := sampleLoD()
	err := AppendLoD(&lod, LoD{{1}})
	require.ErrorIs(t, err, ErrLoDShapeMismatch)
	require.EqualError(t, err, "appending 1 levels to 2 levels: lod shape mismatch")
	if diff := cmp.Diff(sampleLoD(), lod); diff != "" {
		t.Fatalf("(-want,+got)\n%s", diff)
	}
}
