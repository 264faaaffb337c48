package main

import (
	"bytes"
	"image"
	"path/filepath"
	"testing"

	"github.com/QnnOkabayashi/arrs/pkg/core/dtypes"
	"github.com/QnnOkabayashi/arrs/pkg/core/shapes"
	"github.com/QnnOkabayashi/arrs/pkg/core/tensors"
	"github.com/QnnOkabayashi/arrs/pkg/core/tensors/idx"
	"github.com/QnnOkabayashi/arrs/pkg/core/tensors/numpy"
	"github.com/disintegration/imaging"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/require"
)

func writeTemp[T dtypes.Supported](t *testing.T, name string, a *tensors.Array[T]) string {
	path := filepath.Join(t.TempDir(), name)
	must.M(idx.WriteFile(path, a))
	return path
}

func TestParseSlice(t *testing.T) {
	start, stop, err := parseSlice("1:3")
	require.NoError(t, err)
	require.Equal(t, 1, start)
	require.Equal(t, 3, stop)

	for _, s := range []string{"1", "a:2", "1:b", ""} {
		_, _, err = parseSlice(s)
		require.Errorf(t, err, "parseSlice(%q)", s)
	}
}

func TestParseDType(t *testing.T) {
	for name, want := range map[string]dtypes.DType{
		"Float32": dtypes.Float32,
		"float64": dtypes.Float64,
		"f32":     dtypes.Float32,
		"I16":     dtypes.Int16,
		"u8":      dtypes.Uint8,
		"pred":    dtypes.Bool,
		"BOOL":    dtypes.Bool,
	} {
		got, err := parseDType(name)
		require.NoErrorf(t, err, "parseDType(%q)", name)
		require.Equalf(t, want, got, "parseDType(%q)", name)
	}
	for _, name := range []string{"", "complex64", "InvalidDType", "int64"} {
		_, err := parseDType(name)
		require.Errorf(t, err, "parseDType(%q)", name)
	}
}

func TestRun_Summary(t *testing.T) {
	path := writeTemp(t, "a.idx", tensors.Make(make([]int32, 1200), 2, 600))
	var buf bytes.Buffer
	require.NoError(t, run(&buf, options{derank: -1}, []string{path}))
	out := buf.String()
	require.Contains(t, out, "Summary")
	require.Contains(t, out, "Int32")
	require.Contains(t, out, "[2 600]")
	require.Contains(t, out, "1,200")
	require.Contains(t, out, "4.8 kB")
}

func TestRun_ReduceAndPrint(t *testing.T) {
	path := writeTemp(t, "a.idx", tensors.Make([]int32{0, 1, 2, 3, 4, 5}, 2, 3))
	outPath := filepath.Join(t.TempDir(), "out.idx")
	var buf bytes.Buffer
	opts := options{print: true, precision: -1, derank: -1, slice: "1:3", out: outPath}
	require.NoError(t, run(&buf, opts, []string{path}))
	want := "(Int32)[2 2]{\n {2, 3},\n {4, 5}}"
	require.Contains(t, buf.String(), want)
	require.NotContains(t, buf.String(), "Summary")

	saved := must.M1(idx.ReadFile[int32](outPath))
	require.Equal(t, []int{2, 2}, saved.Shape().Dims())
	require.Equal(t, []int32{2, 3, 4, 5}, saved.Flat())

	// Derank then convert.
	opts = options{derank: 2, asType: dtypes.Float64, out: outPath}
	buf.Reset()
	require.NoError(t, run(&buf, opts, []string{path}))
	converted := must.M1(idx.ReadFile[float64](outPath))
	require.Equal(t, []float64{4, 5}, converted.Flat())

	// Errors from the views are reported.
	err := run(&buf, options{derank: 3}, []string{path})
	var outOfBounds *shapes.DerankIndexOutOfBoundsError
	require.ErrorAs(t, err, &outOfBounds)
	err = run(&buf, options{derank: -1, slice: "2:1"}, []string{path})
	var beforeStart *shapes.SliceStopBeforeStartError
	require.ErrorAs(t, err, &beforeStart)
}

func TestRun_Op(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.idx")
	pathB := filepath.Join(dir, "b.idx")
	pathC := filepath.Join(dir, "c.idx")
	pathD := filepath.Join(dir, "d.idx")
	must.M(idx.WriteFile(pathA, tensors.Make([]int32{0, 1, 2, 3, 4, 5, 6, 7}, 2, 2, 2)))
	must.M(idx.WriteFile(pathB, tensors.Make([]int32{0, 1}, 1, 2)))
	must.M(idx.WriteFile(pathC, tensors.Make([]float32{0, 1, 2}, 3)))
	must.M(idx.WriteFile(pathD, tensors.Make([]int32{3, 5}, 1, 2)))
	outPath := filepath.Join(dir, "out.idx")

	var buf bytes.Buffer
	require.NoError(t, run(&buf, options{derank: -1, op: "mul", out: outPath, progress: true}, []string{pathA, pathB}))
	got := must.M1(idx.ReadFile[int32](outPath))
	require.Equal(t, []int{2, 2, 2}, got.Shape().Dims())
	require.Equal(t, []int32{0, 0, 2, 3, 0, 0, 6, 7}, got.Flat())

	require.NoError(t, run(&buf, options{derank: -1, op: "gt", out: outPath}, []string{pathA, pathB}))
	gt := must.M1(idx.ReadFile[bool](outPath))
	require.Equal(t, []bool{false, true, true, true, true, true, true, true}, gt.Flat())

	require.NoError(t, run(&buf, options{derank: -1, op: "rem", out: outPath}, []string{pathA, pathD}))
	rem := must.M1(idx.ReadFile[int32](outPath))
	require.Equal(t, []int32{0, 1, 2, 3, 1, 2, 1, 2}, rem.Flat())

	// Rem is not defined for floats.
	err := run(&buf, options{derank: -1, op: "rem"}, []string{pathC, pathC})
	require.ErrorContains(t, err, "requires integer arrays")
	require.Error(t, run(&buf, options{derank: -1, op: "pow"}, []string{pathA, pathB}))

	// Mismatched dtypes and incompatible shapes.
	require.Error(t, run(&buf, options{derank: -1, op: "add"}, []string{pathA, pathC}))
	require.Error(t, run(&buf, options{derank: -1, op: "add"}, []string{pathB, pathB, pathB}))
	require.Error(t, run(&buf, options{derank: -1}, []string{pathA, pathB}))
	err = run(&buf, options{derank: -1, op: "add"}, []string{pathC, writeTemp(t, "e.idx", tensors.Make([]float32{1, 2}, 2))})
	var broadcastErr *shapes.BroadcastError
	require.ErrorAs(t, err, &broadcastErr)
}

func TestRun_Formats(t *testing.T) {
	dir := t.TempDir()
	// Two 3x2 gray images.
	path := writeTemp(t, "images.idx", tensors.Make([]uint8{0, 50, 100, 150, 200, 250, 1, 2, 3, 4, 5, 6}, 3, 2, 2))

	npyPath := filepath.Join(dir, "first.npy")
	pngPath := filepath.Join(dir, "first.png")
	var buf bytes.Buffer
	require.NoError(t, run(&buf, options{derank: 0, out: npyPath, image: pngPath}, []string{path}))
	require.Empty(t, buf.String())

	saved := must.M1(numpy.FromNpyFile(npyPath))
	require.Equal(t, []int{3, 2}, saved.Shape().Dims())
	require.Equal(t, []uint8{0, 50, 100, 150, 200, 250}, saved.(*tensors.Array[uint8]).Flat())

	img := must.M1(imaging.Open(pngPath))
	require.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	gray, ok := img.(*image.Gray)
	require.True(t, ok)
	require.Equal(t, []uint8{0, 50, 100, 150, 200, 250}, gray.Pix)

	// Scaled up, each pixel becomes a 2x2 block.
	require.NoError(t, run(&buf, options{derank: 0, image: pngPath, imageScale: 2}, []string{path}))
	img = must.M1(imaging.Open(pngPath))
	require.Equal(t, image.Rect(0, 0, 6, 4), img.Bounds())
	r, _, _, _ := img.At(5, 3).RGBA()
	require.Equal(t, uint32(250), r>>8)

	// .npy files are also accepted as inputs.
	require.NoError(t, run(&buf, options{derank: -1, op: "add", progress: true}, []string{npyPath, npyPath}))
	require.Contains(t, buf.String(), "Summary")

	// A rank-1 array is not an image.
	require.Error(t, run(&buf, options{derank: 0, image: pngPath}, []string{npyPath}))
}
