package idx

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/QnnOkabayashi/arrs/pkg/core/dtypes"
	"github.com/QnnOkabayashi/arrs/pkg/core/shapes"
	"github.com/QnnOkabayashi/arrs/pkg/core/tensors"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_Bytes(t *testing.T) {
	// 3 rows of 2 int16: the file stores the dims outermost first.
	a := tensors.Make([]int16{1, -2, 3, 4, 5, 256}, 2, 3)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, a))
	want := []byte{
		0x00, 0x00, 0x0B, 0x02,
		0x00, 0x00, 0x00, 0x03,
		0x00, 0x00, 0x00, 0x02,
		0x00, 0x01, 0xFF, 0xFE, 0x00, 0x03, 0x00, 0x04, 0x00, 0x05, 0x01, 0x00,
	}
	require.Equal(t, want, buf.Bytes())

	got, err := Read[int16](bytes.NewReader(want))
	require.NoError(t, err)
	require.True(t, a.Equal(got))

	// Bools take one byte.
	buf.Reset()
	require.NoError(t, Write(&buf, tensors.Make([]bool{true, false, true}, 3)))
	require.Equal(t, []byte{0, 0, 0x07, 1, 0, 0, 0, 3, 1, 0, 1}, buf.Bytes())
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	header := Header{DType: dtypes.Float64, Dims: []int{28, 28, 60000}}
	require.NoError(t, header.Write(&buf))
	require.Equal(t, 4+3*4, buf.Len())
	require.Equal(t, []byte{0, 0, 0x0E, 3, 0, 0, 0xEA, 0x60}, buf.Bytes()[:8])

	got, err := ReadHeader(&buf)
	require.NoError(t, err)
	require.Equal(t, header, got)

	require.Error(t, Header{DType: dtypes.InvalidDType, Dims: []int{1}}.Write(io.Discard))
	require.ErrorIs(t, Header{DType: dtypes.Int8}.Write(io.Discard), shapes.ErrZeroDims)
}

func roundTrip[T dtypes.Supported](t *testing.T, data []T, dims ...int) {
	t.Run(fmt.Sprintf("%s%v", dtypes.FromGenericsType[T](), dims), func(t *testing.T) {
		a := tensors.Make(data, dims...)
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, a))
		require.Equal(t, 4+4*len(dims)+len(data)*dtypes.FromGenericsType[T]().Size(), buf.Len())
		encoded := buf.Bytes()

		got, err := Read[T](bytes.NewReader(encoded))
		require.NoError(t, err)
		require.Equal(t, dims, got.Shape().Dims())
		require.Equal(t, data, got.Flat())

		got, err = ReadRank[T](bytes.NewReader(encoded), len(dims))
		require.NoError(t, err)
		require.True(t, a.Equal(got))

		anyTensor, err := ReadAny(bytes.NewReader(encoded))
		require.NoError(t, err)
		require.Equal(t, a.DType(), anyTensor.DType())
		require.True(t, a.Equal(anyTensor.(*tensors.Array[T])))
	})
}

func TestRoundTrip(t *testing.T) {
	roundTrip(t, []bool{true, false, false, true}, 2, 2)
	roundTrip(t, []uint8{0, 1, 127, 128, 255, 3}, 3, 2)
	roundTrip(t, []int8{-128, -1, 0, 127}, 4)
	roundTrip(t, []int16{-32768, 32767, 0, 1, -1, 2}, 1, 2, 3)
	roundTrip(t, []int32{-2147483648, 2147483647, 5}, 3, 1)
	roundTrip(t, []float32{0.5, -1.25, 3e38}, 3)
	roundTrip(t, []float64{1.0 / 3, -2, 1e-300, 7}, 2, 1, 2)

	// Larger than the chunks used to convert the data.
	big := make([]float32, 17*3000)
	for ii := range big {
		big[ii] = float32(ii) / 7
	}
	roundTrip(t, big, 17, 3000)
}

func TestRead_Errors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tensors.Make([]int32{1, 2, 3, 4, 5, 6}, 3, 2)))
	encoded := buf.Bytes()

	t.Run("dtype", func(t *testing.T) {
		_, err := Read[float32](bytes.NewReader(encoded))
		var dtypeErr *MismatchDTypeIDsError
		require.ErrorAs(t, err, &dtypeErr)
		require.Equal(t, MismatchDTypeIDsError{Expected: 0x0D, Actual: 0x0C}, *dtypeErr)
	})

	t.Run("ndims", func(t *testing.T) {
		_, err := ReadRank[int32](bytes.NewReader(encoded), 3)
		var ndimsErr *MismatchNDimsError
		require.ErrorAs(t, err, &ndimsErr)
		require.Equal(t, MismatchNDimsError{Expected: 3, Actual: 2}, *ndimsErr)
	})

	t.Run("unknown dtype", func(t *testing.T) {
		bad := bytes.Clone(encoded)
		bad[2] = 0x0A
		_, err := ReadAny(bytes.NewReader(bad))
		var dtypeErr *MismatchDTypeIDsError
		require.ErrorAs(t, err, &dtypeErr)
		require.Equal(t, uint8(0), dtypeErr.Expected)
		require.Equal(t, uint8(0x0A), dtypeErr.Actual)
	})

	t.Run("truncated", func(t *testing.T) {
		for _, n := range []int{0, 3, 4, 9, len(encoded) - 1} {
			_, err := Read[int32](bytes.NewReader(encoded[:n]))
			require.ErrorIsf(t, err, ErrReadUnaccepted, "truncated to %d bytes", n)
			_, err = ReadAny(bytes.NewReader(encoded[:n]))
			require.ErrorIsf(t, err, ErrReadUnaccepted, "truncated to %d bytes", n)
		}
	})

	t.Run("zero dims", func(t *testing.T) {
		_, err := Read[uint8](bytes.NewReader([]byte{0, 0, 0x08, 0}))
		require.ErrorIs(t, err, shapes.ErrZeroDims)
		_, err = Read[uint8](bytes.NewReader([]byte{0, 0, 0x08, 1, 0, 0, 0, 0}))
		var zeroLenErr *shapes.ZeroLenDimError
		require.ErrorAs(t, err, &zeroLenErr)
	})

	t.Run("huge dims", func(t *testing.T) {
		// A 12 bytes file announcing 0x7fffffff x 0x7fffffff elements.
		huge := []byte{0, 0, 0x08, 2, 0x7f, 0xff, 0xff, 0xff, 0x7f, 0xff, 0xff, 0xff}
		_, err := Read[uint8](bytes.NewReader(huge))
		require.ErrorIs(t, err, ErrReadUnaccepted)
		_, err = ReadAny(bytes.NewReader(huge))
		require.ErrorIs(t, err, ErrReadUnaccepted)

		// Without a known size, it fails once the reader runs out of data.
		_, err = Read[uint8](struct{ io.Reader }{bytes.NewReader(append(huge, make([]byte, 100)...))})
		require.ErrorIs(t, err, ErrReadUnaccepted)
		_, err = ReadAny(struct{ io.Reader }{bytes.NewReader(huge)})
		require.ErrorIs(t, err, ErrReadUnaccepted)

		// Volumes that don't fit an int.
		huge = []byte{0, 0, 0x08, 3, 0x7f, 0xff, 0xff, 0xff, 0x7f, 0xff, 0xff, 0xff, 0x7f, 0xff, 0xff, 0xff}
		_, err = Read[uint8](bytes.NewReader(huge))
		var overflowErr *shapes.VolumeOverflowError
		require.ErrorAs(t, err, &overflowErr)
		_, err = ReadAny(struct{ io.Reader }{bytes.NewReader(huge)})
		require.ErrorAs(t, err, &overflowErr)
	})

	t.Run("unknown size", func(t *testing.T) {
		// Arrays larger than one chunk, read from a reader of unknown size.
		rows := 3*chunkLen/5 + 3
		values := make([]int16, 5*rows)
		for ii := range values {
			values[ii] = int16(ii)
		}
		a := tensors.Make(values, 5, rows)
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, a))
		got, err := Read[int16](struct{ io.Reader }{&buf})
		require.NoError(t, err)
		require.True(t, a.Equal(got))
	})

	t.Run("io", func(t *testing.T) {
		failure := errors.New("disk on fire")
		_, err := Read[int32](io.MultiReader(bytes.NewReader(encoded[:6]), &failingReader{err: failure}))
		var ioErr *IOError
		require.ErrorAs(t, err, &ioErr)
		require.Equal(t, "read", ioErr.Op)
		require.ErrorIs(t, err, failure)
	})
}

type failingReader struct{ err error }

func (r *failingReader) Read([]byte) (int, error) { return 0, r.err }

// limitedWriter accepts up to n bytes, and then silently stops accepting them.
type limitedWriter struct {
	n   int
	buf bytes.Buffer
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		p = p[:w.n]
	}
	w.n -= len(p)
	return w.buf.Write(p)
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestWrite_Errors(t *testing.T) {
	a := tensors.Make(make([]float64, 1000), 10, 100)
	err := Write(&limitedWriter{n: 100}, a)
	require.ErrorIs(t, err, ErrWriteUnaccepted)

	err = Header{DType: dtypes.Uint8, Dims: []int{2}}.Write(&limitedWriter{n: 5})
	require.ErrorIs(t, err, ErrWriteUnaccepted)

	failure := errors.New("disk full")
	err = Write(failingWriter{err: failure}, a)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, "write", ioErr.Op)
	require.ErrorIs(t, err, failure)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "images.idx")
	a := tensors.Make([]uint8{1, 2, 3, 4, 5, 6, 7, 8}, 2, 2, 2)
	require.NoError(t, WriteFile(path, a))
	info := must.M1(os.Stat(path))
	assert.Equal(t, int64(4+3*4+8), info.Size())

	got, err := ReadFile[uint8](path)
	require.NoError(t, err)
	require.True(t, a.Equal(got))

	anyTensor, err := ReadAnyFile(path)
	require.NoError(t, err)
	require.Equal(t, dtypes.Uint8, anyTensor.DType())

	// Write a converted copy with the dynamic API.
	converted := must.M1(anyTensor.AsDType(dtypes.Float32))
	otherPath := filepath.Join(dir, "images_f32.idx")
	require.NoError(t, WriteAnyFile(otherPath, converted))
	f32, err := ReadFile[float32](otherPath)
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, f32.Flat())

	_, err = ReadFile[float32](path)
	var dtypeErr *MismatchDTypeIDsError
	require.ErrorAs(t, err, &dtypeErr)
	require.Contains(t, err.Error(), "couldn't create array from file")

	_, err = ReadFile[uint8](filepath.Join(dir, "missing.idx"))
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, "open", ioErr.Op)
	require.ErrorIs(t, err, os.ErrNotExist)
}
