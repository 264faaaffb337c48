// Package idx reads and writes arrays in the IDX binary file format (the format of the MNIST dataset).
//
// An IDX file has a 4-byte header [0x00, 0x00, dtype id, ndims], followed by ndims big-endian
// int32 dimensions, followed by the elements, big-endian, row-major. Dimensions are stored
// outermost first in the file: they are reversed at this boundary, so every Header.Dims and
// tensors.Array shape is innermost first as elsewhere in the library.
//
// Supported dtypes and their ids: Bool (0x07, one byte per element), Uint8 (0x08), Int8 (0x09),
// Int16 (0x0B), Int32 (0x0C), Float32 (0x0D) and Float64 (0x0E).
//
// Reads are buffered, so they may consume bytes of the reader past the end of the array.
package idx

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"slices"

	"github.com/QnnOkabayashi/arrs/pkg/core/dtypes"
	"github.com/QnnOkabayashi/arrs/pkg/core/shapes"
	"github.com/QnnOkabayashi/arrs/pkg/core/tensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// chunkLen is the number of elements converted by each call to encoding/binary.
const chunkLen = 1 << 14

// Header of an IDX file.
type Header struct {
	DType dtypes.DType

	// Dims are the dimensions of the array, innermost first.
	Dims []int
}

// ReadHeader reads the header of an IDX file. The reader is left positioned at the first element.
//
// It fails with *MismatchDTypeIDsError (with Expected == 0) if the dtype id is not known.
func ReadHeader(r io.Reader) (Header, error) {
	id, ndims, err := readMagic(r)
	if err != nil {
		return Header{}, err
	}
	dtype := dtypes.FromIdxID(id)
	if dtype == dtypes.InvalidDType {
		return Header{}, errors.WithStack(&MismatchDTypeIDsError{Actual: id})
	}
	dims, err := readDims(r, ndims)
	if err != nil {
		return Header{}, err
	}
	return Header{DType: dtype, Dims: dims}, nil
}

// Write the header to w.
func (h Header) Write(w io.Writer) error {
	w = checkedWriter{w}
	id := h.DType.IdxID()
	if id == 0 {
		return errors.Errorf("dtype %s cannot be stored in an IDX file", h.DType)
	}
	if _, err := shapes.New(h.Dims...); err != nil {
		return err
	}
	if len(h.Dims) > math.MaxUint8 {
		return errors.Errorf("IDX files support at most %d dims, got %d", math.MaxUint8, len(h.Dims))
	}
	fileDims := make([]int32, len(h.Dims))
	for ii, dim := range h.Dims {
		if dim > math.MaxInt32 {
			return errors.Errorf("dim %d too large for an IDX file, in dims %v", dim, h.Dims)
		}
		fileDims[len(h.Dims)-1-ii] = int32(dim)
	}
	if err := writeFull(w, []byte{0, 0, id, uint8(len(h.Dims))}); err != nil {
		return err
	}
	return encode(w, fileDims)
}

// Read an array of type T from r.
//
// It fails with *MismatchDTypeIDsError if the file doesn't hold elements of type T, with
// ErrReadUnaccepted if r ends before the end of the array, and with *IOError for other
// failures of r.
func Read[T dtypes.Supported](r io.Reader) (*tensors.Array[T], error) {
	return read[T](bufferedReader(r), available(r), -1)
}

// ReadRank is like Read, but it also fails with *MismatchNDimsError if the array doesn't
// have ndims dimensions.
func ReadRank[T dtypes.Supported](r io.Reader, ndims int) (*tensors.Array[T], error) {
	if ndims < 1 || ndims > math.MaxUint8 {
		return nil, errors.Errorf("ReadRank(ndims=%d): ndims must be in [1, %d]", ndims, math.MaxUint8)
	}
	return read[T](bufferedReader(r), available(r), ndims)
}

// read an array from r. size is the number of bytes r holds, or -1 if unknown.
func read[T dtypes.Supported](r io.Reader, size int64, ndims int) (*tensors.Array[T], error) {
	id, fileNDims, err := readMagic(r)
	if err != nil {
		return nil, err
	}
	if want := dtypes.FromGenericsType[T]().IdxID(); id != want {
		return nil, errors.WithStack(&MismatchDTypeIDsError{Expected: want, Actual: id})
	}
	if ndims >= 0 && fileNDims != ndims {
		return nil, errors.WithStack(&MismatchNDimsError{Expected: uint8(ndims), Actual: uint8(fileNDims)})
	}
	dims, err := readDims(r, fileNDims)
	if err != nil {
		return nil, err
	}
	return readData[T](r, dims, dataSize(size, dims))
}

// ReadAny reads an array of whatever dtype is stored in r. The returned tensor is a
// *tensors.Array[T] with T matching its DType.
func ReadAny(r io.Reader) (tensors.Tensor, error) {
	size := available(r)
	r = bufferedReader(r)
	header, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	size = dataSize(size, header.Dims)
	switch header.DType {
	case dtypes.Bool:
		return asTensor(readData[bool](r, header.Dims, size))
	case dtypes.Uint8:
		return asTensor(readData[uint8](r, header.Dims, size))
	case dtypes.Int8:
		return asTensor(readData[int8](r, header.Dims, size))
	case dtypes.Int16:
		return asTensor(readData[int16](r, header.Dims, size))
	case dtypes.Int32:
		return asTensor(readData[int32](r, header.Dims, size))
	case dtypes.Float32:
		return asTensor(readData[float32](r, header.Dims, size))
	case dtypes.Float64:
		return asTensor(readData[float64](r, header.Dims, size))
	default:
		return nil, errors.WithStack(&MismatchDTypeIDsError{Actual: header.DType.IdxID()})
	}
}

// asTensor avoids returning a typed nil *tensors.Array inside a non-nil interface.
func asTensor[T dtypes.Supported](a *tensors.Array[T], err error) (tensors.Tensor, error) {
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Write the array to w, header included.
//
// It fails with ErrWriteUnaccepted if w stops accepting bytes, and with *IOError for other
// failures of w.
func Write[T dtypes.Supported](w io.Writer, a *tensors.Array[T]) error {
	bw := bufio.NewWriter(checkedWriter{w})
	header := Header{DType: a.DType(), Dims: a.Shape().Dims()}
	if err := header.Write(bw); err != nil {
		return err
	}
	if err := encode(bw, a.Flat()); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return writeError(err)
	}
	return nil
}

// WriteAny writes a tensor of any dtype to w. See Write.
func WriteAny(w io.Writer, t tensors.Tensor) error {
	switch a := t.(type) {
	case *tensors.Array[bool]:
		return Write(w, a)
	case *tensors.Array[uint8]:
		return Write(w, a)
	case *tensors.Array[int8]:
		return Write(w, a)
	case *tensors.Array[int16]:
		return Write(w, a)
	case *tensors.Array[int32]:
		return Write(w, a)
	case *tensors.Array[float32]:
		return Write(w, a)
	case *tensors.Array[float64]:
		return Write(w, a)
	default:
		return errors.Errorf("WriteAny: unsupported tensor type %T", t)
	}
}

// ReadFile reads an array of type T from the IDX file in path. See Read.
func ReadFile[T dtypes.Supported](path string) (*tensors.Array[T], error) {
	return readFile(path, Read[T])
}

// ReadAnyFile reads an array of any dtype from the IDX file in path. See ReadAny.
func ReadAnyFile(path string) (tensors.Tensor, error) {
	return readFile(path, ReadAny)
}

// WriteFile writes the array to the IDX file in path, overwriting it if it exists. See Write.
func WriteFile[T dtypes.Supported](path string, a *tensors.Array[T]) error {
	return writeFile(path, a, func(w io.Writer) error { return Write(w, a) })
}

// WriteAnyFile writes a tensor of any dtype to the IDX file in path. See WriteAny.
func WriteAnyFile(path string, t tensors.Tensor) error {
	return writeFile(path, t, func(w io.Writer) error { return WriteAny(w, t) })
}

func readFile[R tensors.Tensor](path string, read func(r io.Reader) (R, error)) (R, error) {
	var zero R
	f, err := os.Open(path)
	if err != nil {
		return zero, errors.WithStack(&IOError{Op: "open", Err: err})
	}
	defer func() { _ = f.Close() }()
	t, err := read(f)
	if err != nil {
		return zero, errors.WithMessagef(err, "couldn't create array from file %q", path)
	}
	klog.V(1).Infof("idx: read (%s)%s from %q", t.DType(), t.Shape(), path)
	return t, nil
}

func writeFile(path string, t tensors.Tensor, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(&IOError{Op: "create", Err: err})
	}
	if err = write(f); err != nil {
		_ = f.Close()
		return errors.WithMessagef(err, "failed to write array to file %q", path)
	}
	if err = f.Close(); err != nil {
		return errors.WithStack(&IOError{Op: "close", Err: err})
	}
	klog.V(1).Infof("idx: wrote (%s)%s to %q", t.DType(), t.Shape(), path)
	return nil
}

func bufferedReader(r io.Reader) io.Reader {
	if _, ok := r.(*bufio.Reader); ok {
		return r
	}
	return bufio.NewReader(r)
}

// readMagic reads the first 4 bytes of the header, returning the dtype id and the number of dims.
func readMagic(r io.Reader) (id uint8, ndims int, err error) {
	var magic [4]byte
	if _, err = io.ReadFull(r, magic[:]); err != nil {
		return 0, 0, readError(err)
	}
	return magic[2], int(magic[3]), nil
}

// readDims reads the ndims dimensions that follow the magic bytes, and returns them innermost first.
func readDims(r io.Reader, ndims int) ([]int, error) {
	if ndims == 0 {
		return nil, errors.WithStack(shapes.ErrZeroDims)
	}
	fileDims := make([]int32, ndims)
	if err := decode(r, fileDims); err != nil {
		return nil, err
	}
	dims := make([]int, ndims)
	for ii, dim := range fileDims {
		dims[ndims-1-ii] = int(dim)
	}
	return dims, nil
}

// available returns the number of bytes left in r, or -1 if it can't be known without reading.
func available(r io.Reader) int64 {
	switch r := r.(type) {
	case interface{ Len() int }:
		return int64(r.Len())
	case *os.File:
		info, err := r.Stat()
		if err != nil || !info.Mode().IsRegular() {
			return -1
		}
		offset, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return -1
		}
		return info.Size() - offset
	}
	return -1
}

// dataSize returns the number of bytes left for the elements, given size bytes before the header.
func dataSize(size int64, dims []int) int64 {
	if size < 0 {
		return -1
	}
	return max(size-int64(4+4*len(dims)), 0)
}

// readData reads the elements of an array with the given dims. size is the number of bytes
// left in r, or -1 if unknown: then memory grows with the data actually read, so a corrupt
// header can't make it allocate more than what r holds.
func readData[T dtypes.Supported](r io.Reader, dims []int, size int64) (*tensors.Array[T], error) {
	shape, err := shapes.New(dims...)
	if err != nil {
		return nil, err
	}
	volume := shape.Volume()
	if size >= 0 {
		if int64(volume) > size/int64(dtypes.FromGenericsType[T]().Size()) {
			return nil, errors.Wrapf(ErrReadUnaccepted, "array %v needs more than the %d bytes available", dims, size)
		}
		data := make([]T, volume)
		if err = decode(r, data); err != nil {
			return nil, err
		}
		return tensors.New(dims, data)
	}
	data := make([]T, 0, min(volume, chunkLen))
	for len(data) < volume {
		n := min(chunkLen, volume-len(data))
		data = slices.Grow(data, n)[:len(data)+n]
		if err = decode(r, data[len(data)-n:]); err != nil {
			return nil, err
		}
	}
	return tensors.New(dims, slices.Clip(data))
}

// decode fills data with big-endian values read from r.
func decode[T dtypes.Supported](r io.Reader, data []T) error {
	for lo := 0; lo < len(data); lo += chunkLen {
		hi := min(lo+chunkLen, len(data))
		if err := binary.Read(r, binary.BigEndian, data[lo:hi]); err != nil {
			return readError(err)
		}
	}
	return nil
}

// encode writes data to w as big-endian values.
func encode[T dtypes.Supported](w io.Writer, data []T) error {
	for lo := 0; lo < len(data); lo += chunkLen {
		hi := min(lo+chunkLen, len(data))
		if err := binary.Write(w, binary.BigEndian, data[lo:hi]); err != nil {
			return writeError(err)
		}
	}
	return nil
}

func writeFull(w io.Writer, p []byte) error {
	if _, err := w.Write(p); err != nil {
		return writeError(err)
	}
	return nil
}

func readError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.WithStack(ErrReadUnaccepted)
	}
	return errors.WithStack(&IOError{Op: "read", Err: err})
}

func writeError(err error) error {
	if errors.Is(err, ErrWriteUnaccepted) || errors.Is(err, io.ErrShortWrite) {
		return errors.WithStack(ErrWriteUnaccepted)
	}
	return errors.WithStack(&IOError{Op: "write", Err: err})
}

// checkedWriter reports writes that accept fewer bytes than given, without an error, as ErrWriteUnaccepted.
type checkedWriter struct {
	w io.Writer
}

func (cw checkedWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if err == nil && n < len(p) {
		err = ErrWriteUnaccepted
	}
	return n, err
}
