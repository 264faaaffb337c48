// Package numpy reads and writes arrays in NumPy's .npy and .npz file formats.
//
// NumPy lists dimensions outermost first: they are reversed when reading and writing, so the
// returned arrays have dims innermost first as elsewhere in the library. A 0-dimensional (scalar)
// .npy array is read as an array of shape [1].
//
// Only the dtypes supported by the library can be read or written: bool, uint8, int8, int16,
// int32, float32 and float64. Both byte orders and both C and Fortran element orders are read;
// writes are always little-endian in C order.
package numpy

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/QnnOkabayashi/arrs/pkg/core/dtypes"
	"github.com/QnnOkabayashi/arrs/pkg/core/shapes"
	"github.com/QnnOkabayashi/arrs/pkg/core/tensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const magic = "\x93NUMPY"

// headerAlign is the alignment of the data, as written by NumPy.
const headerAlign = 64

// maxHeaderLen is the largest header accepted, the same limit NumPy reads with by default.
const maxHeaderLen = 10000

// chunkLen is the number of elements read at a time when the size of the input is unknown.
const chunkLen = 1 << 14

// FromNpyFile reads a .npy file.
func FromNpyFile(filePath string) (tensors.Tensor, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open .npy file %q", filePath)
	}
	defer func() { _ = file.Close() }()
	t, err := FromNpyReader(file)
	if err != nil {
		return nil, errors.WithMessagef(err, "couldn't create array from file %q", filePath)
	}
	klog.V(1).Infof("numpy: read (%s)%s from %q", t.DType(), t.Shape(), filePath)
	return t, nil
}

// FromNpyReader reads a .npy file from r. The returned tensor is a *tensors.Array[T] with T
// matching its DType.
func FromNpyReader(r io.Reader) (tensors.Tensor, error) {
	size := available(r)
	r = bufio.NewReader(r)
	preamble := make([]byte, len(magic)+2)
	if _, err := io.ReadFull(r, preamble); err != nil {
		return nil, errors.Wrapf(err, "failed to read magic string")
	}
	if string(preamble[:len(magic)]) != magic {
		return nil, errors.Errorf("invalid .npy file format: magic string mismatch")
	}

	var headerLen uint32
	switch major, minor := preamble[len(magic)], preamble[len(magic)+1]; major {
	case 1:
		var len16 uint16
		if err := binary.Read(r, binary.LittleEndian, &len16); err != nil {
			return nil, errors.Wrapf(err, "failed to read header length (v1.0)")
		}
		headerLen = uint32(len16)
		size = consumed(size, len(preamble)+2+int(headerLen))
	case 2, 3:
		if err := binary.Read(r, binary.LittleEndian, &headerLen); err != nil {
			return nil, errors.Wrapf(err, "failed to read header length (v%d.%d)", major, minor)
		}
		size = consumed(size, len(preamble)+4+int(headerLen))
	default:
		return nil, errors.Errorf("unsupported .npy version: %d.%d", major, minor)
	}
	if headerLen > maxHeaderLen {
		return nil, errors.Errorf("header of %d bytes is larger than the maximum of %d", headerLen, maxHeaderLen)
	}
	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, errors.Wrapf(err, "failed to read header")
	}

	// Example: "{'descr': '<f4', 'fortran_order': False, 'shape': (1, 2, 3), }"
	header, err := parseNpyHeader(string(headerBytes))
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to parse .npy header")
	}
	dtype, order, err := npyToDType(header.descr)
	if err != nil {
		return nil, err
	}
	dims := slices.Clone(header.shape)
	slices.Reverse(dims)
	if len(dims) == 0 {
		dims = []int{1}
	}
	shape, err := shapes.New(dims...)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid .npy shape %v", header.shape)
	}

	switch dtype {
	case dtypes.Bool:
		return asTensor(readData[bool](r, order, shape, header.fortranOrder, size))
	case dtypes.Uint8:
		return asTensor(readData[uint8](r, order, shape, header.fortranOrder, size))
	case dtypes.Int8:
		return asTensor(readData[int8](r, order, shape, header.fortranOrder, size))
	case dtypes.Int16:
		return asTensor(readData[int16](r, order, shape, header.fortranOrder, size))
	case dtypes.Int32:
		return asTensor(readData[int32](r, order, shape, header.fortranOrder, size))
	case dtypes.Float32:
		return asTensor(readData[float32](r, order, shape, header.fortranOrder, size))
	default:
		return asTensor(readData[float64](r, order, shape, header.fortranOrder, size))
	}
}

// asTensor avoids returning a typed nil *tensors.Array inside a non-nil interface.
func asTensor[T dtypes.Supported](a *tensors.Array[T], err error) (tensors.Tensor, error) {
	if err != nil {
		return nil, err
	}
	return a, nil
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

// consumed returns what is left of size after n bytes are read. Unknown sizes (-1) stay unknown.
func consumed(size int64, n int) int64 {
	if size < 0 {
		return -1
	}
	return max(size-int64(n), 0)
}

// readData reads the elements of an array. size is the number of bytes left in r, or -1 if
// unknown: then memory grows with the data actually read, so a corrupt header can't make it
// allocate more than what r holds.
func readData[T dtypes.Supported](r io.Reader, order binary.ByteOrder, shape shapes.Base, fortranOrder bool, size int64) (*tensors.Array[T], error) {
	volume := shape.Volume()
	if size >= 0 && int64(volume) > size/int64(dtypes.FromGenericsType[T]().Size()) {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF,
			"failed to read array data (expected %d elements, only %d bytes available)", volume, size)
	}
	var data []T
	if size >= 0 {
		data = make([]T, volume)
		if err := binary.Read(r, order, data); err != nil {
			return nil, errors.Wrapf(err, "failed to read array data (expected %d elements)", volume)
		}
	} else {
		data = make([]T, 0, min(volume, chunkLen))
		for len(data) < volume {
			n := min(chunkLen, volume-len(data))
			data = slices.Grow(data, n)[:len(data)+n]
			if err := binary.Read(r, order, data[len(data)-n:]); err != nil {
				return nil, errors.Wrapf(err, "failed to read array data (expected %d elements)", volume)
			}
		}
		data = slices.Clip(data)
	}
	if fortranOrder && shape.Rank() > 1 {
		data = fortranToC(shape.Dims(), data)
	}
	return tensors.New(shape.Dims(), data)
}

// fortranToC returns the data of an array with the given dims (innermost first) laid out in
// Fortran order, where the outermost axis varies fastest, reordered to row-major.
func fortranToC[T any](dims []int, fortranData []T) []T {
	rank := len(dims)
	fortranStrides := make([]int, rank)
	stride := 1
	for axis := rank - 1; axis >= 0; axis-- {
		fortranStrides[axis] = stride
		stride *= dims[axis]
	}
	cData := make([]T, len(fortranData))
	indices := make([]int, rank)
	for cIndex := range cData {
		fortranIndex := 0
		for axis, index := range indices {
			fortranIndex += index * fortranStrides[axis]
		}
		cData[cIndex] = fortranData[fortranIndex]

		// Increment the indices, innermost axis first.
		for axis := range indices {
			indices[axis]++
			if indices[axis] < dims[axis] {
				break
			}
			indices[axis] = 0
		}
	}
	return cData
}

type npyHeader struct {
	descr        string
	fortranOrder bool
	shape        []int
}

var (
	reDescr   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	reFortran = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	reShape   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// parseNpyHeader extracts dtype, shape, and fortran_order from the .npy header string.
func parseNpyHeader(header string) (h npyHeader, err error) {
	mDescr := reDescr.FindStringSubmatch(header)
	if len(mDescr) < 2 {
		return h, errors.Errorf("could not find 'descr' in header: %q", header)
	}
	h.descr = mDescr[1]

	mFortran := reFortran.FindStringSubmatch(header)
	if len(mFortran) < 2 {
		return h, errors.Errorf("could not find 'fortran_order' in header: %q", header)
	}
	h.fortranOrder = mFortran[1] == "True"

	mShape := reShape.FindStringSubmatch(header)
	if len(mShape) < 2 {
		return h, errors.Errorf("could not find 'shape' in header: %q", header)
	}
	for _, p := range strings.Split(mShape[1], ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			// Trailing comma, as in "(10,)", or a scalar "()".
			continue
		}
		dim, err := strconv.Atoi(p)
		if err != nil {
			return h, errors.Wrapf(err, "invalid shape value %q in header", p)
		}
		h.shape = append(h.shape, dim)
	}
	return h, nil
}

// npyToDType converts a NumPy dtype string to a DType and the byte order of its elements.
func npyToDType(descr string) (dtypes.DType, binary.ByteOrder, error) {
	var order binary.ByteOrder = binary.LittleEndian
	code := descr
	if len(code) > 0 {
		switch code[0] {
		case '>':
			order = binary.BigEndian
			code = code[1:]
		case '<', '|', '=':
			code = code[1:]
		}
	}
	switch code {
	case "?", "b1":
		return dtypes.Bool, order, nil
	case "u1":
		return dtypes.Uint8, order, nil
	case "i1":
		return dtypes.Int8, order, nil
	case "i2":
		return dtypes.Int16, order, nil
	case "i4":
		return dtypes.Int32, order, nil
	case "f4":
		return dtypes.Float32, order, nil
	case "f8":
		return dtypes.Float64, order, nil
	default:
		return dtypes.InvalidDType, nil, errors.Errorf("unsupported NumPy dtype: %s", descr)
	}
}

// dtypeToNpy converts a DType to a little-endian NumPy dtype string.
func dtypeToNpy(dtype dtypes.DType) (string, error) {
	switch dtype {
	case dtypes.Bool:
		return "|b1", nil
	case dtypes.Uint8:
		return "|u1", nil
	case dtypes.Int8:
		return "|i1", nil
	case dtypes.Int16:
		return "<i2", nil
	case dtypes.Int32:
		return "<i4", nil
	case dtypes.Float32:
		return "<f4", nil
	case dtypes.Float64:
		return "<f8", nil
	default:
		return "", errors.Errorf("unsupported DType for .npy: %s", dtype)
	}
}

// ToNpyWriter serializes t to w in .npy format (version 1.0).
func ToNpyWriter(t tensors.Tensor, w io.Writer) error {
	descr, err := dtypeToNpy(t.DType())
	if err != nil {
		return err
	}
	dims := t.Shape().Dims()
	slices.Reverse(dims)
	var shapeTuple string
	if len(dims) == 1 {
		shapeTuple = fmt.Sprintf("(%d,)", dims[0])
	} else {
		dimsStr := make([]string, len(dims))
		for ii, dim := range dims {
			dimsStr[ii] = strconv.Itoa(dim)
		}
		shapeTuple = fmt.Sprintf("(%s)", strings.Join(dimsStr, ", "))
	}

	// Magic (6) + version (2) + header length (2), then the header padded with spaces and
	// terminated by a newline.
	var header bytes.Buffer
	fmt.Fprintf(&header, "{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, shapeTuple)
	for (len(magic)+4+header.Len()+1)%headerAlign != 0 {
		header.WriteByte(' ')
	}
	header.WriteByte('\n')

	bw := bufio.NewWriter(w)
	_, _ = bw.WriteString(magic)
	_, _ = bw.Write([]byte{1, 0})
	_ = binary.Write(bw, binary.LittleEndian, uint16(header.Len()))
	_, _ = bw.Write(header.Bytes())
	if err := writeData(bw, t); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrapf(err, "failed to write .npy data")
	}
	return nil
}

func writeData(w io.Writer, t tensors.Tensor) error {
	var data any
	switch a := t.(type) {
	case *tensors.Array[bool]:
		data = a.Flat()
	case *tensors.Array[uint8]:
		data = a.Flat()
	case *tensors.Array[int8]:
		data = a.Flat()
	case *tensors.Array[int16]:
		data = a.Flat()
	case *tensors.Array[int32]:
		data = a.Flat()
	case *tensors.Array[float32]:
		data = a.Flat()
	case *tensors.Array[float64]:
		data = a.Flat()
	default:
		return errors.Errorf("unsupported tensor type %T", t)
	}
	if err := binary.Write(w, binary.LittleEndian, data); err != nil {
		return errors.Wrapf(err, "failed to write .npy data")
	}
	return nil
}

// ToNpyFile serializes t to a .npy file.
func ToNpyFile(t tensors.Tensor, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to create .npy file %q", filePath)
	}
	if err = ToNpyWriter(t, file); err != nil {
		_ = file.Close()
		return errors.WithMessagef(err, "failed to write array to file %q", filePath)
	}
	if err = file.Close(); err != nil {
		return errors.Wrapf(err, "failed to close .npy file %q", filePath)
	}
	klog.V(1).Infof("numpy: wrote (%s)%s to %q", t.DType(), t.Shape(), filePath)
	return nil
}

// FromNpzFile reads a .npz file and returns a map of array names to arrays.
func FromNpzFile(filePath string) (map[string]tensors.Tensor, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open .npz file %q", filePath)
	}
	defer func() { _ = file.Close() }()
	info, err := file.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat .npz file %q", filePath)
	}
	return FromNpzReader(file, info.Size())
}

// FromNpzReader reads a .npz archive (a zip file of .npy files) of the given size from r.
func FromNpzReader(r io.ReaderAt, size int64) (map[string]tensors.Tensor, error) {
	zipReader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create zip reader for `.npz`")
	}
	results := make(map[string]tensors.Tensor)
	for _, f := range zipReader.File {
		cleanPath := path.Clean(f.Name)
		if path.IsAbs(cleanPath) || strings.HasPrefix(cleanPath, "..") {
			return nil, errors.Errorf("invalid (malicious?) path in .npz archive: %q (normalized to %q)",
				f.Name, cleanPath)
		}
		if !strings.HasSuffix(f.Name, ".npy") {
			klog.V(1).Infof("numpy: skipping %q in .npz archive", f.Name)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open %q within .npz", f.Name)
		}
		t, err := FromNpyReader(rc)
		_ = rc.Close()
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to read array %q from .npz", f.Name)
		}
		results[strings.TrimSuffix(f.Name, ".npy")] = t
	}
	return results, nil
}

// ToNpzWriter serializes the arrays to w as a .npz archive, in the order of their names.
func ToNpzWriter(arrays map[string]tensors.Tensor, w io.Writer) error {
	zipWriter := zip.NewWriter(w)
	names := make([]string, 0, len(arrays))
	for name := range arrays {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		npyName := name + ".npy"
		fileWriter, err := zipWriter.Create(npyName)
		if err != nil {
			return errors.Wrapf(err, "failed to create %q in .npz archive", npyName)
		}
		if err := ToNpyWriter(arrays[name], fileWriter); err != nil {
			return errors.WithMessagef(err, "failed to write array %q to .npz archive", name)
		}
	}
	if err := zipWriter.Close(); err != nil {
		return errors.Wrapf(err, "failed to close zip archive")
	}
	return nil
}

// ToNpzFile serializes the arrays to a .npz file.
func ToNpzFile(arrays map[string]tensors.Tensor, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to create .npz file %q", filePath)
	}
	if err = ToNpzWriter(arrays, file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
