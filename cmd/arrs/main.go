// arrs inspects, combines and converts arrays stored in IDX (or NumPy .npy) files.
//
// Usage:
//
//	arrs [flags] <file.idx> [other.idx]
//
// The first file can be reduced with -derank and -slice, combined with the second file with -op,
// converted with -astype and saved with -out or -image. By default, a summary of the result is printed.
//
// Files ending in ".npy" are read and written in NumPy's format, all others in the IDX format.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/QnnOkabayashi/arrs/pkg/core/dtypes"
	"github.com/QnnOkabayashi/arrs/pkg/core/tensors"
	"github.com/QnnOkabayashi/arrs/pkg/core/tensors/idx"
	"github.com/QnnOkabayashi/arrs/pkg/core/tensors/images"
	"github.com/QnnOkabayashi/arrs/pkg/core/tensors/numpy"
	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

var (
	flagSummary   = flag.Bool("summary", false, "Display a table with the dtype, dims and sizes of the inputs and the result.")
	flagPrint     = flag.Bool("print", false, "Pretty-print the values of the result.")
	flagPrecision = flag.Int("precision", 4, "Precision used with -print for floats, -1 for the shortest exact representation.")
	flagDerank    = flag.Int("derank", -1, "If >= 0, fix the outermost axis of the first array to this index.")
	flagSlice     = flag.String("slice", "", "Restrict the outermost axis of the first array to start:stop, applied after -derank.")
	flagOp        = flag.String("op", "", "Combine the first array with the second one, broadcasting them. "+
		"One of: "+strings.Join(opNames, ", ")+". Both arrays must have the same dtype.")
	flagAsType      dtypes.DType
	flagOut         = flag.String("out", "", "Save the result to this file: NumPy format if it ends in .npy, IDX otherwise.")
	flagImage       = flag.String("image", "", "Save the result as an image, in the format given by the extension (png, jpg, gif, tif or bmp): "+
		"[width, height] arrays are saved as gray images, [channels, width, height] arrays as RGB(A) images.")
	flagImageScale  = flag.Int("image_scale", 1, "Scale the image saved with -image by this factor.")
	flagProgress    = flag.Bool("progress", false, "Display a progress bar while reading the files.")
	flagParallelism = flag.Int("parallelism", 0, "Number of parallel workers used by -op: 0 disables parallelism, -1 is unlimited.")
	flagNoColor     = flag.Bool("no_color", false, "Disable colors in the output.")
)

func init() {
	flag.Func("astype", "Convert the result to this dtype (e.g.: Float32, int32, f64, u8, Bool).",
		func(name string) (err error) {
			flagAsType, err = parseDType(name)
			return err
		})
}

// parseDType parses a dtype name or alias, case-insensitive.
func parseDType(name string) (dtypes.DType, error) {
	dtype := dtypes.FromName(name)
	if !dtype.IsSupported() {
		return dtypes.InvalidDType, errors.Errorf("unknown dtype %q, valid values are %v", name, dtypes.DTypeStrings()[1:])
	}
	return dtype, nil
}

// options of a run, taken from the flags.
type options struct {
	summary, print, progress bool
	precision                int
	derank                   int
	slice                    string
	op                       string
	asType                   dtypes.DType
	out, image               string
	imageScale               int
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagNoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	tensors.SetParallelism(*flagParallelism)

	args := flag.Args()
	if len(args) == 0 {
		klog.Errorf("Missing IDX file to read from. See 'arrs -help'")
		os.Exit(1)
	}
	if len(args) > 2 {
		klog.Errorf("Too many arguments. See 'arrs -help'.")
		os.Exit(1)
	}
	opts := options{
		summary:    *flagSummary,
		print:      *flagPrint,
		progress:   *flagProgress,
		precision:  *flagPrecision,
		derank:     *flagDerank,
		slice:      *flagSlice,
		op:         *flagOp,
		asType:     flagAsType,
		out:        *flagOut,
		image:      *flagImage,
		imageScale: *flagImageScale,
	}
	if err := run(os.Stdout, opts, args); err != nil {
		klog.Errorf("%+v", err)
		os.Exit(1)
	}
}

// run executes the actions selected in opts on the files in paths, writing reports to w.
func run(w io.Writer, opts options, paths []string) error {
	if opts.op != "" && len(paths) != 2 {
		return errors.Errorf("-op=%s requires 2 files, got %d", opts.op, len(paths))
	}
	if opts.op == "" && len(paths) != 1 {
		return errors.Errorf("a second file is only used with -op")
	}
	var inputs []tensors.Tensor
	for _, path := range paths {
		t, err := load(path, opts.progress)
		if err != nil {
			return err
		}
		inputs = append(inputs, t)
	}
	var other tensors.Tensor
	if len(inputs) > 1 {
		other = inputs[1]
	}
	result, err := process(inputs[0], other, opts)
	if err != nil {
		return err
	}
	if opts.asType != dtypes.InvalidDType {
		result, err = result.AsDType(opts.asType)
		if err != nil {
			return err
		}
	}

	if opts.summary || (!opts.print && opts.out == "" && opts.image == "") {
		_, _ = fmt.Fprintln(w, titleStyle.Render("Summary"))
		table := newPlainTable("", "DType", "Rank", "Dims", "Elements", "Bytes")
		for ii, t := range inputs {
			table.Row(summaryRow(paths[ii], t)...)
		}
		table.Row(summaryRow("result", result)...)
		_, _ = fmt.Fprintln(w, table.Render())
	}
	if opts.print {
		_, _ = fmt.Fprintln(w, result.Summary(opts.precision))
	}
	if opts.out != "" {
		if err := save(opts.out, result); err != nil {
			return err
		}
		klog.Infof("Saved (%s)%s to %q", result.DType(), result.Shape(), opts.out)
	}
	if opts.image != "" {
		if err := saveImage(opts.image, result, opts.imageScale); err != nil {
			return err
		}
		klog.Infof("Saved image %s to %q", result.Shape(), opts.image)
	}
	return nil
}

func isNpy(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".npy")
}

// save writes t to path, in the format given by its extension.
func save(path string, t tensors.Tensor) error {
	if isNpy(path) {
		return numpy.ToNpyFile(t, path)
	}
	return idx.WriteAnyFile(path, t)
}

// saveImage encodes t as an image, gray if it has rank 2, scaled up by scale.
func saveImage(path string, t tensors.Tensor, scale int) error {
	toImage := images.ToImage()
	if t.Rank() == 2 {
		toImage.Gray()
	}
	img, err := toImage.Single(t)
	if err != nil {
		return err
	}
	if scale > 1 {
		size := img.Bounds().Size()
		img = imaging.Resize(img, size.X*scale, size.Y*scale, imaging.NearestNeighbor)
	}
	return errors.Wrapf(imaging.Save(img, path), "failed to save image to %q", path)
}

func summaryRow(name string, t tensors.Tensor) []string {
	return []string{
		name,
		t.DType().String(),
		strconv.Itoa(t.Rank()),
		t.Shape().String(),
		humanize.Comma(int64(t.Size())),
		humanize.Bytes(uint64(t.Memory())),
	}
}

// load reads the IDX file in path, optionally displaying a progress bar.
func load(path string, progress bool) (tensors.Tensor, error) {
	decode := idx.ReadAny
	if isNpy(path) {
		decode = numpy.FromNpyReader
	}
	if !progress {
		if isNpy(path) {
			return numpy.FromNpyFile(path)
		}
		return idx.ReadAnyFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %q", path)
	}
	defer func() { _ = f.Close() }()
	info := must.M1(f.Stat())
	bar := progressbar.NewOptions64(info.Size(),
		progressbar.OptionSetDescription("Reading "+path),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(os.Stderr) }),
	)
	t, err := decode(io.TeeReader(f, bar))
	if err != nil {
		return nil, errors.WithMessagef(err, "couldn't create array from file %q", path)
	}
	must.M(bar.Finish())
	return t, nil
}

// process applies -derank, -slice and -op to the first tensor.
func process(first, other tensors.Tensor, opts options) (tensors.Tensor, error) {
	switch a := first.(type) {
	case *tensors.Array[bool]:
		return reduceAndCombine(a, other, opts)
	case *tensors.Array[uint8]:
		return reduceAndCombine(a, other, opts)
	case *tensors.Array[int8]:
		return reduceAndCombine(a, other, opts)
	case *tensors.Array[int16]:
		return reduceAndCombine(a, other, opts)
	case *tensors.Array[int32]:
		return reduceAndCombine(a, other, opts)
	case *tensors.Array[float32]:
		return reduceAndCombine(a, other, opts)
	case *tensors.Array[float64]:
		return reduceAndCombine(a, other, opts)
	default:
		return nil, errors.Errorf("unsupported tensor type %T", first)
	}
}

func reduceAndCombine[T dtypes.Supported](a *tensors.Array[T], other tensors.Tensor, opts options) (tensors.Tensor, error) {
	view := a.View()
	reduced := false
	var err error
	if opts.derank >= 0 {
		view, err = view.Derank(opts.derank)
		if err != nil {
			return nil, errors.WithMessagef(err, "-derank=%d", opts.derank)
		}
		reduced = true
	}
	if opts.slice != "" {
		start, stop, err := parseSlice(opts.slice)
		if err != nil {
			return nil, err
		}
		view, err = view.Slice(start, stop)
		if err != nil {
			return nil, errors.WithMessagef(err, "-slice=%s", opts.slice)
		}
		reduced = true
	}
	if opts.op != "" {
		b, ok := other.(*tensors.Array[T])
		if !ok {
			return nil, errors.Errorf("-op=%s requires arrays of the same dtype, got %s and %s",
				opts.op, a.DType(), other.DType())
		}
		return applyOp(opts.op, view, b.View())
	}
	if reduced {
		return view.Array(), nil
	}
	return a, nil
}

// parseSlice parses a "start:stop" range.
func parseSlice(s string) (start, stop int, err error) {
	startStr, stopStr, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, errors.Errorf("invalid slice %q, expected start:stop", s)
	}
	if start, err = strconv.Atoi(startStr); err != nil {
		return 0, 0, errors.Wrapf(err, "invalid start in slice %q", s)
	}
	if stop, err = strconv.Atoi(stopStr); err != nil {
		return 0, 0, errors.Wrapf(err, "invalid stop in slice %q", s)
	}
	return start, stop, nil
}
