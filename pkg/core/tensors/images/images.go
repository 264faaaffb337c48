// Package images converts images to arrays and back.
//
// Arrays hold images row-major, with dims innermost first:
//
//   - Color images: [channels, width, height], or [channels, width, height, batch] for batches,
//     with 3 (RGB) or 4 (RGBA) channels.
//   - Gray images (see ToTensorConfig.Gray and ToImageConfig.Gray): [width, height], or
//     [width, height, batch], as in the MNIST IDX files.
package images

import (
	"image"
	"image/color"
	"math"

	"github.com/QnnOkabayashi/arrs/pkg/core/dtypes"
	"github.com/QnnOkabayashi/arrs/pkg/core/shapes"
	"github.com/QnnOkabayashi/arrs/pkg/core/tensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ToTensorConfig holds the configuration returned by the ToTensor function. Once
// configured, use Single or Batch to actually convert.
type ToTensorConfig struct {
	channels int
	maxValue float64
	dtype    dtypes.DType
}

// ToTensor converts an image (or batch) to an array of the given dtype.
//
// It returns a configuration object that can be further configured. Once set, use Single or Batch
// methods to convert an image or a batch of images.
func ToTensor(dtype dtypes.DType) *ToTensorConfig {
	return &ToTensorConfig{
		channels: 3,
		maxValue: defaultMaxValue(dtype),
		dtype:    dtype,
	}
}

// defaultMaxValue is the value of a saturated channel: 1.0 for floats, 127 for signed bytes
// and 255 for the other integers.
func defaultMaxValue(dtype dtypes.DType) float64 {
	switch {
	case dtype.IsInt() && !dtype.IsUnsigned() && dtype.Size() == 1:
		return math.MaxInt8
	case dtype.IsInt():
		return math.MaxUint8
	default:
		return 1.0
	}
}

// WithAlpha includes the alpha channel in the conversion, so the converted array will have
// 4 channels. The default is dropping the alpha channel.
func (tt *ToTensorConfig) WithAlpha() *ToTensorConfig {
	tt.channels = 4
	return tt
}

// Gray converts the images to luminance, without a channels axis.
func (tt *ToTensorConfig) Gray() *ToTensorConfig {
	tt.channels = 1
	return tt
}

// MaxValue sets the value of a saturated channel. It defaults to 1.0 for float dtypes, 127 for
// Int8 and 255 for the other integer dtypes.
func (tt *ToTensorConfig) MaxValue(v float64) *ToTensorConfig {
	tt.maxValue = v
	return tt
}

// Single converts img to an array shaped [channels, width, height] (or [width, height] if Gray).
func (tt *ToTensorConfig) Single(img image.Image) (tensors.Tensor, error) {
	return tt.convert([]image.Image{img}, false)
}

// Batch converts images of the same size to an array shaped [channels, width, height, batch]
// (or [width, height, batch] if Gray).
func (tt *ToTensorConfig) Batch(images []image.Image) (tensors.Tensor, error) {
	if len(images) == 0 {
		return nil, errors.New("images.ToTensor: empty batch")
	}
	return tt.convert(images, true)
}

func (tt *ToTensorConfig) convert(images []image.Image, batch bool) (tensors.Tensor, error) {
	size := images[0].Bounds().Size()
	var dims []int
	if tt.channels > 1 {
		dims = append(dims, tt.channels)
	}
	dims = append(dims, size.X, size.Y)
	if batch {
		dims = append(dims, len(images))
	}
	shape, err := shapes.New(dims...)
	if err != nil {
		return nil, errors.WithMessagef(err, "images.ToTensor of images sized %s", size)
	}
	for ii, img := range images {
		if !img.Bounds().Size().Eq(size) {
			return nil, errors.Errorf("image[%d] has size %s, but image[0] has size %s: they must all be the same",
				ii, img.Bounds().Size(), size)
		}
	}
	switch tt.dtype {
	case dtypes.Uint8:
		return toArray[uint8](tt, images, shape), nil
	case dtypes.Int8:
		return toArray[int8](tt, images, shape), nil
	case dtypes.Int16:
		return toArray[int16](tt, images, shape), nil
	case dtypes.Int32:
		return toArray[int32](tt, images, shape), nil
	case dtypes.Float32:
		return toArray[float32](tt, images, shape), nil
	case dtypes.Float64:
		return toArray[float64](tt, images, shape), nil
	default:
		return nil, errors.Errorf("images.ToTensor does not support dtype %s", tt.dtype)
	}
}

func toArray[T dtypes.Number](tt *ToTensorConfig, images []image.Image, shape shapes.Base) *tensors.Array[T] {
	a := tensors.FromShape[T](shape)
	flat := a.Flat()
	isFloat := a.DType().IsFloat()
	// color.RGBA() returns 16 bits values packaged in uint32.
	scale := tt.maxValue / float64(0xFFFF)
	convert := func(val uint32) T {
		v := float64(val) * scale
		if !isFloat {
			v = math.Round(v)
		}
		return T(v)
	}
	pos := 0
	for _, img := range images {
		bounds := img.Bounds()
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				pixel := img.At(x, y)
				if tt.channels == 1 {
					flat[pos] = convert(uint32(color.Gray16Model.Convert(pixel).(color.Gray16).Y))
					pos++
					continue
				}
				r, g, b, alpha := pixel.RGBA()
				channels := [4]uint32{r, g, b, alpha}
				for _, channel := range channels[:tt.channels] {
					flat[pos] = convert(channel)
					pos++
				}
			}
		}
	}
	return a
}

// ToImageConfig holds the configuration returned by the ToImage function. Once
// configured, use Single or Batch to actually convert an array to image(s).
type ToImageConfig struct {
	maxValue float64
	gray     bool
}

// ToImage returns a configuration that can be used to convert arrays to images.
// Color arrays are converted to *image.NRGBA, gray ones to *image.Gray.
func ToImage() *ToImageConfig {
	return &ToImageConfig{}
}

// MaxValue sets the value of a saturated channel. It defaults to 1.0 for float dtypes, 127 for
// Int8 and 255 for the other integer dtypes. Values are clamped to [0, MaxValue].
func (ti *ToImageConfig) MaxValue(v float64) *ToImageConfig {
	ti.maxValue = v
	return ti
}

// Gray sets that the arrays have no channels axis.
func (ti *ToImageConfig) Gray() *ToImageConfig {
	ti.gray = true
	return ti
}

// Single converts an array shaped [channels, width, height] (or [width, height] if Gray) to an image.
func (ti *ToImageConfig) Single(t tensors.Tensor) (image.Image, error) {
	images, err := ti.convert(t, false)
	if err != nil {
		return nil, err
	}
	return images[0], nil
}

// Batch converts an array shaped [channels, width, height, batch] (or [width, height, batch] if
// Gray) to images.
func (ti *ToImageConfig) Batch(t tensors.Tensor) ([]image.Image, error) {
	return ti.convert(t, true)
}

// layout of the images stored in an array.
type layout struct {
	numImages, width, height, channels int
	maxValue                           float64
}

func (ti *ToImageConfig) convert(t tensors.Tensor, batch bool) ([]image.Image, error) {
	dims := t.Shape().Dims()
	l := layout{numImages: 1, channels: 1, maxValue: ti.maxValue}
	if !ti.gray {
		l.channels, dims = dims[0], dims[1:]
		if l.channels != 3 && l.channels != 4 {
			return nil, errors.Errorf("images.ToImage: invalid array shape %s with %d channels, "+
				"only images with 3 or 4 channels are supported", t.Shape(), l.channels)
		}
	}
	wantRank := 2
	if batch {
		wantRank = 3
	}
	if len(dims) != wantRank {
		return nil, errors.Errorf("images.ToImage: invalid array shape %s for gray=%v and batch=%v",
			t.Shape(), ti.gray, batch)
	}
	l.width, l.height = dims[0], dims[1]
	if batch {
		l.numImages = dims[2]
	}
	if l.maxValue == 0 {
		l.maxValue = defaultMaxValue(t.DType())
	}
	switch a := t.(type) {
	case *tensors.Array[uint8]:
		return toImages(a.Flat(), l), nil
	case *tensors.Array[int8]:
		return toImages(a.Flat(), l), nil
	case *tensors.Array[int16]:
		return toImages(a.Flat(), l), nil
	case *tensors.Array[int32]:
		return toImages(a.Flat(), l), nil
	case *tensors.Array[float32]:
		return toImages(a.Flat(), l), nil
	case *tensors.Array[float64]:
		return toImages(a.Flat(), l), nil
	default:
		return nil, errors.Errorf("images.ToImage cannot convert array of dtype %s to an image", t.DType())
	}
}

func toImages[T dtypes.Number](data []T, l layout) []image.Image {
	klog.V(2).Infof("images.ToImage: %d image(s) of %dx%d with %d channel(s)", l.numImages, l.width, l.height, l.channels)
	images := make([]image.Image, 0, l.numImages)
	toPixel := func(v T) uint8 {
		scaled := math.Round(255 * float64(v) / l.maxValue)
		return uint8(min(max(scaled, 0), 255))
	}
	pos := 0
	for range l.numImages {
		rect := image.Rect(0, 0, l.width, l.height)
		if l.channels == 1 {
			img := image.NewGray(rect)
			for h := range l.height {
				for w := range l.width {
					img.Pix[h*img.Stride+w] = toPixel(data[pos])
					pos++
				}
			}
			images = append(images, img)
			continue
		}
		img := image.NewNRGBA(rect)
		for h := range l.height {
			for w := range l.width {
				for d := range l.channels {
					img.Pix[h*img.Stride+w*4+d] = toPixel(data[pos])
					pos++
				}
				if l.channels < 4 {
					img.Pix[h*img.Stride+w*4+3] = 255 // Alpha channel.
				}
			}
		}
		images = append(images, img)
	}
	return images
}
