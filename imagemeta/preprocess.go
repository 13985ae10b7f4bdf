package imagemeta

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	defaultMaxDimension = 1920
	defaultQuality      = 80
	defaultMaxPixels    = 100_000_000
)

// ErrTooManyPixels is returned by Preprocess for images whose header
// declares more pixels than Options.MaxPixels.
var ErrTooManyPixels = errors.New("imagemeta: image dimensions too large")

// Options controls Preprocess.
type Options struct {
	MaxWidth   int    // 0 means 1920
	MaxHeight  int    // 0 means 1920
	Quality    int    // JPEG quality 1-100, 0 means 80
	OutputType string // "image/jpeg" (default) or "image/png"
	MaxPixels  int    // source width*height ceiling, 0 means 100 MP
}

func (o *Options) setDefaults() {
	if o.MaxWidth <= 0 {
		o.MaxWidth = defaultMaxDimension
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = defaultMaxDimension
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = defaultQuality
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = defaultMaxPixels
	}
	if o.OutputType != "image/png" {
		o.OutputType = "image/jpeg"
	}
}

// Result is a re-encoded image. Data never carries the source metadata.
type Result struct {
	Data        []byte
	ContentType string
	Extension   string
	Width       int
	Height      int
}

// Preprocess decodes data, applies its EXIF orientation, shrinks it into
// the bounding box and re-encodes it.
func Preprocess(data []byte, opts Options) (Result, error) {
	opts.setDefaults()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("decode image header: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(opts.MaxPixels) {
		return Result{}, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("decode image: %w", err)
	}
	if format == "jpeg" || format == "tiff" {
		img = applyOrientation(img, orientation(data))
	}

	bounds := img.Bounds()
	w, h := FitWithin(bounds.Dx(), bounds.Dy(), opts.MaxWidth, opts.MaxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if opts.OutputType == "image/jpeg" {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	}
	if w == bounds.Dx() && h == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	res := Result{ContentType: opts.OutputType, Width: w, Height: h}
	if opts.OutputType == "image/png" {
		if err := png.Encode(&buf, dst); err != nil {
			return Result{}, fmt.Errorf("encode png: %w", err)
		}
		res.Extension = ".png"
	} else {
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: opts.Quality}); err != nil {
			return Result{}, fmt.Errorf("encode jpeg: %w", err)
		}
		res.Extension = ".jpg"
	}
	res.Data = buf.Bytes()
	return res, nil
}

// FitWithin scales w x h down to fit inside maxW x maxH, keeping the aspect
// ratio. Images already inside the box are returned unchanged.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// applyOrientation handles the rotations cameras actually write (3, 6, 8).
// Mirrored orientations are left as-is.
func applyOrientation(img image.Image, o int) image.Image {
	if o != 3 && o != 6 && o != 8 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	var dst *image.RGBA
	if o == 3 {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			switch o {
			case 3:
				dst.Set(w-1-x, h-1-y, c)
			case 6:
				dst.Set(h-1-y, x, c)
			case 8:
				dst.Set(y, w-1-x, c)
			}
		}
	}
	return dst
}
