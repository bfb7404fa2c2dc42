// Filters perform color manipulation and per-pixel operations
package filters

import (
	"errors"
	"io"
	"math"

	"github.com/anas-shakeel/bmptools/internal/bmp"
)

// PixelFunc maps one source pixel to one output pixel.
type PixelFunc func(p bmp.Pixel) bmp.Pixel

// Streams the pixel array from src to dst, replacing every pixel with fn(pixel).
// Padding bytes are copied through unchanged, so the output is exactly as long
// as the input pixel array.
func Apply(g bmp.Geometry, src io.Reader, dst io.Writer, fn PixelFunc) error {
	return g.Rows(src, dst, func(_ int, row bmp.Row) error {
		for x := range g.Width {
			row.SetPixel(x, fn(row.Pixel(x)))
		}
		return nil
	})
}

// Returns the ITU-R 601-2 luma of a pixel, truncated to an integer
func Luma(p bmp.Pixel) byte {
	return byte((299*int(p.R) + 587*int(p.G) + 114*int(p.B)) / 1000)
}

// Converts a bitmap to Black-and-White (with ITU-R 601-2 Luma Transform)
func Grayscale(g bmp.Geometry, src io.Reader, dst io.Writer) error {
	return Apply(g, src, dst, func(p bmp.Pixel) bmp.Pixel {
		l := Luma(p)
		return bmp.Pixel{B: l, G: l, R: l}
	})
}

// Inverts (negates) the bitmap image
func Invert(g bmp.Geometry, src io.Reader, dst io.Writer) error {
	return Apply(g, src, dst, func(p bmp.Pixel) bmp.Pixel {
		return bmp.Pixel{B: 255 - p.B, G: 255 - p.G, R: 255 - p.R}
	})
}

// Returns a PixelFunc changing the brightness of each channel.
//
// method can be "add" (adds factor to each channel) or "multiply" (multiplies each channel by factor).
// Pixel values are clipped to [0, 255].
func BrightnessFunc(factor float64, method string) (PixelFunc, error) {
	var operation func(x float64) float64

	// Select an operation of brightness (additive or multiplicative)
	switch method {
	case "add":
		operation = func(x float64) float64 { return x + factor }
	case "multiply":
		operation = func(x float64) float64 { return x * factor }
	default:
		return nil, errors.New("invalid method: method must be add or multiply")
	}

	clip := func(v byte) byte {
		return byte(math.Min(math.Max(operation(float64(v)), 0), 255))
	}
	return func(p bmp.Pixel) bmp.Pixel {
		return bmp.Pixel{B: clip(p.B), G: clip(p.G), R: clip(p.R)}
	}, nil
}

// Returns a PixelFunc keeping a single channel and zeroing the other two.
// channel can be one of `red`, `green` and `blue`.
func ChannelFunc(channel string) (PixelFunc, error) {
	switch channel {
	case "red":
		return func(p bmp.Pixel) bmp.Pixel { return bmp.Pixel{R: p.R} }, nil
	case "green":
		return func(p bmp.Pixel) bmp.Pixel { return bmp.Pixel{G: p.G} }, nil
	case "blue":
		return func(p bmp.Pixel) bmp.Pixel { return bmp.Pixel{B: p.B} }, nil
	default:
		return nil, errors.New("invalid color channel: only red, green, and blue are supported")
	}
}
