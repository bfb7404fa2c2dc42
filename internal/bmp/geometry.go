package bmp

import (
	"errors"
	"fmt"
	"math"
)

// BitsPerPixel is the only pixel depth the codec handles.
const BitsPerPixel = 24

// MaxPixelDataSize is the largest pixel array a BMP can describe, since
// bfSize and biSizeImage are 32-bit.
const MaxPixelDataSize = math.MaxUint32

var (
	ErrNotBitmap         = errors.New("invalid file: provided file is not a bitmap")
	ErrUnsupportedFormat = errors.New("unsupported BMP format: only 24-bit uncompressed is supported")
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrTruncatedSource   = errors.New("truncated pixel data")
)

// Geometry describes the layout of a 24-bit pixel array.
type Geometry struct {
	Width        int  // Pixels per row
	Height       int  // Number of rows (always positive)
	BitsPerPixel int  // Always 24
	Stride       int  // Total bytes in a row (incl. padding)
	Padding      int  // Padding bytes at the end of each row
	TopDown      bool // Rows are stored top row first
}

// Computes the row layout of a bitmap. A negative height marks a top-down
// bitmap; Geometry.Height holds its absolute value.
func NewGeometry(width, height, bitsPerPixel int) (Geometry, error) {
	if bitsPerPixel != BitsPerPixel {
		return Geometry{}, fmt.Errorf("%w (got %d bits per pixel)", ErrUnsupportedFormat, bitsPerPixel)
	}
	if width < 1 {
		return Geometry{}, fmt.Errorf("%w: width must be greater than 0", ErrInvalidDimensions)
	}
	if height == 0 {
		return Geometry{}, fmt.Errorf("%w: height must not be 0", ErrInvalidDimensions)
	}

	topDown := false
	if height < 0 {
		topDown = true
		height = -height
	}

	stride := RowStride(width, bitsPerPixel)
	if int64(stride)*int64(height) > MaxPixelDataSize {
		return Geometry{}, fmt.Errorf("%w: %dx%d pixel array exceeds %d bytes",
			ErrInvalidDimensions, width, height, int64(MaxPixelDataSize))
	}
	return Geometry{
		Width:        width,
		Height:       height,
		BitsPerPixel: bitsPerPixel,
		Stride:       stride,
		Padding:      stride - width*3,
		TopDown:      topDown,
	}, nil
}

// Returns the bytes per scanline, rounded up to a 4-byte boundary
func RowStride(width, bitsPerPixel int) int {
	return int((int64(width)*int64(bitsPerPixel) + 31) / 32 * 4)
}

// Returns the size of the whole pixel array (incl. padding)
func (g Geometry) PixelDataSize() int {
	return g.Stride * g.Height
}

// Returns the number of pixels in the image
func (g Geometry) PixelCount() int {
	return g.Width * g.Height
}

// CheckAvailable reports ErrTruncatedSource when a source holding n bytes
// of pixel data is too short for the whole pixel array.
func (g Geometry) CheckAvailable(n int64) error {
	if need := int64(g.PixelDataSize()); n < need {
		return fmt.Errorf("%w: %d of %d pixel bytes present", ErrTruncatedSource, max(n, 0), need)
	}
	return nil
}
