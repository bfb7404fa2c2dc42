// Adjusts image dimensions, orientation, or structure.
package adjustments

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/anas-shakeel/bmptools/internal/bmp"
)

var ErrOutOfBounds = errors.New("invalid bounds")

// Rect is a region of the image. (0,0) is the top-left pixel.
type Rect struct {
	X, Y, Width, Height int
}

// Check reports ErrOutOfBounds unless r lies inside the image
func (r Rect) Check(g bmp.Geometry) error {
	switch {
	case r.X < 0 || r.Y < 0 || r.Width < 1 || r.Height < 1:
		return fmt.Errorf("%w: region %dx%d at (%d,%d)", ErrOutOfBounds, r.Width, r.Height, r.X, r.Y)
	case r.X+r.Width > g.Width:
		return fmt.Errorf("%w: width out of bounds", ErrOutOfBounds)
	case r.Y+r.Height > g.Height:
		return fmt.Errorf("%w: height out of bounds", ErrOutOfBounds)
	}
	return nil
}

// Crops a region of the image in src and writes it to dst as a new bottom-up
// bitmap, headers included.
func Crop(g bmp.Geometry, src io.Reader, dst io.Writer, r Rect) error {
	if err := r.Check(g); err != nil {
		return err
	}

	h, err := bmp.NewHeader(r.Width, r.Height)
	if err != nil {
		return err
	}
	out, err := h.Geometry()
	if err != nil {
		return err
	}

	// First on-disk row of the region
	first := r.Y
	if !g.TopDown {
		first = g.Height - r.Y - r.Height
	}

	rows := make([][]byte, 0, r.Height)
	err = g.Rows(src, nil, func(y int, row bmp.Row) error {
		if y < first || y >= first+r.Height {
			return nil
		}
		line := make([]byte, out.Stride)
		copy(line, row.Pixels[r.X*3:(r.X+r.Width)*3])
		rows = append(rows, line)
		return nil
	})
	if err != nil {
		return err
	}

	// Output is always bottom-up
	if g.TopDown {
		lo.Reverse(rows)
	}

	bw := bufio.NewWriter(dst)
	if _, err := h.WriteTo(bw); err != nil {
		return err
	}
	for _, line := range rows {
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}
