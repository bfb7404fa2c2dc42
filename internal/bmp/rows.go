package bmp

import (
	"errors"
	"fmt"
	"io"
)

type Pixel struct {
	B, G, R byte
}

// Returns the Pixels in bytes as BGR (Blue, Green, Red)
func (p Pixel) BytesBGR() []byte {
	return []byte{p.B, p.G, p.R}
}

// Row is one scanline as stored on disk.
// Pixels and Padding share the same backing buffer.
type Row struct {
	Pixels  []byte // Width*3 bytes, BGR triplets
	Padding []byte // 0 to 3 trailing bytes
	buf     []byte
}

// Returns the pixel at column x
func (r Row) Pixel(x int) Pixel {
	i := x * 3
	return Pixel{B: r.Pixels[i], G: r.Pixels[i+1], R: r.Pixels[i+2]}
}

// Replaces the pixel at column x
func (r Row) SetPixel(x int, p Pixel) {
	i := x * 3
	r.Pixels[i], r.Pixels[i+1], r.Pixels[i+2] = p.B, p.G, p.R
}

// Returns the whole scanline, padding included
func (r Row) Bytes() []byte {
	return r.buf
}

// RowFunc is called once per row with the row's index in on-disk order.
type RowFunc func(y int, row Row) error

// Rows reads Height scanlines from src and hands each one to visit.
// When dst is not nil, every row is written to dst after visit returns,
// so changes made by visit end up in the output. Padding is never touched.
//
// Rows are visited in the order they are stored (bottom-up for most files).
func (g Geometry) Rows(src io.Reader, dst io.Writer, visit RowFunc) error {
	buf := make([]byte, g.Stride)
	row := Row{
		Pixels:  buf[:g.Width*3],
		Padding: buf[g.Width*3:],
		buf:     buf,
	}

	for y := range g.Height {
		n, err := io.ReadFull(src, buf)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("%w: row %d has %d of %d bytes", ErrTruncatedSource, y, n, g.Stride)
			}
			return err
		}

		if err := visit(y, row); err != nil {
			return err
		}

		if dst != nil {
			if _, err := dst.Write(buf); err != nil {
				return err
			}
		}
	}

	return nil
}
