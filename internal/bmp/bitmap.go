// bmp package reads the headers and walks the pixel rows of 24-bit bitmaps
package bmp

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"text/tabwriter"
)

// Header holds the parsed headers together with every byte that precedes the
// pixel array, so the headers can be written back unchanged.
type Header struct {
	BFHeader BitmapFileHeader
	BIHeader BitmapInfoHeader
	Raw      []byte // bytes [0, OffBits) of the file
}

// Reads the bitmap headers from r. On success r is positioned at the first
// byte of pixel data.
//
// Files with an info header older than BITMAPINFOHEADER (such as the 12-byte
// BITMAPCOREHEADER) return ErrUnsupportedFormat together with a Header
// holding the file header and biSize, so callers can still print them.
func ReadHeader(r io.Reader) (*Header, error) {
	raw := make([]byte, FileHeaderSize+InfoHeaderSize)
	if _, err := io.ReadFull(r, raw[:FileHeaderSize]); err != nil {
		return nil, fmt.Errorf("%w: reading file header: %v", ErrNotBitmap, err)
	}

	var h Header
	// Reading from a byte slice of the right size cannot fail
	_ = binary.Read(bytes.NewReader(raw[:FileHeaderSize]), binary.LittleEndian, &h.BFHeader)
	if h.BFHeader.TypeWord() != signature {
		return nil, ErrNotBitmap
	}

	// Every info header starts with its own size
	sizeEnd := FileHeaderSize + 4
	if _, err := io.ReadFull(r, raw[FileHeaderSize:sizeEnd]); err != nil {
		return nil, fmt.Errorf("%w: reading info header: %v", ErrNotBitmap, err)
	}
	h.BIHeader.Size = binary.LittleEndian.Uint32(raw[FileHeaderSize:sizeEnd])
	if h.BIHeader.Size < InfoHeaderSize {
		h.Raw = raw[:sizeEnd]
		return &h, fmt.Errorf("%w: %d-byte info header", ErrUnsupportedFormat, h.BIHeader.Size)
	}

	if _, err := io.ReadFull(r, raw[sizeEnd:]); err != nil {
		return nil, fmt.Errorf("%w: reading info header: %v", ErrNotBitmap, err)
	}
	_ = binary.Read(bytes.NewReader(raw[FileHeaderSize:]), binary.LittleEndian, &h.BIHeader)

	off := int64(h.BFHeader.OffBits)
	if off < int64(len(raw)) {
		return nil, fmt.Errorf("%w: pixel offset %d overlaps headers", ErrNotBitmap, off)
	}

	// Keep whatever sits between the info header and the pixels (larger info
	// headers, color masks, gaps) so writers can reproduce it.
	var rest bytes.Buffer
	if _, err := io.CopyN(&rest, r, off-int64(len(raw))); err != nil {
		return nil, fmt.Errorf("%w: seeking to pixel data: %v", ErrTruncatedSource, err)
	}
	h.Raw = append(raw, rest.Bytes()...)

	return &h, nil
}

// Creates the headers of a new bitmap image (24 bit uncompressed, bottom-up)
func NewHeader(width, height int) (*Header, error) {
	g, err := NewGeometry(width, height, BitsPerPixel)
	if err != nil {
		return nil, err
	}
	if g.TopDown {
		return nil, fmt.Errorf("%w: height must be greater than 0", ErrInvalidDimensions)
	}

	sizeImage := uint32(g.PixelDataSize())
	h := Header{
		BFHeader: BitmapFileHeader{
			Type:    [2]byte{0x42, 0x4d},
			Size:    FileHeaderSize + InfoHeaderSize + sizeImage,
			OffBits: FileHeaderSize + InfoHeaderSize,
		},
		BIHeader: BitmapInfoHeader{
			Size:      InfoHeaderSize,
			Width:     int32(width),
			Height:    int32(height),
			Planes:    1,
			BitCount:  BitsPerPixel,
			SizeImage: sizeImage,
		},
	}

	var buf bytes.Buffer
	buf.Grow(FileHeaderSize + InfoHeaderSize)
	_ = binary.Write(&buf, binary.LittleEndian, &h.BFHeader)
	_ = binary.Write(&buf, binary.LittleEndian, &h.BIHeader)
	h.Raw = buf.Bytes()

	return &h, nil
}

// Returns the row layout of the pixel array described by the headers
func (h *Header) Geometry() (Geometry, error) {
	// Support only 24bit uncompressed Bitmaps (common)
	if h.BIHeader.BitCount != BitsPerPixel || h.BIHeader.Compression != 0 {
		return Geometry{}, fmt.Errorf("%w (bit count %d, compression %d)",
			ErrUnsupportedFormat, h.BIHeader.BitCount, h.BIHeader.Compression)
	}
	return NewGeometry(int(h.BIHeader.Width), int(h.BIHeader.Height), int(h.BIHeader.BitCount))
}

// Writes the original header bytes to w
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(h.Raw)
	return int64(n), err
}

// FillFunc returns the pixel at column x of on-disk row y.
type FillFunc func(x, y int) Pixel

// Writes a complete bitmap image of the given size to w
func Create(w io.Writer, width, height int, fill FillFunc) error {
	h, err := NewHeader(width, height)
	if err != nil {
		return err
	}
	g, err := h.Geometry()
	if err != nil {
		return err
	}

	// Create a buffer (to reduce syscalls)
	bw := bufio.NewWriter(w)
	if _, err := h.WriteTo(bw); err != nil {
		return err
	}

	row := make([]byte, g.Stride)
	for y := range g.Height {
		for x := range g.Width {
			p := fill(x, y)
			copy(row[x*3:], p.BytesBGR())
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Print the headers in human-readable format
func (h *Header) Fprint(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 1, '\t', 0)
	bf, bi := &h.BFHeader, &h.BIHeader

	fmt.Fprintf(tw, "BITMAPFILEHEADER:\n")
	fmt.Fprintf(tw, "\tbfType:\t0x%X (%s)\n", bf.TypeWord(), bf.Type[:])
	fmt.Fprintf(tw, "\tbfSize:\t%d\n", bf.Size)
	fmt.Fprintf(tw, "\tbfReserved1:\t0x%X\n", bf.Reserved1)
	fmt.Fprintf(tw, "\tbfReserved2:\t0x%X\n", bf.Reserved2)
	fmt.Fprintf(tw, "\tbfOffBits:\t%d\n", bf.OffBits)

	fmt.Fprintf(tw, "BITMAPINFOHEADER:\n")
	fmt.Fprintf(tw, "\tbiSize:\t%d\n", bi.Size)
	if bi.Size < InfoHeaderSize {
		fmt.Fprintf(tw, "\t(older header format, fields not decoded)\n")
		return tw.Flush()
	}
	fmt.Fprintf(tw, "\tbiWidth:\t%d\n", bi.Width)
	fmt.Fprintf(tw, "\tbiHeight:\t%d\n", bi.Height)
	fmt.Fprintf(tw, "\tbiPlanes:\t%d\n", bi.Planes)
	fmt.Fprintf(tw, "\tbiBitCount:\t%d\n", bi.BitCount)
	fmt.Fprintf(tw, "\tbiCompression:\t%d\n", bi.Compression)
	fmt.Fprintf(tw, "\tbiSizeImage:\t%d\n", bi.SizeImage)
	fmt.Fprintf(tw, "\tbiXPelsPerMeter:\t%d\n", bi.XPixelsPerM)
	fmt.Fprintf(tw, "\tbiYPelsPerMeter:\t%d\n", bi.YPixelsPerM)
	fmt.Fprintf(tw, "\tbiClrUsed:\t%d\n", bi.ColorsUsed)
	fmt.Fprintf(tw, "\tbiClrImportant:\t%d\n", bi.ColorsImportant)

	// Derived values only make sense for images the codec understands
	if g, err := h.Geometry(); err == nil {
		fmt.Fprintf(tw, "PIXELDATA:\n")
		fmt.Fprintf(tw, "\tPixelCount:\t%d pixels\n", g.PixelCount())
		fmt.Fprintf(tw, "\tStride:\t%d bytes\n", g.Stride)
		fmt.Fprintf(tw, "\tPadding:\t%d bytes\n", g.Padding)
		fmt.Fprintf(tw, "\tTopDown:\t%t\n", g.TopDown)
	}

	return tw.Flush()
}
