package bmp

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xbmp "golang.org/x/image/bmp"
)

func gradient(x, y int) Pixel {
	return Pixel{B: byte(10 * x), G: byte(20 * y), R: byte(x ^ y)}
}

func TestCreateReadHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Create(&buf, 5, 3, gradient))

	r := bytes.NewReader(buf.Bytes())
	h, err := ReadHeader(r)
	require.NoError(t, err)

	want := BitmapInfoHeader{
		Size:      InfoHeaderSize,
		Width:     5,
		Height:    3,
		Planes:    1,
		BitCount:  24,
		SizeImage: 48,
	}
	if diff := cmp.Diff(want, h.BIHeader); diff != "" {
		t.Errorf("info header mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint32(54), h.BFHeader.OffBits)
	assert.Equal(t, uint32(54+48), h.BFHeader.Size)
	assert.Equal(t, buf.Bytes()[:54], h.Raw)

	// The reader is left at the pixel array
	assert.Equal(t, 48, r.Len())

	g, err := h.Geometry()
	require.NoError(t, err)
	assert.Equal(t, Geometry{Width: 5, Height: 3, BitsPerPixel: 24, Stride: 16, Padding: 1}, g)
}

func TestCreateDecodesWithStandardDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Create(&buf, 6, 4, gradient))

	img, err := xbmp.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, 6, img.Bounds().Dx())
	require.Equal(t, 4, img.Bounds().Dy())

	for y := range 4 {
		for x := range 6 {
			// Row 0 on disk is the bottom of the picture
			got := color.RGBAModel.Convert(img.At(x, 3-y)).(color.RGBA)
			p := gradient(x, y)
			assert.Equal(t, color.RGBA{R: p.R, G: p.G, B: p.B, A: 0xff}, got, "pixel (%d,%d)", x, y)
		}
	}
}

func TestReadHeaderKeepsExtraHeaderBytes(t *testing.T) {
	h, err := NewHeader(2, 2)
	require.NoError(t, err)

	// Pretend an 8-byte gap sits between the info header and the pixels
	h.BFHeader.OffBits += 8
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &h.BFHeader))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &h.BIHeader))
	buf.WriteString("ABCDEFGH")
	buf.Write(make([]byte, 16))

	r := bytes.NewReader(buf.Bytes())
	got, err := ReadHeader(r)
	require.NoError(t, err)
	assert.Len(t, got.Raw, 62)
	assert.Equal(t, "ABCDEFGH", string(got.Raw[54:]))
	assert.Equal(t, 16, r.Len())

	var out bytes.Buffer
	n, err := got.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(62), n)
	assert.Equal(t, buf.Bytes()[:62], out.Bytes())
}

func TestReadHeaderErrors(t *testing.T) {
	_, err := ReadHeader(strings.NewReader("PK\x03\x04 definitely not a bitmap, just some bytes"))
	assert.ErrorIs(t, err, ErrNotBitmap)

	_, err = ReadHeader(strings.NewReader("BM"))
	assert.ErrorIs(t, err, ErrNotBitmap)

	h, err := NewHeader(2, 2)
	require.NoError(t, err)
	_, err = ReadHeader(io.LimitReader(bytes.NewReader(h.Raw), 40))
	assert.ErrorIs(t, err, ErrNotBitmap)

	// Offset pointing into the headers
	h.BFHeader.OffBits = 20
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &h.BFHeader))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &h.BIHeader))
	_, err = ReadHeader(&buf)
	assert.ErrorIs(t, err, ErrNotBitmap)
}

func TestHeaderGeometryUnsupported(t *testing.T) {
	h, err := NewHeader(4, 4)
	require.NoError(t, err)

	h.BIHeader.BitCount = 32
	_, err = h.Geometry()
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	h.BIHeader.BitCount = 24
	h.BIHeader.Compression = 1
	_, err = h.Geometry()
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNewHeaderRejectsBadSizes(t *testing.T) {
	_, err := NewHeader(0, 4)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
	_, err = NewHeader(4, -4)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestFprint(t *testing.T) {
	h, err := NewHeader(3, 2)
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, h.Fprint(&out))
	s := out.String()
	assert.Contains(t, s, "0x4D42 (BM)")
	assert.Contains(t, s, "biWidth:")
	assert.Contains(t, s, "Stride:")
	assert.Contains(t, s, "12 bytes")

	// Unsupported images still get their headers printed
	h.BIHeader.BitCount = 8
	out.Reset()
	require.NoError(t, h.Fprint(&out))
	assert.Contains(t, out.String(), "biBitCount:")
	assert.NotContains(t, out.String(), "Stride:")
}

func TestReadHeaderCoreHeader(t *testing.T) {
	data := []byte{'B', 'M', 34, 0, 0, 0, 0, 0, 0, 0, 26, 0, 0, 0}
	data = append(data, 12, 0, 0, 0, 2, 0, 1, 0, 1, 0, 24, 0)
	data = append(data, make([]byte, 8)...)

	h, err := ReadHeader(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	require.NotNil(t, h)
	assert.Equal(t, uint32(26), h.BFHeader.OffBits)
	assert.Equal(t, uint32(12), h.BIHeader.Size)

	_, err = h.Geometry()
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	var out strings.Builder
	require.NoError(t, h.Fprint(&out))
	assert.Contains(t, out.String(), "bfOffBits:")
	assert.Contains(t, out.String(), "older header format")
	assert.NotContains(t, out.String(), "biWidth:")
}
