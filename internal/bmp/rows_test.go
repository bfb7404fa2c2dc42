package bmp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pixelArray builds a raw pixel array whose padding bytes are 0xEE so tests
// can tell them apart from pixel data.
func pixelArray(g Geometry) []byte {
	data := make([]byte, 0, g.PixelDataSize())
	for y := range g.Height {
		for x := range g.Width {
			data = append(data, byte(x), byte(y), byte(x+y))
		}
		for range g.Padding {
			data = append(data, 0xEE)
		}
	}
	return data
}

func TestRowsVisitsEveryRow(t *testing.T) {
	g, err := NewGeometry(3, 4, 24)
	require.NoError(t, err)

	var visited []int
	err = g.Rows(bytes.NewReader(pixelArray(g)), nil, func(y int, row Row) error {
		visited = append(visited, y)
		assert.Len(t, row.Pixels, 9)
		assert.Equal(t, []byte{0xEE, 0xEE, 0xEE}, row.Padding)
		assert.Len(t, row.Bytes(), g.Stride)
		for x := range g.Width {
			assert.Equal(t, Pixel{B: byte(x), G: byte(y), R: byte(x + y)}, row.Pixel(x))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, visited)
}

func TestRowsWritesModifiedRows(t *testing.T) {
	g, err := NewGeometry(2, 3, 24)
	require.NoError(t, err)
	src := pixelArray(g)

	var out bytes.Buffer
	err = g.Rows(bytes.NewReader(src), &out, func(y int, row Row) error {
		row.SetPixel(1, Pixel{B: 1, G: 2, R: 3})
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, len(src), out.Len())

	got := out.Bytes()
	for y := range g.Height {
		line := got[y*g.Stride : (y+1)*g.Stride]
		assert.Equal(t, src[y*g.Stride:y*g.Stride+3], line[:3], "untouched pixel in row %d", y)
		assert.Equal(t, []byte{1, 2, 3}, line[3:6], "modified pixel in row %d", y)
		assert.Equal(t, []byte{0xEE, 0xEE}, line[6:], "padding in row %d", y)
	}
}

func TestRowsTruncatedSource(t *testing.T) {
	g, err := NewGeometry(4, 3, 24)
	require.NoError(t, err)
	src := pixelArray(g)

	rows := 0
	err = g.Rows(bytes.NewReader(src[:g.Stride*2+5]), nil, func(int, Row) error {
		rows++
		return nil
	})
	assert.ErrorIs(t, err, ErrTruncatedSource)
	assert.Equal(t, 2, rows)

	err = g.Rows(bytes.NewReader(nil), nil, func(int, Row) error { return nil })
	assert.ErrorIs(t, err, ErrTruncatedSource)
}

func TestRowsStopsOnVisitorError(t *testing.T) {
	g, err := NewGeometry(1, 5, 24)
	require.NoError(t, err)

	stop := errors.New("stop")
	var out bytes.Buffer
	err = g.Rows(bytes.NewReader(pixelArray(g)), &out, func(y int, _ Row) error {
		if y == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2*g.Stride, out.Len())
}
