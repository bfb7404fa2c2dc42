package inspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anas-shakeel/bmptools/internal/bmp"
)

func header(t *testing.T, width, height int) *bmp.Header {
	t.Helper()
	h, err := bmp.NewHeader(width, height)
	require.NoError(t, err)
	return h
}

func TestEvaluate(t *testing.T) {
	h := header(t, 5, 3)

	tests := []struct {
		expr string
		want interface{}
	}{
		{"Width * Height", 15.0},
		{"Stride", 16.0},
		{"Padding", 1.0},
		{"PixelDataSize == Stride * Height", true},
		{"Capacity", 6.0},
		{"BitCount == 24 && Compression == 0", true},
		{"stride(Width, BitCount)", 16.0},
		{"stride(4, 24)", 12.0},
		{"capacity(4, 2)", 3.0},
		{"Supported && !TopDown", true},
	}

	for _, tt := range tests {
		got, err := Evaluate(h, tt.expr)
		require.NoError(t, err, tt.expr)
		assert.Equal(t, tt.want, got, tt.expr)
	}
}

func TestEvaluateUnsupportedImage(t *testing.T) {
	h := header(t, 5, 3)
	h.BIHeader.BitCount = 32

	got, err := Evaluate(h, "Supported")
	require.NoError(t, err)
	assert.Equal(t, false, got)

	params := Params(h)
	assert.NotContains(t, params, "Stride")
}

func TestEvaluateErrors(t *testing.T) {
	h := header(t, 2, 2)

	_, err := Evaluate(h, "Width +")
	assert.Error(t, err)

	_, err = Evaluate(h, "stride(1)")
	assert.ErrorContains(t, err, "expects 2 arguments")

	_, err = Evaluate(h, "capacity(0, 2)")
	assert.ErrorContains(t, err, "invalid dimensions")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12", Format(12.0))
	assert.Equal(t, "2.5", Format(2.5))
	assert.Equal(t, "true", Format(true))
}
