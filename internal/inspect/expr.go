// Package inspect evaluates expressions over bitmap header fields.
package inspect

import (
	"fmt"

	"github.com/knetic/govaluate"

	"github.com/anas-shakeel/bmptools/internal/bmp"
	"github.com/anas-shakeel/bmptools/internal/stego"
)

// Params returns the header and geometry fields an expression may refer to.
// Geometry fields are only present for images the codec supports, plus
// Supported (bool) telling which case applies.
func Params(h *bmp.Header) map[string]interface{} {
	bf, bi := &h.BFHeader, &h.BIHeader
	params := map[string]interface{}{
		"FileSize":    float64(bf.Size),
		"OffBits":     float64(bf.OffBits),
		"HeaderSize":  float64(bi.Size),
		"Width":       float64(bi.Width),
		"Height":      float64(bi.Height),
		"Planes":      float64(bi.Planes),
		"BitCount":    float64(bi.BitCount),
		"Compression": float64(bi.Compression),
		"SizeImage":   float64(bi.SizeImage),
		"ColorsUsed":  float64(bi.ColorsUsed),
		"Supported":   false,
	}

	if g, err := h.Geometry(); err == nil {
		params["Supported"] = true
		params["Stride"] = float64(g.Stride)
		params["Padding"] = float64(g.Padding)
		params["PixelCount"] = float64(g.PixelCount())
		params["PixelDataSize"] = float64(g.PixelDataSize())
		params["Capacity"] = float64(stego.Capacity(g))
		params["TopDown"] = g.TopDown
	}
	return params
}

// Functions usable in expressions
func Functions() map[string]govaluate.ExpressionFunction {
	return map[string]govaluate.ExpressionFunction{
		// stride(width, bitsPerPixel): bytes per padded row
		"stride": func(args ...interface{}) (interface{}, error) {
			nums, err := numbers("stride", 2, args)
			if err != nil {
				return nil, err
			}
			return float64(bmp.RowStride(int(nums[0]), int(nums[1]))), nil
		},
		// capacity(width, height): message bytes a 24-bit image can hide
		"capacity": func(args ...interface{}) (interface{}, error) {
			nums, err := numbers("capacity", 2, args)
			if err != nil {
				return nil, err
			}
			g, err := bmp.NewGeometry(int(nums[0]), int(nums[1]), bmp.BitsPerPixel)
			if err != nil {
				return nil, err
			}
			return float64(stego.Capacity(g)), nil
		},
	}
}

// govaluate hands every number over as float64
func numbers(name string, n int, args []interface{}) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", name, n, len(args))
	}
	nums := make([]float64, n)
	for i, a := range args {
		f, ok := a.(float64)
		if !ok {
			return nil, fmt.Errorf("%s: argument %d must be numeric", name, i+1)
		}
		nums[i] = f
	}
	return nums, nil
}

// Evaluate computes expr against the fields of h
func Evaluate(h *bmp.Header, expr string) (interface{}, error) {
	e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, Functions())
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", expr, err)
	}
	v, err := e.Evaluate(Params(h))
	if err != nil {
		return nil, fmt.Errorf("evaluating %q: %w", expr, err)
	}
	return v, nil
}

// Formats an expression result for printing
func Format(v interface{}) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprint(v)
}
