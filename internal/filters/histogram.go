package filters

import (
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/anas-shakeel/bmptools/internal/bmp"
)

const (
	NumBins  = 16
	binWidth = 256 / NumBins
)

// Bins counts channel values in 16 buckets of 16 intensity levels each.
type Bins [NumBins]uint64

// Histogram holds one set of bins per color channel.
type Histogram struct {
	Blue, Green, Red Bins
}

// Returns the bin a channel value falls into
func BinOf(v byte) int {
	return int(v) / binWidth
}

// Returns the inclusive value range covered by bin i
func BinRange(i int) (from, to int) {
	return i * binWidth, (i+1)*binWidth - 1
}

// Returns the sum of all bins
func (b *Bins) Total() uint64 {
	return lo.Sum(b[:])
}

// Returns the share of bin i in percent, 0 for an empty histogram
func (b *Bins) Percent(i int) float64 {
	total := b.Total()
	if total == 0 {
		return 0
	}
	return float64(b[i]) * 100 / float64(total)
}

// Counts every pixel of the image into the three channel histograms.
// Padding bytes are read and discarded.
func Accumulate(g bmp.Geometry, src io.Reader) (*Histogram, error) {
	var h Histogram
	err := g.Rows(src, nil, func(_ int, row bmp.Row) error {
		for x := range g.Width {
			p := row.Pixel(x)
			h.Blue[BinOf(p.B)]++
			h.Green[BinOf(p.G)]++
			h.Red[BinOf(p.R)]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Print the histograms, one percentage per bin
func (h *Histogram) Fprint(w io.Writer) error {
	channels := []struct {
		name string
		bins *Bins
	}{
		{"Blue", &h.Blue},
		{"Green", &h.Green},
		{"Red", &h.Red},
	}

	for _, c := range channels {
		if _, err := fmt.Fprintf(w, "%s:\n", c.name); err != nil {
			return err
		}
		for i := range NumBins {
			from, to := BinRange(i)
			label := fmt.Sprintf("%d-%d:", from, to)
			if _, err := fmt.Fprintf(w, "\t%-10s%6.2f%%\n", label, c.bins.Percent(i)); err != nil {
				return err
			}
		}
	}
	return nil
}
