package utils

import (
	"bufio"
	"fmt"
	"io"

	"github.com/anas-shakeel/bmptools/internal/bmp"
)

// Print a Colored Block in terminal
func ColoredBlock(block string, red int, green int, blue int) string {
	return fmt.Sprintf("\033[48;2;%d;%d;%dm%s\033[0m", red, green, blue, block)
}

// Draws rows of pixels (top row first) as colored blocks, one line per row
func PrintBlocks(w io.Writer, rows [][]bmp.Pixel, block string) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		for _, p := range row {
			bw.WriteString(ColoredBlock(block, int(p.R), int(p.G), int(p.B)))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
