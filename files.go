package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"

	"github.com/anas-shakeel/bmptools/internal/bmp"
)

// bitmapFile is an open input image positioned at its pixel data.
type bitmapFile struct {
	path   string
	file   *os.File
	pixels *bufio.Reader
	header *bmp.Header
	geom   bmp.Geometry
}

// Opens a bitmap, reads its headers and checks that the codec supports it
func openBitmap(path string) (*bitmapFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := bufio.NewReader(file)
	h, err := bmp.ReadHeader(r)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	g, err := h.Geometry()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// Check the file size before any buffer is sized from the headers
	st, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if err := g.CheckAvailable(st.Size() - int64(len(h.Raw))); err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	glog.V(1).Infof("%s: %dx%d, stride %d, padding %d", path, g.Width, g.Height, g.Stride, g.Padding)
	return &bitmapFile{path: path, file: file, pixels: r, header: h, geom: g}, nil
}

func (b *bitmapFile) Close() error {
	return b.file.Close()
}

// Creates path, writes the headers of in followed by whatever body writes.
func (a *app) writeBitmap(path string, in *bitmapFile, body func(w io.Writer) error) error {
	return a.writeOutput(path, in, func(w io.Writer) error {
		if _, err := in.header.WriteTo(w); err != nil {
			return err
		}
		return body(w)
	})
}

// Creates path and fills it with body. On failure the output is removed
// unless keep_partial is set.
func (a *app) writeOutput(path string, in *bitmapFile, body func(w io.Writer) error) (err error) {
	if err := a.checkOutput(path, in.path); err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if a.cfg.Overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("output file '%s' already exists (use --force to overwrite)", path)
		}
		return err
	}

	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil && !a.cfg.KeepPartial {
			if rerr := os.Remove(path); rerr != nil {
				glog.Warningf("failed to remove partial output '%s': %v", path, rerr)
			} else {
				glog.V(1).Infof("removed partial output '%s'", path)
			}
		}
	}()

	// Create a buffer (to reduce syscalls)
	w := bufio.NewWriter(out)
	if err := body(w); err != nil {
		return fmt.Errorf("%s: %w", in.path, err)
	}
	return w.Flush()
}

// Refuses to write over the input file
func (a *app) checkOutput(out, in string) error {
	outInfo, err := os.Stat(out)
	if err != nil {
		return nil // Doesn't exist yet, or OpenFile will report it
	}
	inInfo, err := os.Stat(in)
	if err != nil {
		return err
	}
	if os.SameFile(inInfo, outInfo) {
		return fmt.Errorf("output file '%s' is the input file", out)
	}
	return nil
}
