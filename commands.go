package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/golang/glog"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/anas-shakeel/bmptools/internal/adjustments"
	"github.com/anas-shakeel/bmptools/internal/bmp"
	"github.com/anas-shakeel/bmptools/internal/filters"
	"github.com/anas-shakeel/bmptools/internal/inspect"
	"github.com/anas-shakeel/bmptools/internal/stego"
	"github.com/anas-shakeel/bmptools/internal/utils"
)

// Runs fn for every distinct path, a.cfg.Jobs at a time. Each file gets its
// own output buffer; buffers are printed in argument order once all are done.
func (a *app) eachFile(w io.Writer, paths []string, fn func(path string, w io.Writer) error) error {
	paths = lo.Uniq(paths)
	outputs := make([]bytes.Buffer, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(a.cfg.Jobs)
	for i, path := range paths {
		g.Go(func() error {
			errs[i] = fn(path, &outputs[i])
			return errs[i]
		})
	}
	err := g.Wait()

	if len(paths) == 1 {
		if err == nil {
			_, err = w.Write(outputs[0].Bytes())
		}
		return err
	}

	for i, path := range paths {
		if errs[i] != nil {
			glog.Errorf("%s: %v", path, errs[i])
			continue
		}
		fmt.Fprintf(w, "==> %s <==\n", path)
		if _, err := w.Write(outputs[i].Bytes()); err != nil {
			return err
		}
	}

	if failed := lo.CountBy(errs, func(e error) bool { return e != nil }); failed > 0 {
		return fmt.Errorf("%d of %d files failed: %w", failed, len(paths), err)
	}
	return nil
}

func (a *app) infoCmd() *cobra.Command {
	var expr string

	cmd := &cobra.Command{
		Use:   "info FILE...",
		Short: "Print the headers of one or more bitmaps",
		Long: `Print the file and info headers of each bitmap, plus the row layout and
steganographic capacity of 24-bit uncompressed images.

With --expr, print the value of an expression over the header fields
instead, e.g. --expr "Capacity >= 1024" or --expr "stride(Width, BitCount)".

A file named more than once is processed once.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.eachFile(cmd.OutOrStdout(), args, func(path string, w io.Writer) error {
				return info(path, expr, w)
			})
		},
	}
	cmd.Flags().StringVarP(&expr, "expr", "e", "", "evaluate an expression over the header fields")
	return cmd
}

func info(path, expr string, w io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	h, err := bmp.ReadHeader(bufio.NewReader(file))
	if err != nil {
		// Older header formats: print what was read, then fail
		if h != nil && expr == "" {
			if perr := h.Fprint(w); perr != nil {
				return perr
			}
		}
		return err
	}

	if expr != "" {
		v, err := inspect.Evaluate(h, expr)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, inspect.Format(v))
		return err
	}

	if err := h.Fprint(w); err != nil {
		return err
	}
	g, err := h.Geometry()
	if err != nil {
		_, err = fmt.Fprintf(w, "Further operations are not supported: %v\n", err)
		return err
	}
	_, err = fmt.Fprintf(w, "Message capacity: %d bytes (incl. terminator)\n", stego.Capacity(g))
	return err
}

func (a *app) histogramCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "histogram FILE...",
		Short: "Print 16-bin blue, green and red histograms",
		Long: `Print the share of pixels falling in each of 16 intensity bins, for the
blue, green and red channels of each bitmap.

A file named more than once is processed once.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.eachFile(cmd.OutOrStdout(), args, func(path string, w io.Writer) error {
				in, err := openBitmap(path)
				if err != nil {
					return err
				}
				defer in.Close()

				hist, err := filters.Accumulate(in.geom, in.pixels)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				return hist.Fprint(w)
			})
		},
	}
}

type filterFunc func(g bmp.Geometry, src io.Reader, dst io.Writer) error

func (a *app) filterCmd(use, short string, filter filterFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " INPUT OUTPUT",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.filter(args[0], args[1], filter)
		},
	}
}

// Streams INPUT through filter into a new OUTPUT bitmap
func (a *app) filter(input, output string, filter filterFunc) error {
	in, err := openBitmap(input)
	if err != nil {
		return err
	}
	defer in.Close()

	return a.writeBitmap(output, in, func(w io.Writer) error {
		return filter(in.geom, in.pixels, w)
	})
}

// Wraps a PixelFunc so it can be handed to filter
func pixelFilter(fn filters.PixelFunc) filterFunc {
	return func(g bmp.Geometry, src io.Reader, dst io.Writer) error {
		return filters.Apply(g, src, dst, fn)
	}
}

func (a *app) grayscaleCmd() *cobra.Command {
	return a.filterCmd("grayscale", "Convert a bitmap to grayscale (ITU-R 601-2 luma)", filters.Grayscale)
}

func (a *app) invertCmd() *cobra.Command {
	return a.filterCmd("invert", "Invert the colors of a bitmap", filters.Invert)
}

func (a *app) brightnessCmd() *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "brightness INPUT OUTPUT FACTOR",
		Short: "Brighten or darken a bitmap",
		Long: `Add FACTOR to every channel (--method add, the default) or multiply every
channel by it (--method multiply). Results are clipped to [0, 255].`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			factor, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid factor %q: %w", args[2], err)
			}
			fn, err := filters.BrightnessFunc(factor, method)
			if err != nil {
				return err
			}
			return a.filter(args[0], args[1], pixelFilter(fn))
		},
	}
	cmd.Flags().StringVar(&method, "method", "add", "add or multiply")
	return cmd
}

func (a *app) channelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "channel INPUT OUTPUT red|green|blue",
		Short: "Keep a single color channel of a bitmap",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, err := filters.ChannelFunc(args[2])
			if err != nil {
				return err
			}
			return a.filter(args[0], args[1], pixelFilter(fn))
		},
	}
}

func (a *app) cropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crop INPUT OUTPUT X Y WIDTH HEIGHT",
		Short: "Cut a region out of a bitmap ((0,0) is the top-left pixel)",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			var nums [4]int
			for i, arg := range args[2:] {
				n, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid region value %q: %w", arg, err)
				}
				nums[i] = n
			}
			r := adjustments.Rect{X: nums[0], Y: nums[1], Width: nums[2], Height: nums[3]}

			in, err := openBitmap(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			// Fail before the output file exists
			if err := r.Check(in.geom); err != nil {
				return fmt.Errorf("%s: %w", in.path, err)
			}
			return a.writeOutput(args[1], in, func(w io.Writer) error {
				return adjustments.Crop(in.geom, in.pixels, w, r)
			})
		},
	}
}

func (a *app) encodeCmd() *cobra.Command {
	var messageFile string

	cmd := &cobra.Command{
		Use:   "encode INPUT OUTPUT [MESSAGE]",
		Short: "Hide a message in the least significant bits of a bitmap",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readMessage(cmd, args[2:], messageFile)
			if err != nil {
				return err
			}

			in, err := openBitmap(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			// Fail before the output file exists
			if err := stego.Check(in.geom, payload); err != nil {
				return fmt.Errorf("%s: %w", in.path, err)
			}

			err = a.writeBitmap(args[1], in, func(w io.Writer) error {
				return stego.Encode(in.geom, in.pixels, w, payload)
			})
			if err == nil {
				glog.V(1).Infof("hid %d bytes in %s", len(payload), args[1])
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&messageFile, "message-file", "m", "", "read the message from a file (- for stdin)")
	return cmd
}

// Returns the message given as argument or read from messageFile
func readMessage(cmd *cobra.Command, args []string, messageFile string) ([]byte, error) {
	switch {
	case len(args) == 1 && messageFile != "":
		return nil, errors.New("give the message either as argument or with --message-file, not both")
	case len(args) == 1:
		return []byte(args[0]), nil
	case messageFile == "-":
		return io.ReadAll(cmd.InOrStdin())
	case messageFile != "":
		return os.ReadFile(messageFile)
	default:
		return nil, errors.New("no message: pass it as third argument or with --message-file")
	}
}

func (a *app) decodeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "decode INPUT",
		Short: "Print the message hidden in a bitmap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openBitmap(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			msg, err := stego.Decode(in.geom, in.pixels)
			if err != nil {
				return fmt.Errorf("%s: %w", in.path, err)
			}
			glog.V(1).Infof("decoded %d bytes from %s", len(msg), in.path)

			if output == "" {
				_, err = cmd.OutOrStdout().Write(msg)
				return err
			}
			return a.writeFile(output, msg)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the message to a file instead of stdout")
	return cmd
}

// Writes data to path, honoring the overwrite setting
func (a *app) writeFile(path string, data []byte) error {
	if !a.cfg.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("output file '%s' already exists (use --force to overwrite)", path)
		}
	}
	return os.WriteFile(path, data, 0644)
}

func (a *app) previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview FILE",
		Short: "Draw a small bitmap in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openBitmap(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			if in.geom.Width > a.cfg.MaxPreviewWidth {
				return fmt.Errorf("%s: image is %d pixels wide, preview draws at most %d",
					in.path, in.geom.Width, a.cfg.MaxPreviewWidth)
			}

			rows := make([][]bmp.Pixel, 0, in.geom.Height)
			err = in.geom.Rows(in.pixels, nil, func(_ int, row bmp.Row) error {
				pixels := make([]bmp.Pixel, in.geom.Width)
				for x := range pixels {
					pixels[x] = row.Pixel(x)
				}
				rows = append(rows, pixels)
				return nil
			})
			if err != nil {
				return fmt.Errorf("%s: %w", in.path, err)
			}

			// Print top row first
			if !in.geom.TopDown {
				lo.Reverse(rows)
			}
			return utils.PrintBlocks(cmd.OutOrStdout(), rows, a.cfg.PreviewBlock)
		},
	}
}
