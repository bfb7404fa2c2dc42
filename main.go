// bmptools reads and rewrites uncompressed 24-bit bitmaps: header dumps,
// histograms, grayscale conversion and LSB steganography.
package main

import (
	"flag"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/anas-shakeel/bmptools/internal/config"
)

// app carries the settings shared by all subcommands.
type app struct {
	configPath  string
	force       bool
	keepPartial bool
	jobs        int

	cfg config.Config
}

func main() {
	// glog writes to files by default; a CLI wants stderr.
	flag.Set("logtostderr", "true")
	flag.CommandLine.Parse(nil)

	root := newRootCmd(os.Stdout, os.Stdin)
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	err := root.Execute()
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer, stdin io.Reader) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "bmptools",
		Short:        "Inspect and transform uncompressed 24-bit BMP images",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetIn(stdin)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file (default $"+config.EnvFile+")")
	pf.BoolVarP(&a.force, "force", "f", false, "overwrite existing output files")
	pf.BoolVar(&a.keepPartial, "keep-partial", false, "keep the output file when a command fails halfway")
	pf.IntVarP(&a.jobs, "jobs", "j", 0, "number of files processed at once (default from config)")

	root.AddCommand(
		a.infoCmd(),
		a.histogramCmd(),
		a.grayscaleCmd(),
		a.invertCmd(),
		a.brightnessCmd(),
		a.channelCmd(),
		a.cropCmd(),
		a.encodeCmd(),
		a.decodeCmd(),
		a.previewCmd(),
	)
	return root
}

// Loads the config file, then lets explicitly set flags win over it
func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("force") {
		cfg.Overwrite = a.force
	}
	if flags.Changed("keep-partial") {
		cfg.KeepPartial = a.keepPartial
	}
	if flags.Changed("jobs") {
		cfg.Jobs = a.jobs
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	glog.V(2).Infof("config: %+v", cfg)
	return nil
}
