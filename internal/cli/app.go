// Package cli is the offline command line front end over the raster,
// pipeline, mask, collage and background removal packages.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	verbose     bool
	concurrency int
	quality     int
}

func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "imagectl",
		Short: "Offline image transformations",
		Long: `imagectl runs the image studio transformations on local files:
named operation pipelines, procedural masks, collages and background removal.

The output format follows the extension of the output file (.jpg, .png, .gif, .bmp, .tiff).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logrus.SetOutput(app.stderr)
			if app.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}

	app.root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Debug logging")
	app.root.PersistentFlags().IntVar(&app.concurrency, "concurrency", 0, "Worker count for multi-image work (0 = number of CPUs)")
	app.root.PersistentFlags().IntVarP(&app.quality, "quality", "q", raster.DefaultJPEGQuality, "JPEG quality 1-100")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newInfoCmd(),
		app.newPipelineCmd(),
		app.newMaskCmd(),
		app.newCollageCmd(),
		app.newRemoveBgCmd(),
	)
	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "imagectl version %s\n", Version)
		},
	}
}

func (a *App) engine() (*raster.Engine, error) {
	return raster.New(raster.Config{Concurrency: a.concurrency})
}

func (a *App) readImage(engine *raster.Engine, path string) (*raster.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := engine.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// writeImage encodes img in the format named by the output extension.
func (a *App) writeImage(img *raster.Image, path string) error {
	format, err := raster.ParseFormat(filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("output %s: %w", path, err)
	}
	data, err := raster.Encode(img, format, raster.EncodeOptions{Quality: a.quality})
	if err != nil {
		return fmt.Errorf("output %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "wrote %s (%dx%d, %s)\n", path, img.Width(), img.Height(), format)
	return nil
}
