package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ds124wfegd/image-studio/internal/entity"
	"github.com/ds124wfegd/image-studio/internal/pkg/bgremoval"
	"github.com/ds124wfegd/image-studio/internal/pkg/collage"
	"github.com/ds124wfegd/image-studio/internal/pkg/mask"
	"github.com/ds124wfegd/image-studio/internal/pkg/matting"
	"github.com/ds124wfegd/image-studio/internal/pkg/processor"
	"github.com/ds124wfegd/image-studio/internal/pkg/raster"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func (a *App) newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <image>",
		Short: "Print format, size and channels of an image as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			img, err := raster.Decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			info := img.Info()
			info.Size = len(data)

			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}

type pipelineOptions struct {
	ops     string
	opsFile string
	unknown string
}

func (a *App) newPipelineCmd() *cobra.Command {
	opts := &pipelineOptions{}

	cmd := &cobra.Command{
		Use:   "pipeline <input> <output>",
		Short: "Run an ordered list of operations",
		Long: `Run an ordered list of operations on one image.

Examples:
  # Named form
  imagectl pipeline in.png out.jpg --ops "greyscale,blur:1.5,resize:800x"

  # JSON form, same objects as the HTTP pipeline endpoint
  imagectl pipeline in.png out.png --ops-file ops.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPipeline(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.ops, "ops", "", "Comma separated named operations")
	cmd.Flags().StringVar(&opts.opsFile, "ops-file", "", "JSON file with a list of operations")
	cmd.Flags().StringVar(&opts.unknown, "unknown", string(processor.PolicyFail), "Unknown operation policy: fail or skip")
	cmd.MarkFlagsMutuallyExclusive("ops", "ops-file")
	cmd.MarkFlagsOneRequired("ops", "ops-file")
	return cmd
}

func (a *App) runPipeline(cmd *cobra.Command, opts *pipelineOptions, in, out string) error {
	ops, err := loadOperations(opts)
	if err != nil {
		return err
	}
	policy, err := processor.ParsePolicy(opts.unknown)
	if err != nil {
		return err
	}

	engine, err := a.engine()
	if err != nil {
		return err
	}
	defer engine.Close()

	proc := processor.NewImageProcessor(engine, nil, policy)
	if err := proc.Validate(ops); err != nil {
		return err
	}
	img, err := a.readImage(engine, in)
	if err != nil {
		return err
	}
	result, err := proc.Apply(cmd.Context(), img, ops)
	if err != nil {
		return err
	}
	return a.writeImage(result, out)
}

func loadOperations(opts *pipelineOptions) ([]entity.OperationSpec, error) {
	if opts.opsFile == "" {
		return entity.ParseNamedList(opts.ops)
	}
	data, err := os.ReadFile(opts.opsFile)
	if err != nil {
		return nil, err
	}
	var dtos []entity.OperationDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("%s: %w", opts.opsFile, err)
	}
	return entity.ToSpecs(dtos)
}

type maskOptions struct {
	shape      string
	radius     float64
	background string
}

func (a *App) newMaskCmd() *cobra.Command {
	opts := &maskOptions{}

	cmd := &cobra.Command{
		Use:   "mask <input> <output>",
		Short: "Cut the image to a circle, rounded rectangle or star",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			shape, err := mask.ParseShape(opts.shape)
			if err != nil {
				return err
			}
			bg, err := raster.ParseColor(opts.background)
			if err != nil {
				return err
			}
			spec := mask.Spec{Shape: shape, Background: bg}
			if cmd.Flags().Changed("radius") {
				spec.Radius = &opts.radius
			}

			engine, err := a.engine()
			if err != nil {
				return err
			}
			defer engine.Close()

			img, err := a.readImage(engine, args[0])
			if err != nil {
				return err
			}
			out, err := mask.Apply(img, spec)
			if err != nil {
				return err
			}
			return a.writeImage(out, args[1])
		},
	}

	cmd.Flags().StringVarP(&opts.shape, "shape", "s", string(mask.Circle), "Mask shape: circle, rounded, star")
	cmd.Flags().Float64VarP(&opts.radius, "radius", "r", 0, "Shape radius in pixels (default: half the shorter side)")
	cmd.Flags().StringVar(&opts.background, "background", "#ffffff", "Fill colour outside the shape")
	return cmd
}

type collageOptions struct {
	output     string
	columns    int
	spacing    int
	background string
}

func (a *App) newCollageCmd() *cobra.Command {
	opts := &collageOptions{}

	cmd := &cobra.Command{
		Use:   "collage <image>... -o <output>",
		Short: "Lay images out on a grid",
		Args:  cobra.RangeArgs(1, collage.MaxImages),
		RunE: func(cmd *cobra.Command, args []string) error {
			bg, err := raster.ParseColor(opts.background)
			if err != nil {
				return err
			}

			engine, err := a.engine()
			if err != nil {
				return err
			}
			defer engine.Close()

			images := make([]*raster.Image, len(args))
			for i, path := range args {
				if images[i], err = a.readImage(engine, path); err != nil {
					return err
				}
			}

			out, layout, err := collage.Render(images, collage.Options{
				Columns:    opts.columns,
				Spacing:    &opts.spacing,
				Background: bg,
			})
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{
				"rows":   layout.Rows,
				"cell_w": layout.CellWidth,
				"cell_h": layout.CellHeight,
			}).Debug("collage layout")
			return a.writeImage(out, opts.output)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file")
	cmd.Flags().IntVarP(&opts.columns, "columns", "c", 2, "Number of columns")
	cmd.Flags().IntVar(&opts.spacing, "spacing", collage.DefaultSpacing, "Gap between cells and around the grid")
	cmd.Flags().StringVar(&opts.background, "background", "#ffffff", "Canvas colour")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

type removeBgOptions struct {
	method     string
	threshold  int
	color      string
	tolerance  float64
	mattingURL string
	model      string
}

func (a *App) newRemoveBgCmd() *cobra.Command {
	opts := &removeBgOptions{}

	cmd := &cobra.Command{
		Use:   "remove-bg <input> <output>",
		Short: "Make the background transparent",
		Long: `Make the background transparent with one of the heuristic methods
(default, threshold, edge, color, smart) or with the matting model (accurate).

The output should be a .png to keep the alpha channel.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, seg, err := opts.config()
			if err != nil {
				return err
			}

			engine, err := a.engine()
			if err != nil {
				return err
			}
			defer engine.Close()

			img, err := a.readImage(engine, args[0])
			if err != nil {
				return err
			}
			out, err := bgremoval.Remove(cmd.Context(), img, cfg, seg)
			if err != nil {
				return err
			}
			return a.writeImage(out, args[1])
		},
	}

	cmd.Flags().StringVarP(&opts.method, "method", "m", string(bgremoval.MethodDefault), "default, threshold, edge, color, smart or accurate")
	cmd.Flags().IntVar(&opts.threshold, "threshold", 0, "Brightness threshold 0-255 for the threshold method")
	cmd.Flags().StringVar(&opts.color, "color", "", "Key colour for the color method")
	cmd.Flags().Float64Var(&opts.tolerance, "tolerance", 0, "Colour distance tolerance for the color method")
	cmd.Flags().StringVar(&opts.mattingURL, "matting-url", "", "Matting service URL for the accurate method")
	cmd.Flags().StringVar(&opts.model, "model", string(matting.ModelMedium), "Matting model: small, medium, large")
	return cmd
}

func (o *removeBgOptions) config() (bgremoval.Config, bgremoval.Segmenter, error) {
	method, err := bgremoval.ParseMethod(o.method)
	if err != nil {
		return bgremoval.Config{}, nil, err
	}
	cfg := bgremoval.Config{Method: method, Threshold: o.threshold, Tolerance: o.tolerance}
	if o.color != "" {
		key, err := raster.ParseColor(o.color)
		if err != nil {
			return bgremoval.Config{}, nil, err
		}
		cfg.Color = &key
	}

	if method != bgremoval.MethodAccurate {
		return cfg, nil, nil
	}
	if o.mattingURL == "" {
		return bgremoval.Config{}, nil, fmt.Errorf("the accurate method needs --matting-url")
	}
	model, err := matting.ParseModel(o.model)
	if err != nil {
		return bgremoval.Config{}, nil, err
	}
	client := matting.NewClient(matting.Config{URL: o.mattingURL, Model: model})
	return cfg, bgremoval.ModelSegmenter{Client: client, Options: matting.Options{Model: model}}, nil
}
