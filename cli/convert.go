package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pixel-beads/api/imaging"
	"github.com/pixel-beads/api/models"
)

func (a *app) newConvertCmd() *cobra.Command {
	var (
		opts    imaging.ConvertOptions
		pngPath string
		scale   int
	)

	cmd := &cobra.Command{
		Use:   "convert IMAGE",
		Short: "Convert an image into a bead pattern draft",
		Long: `Convert resamples an image to the bead grid, reduces it to a limited
number of colours and maps each colour to its nearest reference bead.
The draft is printed as JSON and can be posted to /api/patterns.`,
		Example: `  pixelbeads convert cat.png --width 32 --height 32 --colors 8
  pixelbeads convert logo.webp --png preview.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := a.logger(cmd)
			if err != nil {
				return err
			}

			img, err := imaging.LoadImage(args[0])
			if err != nil {
				return err
			}

			if opts.Width == 0 && opts.Height == 0 {
				b := img.Bounds()
				opts.Width, opts.Height = imaging.FitGrid(b.Dx(), b.Dy())
			}

			matcher, _, err := a.loadMatcher(log)
			if err != nil {
				return err
			}

			draft, err := imaging.Convert(img, opts, matcher)
			if err != nil {
				return err
			}

			if pngPath != "" {
				if err := writePreview(pngPath, draft, matcher, scale); err != nil {
					return err
				}
				log.WithField("path", pngPath).Info("Wrote preview")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(draft)
		},
	}

	cmd.Flags().IntVar(&opts.Width, "width", 0, "grid width (default: image width, capped)")
	cmd.Flags().IntVar(&opts.Height, "height", 0, "grid height (default: image height, capped)")
	cmd.Flags().IntVar(&opts.MaxColors, "colors", imaging.DefaultMaxColors, "maximum number of colours")
	cmd.Flags().StringVar(&pngPath, "png", "", "also write a rendered preview to this file")
	cmd.Flags().IntVar(&scale, "scale", imaging.DefaultScale, "preview pixels per bead")

	return cmd
}

func writePreview(path string, draft models.PatternDraft, colors imaging.ColorLookup, scale int) error {
	img, err := imaging.Render(models.Pattern{
		Width:   draft.Width,
		Height:  draft.Height,
		Palette: draft.Palette,
		Data:    draft.Data,
	}, colors, scale)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := imaging.WritePNG(f, img); err != nil {
		f.Close()
		return fmt.Errorf("writing preview: %w", err)
	}
	return f.Close()
}
