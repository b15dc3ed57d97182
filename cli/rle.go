package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/pixel-beads/api/rle"
)

func (a *app) newRLECmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rle",
		Short: "Encode, decode and validate run-length pixel data",
	}

	cmd.AddCommand(newRLEEncodeCmd(), newRLEDecodeCmd(), newRLEValidateCmd())

	return cmd
}

func newRLEEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode [INDEX...]",
		Short: "Encode palette indices; reads stdin when no arguments are given",
		Example: `  pixelbeads rle encode 0 0 1 1 1
  echo "0,0,1,1,1" | pixelbeads rle encode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := argsOrStdin(cmd, args)
			if err != nil {
				return err
			}

			pixels, err := parseIndices(input)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), rle.Encode(pixels))
			return nil
		},
	}
}

func newRLEDecodeCmd() *cobra.Command {
	var length, width int

	cmd := &cobra.Command{
		Use:   "decode DATA",
		Short: "Decode run-length data into palette indices",
		Example: `  pixelbeads rle decode "2*0,3*1" --length 5
  pixelbeads rle decode "2*0,2*1" --length 4 --width 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := argsOrStdin(cmd, args)
			if err != nil {
				return err
			}

			pixels, err := rle.Decode(strings.TrimSpace(data), length)
			if err != nil {
				return err
			}

			if width < 0 {
				return errors.New("--width must not be negative")
			}
			rowLen := len(pixels)
			if width > 0 {
				rowLen = width
			}

			out := cmd.OutOrStdout()
			for start := 0; start < len(pixels); start += rowLen {
				end := start + rowLen
				if end > len(pixels) {
					end = len(pixels)
				}
				fmt.Fprintln(out, joinInts(pixels[start:end]))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&length, "length", 0, "expected number of pixels (width*height)")
	cmd.Flags().IntVar(&width, "width", 0, "print one line per row of this width")
	_ = cmd.MarkFlagRequired("length")

	return cmd
}

func newRLEValidateCmd() *cobra.Command {
	var length, maxIndex int

	cmd := &cobra.Command{
		Use:   "validate DATA",
		Short: "Check run-length data against a length and palette size",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := argsOrStdin(cmd, args)
			if err != nil {
				return err
			}

			result := rle.Validate(strings.TrimSpace(data), length, maxIndex)
			if err := json.NewEncoder(cmd.OutOrStdout()).Encode(result); err != nil {
				return err
			}
			if !result.Valid {
				return errors.New(result.Error)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&length, "length", 0, "expected number of pixels (width*height)")
	cmd.Flags().IntVar(&maxIndex, "max-index", 0, "largest allowed palette index")
	_ = cmd.MarkFlagRequired("length")
	_ = cmd.MarkFlagRequired("max-index")

	return cmd
}

func argsOrStdin(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(b), nil
}

// parseIndices accepts indices separated by commas or whitespace.
func parseIndices(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	pixels := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid palette index %q", f)
		}
		pixels = append(pixels, v)
	}
	return pixels, nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
