package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newMatchCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "match HEX",
		Short: "Find the closest reference beads to a colour",
		Example: `  pixelbeads match ff8800
  pixelbeads match "#336699" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := a.logger(cmd)
			if err != nil {
				return err
			}

			matcher, _, err := a.loadMatcher(log)
			if err != nil {
				return err
			}

			result, err := matcher.Match(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Fprintf(out, "input  %s\n", result.Input)
			fmt.Fprintf(out, "match  %-6s %s  ΔE %.1f\n", result.Best.Code, result.Best.Hex, result.Best.Distance)
			for _, alt := range result.Alternatives {
				fmt.Fprintf(out, "       %-6s %s  ΔE %.1f\n", alt.Code, alt.Hex, alt.Distance)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}
