// Package cli provides the pixelbeads command-line interface.
package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pixel-beads/api/api"
	"github.com/pixel-beads/api/colormatch"
	"github.com/pixel-beads/api/scheduler"
)

// app carries the configuration shared by every command.
type app struct {
	cfg api.Config
}

// NewRootCmd builds the command tree. Defaults come from the environment;
// flags override them.
func NewRootCmd() *cobra.Command {
	a := &app{cfg: LoadConfig()}

	rootCmd := &cobra.Command{
		Use:   "pixelbeads",
		Short: "Bead pattern service and tools",
		Long: `pixelbeads stores pixel-art bead patterns, matches colours against a
reference bead palette and converts images into patterns.

Run "pixelbeads serve" to start the HTTP API, or use the match, rle and
convert commands offline.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfg.ColorsPath, "table", a.cfg.ColorsPath, "reference table file (code<TAB>hex per line)")
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "log format (json, text)")

	rootCmd.AddCommand(
		a.newServeCmd(),
		a.newMigrateCmd(),
		a.newMatchCmd(),
		a.newRLECmd(),
		a.newConvertCmd(),
		a.newTokenCmd(),
	)

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) logger(cmd *cobra.Command) (*logrus.Logger, error) {
	return newLogger(a.cfg, cmd.ErrOrStderr())
}

// loadMatcher loads the reference table from the configured path, falling
// back to the embedded table when the file does not exist.
func (a *app) loadMatcher(log logrus.FieldLogger) (*colormatch.Matcher, *scheduler.Reloader, error) {
	matcher := colormatch.NewMatcher(nil)
	reloader := scheduler.NewReloader(matcher, a.cfg.ColorsPath, 0, log)
	if _, err := reloader.ReloadNow(); err != nil {
		return nil, nil, err
	}
	return matcher, reloader, nil
}
