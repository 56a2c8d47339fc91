package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"modmanager/internal/bootstrap"
	"modmanager/internal/config"
	"modmanager/internal/logging"
)

type cli struct {
	out        io.Writer
	configPath string
	jsonOut    bool
	app        *bootstrap.App
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:   "modmanager",
		Short: "Workshop catalog sync and translation",
		Long: `modmanager keeps a local catalog of installed workshop items in step with
the remote catalog and translates item listings into the default language.

Settings come from modmanager.yaml (or --config), a .env file and
MODMANAGER_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "Print results as JSON")

	root.AddCommand(
		c.newSyncCmd(),
		c.newRefreshCmd(),
		c.newGetCmd(),
		c.newSearchCmd(),
		c.newStatsCmd(),
		c.newCacheCmd(),
		c.newExportCmd(),
		c.newRunsCmd(),
		newVersionCmd(out),
	)
	return root
}

// withApp builds the application before fn runs and closes it afterwards.
func (c *cli) withApp(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Backend: cfg.Log.Backend})
		if err != nil {
			return err
		}
		app, err := bootstrap.Build(cmd.Context(), cfg, log, bootstrap.Overrides{})
		if err != nil {
			return err
		}
		c.app = app
		defer func() {
			_ = app.Close()
			c.app = nil
		}()
		return fn(cmd, args)
	}
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func newVersionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(out, "modmanager version %s\n", version)
		},
	}
}
