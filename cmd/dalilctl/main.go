// Command dalilctl is the operator CLI: CSV export, dashboard snapshots,
// schema migrations and an interactive directory browser.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/dalilfazara/dalil/config"
	"github.com/dalilfazara/dalil/internal/app"
	"github.com/dalilfazara/dalil/pkg/logger"
)

// opener builds an initialized application without starting the server
type opener func(ctx context.Context) (app.AppInterface, error)

// cli carries the streams and backend factory shared by every command
type cli struct {
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	open     opener
	debounce time.Duration

	envFile  string
	logLevel string
}

func newCLI() *cli {
	c := &cli{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	c.open = c.openApp
	return c
}

// openApp loads configuration and wires the data and storage backends
func (c *cli) openApp(_ context.Context) (app.AppInterface, error) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{EnvFile: c.envFile})
	if err != nil {
		return nil, err
	}

	level := c.logLevel
	if level == "" {
		level = "warn"
	}
	a := app.NewApp(cfg,
		app.WithLogger(logger.NewLoggerWithWriter(c.errOut, level)),
		app.WithoutMigrations(),
	)
	if err := a.InitDB(); err != nil {
		return nil, err
	}
	if err := a.InitStorage(); err != nil {
		return nil, err
	}
	if err := a.InitServices(); err != nil {
		return nil, err
	}
	return a, nil
}

// withApp opens the application, runs fn and releases every resource
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a app.AppInterface) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = a.Shutdown(shutdownCtx)
	}()

	return fn(ctx, a)
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dalilctl",
		Short:         "Operate the Dalil worker directory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(c.in)
	rootCmd.SetOut(c.out)
	rootCmd.SetErr(c.errOut)

	rootCmd.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "Environment file to load before the process environment")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level written to stderr (default: warn)")

	rootCmd.AddCommand(
		newExportCmd(c),
		newStatsCmd(c),
		newMigrateCmd(c),
		newBrowseCmd(c),
	)
	return rootCmd
}

func main() {
	c := newCLI()
	if err := newRootCmd(c).Execute(); err != nil {
		fmt.Fprintln(c.errOut, "Error:", err)
		os.Exit(1)
	}
}
