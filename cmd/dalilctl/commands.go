package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dalilfazara/dalil/internal/app"
	"github.com/dalilfazara/dalil/internal/domain"
	"github.com/dalilfazara/dalil/internal/migrations"
	"github.com/dalilfazara/dalil/pkg/directory"
)

func newExportCmd(c *cli) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every worker as CSV",
		Long: `Export every worker, newest first, as CSV.

Without --out the CSV is written to stdout. When --out names a directory the
file is created there under the dated export name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a app.AppInterface) error {
				csv, name, err := a.GetDirectoryService().ExportCSV(ctx)
				if err != nil {
					return err
				}

				if out == "" {
					_, err := fmt.Fprint(c.out, csv)
					return err
				}

				path := out
				if info, err := os.Stat(out); err == nil && info.IsDir() {
					path = filepath.Join(out, name)
				}
				if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
					return fmt.Errorf("failed to write export: %w", err)
				}
				fmt.Fprintf(c.errOut, "Exported workers to %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "File or directory to write the CSV to")
	return cmd
}

func newStatsCmd(c *cli) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the dashboard snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a app.AppInterface) error {
				dashboard := a.GetDashboardService()
				var snap *domain.Snapshot
				if cached {
					snap = dashboard.Latest(ctx)
				} else {
					snap = dashboard.Refresh(ctx)
				}

				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			})
		},
	}
	cmd.Flags().BoolVar(&cached, "cached", false, "Print the cached snapshot when one exists")
	return cmd
}

func newMigrateCmd(c *cli) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
		Long: `Manage the Postgres schema.

Available subcommands:
  up     - Apply every pending migration
  down   - Roll back the latest migrations
  status - List pending migrations`,
	}

	withMigrator := func(cmd *cobra.Command, fn func(ctx context.Context, m *migrations.Migrator) error) error {
		return c.withApp(cmd, func(ctx context.Context, a app.AppInterface) error {
			db := a.GetDB()
			if db == nil {
				return fmt.Errorf("migrations require DATA_BACKEND=postgres")
			}
			return fn(ctx, migrations.NewMigrator(db, a.GetLogger()))
		})
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *migrations.Migrator) error {
				n, err := m.Up(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Applied %d migration(s)\n", n)
				return nil
			})
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *migrations.Migrator) error {
				n, err := m.Down(ctx, steps)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Rolled back %d migration(s)\n", n)
				return nil
			})
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "List pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(_ context.Context, m *migrations.Migrator) error {
				pending, err := m.Pending()
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Fprintln(c.out, "Schema is up to date")
					return nil
				}
				for _, id := range pending {
					fmt.Fprintln(c.out, "pending", id)
				}
				return nil
			})
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, statusCmd)
	return migrateCmd
}

func newBrowseCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Filter the directory interactively",
		Long: `Filter the directory interactively, one query per line.

  <text>      filter by name (applied after a short pause)
  /job <job>  filter by exact job, empty to reset the job
  /jobs       list job categories
  /clear      reset both filters
  /quit       leave`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a app.AppInterface) error {
				workers, err := a.GetWorkerRepository().List(ctx)
				if err != nil {
					return err
				}
				return c.browse(workers)
			})
		},
	}
}

// browse runs a directory session over the input stream until EOF or /quit
func (c *cli) browse(workers []domain.Worker) error {
	engine := directory.NewEngine(workers)
	session := directory.NewSession(engine, c.debounce)
	defer session.Close()

	var mu sync.Mutex
	printf := func(format string, args ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(c.out, format, args...)
	}

	session.OnChange(func(results []domain.Worker, crit directory.Criteria) {
		printf("%d of %d workers (name=%q job=%q)\n", len(results), len(workers), crit.Name, crit.Job)
		for _, w := range results {
			printf("  %s | %s | %s | %s\n", w.Name, w.Job, w.Location, w.Phone)
		}
	})

	printf("%d workers loaded. Jobs: %s\n", len(workers), strings.Join(engine.JobCategories(), ", "))

	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "/quit":
			return nil
		case line == "/clear":
			session.Clear()
		case line == "/jobs":
			printf("Jobs: %s\n", strings.Join(engine.JobCategories(), ", "))
		case line == "/job" || strings.HasPrefix(line, "/job "):
			session.SetJob(strings.TrimSpace(strings.TrimPrefix(line, "/job")))
		case strings.HasPrefix(line, "/"):
			printf("Unknown command %s\n", line)
		default:
			session.SetName(line)
		}
	}
	session.Flush()
	return scanner.Err()
}
