package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"cv-hub/internal/app"
	"cv-hub/internal/config"
	"cv-hub/internal/database/seeder"
	"cv-hub/internal/domain/cv"
	"cv-hub/internal/pkg/logger"
	"cv-hub/internal/usecase"
	"cv-hub/internal/web"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
)

type globalFlags struct {
	dbPath   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "cvctl",
		Short:         "Maintain the cv-hub database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "SQLite database path (overrides DATABASE_PATH and DATABASE_URL)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(
		newMigrateCmd(g),
		newSeedCmd(g),
		newShowCmd(g),
		newVersionsCmd(g),
		newRollbackCmd(g),
		newConfigCmd(g),
		newPDFCmd(g),
	)
	return root
}

func (g *globalFlags) config() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if g.dbPath != "" {
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.Path = g.dbPath
	}
	if g.logLevel != "" {
		cfg.App.LogLevel = g.logLevel
	}
	return cfg, nil
}

// withContainer opens the database (applying migrations) for the duration of fn.
func (g *globalFlags) withContainer(cmd *cobra.Command, mutate func(*config.Config), fn func(context.Context, *app.Container) error) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	if mutate != nil {
		mutate(&cfg)
	}

	lg, err := logger.New(cfg.App.LogLevel, cfg.App.Environment)
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := app.NewContainer(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			lg.Warn("close container", zap.Error(err))
		}
	}()

	return fn(ctx, c)
}

func printJSON(w io.Writer, b []byte) error {
	_, err := w.Write(pretty.Pretty(b))
	return err
}

func newMigrateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withContainer(cmd, nil, func(_ context.Context, c *app.Container) error {
				fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", c.DB.Dialect())
				return nil
			})
		},
	}
}

func newSeedCmd(g *globalFlags) *cobra.Command {
	var (
		file  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed system config and the CV document",
		Long: `Seed inserts default system config and, when no CV exists yet, the CV document.

The document comes from --file (JSON or YAML), SEED_FILE, or the bundled default.
--force replaces an existing document; the previous one is kept as an archived version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withContainer(cmd, nil, func(ctx context.Context, c *app.Container) error {
				if file == "" {
					file = c.Config.App.SeedFile
				}
				r := seeder.Runner{Seeders: []seeder.Seeder{
					seeder.SystemConfigSeeder{Logger: c.Logger},
					seeder.CVSeeder{File: file, Force: force, Importer: c.CV, Logger: c.Logger},
				}}
				if err := r.Run(ctx, c.DB); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "seed complete")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CV document to import (.json, .yaml or .yml)")
	cmd.Flags().BoolVar(&force, "force", false, "replace the existing CV document")
	return cmd
}

func newShowCmd(g *globalFlags) *cobra.Command {
	var public bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current CV document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withContainer(cmd, nil, func(ctx context.Context, c *app.Container) error {
				if public {
					p, err := c.CV.GetPublic(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), p.Body)
				}
				rec, err := c.CV.GetFull(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec.Data)
			})
		},
	}
	cmd.Flags().BoolVar(&public, "public", false, "print the privacy-filtered view")
	return cmd
}

func newVersionsCmd(g *globalFlags) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List archived CV versions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withContainer(cmd, nil, func(ctx context.Context, c *app.Container) error {
				page, err := c.CV.ListVersions(ctx, limit, offset)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, v := range page.Items {
					fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", v.ID, v.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), v.Status, dashIfEmpty(v.Source))
				}
				fmt.Fprintf(out, "total=%d limit=%d offset=%d hasNext=%t\n", page.Total, page.Limit, page.Offset, page.HasNext)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", usecase.DefaultVersionLimit, "page size (1-100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of versions to skip")
	return cmd
}

func newRollbackCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <version-id>",
		Short: "Restore the CV document from an archived version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid version id %q", args[0])
			}
			return g.withContainer(cmd, nil, func(ctx context.Context, c *app.Container) error {
				if _, err := c.CV.Rollback(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back to version %d\n", id)
				return nil
			})
		},
	}
}

func newConfigCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage system config entries",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all entries",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return g.withContainer(cmd, nil, func(ctx context.Context, c *app.Container) error {
					items, err := c.SystemConfig.List(ctx)
					if err != nil {
						return err
					}
					for _, it := range items {
						fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", it.Key, it.Value)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one entry",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.withContainer(cmd, nil, func(ctx context.Context, c *app.Container) error {
					it, err := c.SystemConfig.FindByKey(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), it.Value)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Create or update an entry",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.withContainer(cmd, nil, func(ctx context.Context, c *app.Container) error {
					_, created, err := c.SystemConfig.Upsert(ctx, args[0], args[1])
					if err != nil {
						return err
					}
					verb := "updated"
					if created {
						verb = "created"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <key>",
			Short: "Delete an entry",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.withContainer(cmd, nil, func(ctx context.Context, c *app.Container) error {
					ok, err := c.SystemConfig.Delete(ctx, args[0])
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("%w: %s", usecase.ErrConfigNotFound, args[0])
					}
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
					return nil
				})
			},
		},
	)
	return cmd
}

func newPDFCmd(g *globalFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "pdf",
		Short: "Render the public CV to a PDF file using headless Chrome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(out) == "" {
				return errors.New("--out is required")
			}
			enable := func(cfg *config.Config) { cfg.PDF.Enabled = true }
			return g.withContainer(cmd, enable, func(ctx context.Context, c *app.Container) error {
				p, err := c.CV.GetPublic(ctx)
				if err != nil {
					return err
				}
				doc, err := cv.Decode(p.Body)
				if err != nil {
					return err
				}
				page, err := web.NewPage()
				if err != nil {
					return err
				}
				html, err := page.RenderPrintable(doc)
				if err != nil {
					return err
				}
				b, err := c.PDF.Render(ctx, html)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, b, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(b))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	return cmd
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
