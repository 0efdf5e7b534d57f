package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/topps-now-tracker/db"
	"github.com/riskibarqy/topps-now-tracker/internal/config"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type migrator struct {
	m      *migrate.Migrate
	source string
	logger *logging.Logger
}

func newRootCommand() *cobra.Command {
	var dirFlag string

	withMigrator := func(fn func(*migrator) error) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if !cfg.HasDatabase() {
			return errors.New("DB_URL is required")
		}
		logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: logging.FormatConsole, Output: os.Stderr})
		defer func() { _ = logger.Sync() }()

		mg, err := openMigrator(dirFlag, cfg.DBURL, logger)
		if err != nil {
			return err
		}
		defer mg.close()
		return fn(mg)
	}

	root := &cobra.Command{
		Use:           filepath.Base(os.Args[0]),
		Short:         "Apply or roll back schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dirFlag, "dir", strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")), "Read migrations from this directory instead of the embedded set")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(func(mg *migrator) error {
					if err := mg.result(mg.m.Up()); err != nil {
						return err
					}
					mg.logger.Info("migrations applied", "source", mg.source)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps, err := parseSteps(args)
				if err != nil {
					return err
				}
				return withMigrator(func(mg *migrator) error {
					if err := mg.result(mg.m.Steps(-steps)); err != nil {
						return err
					}
					mg.logger.Info("migrations rolled back", "steps", steps)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(func(mg *migrator) error {
					version, dirty, err := mg.m.Version()
					if errors.Is(err, migrate.ErrNilVersion) {
						fmt.Fprintln(cmd.OutOrStdout(), "version: none")
						fmt.Fprintln(cmd.OutOrStdout(), "dirty: false")
						return nil
					}
					if err != nil {
						return fmt.Errorf("read version: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version: %d\n", version)
					fmt.Fprintf(cmd.OutOrStdout(), "dirty: %t\n", dirty)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := parseVersion(args[0])
				if err != nil {
					return err
				}
				return withMigrator(func(mg *migrator) error {
					if err := mg.m.Force(version); err != nil {
						return fmt.Errorf("force version %d: %w", version, err)
					}
					mg.logger.Info("schema version forced", "version", version)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:     "goto <version>",
			Aliases: []string{"migrate"},
			Short:   "Migrate up or down to a target version",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				target, err := parseTarget(args[0])
				if err != nil {
					return err
				}
				return withMigrator(func(mg *migrator) error {
					if err := mg.result(mg.m.Migrate(target)); err != nil {
						return err
					}
					mg.logger.Info("migrated", "version", target)
					return nil
				})
			},
		},
	)

	return root
}

func openMigrator(dir, dbURL string, logger *logging.Logger) (*migrator, error) {
	var (
		m      *migrate.Migrate
		source string
		err    error
	)

	if dir = strings.TrimSpace(dir); dir != "" {
		abs, absErr := filepath.Abs(dir)
		if absErr != nil {
			return nil, fmt.Errorf("resolve migrations dir: %w", absErr)
		}
		if info, statErr := os.Stat(abs); statErr != nil || !info.IsDir() {
			return nil, fmt.Errorf("migrations dir %s not found", abs)
		}
		source = "file://" + filepath.ToSlash(abs)
		m, err = migrate.New(source, dbURL)
	} else {
		src, srcErr := iofs.New(db.Migrations, "migrations")
		if srcErr != nil {
			return nil, fmt.Errorf("open embedded migrations: %w", srcErr)
		}
		source = "embedded"
		m, err = migrate.NewWithSourceInstance("iofs", src, dbURL)
	}
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}

	return &migrator{m: m, source: source, logger: logger}, nil
}

// result treats ErrNoChange as success.
func (mg *migrator) result(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, migrate.ErrNoChange) {
		mg.logger.Info("no migration changes")
		return nil
	}
	return err
}

func (mg *migrator) close() {
	srcErr, dbErr := mg.m.Close()
	if srcErr != nil {
		mg.logger.Warn("close migration source failed", "error", srcErr)
	}
	if dbErr != nil {
		mg.logger.Warn("close migration db failed", "error", dbErr)
	}
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}

	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}

	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("version must be >= 0")
	}
	if value > int64(^uint(0)>>1) {
		return 0, fmt.Errorf("version is too large for this platform")
	}

	return int(value), nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}
