package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/HitTheRhythm/movieshop"
	"github.com/HitTheRhythm/movieshop/internal/config"
	"github.com/HitTheRhythm/movieshop/internal/formatter"
	"github.com/HitTheRhythm/movieshop/internal/logger"
	"github.com/HitTheRhythm/movieshop/internal/migrate"
	"github.com/HitTheRhythm/movieshop/internal/schema"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// cliOptions holds the flag values of one command tree
type cliOptions struct {
	dbURL      string
	mysqlURL   string
	sqlitePath string
	schemaName string
	logLevel   string
	envFile    string

	outputFile     string
	outputDir      string
	tables         string
	format         string
	dialect        string
	splitThreshold int

	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "movieshop",
		Short:         "Manage the movie shop database schema",
		Long:          `movieshop renders the movie shop schema as DDL for PostgreSQL, MySQL or SQLite, creates it in a database and reports drift between a database and the declaration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.loadConfig()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.dbURL, "db-url", "", "PostgreSQL connection URL (env "+config.EnvDatabaseURL+")")
	pf.StringVar(&opts.mysqlURL, "mysql-url", "", "MySQL connection string (env "+config.EnvMySQLURL+")")
	pf.StringVar(&opts.sqlitePath, "sqlite", "", "SQLite database file path (env "+config.EnvSQLitePath+")")
	pf.StringVarP(&opts.schemaName, "schema", "s", "", "Database schema name (default: current schema for PostgreSQL, database name for MySQL)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (env "+config.EnvLogLevel+")")
	pf.StringVar(&opts.envFile, "env-file", ".env", "File with environment defaults, ignored when missing")

	rootCmd.AddCommand(
		newDDLCmd(opts),
		newDescribeCmd(opts),
		newMigrateCmd(opts),
		newVerifyCmd(opts),
	)

	return rootCmd
}

func newDDLCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print the CREATE statements for a dialect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutput(cmd.OutOrStdout(), opts.outputFile, func(w io.Writer) error {
				return movieshop.GenerateDDL(opts.dialect, w)
			})
		},
	}
	cmd.Flags().StringVar(&opts.dialect, "dialect", "postgres", "SQL dialect: postgres, mysql or sqlite")
	cmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newDescribeCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Describe the declared schema, or a live database when one is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.outputFile, "output", "o", "", "Output file (default: stdout)")
	f.StringVarP(&opts.outputDir, "output-dir", "d", "", "Output directory for multi-file output")
	f.StringVarP(&opts.tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	f.StringVarP(&opts.format, "format", "f", "text", "Output format: text or markdown")
	f.IntVar(&opts.splitThreshold, "split-threshold", 0, "Split into multiple files when table count exceeds this (requires --output-dir)")
	return cmd
}

func newMigrateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the declared tables; existing tables are left alone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolveDatabaseURL(opts.dbURL, opts.mysqlURL, opts.sqlitePath)
			if err != nil {
				return err
			}

			return movieshop.Migrate(cmd.Context(), url, &movieshop.Options{
				SchemaName: opts.schemaName,
				Logger:     opts.log.WithField("command", "migrate"),
			})
		},
	}
}

func newVerifyCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Report differences between a database and the declaration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := resolveDatabaseURL(opts.dbURL, opts.mysqlURL, opts.sqlitePath)
			if err != nil {
				return err
			}

			drifts, err := movieshop.Verify(cmd.Context(), url, &movieshop.Options{SchemaName: opts.schemaName})
			for _, d := range drifts {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			if err != nil {
				if errors.Is(err, migrate.ErrSchemaDrift) {
					opts.log.WithField("differences", len(drifts)).Error("database does not match the declared schema")
				}
				return err
			}

			opts.log.Info("database matches the declared schema")
			return nil
		},
	}
}

// loadConfig fills unset connection flags from the environment
func (o *cliOptions) loadConfig() error {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", o.envFile, err)
	}

	if o.dbURL == "" && o.mysqlURL == "" && o.sqlitePath == "" {
		o.dbURL = cfg.DatabaseURL
		o.mysqlURL = cfg.MySQLURL
		o.sqlitePath = cfg.SQLitePath
	}
	if o.schemaName == "" {
		o.schemaName = cfg.Schema
	}
	if o.logLevel == "" {
		o.logLevel = cfg.LogLevel
	}

	o.log = logger.New(o.logLevel)
	return nil
}

func runDescribe(cmd *cobra.Command, opts *cliOptions) error {
	tableList := parseTableList(opts.tables)

	var s *schema.Schema
	url, err := resolveDatabaseURL(opts.dbURL, opts.mysqlURL, opts.sqlitePath)
	switch {
	case errors.Is(err, errNoDatabase):
		s = selectTables(movieshop.Declaration(), tableList)
	case err != nil:
		return err
	default:
		s, err = movieshop.ExtractSchema(cmd.Context(), url, &movieshop.Options{
			Tables:     tableList,
			SchemaName: opts.schemaName,
		})
		if err != nil {
			return fmt.Errorf("failed to extract schema: %w", err)
		}
	}

	// Validate flag combinations
	if opts.outputDir != "" && opts.outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}

	// Multi-file output
	if opts.outputDir != "" && (opts.splitThreshold == 0 || len(s.Tables) > opts.splitThreshold) {
		if err := formatter.NewMultiFileFormatter(opts.outputDir, opts.format).Format(s); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		return nil
	}

	return withOutput(cmd.OutOrStdout(), opts.outputFile, func(w io.Writer) error {
		var err error
		switch opts.format {
		case "text":
			err = formatter.NewTextFormatter(w).Format(s)
		case "markdown":
			err = formatter.NewMarkdownFormatter(w).Format(s)
		default:
			return fmt.Errorf("invalid format: %s (must be 'text' or 'markdown')", opts.format)
		}
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		return nil
	})
}

var errNoDatabase = errors.New("one of --db-url, --mysql-url, or --sqlite must be specified")

// resolveDatabaseURL turns the connection flags into a database URL
func resolveDatabaseURL(dbURL, mysqlURL, sqlitePath string) (string, error) {
	dbCount := 0
	for _, v := range []string{dbURL, mysqlURL, sqlitePath} {
		if v != "" {
			dbCount++
		}
	}
	if dbCount == 0 {
		return "", errNoDatabase
	}
	if dbCount > 1 {
		return "", fmt.Errorf("only one of --db-url, --mysql-url, or --sqlite can be specified")
	}

	switch {
	case dbURL != "":
		return dbURL, nil
	case mysqlURL != "":
		return "mysql://" + strings.TrimPrefix(mysqlURL, "mysql://"), nil
	default:
		return "sqlite://" + strings.TrimPrefix(sqlitePath, "sqlite://"), nil
	}
}

// parseTableList splits a comma-separated table list
func parseTableList(tables string) []string {
	if tables == "" {
		return nil
	}

	tableList := strings.Split(tables, ",")
	for i, t := range tableList {
		tableList[i] = strings.TrimSpace(t)
	}
	return tableList
}

// selectTables keeps the named tables of s in the order given. No names keeps every table.
func selectTables(s *schema.Schema, names []string) *schema.Schema {
	if len(names) == 0 {
		return s
	}

	selected := &schema.Schema{}
	for _, name := range names {
		if t := s.Table(name); t != nil {
			selected.Tables = append(selected.Tables, *t)
		}
	}
	return selected
}

// withOutput runs fn against the named file, or against stdout when name is empty
func withOutput(stdout io.Writer, name string, fn func(io.Writer) error) error {
	if name == "" {
		return fn(stdout)
	}

	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
