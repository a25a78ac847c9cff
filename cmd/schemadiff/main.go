package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tordrt/schemadiff"
	"github.com/tordrt/schemadiff/ddl"
	"github.com/tordrt/schemadiff/schema"
)

var (
	dbURL            string
	mysqlURL         string
	sqlitePath       string
	targetDBURL      string
	targetMySQLURL   string
	targetSQLitePath string
	tableName        string
	schemaName       string
	targetSchemaName string
	dialectFlag      string
	verbose          bool
)

var rootCmd = &cobra.Command{
	Use:   "schemadiff",
	Short: "Diff a live database table against a desired shape and print migration SQL",
	Long: `Schemadiff introspects a table from PostgreSQL, MySQL, or SQLite and either
prints its shape, or diffs it against the same table in a target database and
prints the SQL statements that migrate the first into the second.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&dbURL, "db-url", "", "PostgreSQL connection string")
	rootCmd.Flags().StringVar(&mysqlURL, "mysql-url", "", "MySQL connection string")
	rootCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file path")
	rootCmd.Flags().StringVar(&targetDBURL, "target-db-url", "", "PostgreSQL connection string for the desired state")
	rootCmd.Flags().StringVar(&targetMySQLURL, "target-mysql-url", "", "MySQL connection string for the desired state")
	rootCmd.Flags().StringVar(&targetSQLitePath, "target-sqlite", "", "SQLite database file path for the desired state")
	rootCmd.Flags().StringVarP(&tableName, "table", "t", "", "Table to introspect (required)")
	rootCmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL)")
	rootCmd.Flags().StringVar(&targetSchemaName, "target-schema", "", "Schema name in the target database")
	rootCmd.Flags().StringVar(&dialectFlag, "dialect", "", "Rendering dialect: sqlite, postgres, or mysql (default: the source database's)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	_ = rootCmd.MarkFlagRequired("table")
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	sourceURL, err := databaseURL(dbURL, mysqlURL, sqlitePath)
	if err != nil {
		return err
	}
	if sourceURL == "" {
		return fmt.Errorf("one of --db-url, --mysql-url, or --sqlite must be specified")
	}

	targetURL, err := databaseURL(targetDBURL, targetMySQLURL, targetSQLitePath)
	if err != nil {
		return err
	}

	slog.Debug("introspecting table", "table", tableName, "url", sourceURL)
	current, err := schemadiff.IntrospectTable(ctx, sourceURL, tableName, &schemadiff.Options{SchemaName: schemaName})
	if err != nil {
		return fmt.Errorf("failed to introspect table: %w", err)
	}

	// Without a target database, just print the introspected shape.
	if targetURL == "" {
		printTable(os.Stdout, current)
		return nil
	}

	dialect, err := renderDialect(sourceURL)
	if err != nil {
		return err
	}

	slog.Debug("introspecting target table", "table", tableName, "url", targetURL)
	expected, err := schemadiff.IntrospectTable(ctx, targetURL, tableName, &schemadiff.Options{SchemaName: targetSchemaName})
	if err != nil {
		return fmt.Errorf("failed to introspect target table: %w", err)
	}

	ops, err := schemadiff.Diff(current, expected)
	if err != nil {
		return fmt.Errorf("failed to diff tables: %w", err)
	}
	slog.Debug("diff complete", "operations", len(ops))

	stmts, err := ddl.RenderAll(dialect, ops)
	if err != nil {
		return fmt.Errorf("failed to render migration: %w", err)
	}

	for _, stmt := range stmts {
		slog.Debug("statement", "sql", stmt)
		fmt.Fprintf(os.Stdout, "%s;\n", stmt)
	}
	return nil
}

// databaseURL folds the three per-database flags into one connection URL,
// rejecting combinations where more than one is set.
func databaseURL(pgURL, myURL, sqlite string) (string, error) {
	count := 0
	for _, v := range []string{pgURL, myURL, sqlite} {
		if v != "" {
			count++
		}
	}
	if count > 1 {
		return "", fmt.Errorf("only one database may be specified per side")
	}
	switch {
	case pgURL != "":
		return pgURL, nil
	case myURL != "":
		if !strings.HasPrefix(myURL, "mysql://") {
			myURL = "mysql://" + myURL
		}
		return myURL, nil
	case sqlite != "":
		return "sqlite://" + sqlite, nil
	default:
		return "", nil
	}
}

// renderDialect resolves --dialect, defaulting to the source database's own.
func renderDialect(sourceURL string) (ddl.Dialect, error) {
	switch dialectFlag {
	case "":
		return schemadiff.DialectForURL(sourceURL)
	case "sqlite":
		return ddl.SQLite, nil
	case "postgres", "postgresql":
		return ddl.Postgres, nil
	case "mysql":
		return ddl.MySQL, nil
	default:
		return "", fmt.Errorf("invalid dialect: %s (must be 'sqlite', 'postgres', or 'mysql')", dialectFlag)
	}
}

// printTable writes a compact text rendering of a table shape.
func printTable(w io.Writer, t *schema.Table) {
	pkStr := ""
	if t.PrimaryKey != nil && len(t.PrimaryKey.Columns) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(t.PrimaryKey.Columns, ", "))
	}
	_, _ = fmt.Fprintf(w, "TABLE %s%s\n", t.Name, pkStr)

	for _, col := range t.Columns {
		_, _ = fmt.Fprintf(w, "  %s\n", formatColumn(col))
	}

	if len(t.Uniques) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "  UNIQUE:")
		for _, uq := range t.Uniques {
			_, _ = fmt.Fprintf(w, "    %s (%s)\n", uq.Name, strings.Join(uq.Columns, ", "))
		}
	}

	if len(t.ForeignKeys) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "  FOREIGN KEYS:")
		for _, fk := range t.ForeignKeys {
			_, _ = fmt.Fprintf(w, "    %s (%s) → %s (%s)\n",
				fk.Name, strings.Join(fk.Columns, ", "), fk.RefTable, strings.Join(fk.RefColumns, ", "))
		}
	}

	if len(t.Indexes) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "  INDEXES:")
		for _, idx := range t.Indexes {
			unique := ""
			if idx.Unique {
				unique = " UNIQUE"
			}
			_, _ = fmt.Fprintf(w, "    %s (%s)%s\n", idx.Name, strings.Join(idx.Columns, ", "), unique)
		}
	}
}

func formatColumn(col schema.Column) string {
	parts := []string{col.Name + ":"}

	typeStr := col.Type.Raw
	if typeStr == "" {
		typeStr = string(col.Type.Kind)
		if col.Type.Length > 0 {
			typeStr = fmt.Sprintf("%s(%d)", typeStr, col.Type.Length)
		}
	}
	parts = append(parts, typeStr)

	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}

	if col.Default != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT %s", *col.Default))
	}

	return strings.Join(parts, " ")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
