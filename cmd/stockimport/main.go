// Command stockimport validates and submits product import files from the shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/stockstage/internal/config"
	"github.com/JonMunkholm/stockstage/internal/core"
	"github.com/JonMunkholm/stockstage/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// errIncomplete is returned when some records were blocked, skipped or
// rejected, so the process exits non-zero.
var errIncomplete = errors.New("import incomplete")

// stageFlags are shared by every command that reads a file.
type stageFlags struct {
	header     bool
	columns    []string
	delimiter  string
	lazyQuotes bool
	maxSize    int64
}

func newRootCmd() *cobra.Command {
	var logLevel string
	env := &config.Config{}

	root := &cobra.Command{
		Use:   "stockimport",
		Short: "Validate and submit bulk product import files",
		Long: `stockimport stages a delimited product file, reports every row that needs
correction, and submits the clean rows to the inventory.

Settings not given as flags are read from the environment (.env is loaded):
IMPORT_DELIMITER, IMPORT_LAZY_QUOTES, IMPORT_POSITIONAL_COLUMNS,
IMPORT_MAX_FILE_SIZE, INVENTORY_BACKEND, INVENTORY_URL, INVENTORY_TIMEOUT,
DATABASE_URL and DB_ENSURE_SCHEMA.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))

			loaded, err := config.Read()
			if err != nil {
				return err
			}
			*env = *loaded
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(validateCmd(env))
	root.AddCommand(submitCmd(env))
	return root
}

func addStageFlags(cmd *cobra.Command, f *stageFlags) {
	cmd.Flags().BoolVar(&f.header, "header", true, "first row is a header")
	cmd.Flags().StringSliceVar(&f.columns, "columns", nil, "column order for files without a header (env IMPORT_POSITIONAL_COLUMNS, default: schema order)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", ",", "field delimiter (env IMPORT_DELIMITER)")
	cmd.Flags().BoolVar(&f.lazyQuotes, "lazy-quotes", false, "tolerate stray quotes (env IMPORT_LAZY_QUOTES)")
	cmd.Flags().Int64Var(&f.maxSize, "max-size", core.DefaultMaxFileSize, "largest accepted file in bytes (env IMPORT_MAX_FILE_SIZE)")
}

// applyEnv fills every flag the user did not set from the environment.
func (f *stageFlags) applyEnv(cmd *cobra.Command, c config.ImportConfig) {
	flags := cmd.Flags()
	if !flags.Changed("columns") && len(c.PositionalColumns) > 0 {
		f.columns = c.PositionalColumns
	}
	if !flags.Changed("delimiter") && c.Delimiter != "" {
		f.delimiter = c.Delimiter
	}
	if !flags.Changed("lazy-quotes") {
		f.lazyQuotes = c.LazyQuotes
	}
	if !flags.Changed("max-size") && c.MaxFileSize > 0 {
		f.maxSize = c.MaxFileSize
	}
}

// stage reads path into a new store.
func stage(path string, f stageFlags) (*core.Store, core.BatchSummary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, core.BatchSummary{}, fmt.Errorf("open %s: %w", path, err)
	}
	if info.Size() > f.maxSize {
		return nil, core.BatchSummary{}, fmt.Errorf("%w: %s is %d bytes", core.ErrFileTooLarge, path, info.Size())
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, core.BatchSummary{}, fmt.Errorf("read %s: %w", path, err)
	}

	comma, err := parseDelimiter(f.delimiter)
	if err != nil {
		return nil, core.BatchSummary{}, err
	}

	var columns []string
	for _, c := range f.columns {
		if c = strings.TrimSpace(c); c != "" {
			columns = append(columns, c)
		}
	}
	mapper, err := core.NewMapper(core.ProductSchema(), columns)
	if err != nil {
		return nil, core.BatchSummary{}, err
	}

	table, err := core.CSVReader{Comma: comma, LazyQuotes: f.lazyQuotes}.Read(content, f.header)
	if err != nil {
		return nil, core.BatchSummary{}, err
	}

	store := core.NewStore(mapper)
	summary, err := store.LoadBatch(table)
	if err != nil {
		return nil, core.BatchSummary{}, err
	}
	slog.Debug("file staged", "file", path, "total", summary.Total, "blocked", summary.Blocked)
	return store, summary, nil
}

// parseDelimiter accepts a single character, or `\t` or "tab" for a tab.
func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return r[0], nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errIncomplete) {
			msg := err.Error()
			if core.IsUserFacing(err) {
				msg = core.FormatUserError(err) + "\n" + err.Error()
			}
			fmt.Fprintln(os.Stderr, errorStyle.Render(msg))
		}
		os.Exit(1)
	}
}
