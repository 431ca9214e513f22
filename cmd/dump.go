package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rowscope/rowscope/internal/config"
	"github.com/rowscope/rowscope/internal/config/data"
	"github.com/rowscope/rowscope/internal/model"
	"github.com/rowscope/rowscope/internal/view"
)

const (
	formatCSV       = "csv"
	formatJSON      = "json"
	defaultDumpRows = 100
)

type dumpOptions struct {
	first  int
	rows   int
	format string
	out    string
}

func newDumpCmd() *cobra.Command {
	var opts dumpOptions
	cmd := cobra.Command{
		Use:   "dump [SOURCE]",
		Short: "Fetch one window of rows and write it as CSV or JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.closeFn()

			src := e.cfg.Rowscope.Source()
			if len(args) == 1 {
				src = args[0]
			}
			if opts.out == "-" {
				return dumpSource(cmd.Context(), e, src, opts, cmd.OutOrStdout())
			}

			path := opts.out
			if path == "" {
				path = filepath.Join(config.AppDumpsDir, data.DumpFileName(src, opts.format))
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create dump file: %w", err)
			}
			defer func() { _ = f.Close() }()
			if err := dumpSource(cmd.Context(), e, src, opts, f); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Dumped %s to %s\n", src, path)

			return nil
		},
	}
	cmd.Flags().IntVar(&opts.first, "first", 0, "Index of the first row")
	cmd.Flags().IntVarP(&opts.rows, "rows", "n", defaultDumpRows, "Number of rows")
	cmd.Flags().StringVarP(&opts.format, "format", "o", formatCSV, "Output format: csv or json")
	cmd.Flags().StringVar(&opts.out, "out", "", "Output file, - for stdout (default under the dumps dir)")

	return &cmd
}

func dumpSource(ctx context.Context, e *env, src string, opts dumpOptions, w io.Writer) error {
	uri := e.aliases.Resolve(src)
	g, err := view.OpenGrid(ctx, e.cfg, e.factory, uri)
	if err != nil {
		return err
	}
	defer func() {
		g.Close()
		if err := g.Provider().Close(); err != nil {
			slog.Warn("Provider close failed", "error", err)
		}
	}()

	timeout, err := e.cfg.Rowscope.GetFetchTimeout()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return dumpWindow(ctx, g, opts, w)
}

// dumpWindow loads rows [first, first+rows) through the grid and writes them.
func dumpWindow(ctx context.Context, g *model.Grid, opts dumpOptions, w io.Writer) error {
	if err := g.Reset(ctx); err != nil {
		return err
	}
	rh := g.Options().RowHeight
	if err := g.SetViewport(opts.first*rh, opts.rows*rh); err != nil {
		return err
	}
	for len(g.Cache().InFlight()) > 0 {
		if err := g.Cache().Next(ctx); err != nil {
			return fmt.Errorf("dump: %w", err)
		}
	}

	cols := g.Columns()
	last := min(opts.first+opts.rows, g.Count())
	records := make([][]string, 0, max(last-opts.first, 0))
	for i := opts.first; i < last; i++ {
		it := g.Item(i)
		if it.Placeholder() {
			return fmt.Errorf("dump: row %d could not be fetched", i)
		}
		rec := make([]string, len(cols))
		for c, col := range cols {
			rec[c] = col.Value(it.Row)
		}
		records = append(records, rec)
	}

	switch opts.format {
	case formatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(cols.Keys()); err != nil {
			return err
		}
		if err := cw.WriteAll(records); err != nil {
			return fmt.Errorf("dump: %w", err)
		}
		return nil
	case formatJSON:
		keys := cols.Keys()
		rows := make([]map[string]string, len(records))
		for i, rec := range records {
			rows[i] = make(map[string]string, len(keys))
			for c, k := range keys {
				rows[i][k] = rec[c]
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	default:
		return fmt.Errorf("dump: unknown format %q", opts.format)
	}
}
