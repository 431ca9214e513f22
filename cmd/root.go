package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rowscope/rowscope/internal/aws"
	"github.com/rowscope/rowscope/internal/config"
	"github.com/rowscope/rowscope/internal/config/data"
	"github.com/rowscope/rowscope/internal/dao"
	"github.com/rowscope/rowscope/internal/view"
)

const appVersion = "0.1.0"

var (
	flags   *data.Flags
	rootCmd = &cobra.Command{
		Use:   config.AppName + " [SOURCE]",
		Short: "A virtualized table browser for very large collections",
		Long: `rowscope browses millions of rows by fetching only the window around the viewport.
SOURCE is an alias or a URI such as mem://?rows=1000000, sqlite:///tmp/db.sqlite?table=people
or s3://bucket/prefix.`,
		Args: cobra.MaximumNArgs(1),
		RunE: run,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", config.AppName, appVersion)
		},
	}
)

func init() {
	flags = config.NewFlags()
	initFlags()
	rootCmd.AddCommand(versionCmd, newDumpCmd())
}

func initFlags() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(flags.Source, "source", "s", "", "Source alias or URI to open")
	pf.Float32VarP(flags.RefreshRate, "refresh", "r", 0, fmt.Sprintf("Count retry interval in seconds (default %.0f)", config.DefaultRefreshRate))
	pf.IntVar(flags.Overscan, "overscan", 0, "Rows materialized beyond each viewport edge")
	pf.IntVar(flags.Prefetch, "prefetch", 0, "Rows fetched ahead in the scroll direction")
	pf.IntVar(flags.FetchWorkers, "workers", 0, "Concurrent fetch workers")
	pf.StringVar(flags.FetchTimeout, "fetch-timeout", "", "Per fetch timeout, e.g. 10s")
	pf.StringVar(flags.SelectionMode, "selection", "", "Selection mode: none, single or multiple")
	pf.StringVarP(flags.LogLevel, "logLevel", "l", "", "Log level (debug, info, warn, error)")
	pf.StringVar(flags.LogFile, "logFile", "", "Log file path")
	pf.BoolVar(flags.Headless, "headless", false, "Dump the first window to stdout instead of starting the UI")
	pf.StringVar(flags.Profile, "profile", "", "AWS profile to use")
	pf.StringVar(flags.Region, "region", "", "AWS region to use")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env is the wiring shared by the UI and the dump command.
type env struct {
	cfg     *config.Config
	aliases *config.Aliases
	hotKeys *config.HotKeys
	factory dao.Factory
	closeFn func()
}

func loadEnv() (*env, error) {
	if err := config.InitLocs(); err != nil {
		return nil, fmt.Errorf("failed to initialize locations: %w", err)
	}

	cfg := config.NewConfig()
	if err := cfg.Load(config.AppConfigFile, false); err != nil {
		return nil, err
	}

	pm, err := aws.NewProfileManager("")
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS profiles: %w", err)
	}
	if err := cfg.Refine(flags, pm); err != nil {
		if !errors.Is(err, aws.ErrInvalidProfile) {
			return nil, err
		}
		slog.Warn("AWS profile unresolved, S3 sources unavailable", "error", err)
	}

	logger, closer, err := config.NewLogger(cfg.Rowscope.Logger)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	aliases := config.NewAliases()
	if err := aliases.Load(); err != nil {
		slog.Warn("Aliases load failed", "error", err)
	}
	hk := config.NewHotKeys()
	if err := hk.Load(); err != nil {
		slog.Warn("Hotkeys load failed", "error", err)
	}

	e := env{
		cfg:     cfg,
		aliases: aliases,
		hotKeys: hk,
		factory: dao.NewFactory(nil),
		closeFn: func() { _ = closer.Close() },
	}
	timeout, err := cfg.Rowscope.GetFetchTimeout()
	if err != nil {
		return nil, err
	}
	client, err := aws.NewAPIClient(aws.ClientConfig{
		Profile: cfg.Rowscope.AWS.Profile,
		Region:  cmp.Or(cfg.Rowscope.AWS.Region, aws.DefaultRegion),
		Timeout: timeout,
	})
	if err != nil {
		slog.Warn("AWS client unavailable", "error", err)
	} else {
		e.factory = dao.NewFactory(client)
	}
	slog.Info("Rowscope starting",
		"version", appVersion,
		"profile", e.factory.Profile(),
		"region", e.factory.Region(),
	)

	return &e, nil
}

func run(_ *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.closeFn()

	src := e.cfg.Rowscope.Source()
	if len(args) == 1 {
		src = args[0]
	}
	if e.cfg.Rowscope.IsHeadless() {
		return dumpSource(context.Background(), e, src, dumpOptions{rows: defaultDumpRows, format: formatCSV}, os.Stdout)
	}

	app := view.NewApp(e.cfg, e.aliases, e.hotKeys, e.factory, appVersion)
	if err := app.Init(); err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	if err := app.Run(src); err != nil {
		slog.Error("Application failed", "error", err)
		return err
	}

	return nil
}
