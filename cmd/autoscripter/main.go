package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"autoscripter/internal/app"
	"autoscripter/internal/settings"

	clog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type flags struct {
	configPath string
	logPath    string
	debug      bool
	seedPath   string
	journal    string
	demo       string
	devHTTP    string
	ascii      bool
	motion     string
	listen     string
	theme      string
}

func main() {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "autoscripter"})
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		logger.Error("exit", "err", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:           "autoscripter",
		Short:         "Universal Auto Scripter IDE in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, f, out)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "YAML config file")
	pf.StringVar(&f.logPath, "log-path", "", "write JSON logs to this file")
	pf.BoolVar(&f.debug, "debug", false, "enable debug logging")
	pf.StringVar(&f.seedPath, "seed", "", "workspace seed YAML (defaults to the built-in project)")
	pf.StringVar(&f.journal, "journal", "", "SQLite journal path (in memory when empty)")
	pf.StringVar(&f.theme, "theme", "", "initial theme: dark, light, monokai or nord")

	root.Flags().StringVar(&f.demo, "demo", "", "apply a demo scenario by name or YAML path")
	root.Flags().StringVar(&f.devHTTP, "dev-http", "", "serve /__dev endpoints on this address")
	root.Flags().BoolVar(&f.ascii, "ascii", false, "draw borders with ASCII only")
	root.Flags().StringVar(&f.motion, "motion", "", "animation level: off, reduced or full")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Host sessions over HTTP and WebSocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, f)
		},
	}
	serve.Flags().StringVar(&f.listen, "listen", "", "listen address")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Print totals recorded in the journal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			text, err := app.JournalRecap(cmd.Context(), cfg.JournalPath)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, text)
			return err
		},
	}

	root.AddCommand(serve, stats)
	return root
}

// loadConfig layers defaults, the config file, the environment and then
// flags that were set explicitly.
func loadConfig(cmd *cobra.Command, f flags) (app.Config, error) {
	if err := app.LoadDotEnv(".env"); err != nil {
		return app.Config{}, err
	}
	cfg := app.DefaultConfig()
	if err := cfg.LoadFile(f.configPath); err != nil {
		return app.Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return app.Config{}, err
	}

	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("log-path") {
		cfg.LogPath = f.logPath
	}
	if changed("debug") {
		cfg.Debug = f.debug
	}
	if changed("seed") {
		cfg.SeedPath = f.seedPath
	}
	if changed("journal") {
		cfg.JournalPath = f.journal
	}
	if changed("theme") {
		cfg.Settings.Theme = settings.Theme(f.theme)
	}
	if changed("demo") {
		cfg.DemoScenario = f.demo
	}
	if changed("dev-http") {
		cfg.DevHTTP = f.devHTTP
	}
	if changed("ascii") {
		cfg.ASCIIOnly = f.ascii
	}
	if changed("motion") {
		cfg.MotionLevel = f.motion
	}
	if changed("listen") {
		cfg.ListenAddr = f.listen
	}
	if err := cfg.Validate(); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}

func runTUI(cmd *cobra.Command, f flags, out io.Writer) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runErr := a.Run(ctx)
	a.Close()

	if text, err := a.Recap(context.Background()); err == nil {
		_, _ = fmt.Fprintln(out, text)
	}
	return runErr
}

func runServe(cmd *cobra.Command, f flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	a, err := app.NewServer(cfg)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx)
}
