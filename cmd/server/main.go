package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gridhold/server/internal/app"
	"gridhold/server/internal/telemetry"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gridhold",
		Short:         "Tile world game server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), checkScriptsCmd(), versionCmd())
	return root
}

func serveCmd() *cobra.Command {
	var (
		addr    string
		tick    time.Duration
		scripts string
		defsDB  string
		pprof   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game server",
		Long:  `Run the game server. Settings come from GRIDHOLD_* environment variables; flags override them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(nil)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Addr = addr
			}
			if flags.Changed("tick") {
				cfg.TickInterval = tick
			}
			if flags.Changed("scripts") {
				cfg.ScriptsDir = scripts
			}
			if flags.Changed("definitions") {
				cfg.DefinitionsPath = defsDB
			}
			if flags.Changed("pprof") {
				cfg.EnablePprofTrace = pprof
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx, cfg, telemetry.WrapLogger(log.Default()))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().DurationVar(&tick, "tick", 600*time.Millisecond, "Simulation tick interval")
	cmd.Flags().StringVar(&scripts, "scripts", "", "Directory of Lua scripts")
	cmd.Flags().StringVar(&defsDB, "definitions", "", "SQLite definitions database")
	cmd.Flags().BoolVar(&pprof, "pprof", false, "Expose /debug/pprof")

	return cmd
}

func checkScriptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-scripts <dir>",
		Short: "Load every script in a directory and report failures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			logger := telemetry.LoggerFunc(func(format string, a ...any) {
				fmt.Fprintf(out, format+"\n", a...)
			})
			loaded, skipped, err := app.CheckScripts(args[0], logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d loaded, %d failed\n", len(loaded), len(skipped))
			if len(skipped) > 0 {
				return fmt.Errorf("%d scripts failed to load", len(skipped))
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gridhold %s (%s) %s\n", version, commit, runtime.Version())
		},
	}
}
