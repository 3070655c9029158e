package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/milk9111/sfxqueue/config"
	"github.com/milk9111/sfxqueue/sfx"
	"github.com/milk9111/sfxqueue/telemetry"
)

var (
	cfg      config.Config
	shutdown = func(context.Context) error { return nil }

	flagConfig  string
	flagBackend string
	flagDir     string
	flagTPS     int
	flagTrace   bool
)

var rootCmd = &cobra.Command{
	Use:          "sfxplay",
	Short:        "Play catalog sounds from the terminal",
	Long:         `Resolve sounds from the embedded bank (or a directory shadowing it) and play them through the deferred command queues.`,
	SilenceUsage: true,

	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "path to a YAML config file")
	pf.StringVar(&flagBackend, "backend", "", "audio backend: ebiten, mock or none")
	pf.StringVar(&flagDir, "dir", "", "directory whose sounds shadow the embedded bank")
	pf.IntVar(&flagTPS, "tps", 0, "ticks per second (default from config)")
	pf.BoolVar(&flagTrace, "trace", false, "print process_sounds spans to stdout")
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagBackend != "" {
		c.Audio.Backend = strings.ToLower(flagBackend)
	}
	if flagDir != "" {
		c.Catalog.Dir = flagDir
	}
	if flagTPS > 0 {
		c.Audio.TPS = flagTPS
	}
	c.Trace.Enabled = c.Trace.Enabled || flagTrace
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	sd, err := telemetry.Setup(cmd.Context(), cfg.Trace)
	if err != nil {
		return err
	}
	shutdown = sd
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	return shutdown(context.Background())
}

// openSystem builds the audio system with log output going to the command's
// error stream.
func openSystem(cmd *cobra.Command) (*sfx.System, error) {
	logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	return sfx.Open(cfg, sfx.WithLogger(logger))
}

// runTicks ticks sys at the configured rate until done reports true, the
// context is cancelled or limit elapses. A zero limit means no limit.
func runTicks(ctx context.Context, sys *sfx.System, limit time.Duration, done func() bool) error {
	ticker := time.NewTicker(cfg.Audio.TickInterval())
	defer ticker.Stop()

	var deadline <-chan time.Time
	if limit > 0 {
		timer := time.NewTimer(limit)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline:
			return nil
		case <-ticker.C:
			sys.Tick()
			if done != nil && done() {
				return nil
			}
		}
	}
}

func closeSystem(cmd *cobra.Command, sys *sfx.System) {
	// one more tick so queued stops reach the engine before it is released
	sys.Tick()
	if err := sys.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "close: %v\n", err)
	}
}
