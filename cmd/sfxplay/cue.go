package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cueTimeout time.Duration

var cueCmd = &cobra.Command{
	Use:   "cue <name>",
	Short: "Run a cue script",
	Long:  `Load cues/<name>.tengo and tick until the script calls finish() or --timeout elapses.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCue,
}

func init() {
	cueCmd.Flags().DurationVar(&cueTimeout, "timeout", 30*time.Second, "give up after this long")
	rootCmd.AddCommand(cueCmd)
}

func runCue(cmd *cobra.Command, args []string) error {
	sys, err := openSystem(cmd)
	if err != nil {
		return err
	}
	defer closeSystem(cmd, sys)

	r, err := sys.StartCue(args[0])
	if err != nil {
		return err
	}
	if err := runTicks(cmd.Context(), sys, cueTimeout, func() bool { return sys.Cues() == 0 }); err != nil {
		return err
	}

	status := "finished"
	if !r.Done() {
		status = "stopped"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cue %s %s after %d tick(s)\n", r.Name(), status, sys.Coordinator.Ticks())
	return nil
}
