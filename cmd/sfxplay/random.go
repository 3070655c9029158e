package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/milk9111/sfxqueue/audio"
)

var (
	randomTimes    int
	randomInterval time.Duration
	randomVolume   float64
)

var randomCmd = &cobra.Command{
	Use:   "random <base> <count>",
	Short: "Play random variants of a sound",
	Long:  `Pick one of <base>-1 .. <base>-<count> uniformly and play it, --times times, --interval apart.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runRandom,
}

func init() {
	randomCmd.Flags().IntVar(&randomTimes, "times", 4, "number of variants to play")
	randomCmd.Flags().DurationVar(&randomInterval, "interval", 300*time.Millisecond, "delay between variants")
	randomCmd.Flags().Float64Var(&randomVolume, "volume", 1, "per-variant volume")
	rootCmd.AddCommand(randomCmd)
}

func runRandom(cmd *cobra.Command, args []string) error {
	count, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("count %q: %w", args[1], err)
	}
	if count < 1 {
		return fmt.Errorf("count must be >= 1, got %d", count)
	}

	sys, err := openSystem(cmd)
	if err != nil {
		return err
	}
	defer closeSystem(cmd, sys)

	settings := audio.DefaultPlaybackSettings()
	settings.Volume = randomVolume
	out := cmd.OutOrStdout()
	for i := 0; i < randomTimes; i++ {
		if err := cmd.Context().Err(); err != nil {
			return nil
		}
		id := sys.Sounds.PlayRandomVariant(args[0], count, settings)
		fmt.Fprintf(out, "%d: %s\n", i+1, id)
		if err := runTicks(cmd.Context(), sys, randomInterval, nil); err != nil {
			return err
		}
	}
	return nil
}
