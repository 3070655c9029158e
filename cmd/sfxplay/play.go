package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/milk9111/sfxqueue/audio"
)

var (
	playLoop     bool
	playFilter   bool
	playVolume   float64
	playDuration time.Duration
)

var playCmd = &cobra.Command{
	Use:   "play <name>...",
	Short: "Play sounds by name",
	Long: `Queue each named sound and tick until --duration elapses or the process is interrupted.

Plain plays go through the command queues. --loop, --filter or --volume play
synchronously with explicit settings instead, since the queued path carries
no per-call settings.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playLoop, "loop", false, "loop the sounds until stopped")
	playCmd.Flags().BoolVar(&playFilter, "filter", false, "route through the low-pass filter track")
	playCmd.Flags().Float64Var(&playVolume, "volume", 1, "per-sound volume")
	playCmd.Flags().DurationVar(&playDuration, "duration", 2*time.Second, "how long to keep ticking")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	sys, err := openSystem(cmd)
	if err != nil {
		return err
	}
	defer closeSystem(cmd, sys)

	direct := playLoop || playFilter || cmd.Flags().Changed("volume")
	settings := audio.DefaultPlaybackSettings()
	settings.Looped = playLoop
	settings.Volume = playVolume
	if playFilter {
		settings.Track = audio.TrackFilter
	}

	out := cmd.OutOrStdout()
	for _, name := range args {
		id := sys.Catalog.ResolveName(name)
		if !direct {
			sys.Sounds.PlayByName(name, audio.PlaySoundParams{})
			fmt.Fprintf(out, "queued %s\n", id)
			continue
		}
		s := settings
		if err := sys.Coordinator.PlaySound(id, &s); err != nil {
			fmt.Fprintf(out, "play %s: %v\n", id, err)
			continue
		}
		fmt.Fprintf(out, "playing %s\n", id)
	}

	if err := runTicks(cmd.Context(), sys, playDuration, nil); err != nil {
		return err
	}
	for _, name := range args {
		sys.Sounds.StopByName(name)
	}
	fmt.Fprintf(out, "played %d tick(s), %d sound(s) still live\n", sys.Coordinator.Ticks(), sys.Coordinator.Registry().Len())
	return nil
}
