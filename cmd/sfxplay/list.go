package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/milk9111/sfxqueue/assets"
	"github.com/milk9111/sfxqueue/audio"
	"github.com/milk9111/sfxqueue/catalog"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sounds and cues",
	Long:  `Display every sound in the catalog manifest with its file, volume and aliases, followed by the embedded cue scripts.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cat, err := catalog.New(assets.FS(cfg.Catalog.Dir), cfg.Catalog.Manifest, cfg.Audio.SampleRate)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	names := cat.Names()
	maxLen := 0
	for _, name := range names {
		maxLen = max(maxLen, len(name))
	}

	fmt.Fprintln(out, "Sounds:")
	for _, name := range names {
		e, _ := cat.Entry(audio.SoundID(name))
		vol := e.Volume
		if vol == 0 {
			vol = 1
		}
		line := fmt.Sprintf("  %-*s  %-24s  vol %.2f", maxLen, name, e.File, vol)
		if len(e.Aliases) > 0 {
			line += "  aka " + strings.Join(e.Aliases, ", ")
		}
		fmt.Fprintln(out, line)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Cues:")
	cues := assets.Cues()
	if len(cues) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, c := range cues {
		fmt.Fprintf(out, "  %s\n", c)
	}
	return nil
}
