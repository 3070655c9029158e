// Package assets embeds the demo sound bank: sounds.yaml, the WAV files it
// lists and the cue scripts under cues/.
package assets

import (
	"embed"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/milk9111/sfxqueue/catalog"
)

//go:embed sounds.yaml sfx/*.wav music/*.wav cues/*.tengo
var assetsFS embed.FS

// Manifest is the path of the embedded catalog manifest.
const Manifest = "sounds.yaml"

// FS returns the embedded bank. When dir is set, files under dir shadow the
// embedded ones so sounds can be edited without a rebuild.
func FS(dir string) fs.FS {
	if dir == "" {
		return assetsFS
	}
	return catalog.NewOverlay(dir, assetsFS)
}

// Cues lists the embedded cue names without directory or extension.
func Cues() []string {
	entries, err := fs.ReadDir(assetsFS, "cues")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	return out
}
