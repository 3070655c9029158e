package catalog

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/sfxqueue/audio"
)

// Entry describes one sound in the manifest.
type Entry struct {
	Name    string   `yaml:"name"`
	File    string   `yaml:"file"`
	Volume  float64  `yaml:"volume"`
	Aliases []string `yaml:"aliases"`
	Tags    []string `yaml:"tags"`
}

// Manifest lists the sounds a catalog knows about.
type Manifest struct {
	Sounds []Entry `yaml:"sounds"`
	// Variants expands "base: n" into base-1..base-n using the pattern
	// "<dir>/<base>-<i>.<ext>".
	Variants []VariantGroup `yaml:"variants"`
}

// VariantGroup declares a numbered family of sounds such as footstep-1..3.
type VariantGroup struct {
	Base   string  `yaml:"base"`
	Count  int     `yaml:"count"`
	Dir    string  `yaml:"dir"`
	Ext    string  `yaml:"ext"`
	Volume float64 `yaml:"volume"`
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(name string, data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("catalog: unmarshal %s: %w", name, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", name, err)
	}
	return &m, nil
}

// Entries returns explicit entries followed by expanded variants.
func (m *Manifest) Entries() []Entry {
	out := append([]Entry(nil), m.Sounds...)
	for _, g := range m.Variants {
		ext := strings.TrimPrefix(g.Ext, ".")
		if ext == "" {
			ext = "wav"
		}
		for i := 1; i <= g.Count; i++ {
			name := string(audio.VariantID(g.Base, i))
			file := fmt.Sprintf("%s.%s", name, ext)
			if g.Dir != "" {
				file = strings.TrimSuffix(g.Dir, "/") + "/" + file
			}
			out = append(out, Entry{Name: name, File: file, Volume: g.Volume})
		}
	}
	return out
}

func (m *Manifest) validate() error {
	seen := make(map[audio.SoundID]string)
	claim := func(name, owner string) error {
		id := audio.NewSoundID(name)
		if id == "" {
			return fmt.Errorf("%s: empty name", owner)
		}
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%s: name %q already used by %s", owner, id, prev)
		}
		seen[id] = owner
		return nil
	}

	for i, g := range m.Variants {
		if strings.TrimSpace(g.Base) == "" {
			return fmt.Errorf("variant group %d: base is required", i)
		}
		if g.Count < 1 {
			return fmt.Errorf("variant group %d (%s): count must be >= 1", i, g.Base)
		}
	}
	for i, e := range m.Entries() {
		owner := fmt.Sprintf("sound %d", i)
		if err := claim(e.Name, owner); err != nil {
			return err
		}
		if strings.TrimSpace(e.File) == "" {
			return fmt.Errorf("%s (%s): file is required", owner, e.Name)
		}
		if e.Volume < 0 {
			return fmt.Errorf("%s (%s): volume must be >= 0", owner, e.Name)
		}
		for _, alias := range e.Aliases {
			if err := claim(alias, owner+" alias"); err != nil {
				return err
			}
		}
	}
	return nil
}
