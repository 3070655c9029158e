package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/milk9111/sfxqueue/audio"
)

// noEnv points Load at an env file that does not exist.
func noEnv(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", noEnv(t))
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
	require.Equal(t, time.Second/60, cfg.Audio.TickInterval())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeFile(t, "sfxqueue.yaml", `
audio:
  backend: Mock
  master_volume: 0.6
  stop_fade: 250ms
  tps: 30
catalog:
  dir: ./sounds
  watch: true
  cache_ttl: 5m
trace:
  enabled: true
`)
	t.Setenv("SFXQUEUE_AUDIO_MASTER_VOLUME", "0.3")

	cfg, err := Load(path, noEnv(t))
	require.NoError(t, err)
	require.Equal(t, BackendMock, cfg.Audio.Backend)
	require.Equal(t, 0.3, cfg.Audio.MasterVolume)
	require.Equal(t, 250*time.Millisecond, cfg.Audio.StopFade)
	require.Equal(t, 30, cfg.Audio.TPS)
	require.Equal(t, 44100, cfg.Audio.SampleRate)
	require.Equal(t, "./sounds", cfg.Catalog.Dir)
	require.True(t, cfg.Catalog.Watch)
	require.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
	require.True(t, cfg.Trace.Enabled)
	require.Equal(t, "stdout", cfg.Trace.Output)
}

func TestLoadDotEnv(t *testing.T) {
	const key = "SFXQUEUE_AUDIO_BACKEND"
	_, had := os.LookupEnv(key)
	require.False(t, had, "%s must not be set for this test", key)
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	env := writeFile(t, "test.env", key+"=none\n")
	cfg, err := Load("", env)
	require.NoError(t, err)
	require.Equal(t, BackendNone, cfg.Audio.Backend)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), noEnv(t))
	require.Error(t, err)

	bad := writeFile(t, "bad.yaml", "audio:\n  master_volume: 2\n")
	_, err = Load(bad, noEnv(t))
	require.ErrorContains(t, err, "master_volume")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"silent", func(c *Config) { c.Audio.MasterVolume = 0 }, true},
		{"loud", func(c *Config) { c.Audio.MasterVolume = 1.01 }, false},
		{"negative volume", func(c *Config) { c.Audio.MasterVolume = -0.1 }, false},
		{"unknown backend", func(c *Config) { c.Audio.Backend = "alsa" }, false},
		{"zero rate", func(c *Config) { c.Audio.SampleRate = 0 }, false},
		{"negative cutoff", func(c *Config) { c.Audio.FilterCutoff = -1 }, false},
		{"negative fade", func(c *Config) { c.Audio.StopFade = -time.Millisecond }, false},
		{"zero fade", func(c *Config) { c.Audio.StopFade = 0 }, false},
		{"zero volume tween", func(c *Config) { c.Audio.VolumeTween = 0 }, false},
		{"short fade", func(c *Config) { c.Audio.StopFade = time.Millisecond }, true},
		{"zero tps", func(c *Config) { c.Audio.TPS = 0 }, false},
		{"no manifest", func(c *Config) { c.Catalog.Manifest = " " }, false},
		{"negative ttl", func(c *Config) { c.Catalog.CacheTTL = -time.Second }, false},
		{"trace without output", func(c *Config) { c.Trace.Enabled = true; c.Trace.Output = "" }, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Defaults()
			c.mutate(&cfg)
			err := cfg.Validate()
			if c.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestAudioOptions(t *testing.T) {
	cfg := Defaults()
	cfg.Audio.StopFade = 40 * time.Millisecond
	cfg.Audio.FilterCutoff = 250

	opts := cfg.Audio.Options(nil)
	require.Equal(t, audio.Tween{Duration: 40 * time.Millisecond}, opts.StopFade)
	require.Equal(t, 250.0, opts.MixBus.FilterCutoff)
	require.Equal(t, audio.DefaultTween, opts.MixBus.VolumeTween)
}
