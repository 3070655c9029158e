// Package config loads sfxqueue settings from defaults, an optional YAML
// file, a .env file and SFXQUEUE_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/milk9111/sfxqueue/audio"
)

// EnvPrefix prefixes every environment override, e.g.
// SFXQUEUE_AUDIO_MASTER_VOLUME.
const EnvPrefix = "SFXQUEUE"

// Backends accepted by Audio.Backend.
const (
	BackendEbiten = "ebiten"
	BackendMock   = "mock"
	BackendNone   = "none"
)

type Config struct {
	Audio   AudioConfig   `mapstructure:"audio"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Trace   TraceConfig   `mapstructure:"trace"`
}

type AudioConfig struct {
	Backend      string        `mapstructure:"backend"`
	SampleRate   int           `mapstructure:"sample_rate"`
	MasterVolume float64       `mapstructure:"master_volume"`
	FilterCutoff float64       `mapstructure:"filter_cutoff"`
	StopFade     time.Duration `mapstructure:"stop_fade"`
	VolumeTween  time.Duration `mapstructure:"volume_tween"`
	TPS          int           `mapstructure:"tps"`
}

type CatalogConfig struct {
	// Dir overlays files on disk over the embedded sound bank.
	Dir      string        `mapstructure:"dir"`
	Manifest string        `mapstructure:"manifest"`
	Watch    bool          `mapstructure:"watch"`
	Preload  bool          `mapstructure:"preload"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type TraceConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Output is "stdout", "stderr" or a file path.
	Output      string `mapstructure:"output"`
	ServiceName string `mapstructure:"service_name"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Audio: AudioConfig{
			Backend:      BackendEbiten,
			SampleRate:   44100,
			MasterVolume: 1,
			FilterCutoff: 100,
			StopFade:     audio.DefaultTween.Duration,
			VolumeTween:  audio.DefaultTween.Duration,
			TPS:          60,
		},
		Catalog: CatalogConfig{
			Manifest: "sounds.yaml",
		},
		Trace: TraceConfig{
			Output:      "stdout",
			ServiceName: "sfxqueue",
		},
	}
}

// Load builds a Config. path may be empty to skip the YAML file. envFiles
// default to ".env"; missing env files are ignored.
func Load(path string, envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v, Defaults())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Audio.Backend = strings.ToLower(strings.TrimSpace(cfg.Audio.Backend))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("audio.backend", d.Audio.Backend)
	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.master_volume", d.Audio.MasterVolume)
	v.SetDefault("audio.filter_cutoff", d.Audio.FilterCutoff)
	v.SetDefault("audio.stop_fade", d.Audio.StopFade)
	v.SetDefault("audio.volume_tween", d.Audio.VolumeTween)
	v.SetDefault("audio.tps", d.Audio.TPS)

	v.SetDefault("catalog.dir", d.Catalog.Dir)
	v.SetDefault("catalog.manifest", d.Catalog.Manifest)
	v.SetDefault("catalog.watch", d.Catalog.Watch)
	v.SetDefault("catalog.preload", d.Catalog.Preload)
	v.SetDefault("catalog.cache_ttl", d.Catalog.CacheTTL)

	v.SetDefault("trace.enabled", d.Trace.Enabled)
	v.SetDefault("trace.output", d.Trace.Output)
	v.SetDefault("trace.service_name", d.Trace.ServiceName)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Audio.Backend {
	case BackendEbiten, BackendMock, BackendNone:
	default:
		return fmt.Errorf("config: audio.backend %q: want %s, %s or %s", c.Audio.Backend, BackendEbiten, BackendMock, BackendNone)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("config: audio.sample_rate must be > 0, got %d", c.Audio.SampleRate)
	}
	if c.Audio.MasterVolume < 0 || c.Audio.MasterVolume > 1 {
		return fmt.Errorf("config: audio.master_volume must be within [0,1], got %v", c.Audio.MasterVolume)
	}
	if c.Audio.FilterCutoff < 0 {
		return fmt.Errorf("config: audio.filter_cutoff must be >= 0, got %v", c.Audio.FilterCutoff)
	}
	// a zero tween means "use the default" downstream
	if c.Audio.StopFade <= 0 {
		return fmt.Errorf("config: audio.stop_fade must be > 0, got %v", c.Audio.StopFade)
	}
	if c.Audio.VolumeTween <= 0 {
		return fmt.Errorf("config: audio.volume_tween must be > 0, got %v", c.Audio.VolumeTween)
	}
	if c.Audio.TPS <= 0 {
		return fmt.Errorf("config: audio.tps must be > 0, got %d", c.Audio.TPS)
	}
	if strings.TrimSpace(c.Catalog.Manifest) == "" {
		return errors.New("config: catalog.manifest is required")
	}
	if c.Catalog.CacheTTL < 0 {
		return fmt.Errorf("config: catalog.cache_ttl must be >= 0, got %v", c.Catalog.CacheTTL)
	}
	if c.Trace.Enabled && strings.TrimSpace(c.Trace.Output) == "" {
		return errors.New("config: trace.output is required when tracing is enabled")
	}
	return nil
}

// Options maps the audio section onto coordinator options.
func (a AudioConfig) Options(logger *log.Logger) audio.Options {
	return audio.Options{
		Logger:   logger,
		StopFade: audio.Tween{Duration: a.StopFade},
		MixBus: audio.MixBusConfig{
			FilterCutoff: a.FilterCutoff,
			VolumeTween:  audio.Tween{Duration: a.VolumeTween},
		},
	}
}

// TickInterval is the wall-clock length of one tick.
func (a AudioConfig) TickInterval() time.Duration {
	if a.TPS <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(a.TPS)
}
