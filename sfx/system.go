// Package sfx assembles a catalog, a mixing backend, the coordinator and any
// running cues into one System driven by Tick.
package sfx

import (
	"fmt"
	"io/fs"
	"log"

	"github.com/milk9111/sfxqueue/assets"
	"github.com/milk9111/sfxqueue/audio"
	"github.com/milk9111/sfxqueue/audio/ebitenmix"
	"github.com/milk9111/sfxqueue/audio/mock"
	"github.com/milk9111/sfxqueue/catalog"
	"github.com/milk9111/sfxqueue/config"
	"github.com/milk9111/sfxqueue/cue"
)

// System is not safe for concurrent use except through Sounds' queued
// methods.
type System struct {
	Catalog     *catalog.Catalog
	Coordinator *audio.Coordinator
	Sounds      *audio.Sounds

	src     fs.FS
	watcher *catalog.Watcher
	cues    []*cue.Runner
	logger  *log.Logger
	tick    uint64
}

// Option customizes Open.
type Option func(*options)

type options struct {
	logger *log.Logger
	src    fs.FS
	open   func() (audio.MixEngine, error)
	sounds []audio.SoundsOption
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSource replaces the asset tree the catalog and cues read from.
func WithSource(src fs.FS) Option {
	return func(o *options) {
		o.src = src
	}
}

// WithBackend replaces the backend selected by the configuration.
func WithBackend(open func() (audio.MixEngine, error)) Option {
	return func(o *options) {
		o.open = open
	}
}

// WithSoundsOptions passes options through to the Sounds facade.
func WithSoundsOptions(opts ...audio.SoundsOption) Option {
	return func(o *options) {
		o.sounds = append(o.sounds, opts...)
	}
}

// Open builds a System from cfg. A missing or broken backend leaves the
// coordinator inert; only catalog errors fail Open.
func Open(cfg config.Config, opts ...Option) (*System, error) {
	o := options{logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.src == nil {
		o.src = assets.FS(cfg.Catalog.Dir)
	}
	if o.open == nil {
		o.open = Backend(cfg.Audio, o.logger)
	}

	cat, err := catalog.New(o.src, cfg.Catalog.Manifest, cfg.Audio.SampleRate,
		catalog.WithLogger(o.logger),
		catalog.WithCacheTTL(cfg.Catalog.CacheTTL),
	)
	if err != nil {
		return nil, err
	}
	if cfg.Catalog.Preload {
		if err := cat.Preload(); err != nil {
			o.logger.Printf("sfx: %v", err)
		}
	}

	coord := audio.Init(audio.NewQueues(), cat, o.open, cfg.Audio.Options(o.logger))
	coord.SetMasterVolume(cfg.Audio.MasterVolume)

	s := &System{
		Catalog:     cat,
		Coordinator: coord,
		Sounds:      audio.NewSounds(coord, cat, append([]audio.SoundsOption{audio.WithLogger(o.logger)}, o.sounds...)...),
		src:         o.src,
		logger:      o.logger,
	}

	if cfg.Catalog.Watch {
		if cfg.Catalog.Dir == "" {
			o.logger.Printf("sfx: catalog.watch needs catalog.dir, not watching")
		} else if w, err := catalog.NewWatcher(cfg.Catalog.Dir); err != nil {
			o.logger.Printf("sfx: watch %s: %v", cfg.Catalog.Dir, err)
		} else {
			s.watcher = w
		}
	}
	return s, nil
}

// Backend returns the opener for the configured backend, or nil for "none".
func Backend(cfg config.AudioConfig, logger *log.Logger) func() (audio.MixEngine, error) {
	switch cfg.Backend {
	case config.BackendEbiten:
		return ebitenmix.Opener(cfg.SampleRate, ebitenmix.WithLogger(logger))
	case config.BackendMock:
		return mock.Open
	default:
		return nil
	}
}

// StartCue loads a cue from the asset tree and runs it from the next tick.
func (s *System) StartCue(name string) (*cue.Runner, error) {
	r, err := cue.Load(s.src, name, s.Sounds, s.Coordinator, cue.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.cues = append(s.cues, r)
	return r, nil
}

// Cues returns the number of cues still running.
func (s *System) Cues() int {
	return len(s.cues)
}

// Tick applies catalog changes, advances cues and then drains the command
// queues, so sounds a cue requests play on the same tick.
func (s *System) Tick() {
	s.Catalog.Sync(s.watcher)

	live := s.cues[:0]
	for _, r := range s.cues {
		if err := r.Update(s.tick); err != nil {
			s.logger.Printf("sfx: %v", err)
			continue
		}
		if !r.Done() {
			live = append(live, r)
		}
	}
	clear(s.cues[len(live):])
	s.cues = live

	s.Coordinator.ProcessTick()
	s.tick++
}

// Close stops every sound and releases the backend and the watcher.
func (s *System) Close() error {
	var werr error
	if s.watcher != nil {
		werr = s.watcher.Close()
	}
	if err := s.Coordinator.Close(); err != nil {
		return fmt.Errorf("sfx: close: %w", err)
	}
	return werr
}
