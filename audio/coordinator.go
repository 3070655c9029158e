package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/milk9111/sfxqueue/audio"

// Options configures a Coordinator.
type Options struct {
	Logger *log.Logger
	MixBus MixBusConfig
	// StopFade is the fade applied to stopped and superseded sounds.
	StopFade Tween
}

// Coordinator owns the mix bus and the playback registry and applies queued
// commands once per tick. Everything except the queues it drains must be
// used from the goroutine that calls ProcessTick.
//
// A coordinator without a usable engine is inert: every operation is a
// no-op and MasterVolume reports 0.
type Coordinator struct {
	queues  *Queues
	catalog Catalog
	logger  *log.Logger
	tracer  trace.Tracer

	engine   MixEngine
	bus      *MixBus
	registry *Registry
	stopFade Tween

	ticks uint64
}

// NewCoordinator builds a coordinator around engine. A nil engine, or one
// that fails to create the sub-buses, yields an inert coordinator.
func NewCoordinator(queues *Queues, catalog Catalog, engine MixEngine, opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if queues == nil {
		queues = NewQueues()
	}
	if opts.StopFade == (Tween{}) {
		opts.StopFade = DefaultTween
	}

	c := &Coordinator{
		queues:   queues,
		catalog:  catalog,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		stopFade: opts.StopFade,
	}
	if engine == nil {
		return c
	}

	bus, err := NewMixBus(engine, opts.MixBus, logger)
	if err != nil {
		logger.Printf("audio: failed to initialize mix bus: %v", err)
		closeEngine(engine, logger)
		return c
	}

	c.engine = engine
	c.bus = bus
	c.registry = NewRegistry(engine, logger)
	return c
}

// Init opens a backend and builds a coordinator around it. Failure to open
// is logged and produces an inert coordinator rather than an error.
func Init(queues *Queues, catalog Catalog, open func() (MixEngine, error), opts Options) *Coordinator {
	var engine MixEngine
	if open != nil {
		e, err := open()
		if err != nil {
			logger := opts.Logger
			if logger == nil {
				logger = log.Default()
			}
			logger.Printf("audio: failed to initialize audio manager: %v", err)
		} else {
			engine = e
		}
	}
	return NewCoordinator(queues, catalog, engine, opts)
}

// Active reports whether a usable backend is attached.
func (c *Coordinator) Active() bool {
	return c != nil && c.engine != nil
}

// Queues returns the command queues this coordinator drains.
func (c *Coordinator) Queues() *Queues {
	if c == nil {
		return nil
	}
	return c.queues
}

// Registry exposes the live playback registry. It is nil when inert.
func (c *Coordinator) Registry() *Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Ticks returns how many times ProcessTick has run.
func (c *Coordinator) Ticks() uint64 {
	if c == nil {
		return 0
	}
	return c.ticks
}

// ProcessTick drains the stop queue, then the play queue, and dispatches
// each command in order. It must be called once per tick from the owning
// goroutine.
func (c *Coordinator) ProcessTick() {
	if c == nil {
		return
	}
	_, span := c.tracer.Start(context.Background(), "process_sounds")
	defer span.End()
	c.ticks++

	stops := c.queues.DrainStop()
	plays := c.queues.DrainPlay()
	span.SetAttributes(
		attribute.Int("audio.stops", len(stops)),
		attribute.Int("audio.plays", len(plays)),
		attribute.Bool("audio.active", c.Active()),
	)
	if !c.Active() {
		return
	}

	for _, id := range stops {
		c.stop(id)
	}

	failed := 0
	for _, id := range plays {
		if err := c.PlaySound(id, nil); err != nil {
			failed++
			span.RecordError(err)
			c.logger.Printf("audio: play %q: %v", id, err)
		}
	}
	span.SetAttributes(
		attribute.Int("audio.failed", failed),
		attribute.Int("audio.live", c.registry.Len()),
	)

	if u, ok := c.engine.(Updater); ok {
		u.Update()
	}
}

func (c *Coordinator) stop(id SoundID) {
	h, ok := c.registry.Remove(id)
	if !ok {
		return
	}
	if err := c.engine.Stop(h, c.stopFade); err != nil {
		c.logger.Printf("audio: stop %q: %v", id, err)
	}
}

// PlaySound resolves id and submits it immediately with settings, bypassing
// the queues. Nil settings use DefaultPlaybackSettings. A looped request on
// an engine without loop support is played once and logged as a warning.
func (c *Coordinator) PlaySound(id SoundID, settings *PlaybackSettings) error {
	if !c.Active() {
		return ErrNoBackend
	}

	s := DefaultPlaybackSettings()
	if settings != nil {
		s = *settings
	}

	sound, ok := c.lookup(id)
	if !ok {
		return fmt.Errorf("%w for %q", ErrUnknownSound, id)
	}

	if s.Looped && !supportsLooping(c.engine) {
		c.logger.Printf("audio: %q: %v, playing once", id, ErrLoopUnsupported)
		s.Looped = false
	}

	h, err := c.engine.Submit(sound, s, c.bus.Bus(s.Track))
	if err != nil {
		return fmt.Errorf("failed to play sound: %w", err)
	}
	c.registry.Insert(id, h)
	return nil
}

func (c *Coordinator) lookup(id SoundID) (DecodedSound, bool) {
	if c.catalog == nil {
		return DecodedSound{}, false
	}
	return c.catalog.Lookup(id)
}

// SetMasterVolume clamps v to [0,1] and applies it to the master bus.
func (c *Coordinator) SetMasterVolume(v float64) {
	if !c.Active() {
		return
	}
	c.bus.SetMasterVolume(v)
}

// ChangeMasterVolume adjusts the master volume by delta, clamped.
func (c *Coordinator) ChangeMasterVolume(delta float64) {
	if !c.Active() {
		return
	}
	c.bus.ChangeMasterVolume(delta)
}

// MasterVolume returns the master volume, or 0 when inert.
func (c *Coordinator) MasterVolume() float64 {
	if !c.Active() {
		return 0
	}
	return c.bus.MasterVolume()
}

// SetFilterCutoff moves the filter track's low-pass cutoff.
func (c *Coordinator) SetFilterCutoff(hz float64, tween Tween) {
	if !c.Active() {
		return
	}
	if err := c.bus.SetFilterCutoff(hz, tween); err != nil {
		c.logger.Printf("audio: %v", err)
	}
}

// Close stops everything still playing and releases the engine. The
// coordinator is inert afterwards.
func (c *Coordinator) Close() error {
	if !c.Active() {
		return nil
	}
	c.registry.StopAll(c.stopFade)
	var err error
	if closer, ok := c.engine.(io.Closer); ok {
		err = closer.Close()
	}
	c.engine = nil
	c.bus = nil
	return err
}

func supportsLooping(engine MixEngine) bool {
	le, ok := engine.(LoopEngine)
	return ok && le.SupportsLooping()
}

func closeEngine(engine MixEngine, logger *log.Logger) {
	closer, ok := engine.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil && !errors.Is(err, ErrEngineClosed) {
		logger.Printf("audio: close engine: %v", err)
	}
}
