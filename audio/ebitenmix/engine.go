// Package ebitenmix implements audio.MixEngine on top of Ebitengine's audio
// package. Bus volumes and stop fades are tweened and advanced by Update,
// which the coordinator calls once per tick.
package ebitenmix

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"time"

	eaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/milk9111/sfxqueue/audio"
)

type bus struct {
	name   string
	parent audio.BusHandle
	volume ramp
	cutoff *cutoff // nil when the bus has no filter
	sweep  *ramp   // active cutoff tween
}

type voice struct {
	id     audio.SoundID
	player *eaudio.Player
	bus    audio.BusHandle
	gain   float64
	looped bool
	fade   *ramp
	done   bool
}

// Engine plays decoded PCM through an Ebitengine audio context.
type Engine struct {
	ctx    *eaudio.Context
	now    func() time.Time
	logger *log.Logger

	nextHandle audio.PlaybackHandle
	nextBus    audio.BusHandle
	voices     map[audio.PlaybackHandle]*voice
	buses      map[audio.BusHandle]*bus
	closed     bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now for tween evaluation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger used for player errors.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New attaches to the process audio context, creating it at sampleRate if
// needed. A context that already exists at another rate is an error.
func New(sampleRate int, opts ...Option) (e *Engine, err error) {
	defer func() {
		if r := recover(); r != nil {
			e = nil
			err = fmt.Errorf("%w: %v", audio.ErrNoBackend, r)
		}
	}()

	ctx := eaudio.CurrentContext()
	if ctx == nil {
		ctx = eaudio.NewContext(sampleRate)
	}
	if ctx.SampleRate() != sampleRate {
		return nil, fmt.Errorf("ebitenmix: context runs at %d Hz, want %d", ctx.SampleRate(), sampleRate)
	}
	return newEngine(ctx, opts...), nil
}

// Opener adapts New to audio.Init.
func Opener(sampleRate int, opts ...Option) func() (audio.MixEngine, error) {
	return func() (audio.MixEngine, error) {
		e, err := New(sampleRate, opts...)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}

func newEngine(ctx *eaudio.Context, opts ...Option) *Engine {
	e := &Engine{
		ctx:    ctx,
		now:    time.Now,
		logger: log.Default(),
		voices: make(map[audio.PlaybackHandle]*voice),
		buses:  make(map[audio.BusHandle]*bus),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SupportsLooping reports that submitted sounds can loop.
func (e *Engine) SupportsLooping() bool {
	return true
}

// CreateSubBus adds a bus feeding into cfg.Parent (or the main output).
func (e *Engine) CreateSubBus(cfg audio.BusConfig) (audio.BusHandle, error) {
	if e.closed {
		return 0, audio.ErrEngineClosed
	}
	if cfg.Parent != 0 {
		if _, ok := e.buses[cfg.Parent]; !ok {
			return 0, fmt.Errorf("%w: parent %d", audio.ErrUnknownBus, cfg.Parent)
		}
	}
	e.nextBus++
	b := &bus{name: cfg.Name, parent: cfg.Parent, volume: steady(1)}
	if cfg.LowPassCutoff > 0 {
		b.cutoff = newCutoff(cfg.LowPassCutoff)
	}
	e.buses[e.nextBus] = b
	return e.nextBus, nil
}

// SetBusVolume ramps a bus to amplitude.
func (e *Engine) SetBusVolume(h audio.BusHandle, amplitude float64, tween audio.Tween) error {
	b, ok := e.buses[h]
	if !ok {
		return fmt.Errorf("%w: %d", audio.ErrUnknownBus, h)
	}
	b.volume = b.volume.retarget(amplitude, tween, e.now())
	e.applyVolumes()
	return nil
}

// SetBusCutoff sweeps a filtered bus to hz.
func (e *Engine) SetBusCutoff(h audio.BusHandle, hz float64, tween audio.Tween) error {
	b, ok := e.buses[h]
	if !ok {
		return fmt.Errorf("%w: %d", audio.ErrUnknownBus, h)
	}
	if b.cutoff == nil {
		return fmt.Errorf("ebitenmix: bus %q has no filter: %w", b.name, audio.ErrUnsupported)
	}
	r := steady(b.cutoff.get()).retarget(hz, tween, e.now())
	b.sweep = &r
	e.advanceSweep(b, e.now())
	return nil
}

// Submit starts a player for sound on bus.
func (e *Engine) Submit(sound audio.DecodedSound, settings audio.PlaybackSettings, h audio.BusHandle) (audio.PlaybackHandle, error) {
	if e.closed {
		return 0, audio.ErrEngineClosed
	}
	if _, ok := e.buses[h]; !ok {
		return 0, fmt.Errorf("%w: %d", audio.ErrUnknownBus, h)
	}
	if sound.SampleRate != 0 && sound.SampleRate != e.ctx.SampleRate() {
		return 0, fmt.Errorf("ebitenmix: %q decoded at %d Hz, context runs at %d Hz", sound.ID, sound.SampleRate, e.ctx.SampleRate())
	}

	var src io.ReadSeeker = bytes.NewReader(sound.PCM)
	if settings.Looped {
		src = eaudio.NewInfiniteLoop(src, int64(len(sound.PCM)))
	}
	var stream io.Reader = src
	if c := e.filterFor(h); c != nil {
		stream = newLowPass(src, c, e.ctx.SampleRate())
	}

	player, err := e.ctx.NewPlayer(stream)
	if err != nil {
		return 0, fmt.Errorf("ebitenmix: new player for %q: %w", sound.ID, err)
	}

	gain := settings.Volume
	if sound.Gain > 0 {
		gain *= sound.Gain
	}
	e.nextHandle++
	v := &voice{id: sound.ID, player: player, bus: h, gain: gain, looped: settings.Looped}
	e.voices[e.nextHandle] = v

	player.SetVolume(e.voiceVolume(v, e.now()))
	player.Play()
	return e.nextHandle, nil
}

// Stop fades a voice out and releases it once the fade completes.
func (e *Engine) Stop(h audio.PlaybackHandle, fade audio.Tween) error {
	v, ok := e.voices[h]
	if !ok {
		return fmt.Errorf("%w: %d", audio.ErrUnknownHandle, h)
	}
	if v.done {
		delete(e.voices, h)
		return nil
	}
	if v.fade != nil {
		return nil
	}
	r := steady(1).retarget(0, fade, e.now())
	v.fade = &r
	if r.done(e.now()) {
		e.release(h, v)
	}
	return nil
}

// Update advances tweens, applies volumes, and releases finished voices.
func (e *Engine) Update() {
	now := e.now()
	for _, b := range e.buses {
		e.advanceSweep(b, now)
	}
	for h, v := range e.voices {
		if v.done {
			continue
		}
		if v.fade != nil && v.fade.done(now) {
			e.release(h, v)
			continue
		}
		if v.player == nil {
			continue
		}
		if !v.looped && v.fade == nil && !v.player.IsPlaying() {
			// finished naturally; keep the handle so a later Stop is not an error
			e.closePlayer(v)
			v.done = true
			continue
		}
		v.player.SetVolume(e.voiceVolume(v, now))
	}
}

// Live returns the number of voices still producing sound.
func (e *Engine) Live() int {
	n := 0
	for _, v := range e.voices {
		if !v.done {
			n++
		}
	}
	return n
}

// Close releases every player. The context itself lives for the process.
func (e *Engine) Close() error {
	if e.closed {
		return audio.ErrEngineClosed
	}
	for h, v := range e.voices {
		e.release(h, v)
	}
	e.closed = true
	return nil
}

func (e *Engine) release(h audio.PlaybackHandle, v *voice) {
	e.closePlayer(v)
	delete(e.voices, h)
}

func (e *Engine) closePlayer(v *voice) {
	if v.player == nil {
		return
	}
	v.player.Pause()
	if err := v.player.Close(); err != nil {
		e.logger.Printf("ebitenmix: close player %q: %v", v.id, err)
	}
	v.player = nil
}

func (e *Engine) applyVolumes() {
	now := e.now()
	for _, v := range e.voices {
		if v.player != nil {
			v.player.SetVolume(e.voiceVolume(v, now))
		}
	}
}

func (e *Engine) voiceVolume(v *voice, now time.Time) float64 {
	vol := v.gain * e.busAmplitude(v.bus, now)
	if v.fade != nil {
		vol *= v.fade.value(now)
	}
	if vol < 0 {
		return 0
	}
	return vol
}

// busAmplitude multiplies bus volumes from h up to the main output.
func (e *Engine) busAmplitude(h audio.BusHandle, now time.Time) float64 {
	amp := 1.0
	for depth := 0; h != 0 && depth < len(e.buses); depth++ {
		b, ok := e.buses[h]
		if !ok {
			break
		}
		amp *= b.volume.value(now)
		h = b.parent
	}
	return amp
}

// filterFor returns the first filter on the path from h to the output.
func (e *Engine) filterFor(h audio.BusHandle) *cutoff {
	for depth := 0; h != 0 && depth < len(e.buses); depth++ {
		b, ok := e.buses[h]
		if !ok {
			return nil
		}
		if b.cutoff != nil {
			return b.cutoff
		}
		h = b.parent
	}
	return nil
}

func (e *Engine) advanceSweep(b *bus, now time.Time) {
	if b.sweep == nil || b.cutoff == nil {
		return
	}
	b.cutoff.set(b.sweep.value(now))
	if b.sweep.done(now) {
		b.sweep = nil
	}
}
