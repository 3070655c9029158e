// Package mock provides an in-memory mixing engine that records every call.
package mock

import (
	"errors"
	"fmt"
	"sync"

	"github.com/milk9111/sfxqueue/audio"
)

// Submission is one accepted Submit call.
type Submission struct {
	Seq      int
	Handle   audio.PlaybackHandle
	Sound    audio.SoundID
	Settings audio.PlaybackSettings
	Bus      audio.BusHandle
}

// StopCall is one Stop call, accepted or not.
type StopCall struct {
	Seq    int
	Handle audio.PlaybackHandle
	Fade   audio.Tween
}

// VolumeCall is one SetBusVolume call.
type VolumeCall struct {
	Bus       audio.BusHandle
	Amplitude float64
	Tween     audio.Tween
}

// Engine is a MixEngine that never makes sound.
type Engine struct {
	mu sync.Mutex

	// Looping is reported through SupportsLooping.
	Looping bool
	// FailSubmit makes Submit fail for the listed ids.
	FailSubmit map[audio.SoundID]error
	// FailBuses makes CreateSubBus fail.
	FailBuses error

	seq        int
	nextHandle audio.PlaybackHandle
	nextBus    audio.BusHandle
	live       map[audio.PlaybackHandle]audio.SoundID
	buses      map[audio.BusHandle]audio.BusConfig
	closed     bool
	updates    int

	Submissions []Submission
	Stops       []StopCall
	Volumes     []VolumeCall
	Cutoffs     []float64
}

// NewEngine returns an empty mock engine.
func NewEngine() *Engine {
	return &Engine{
		live:  make(map[audio.PlaybackHandle]audio.SoundID),
		buses: make(map[audio.BusHandle]audio.BusConfig),
	}
}

// Open adapts NewEngine to audio.Init.
func Open() (audio.MixEngine, error) {
	return NewEngine(), nil
}

// Submit records the sound and returns a fresh handle.
func (e *Engine) Submit(sound audio.DecodedSound, settings audio.PlaybackSettings, bus audio.BusHandle) (audio.PlaybackHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, audio.ErrEngineClosed
	}
	if err, ok := e.FailSubmit[sound.ID]; ok {
		return 0, err
	}
	if _, ok := e.buses[bus]; !ok {
		return 0, fmt.Errorf("%w: %d", audio.ErrUnknownBus, bus)
	}
	e.nextHandle++
	e.seq++
	h := e.nextHandle
	e.live[h] = sound.ID
	e.Submissions = append(e.Submissions, Submission{Seq: e.seq, Handle: h, Sound: sound.ID, Settings: settings, Bus: bus})
	return h, nil
}

// Stop records the call and forgets the handle.
func (e *Engine) Stop(h audio.PlaybackHandle, fade audio.Tween) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	e.Stops = append(e.Stops, StopCall{Seq: e.seq, Handle: h, Fade: fade})
	if _, ok := e.live[h]; !ok {
		return fmt.Errorf("%w: %d", audio.ErrUnknownHandle, h)
	}
	delete(e.live, h)
	return nil
}

// CreateSubBus allocates a bus.
func (e *Engine) CreateSubBus(cfg audio.BusConfig) (audio.BusHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FailBuses != nil {
		return 0, e.FailBuses
	}
	if cfg.Parent != 0 {
		if _, ok := e.buses[cfg.Parent]; !ok {
			return 0, fmt.Errorf("%w: parent %d", audio.ErrUnknownBus, cfg.Parent)
		}
	}
	e.nextBus++
	e.buses[e.nextBus] = cfg
	return e.nextBus, nil
}

// SetBusVolume records the call.
func (e *Engine) SetBusVolume(bus audio.BusHandle, amplitude float64, tween audio.Tween) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.buses[bus]; !ok {
		return fmt.Errorf("%w: %d", audio.ErrUnknownBus, bus)
	}
	e.Volumes = append(e.Volumes, VolumeCall{Bus: bus, Amplitude: amplitude, Tween: tween})
	return nil
}

// SetBusCutoff records the requested cutoff.
func (e *Engine) SetBusCutoff(bus audio.BusHandle, hz float64, _ audio.Tween) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, ok := e.buses[bus]
	if !ok {
		return fmt.Errorf("%w: %d", audio.ErrUnknownBus, bus)
	}
	if cfg.LowPassCutoff <= 0 {
		return errors.New("mock: bus has no filter")
	}
	e.Cutoffs = append(e.Cutoffs, hz)
	return nil
}

// SupportsLooping reports the Looping field.
func (e *Engine) SupportsLooping() bool {
	return e.Looping
}

// Update counts ticks.
func (e *Engine) Update() {
	e.mu.Lock()
	e.updates++
	e.mu.Unlock()
}

// Close marks the engine closed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return audio.ErrEngineClosed
	}
	e.closed = true
	return nil
}

// Live returns the ids of handles that were submitted and not stopped.
func (e *Engine) Live() map[audio.PlaybackHandle]audio.SoundID {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[audio.PlaybackHandle]audio.SoundID, len(e.live))
	for h, id := range e.live {
		out[h] = id
	}
	return out
}

// Bus returns the config a bus was created with.
func (e *Engine) Bus(h audio.BusHandle) (audio.BusConfig, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, ok := e.buses[h]
	return cfg, ok
}

// Updates returns how many times Update ran.
func (e *Engine) Updates() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updates
}

// Closed reports whether Close ran.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Catalog is a fixed in-memory audio.Catalog.
type Catalog struct {
	mu     sync.RWMutex
	sounds map[audio.SoundID]audio.DecodedSound
}

// NewCatalog returns a catalog knowing the given names.
func NewCatalog(names ...string) *Catalog {
	c := &Catalog{sounds: make(map[audio.SoundID]audio.DecodedSound, len(names))}
	for _, name := range names {
		c.Add(name)
	}
	return c
}

// Add registers a silent one-frame sound under name.
func (c *Catalog) Add(name string) audio.SoundID {
	id := audio.NewSoundID(name)
	c.mu.Lock()
	c.sounds[id] = audio.DecodedSound{ID: id, PCM: make([]byte, 4), SampleRate: 44100, Gain: 1}
	c.mu.Unlock()
	return id
}

// ResolveName normalizes name.
func (c *Catalog) ResolveName(name string) audio.SoundID {
	return audio.NewSoundID(name)
}

// Lookup returns the sound registered under id.
func (c *Catalog) Lookup(id audio.SoundID) (audio.DecodedSound, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sounds[id]
	return s, ok
}
