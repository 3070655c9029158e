package audio

import (
	"log"
	"math/rand/v2"
)

// Sounds is the application-facing play/stop API. Queued methods are safe
// from any goroutine; PlayRandomVariant plays synchronously and must run on
// the goroutine that owns the coordinator.
type Sounds struct {
	queues      *Queues
	catalog     Catalog
	coordinator *Coordinator
	logger      *log.Logger
	intN        func(n int) int
}

// SoundsOption customizes a Sounds facade.
type SoundsOption func(*Sounds)

// WithRand replaces the variant picker. intN must return a value in [0,n).
func WithRand(intN func(n int) int) SoundsOption {
	return func(s *Sounds) {
		if intN != nil {
			s.intN = intN
		}
	}
}

// WithLogger sets the logger used for dropped requests.
func WithLogger(logger *log.Logger) SoundsOption {
	return func(s *Sounds) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSounds wires the facade to the coordinator's queues.
func NewSounds(coordinator *Coordinator, catalog Catalog, opts ...SoundsOption) *Sounds {
	s := &Sounds{
		queues:      coordinator.Queues(),
		catalog:     catalog,
		coordinator: coordinator,
		logger:      log.Default(),
		intN:        rand.IntN,
	}
	if s.queues == nil {
		s.queues = NewQueues()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sounds) resolve(name string) SoundID {
	if s.catalog == nil {
		return NewSoundID(name)
	}
	return s.catalog.ResolveName(name)
}

// PlayByName queues a play of name. The queued path cannot loop, so a
// looped request is played once with a warning.
func (s *Sounds) PlayByName(name string, params PlaySoundParams) {
	id := s.resolve(name)
	if params.Looped {
		s.logger.Printf("audio: %q: %v, playing once", id, ErrLoopUnsupported)
	}
	s.queues.EnqueuePlay(id)
}

// PlaySound queues a play of name.
func (s *Sounds) PlaySound(name string) {
	s.queues.EnqueuePlay(s.resolve(name))
}

// PlayVoice queues a voice line.
func (s *Sounds) PlayVoice(name string) {
	s.queues.EnqueuePlay(s.resolve(name))
}

// PlayMusic queues a music track.
func (s *Sounds) PlayMusic(name string) {
	s.queues.EnqueuePlay(s.resolve(name))
}

// PlaySoundID queues a play of id.
func (s *Sounds) PlaySoundID(id SoundID) {
	s.queues.EnqueuePlay(id)
}

// PlaySoundEx queues a play of name. params are accepted for symmetry with
// PlayMusicIDEx and are not interpreted.
func (s *Sounds) PlaySoundEx(name string, params PlaySoundParams) {
	s.PlaySoundIDEx(s.resolve(name), params)
}

// PlaySoundIDEx queues a play of id; params are not interpreted.
func (s *Sounds) PlaySoundIDEx(id SoundID, _ PlaySoundParams) {
	s.queues.EnqueuePlay(id)
}

// PlayMusicIDEx queues a music track. Looping is not available on the
// queued path yet; the track still plays once.
func (s *Sounds) PlayMusicIDEx(id SoundID, params PlaySoundParams) {
	if params.Looped {
		s.logger.Printf("audio: %q: looped music not supported yet", id)
	}
	s.queues.EnqueuePlay(id)
}

// PlayRandomVariant picks one of base-1..base-count uniformly and plays it
// right away with settings. It returns the chosen id, or "" when count < 1.
func (s *Sounds) PlayRandomVariant(base string, count int, settings PlaybackSettings) SoundID {
	id, ok := s.pickVariant(base, count)
	if !ok {
		return ""
	}
	if err := s.coordinator.PlaySound(id, &settings); err != nil && s.coordinator.Active() {
		s.logger.Printf("audio: play %q: %v", id, err)
	}
	return id
}

// PlayRandom queues one of base-1..base-count chosen uniformly.
func (s *Sounds) PlayRandom(base string, count int) SoundID {
	id, ok := s.pickVariant(base, count)
	if !ok {
		return ""
	}
	s.queues.EnqueuePlay(id)
	return id
}

func (s *Sounds) pickVariant(base string, count int) (SoundID, bool) {
	if count < 1 {
		s.logger.Printf("audio: random %q: variant count %d < 1", base, count)
		return "", false
	}
	n := s.intN(count) + 1
	return s.resolve(string(VariantID(base, n))), true
}

// StopByName queues a stop of name.
func (s *Sounds) StopByName(name string) {
	s.queues.EnqueueStop(s.resolve(name))
}

// StopSoundID queues a stop of id.
func (s *Sounds) StopSoundID(id SoundID) {
	s.queues.EnqueueStop(id)
}
