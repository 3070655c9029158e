package audio

import "time"

// PlaybackHandle identifies one live playback inside a MixEngine.
type PlaybackHandle uint64

// BusHandle identifies a sub-bus inside a MixEngine.
type BusHandle uint32

// Easing selects the curve a Tween follows.
type Easing int

const (
	EaseLinear Easing = iota
	EaseInPowi
	EaseOutPowi
)

// Tween is a smoothed parameter transition.
type Tween struct {
	Duration time.Duration
	Easing   Easing
}

// DefaultTween is used for stop fades and volume changes.
var DefaultTween = Tween{Duration: 10 * time.Millisecond, Easing: EaseLinear}

// Progress maps elapsed time to [0,1] along the tween curve.
func (t Tween) Progress(elapsed time.Duration) float64 {
	if t.Duration <= 0 || elapsed >= t.Duration {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	x := float64(elapsed) / float64(t.Duration)
	switch t.Easing {
	case EaseInPowi:
		return x * x
	case EaseOutPowi:
		return 1 - (1-x)*(1-x)
	default:
		return x
	}
}

// DecodedSound is preloaded PCM ready for submission.
// PCM is 16-bit signed little-endian stereo and must be treated as read-only.
type DecodedSound struct {
	ID         SoundID
	PCM        []byte
	SampleRate int
	Gain       float64
}

// BusConfig describes a sub-bus to create.
type BusConfig struct {
	Name   string
	Parent BusHandle // zero means the engine's main output
	// LowPassCutoff enables a low-pass filter on the bus when > 0 (Hz).
	LowPassCutoff float64
}

// Catalog resolves names to ids and ids to decoded data.
type Catalog interface {
	ResolveName(name string) SoundID
	Lookup(id SoundID) (DecodedSound, bool)
}

// MixEngine is the mixing backend the coordinator drives.
type MixEngine interface {
	Submit(sound DecodedSound, settings PlaybackSettings, bus BusHandle) (PlaybackHandle, error)
	Stop(h PlaybackHandle, fade Tween) error
	CreateSubBus(cfg BusConfig) (BusHandle, error)
	SetBusVolume(bus BusHandle, amplitude float64, tween Tween) error
}

// LoopEngine is implemented by engines that can loop a submitted sound.
type LoopEngine interface {
	SupportsLooping() bool
}

// FilterEngine is implemented by engines whose buses carry an adjustable filter.
type FilterEngine interface {
	SetBusCutoff(bus BusHandle, hz float64, tween Tween) error
}

// Updater is implemented by engines that advance tweens once per tick.
type Updater interface {
	Update()
}
