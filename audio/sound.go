package audio

import (
	"fmt"
	"strings"
)

// SoundID names a logical playable sound.
type SoundID string

// NewSoundID normalizes a sound name into its id.
func NewSoundID(name string) SoundID {
	return SoundID(strings.ToLower(strings.TrimSpace(name)))
}

// VariantID builds the id of the n-th variant of base, e.g. "footstep-2".
func VariantID(base string, n int) SoundID {
	return NewSoundID(fmt.Sprintf("%s-%d", base, n))
}

func (id SoundID) String() string {
	return string(id)
}

// PlaySoundParams are the per-call options of the queued play path.
type PlaySoundParams struct {
	Looped bool
}

// Track selects the sub-bus a sound is routed to.
type Track int

const (
	TrackNone Track = iota
	TrackFilter
)

func (t Track) String() string {
	switch t {
	case TrackFilter:
		return "filter"
	default:
		return "none"
	}
}

// PlaybackSettings are handed to the engine as-is. The coordinator only
// reads Looped (to detect a capability gap) and Track.
type PlaybackSettings struct {
	Volume float64
	Looped bool
	Track  Track
}

// DefaultPlaybackSettings plays once at full volume on the master bus.
func DefaultPlaybackSettings() PlaybackSettings {
	return PlaybackSettings{Volume: 1}
}
