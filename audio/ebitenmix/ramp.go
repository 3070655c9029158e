package ebitenmix

import (
	"time"

	"github.com/milk9111/sfxqueue/audio"
)

// ramp moves a value from one level to another along a tween.
type ramp struct {
	from  float64
	to    float64
	start time.Time
	tween audio.Tween
}

func steady(v float64) ramp {
	return ramp{from: v, to: v}
}

func (r ramp) value(now time.Time) float64 {
	p := r.tween.Progress(now.Sub(r.start))
	return r.from + (r.to-r.from)*p
}

func (r ramp) done(now time.Time) bool {
	return r.tween.Progress(now.Sub(r.start)) >= 1
}

// retarget starts a new ramp from wherever r currently is.
func (r ramp) retarget(to float64, tween audio.Tween, now time.Time) ramp {
	return ramp{from: r.value(now), to: to, start: now, tween: tween}
}
