package ebitenmix

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/milk9111/sfxqueue/audio"
)

func pcmOf(samples ...int16) []byte {
	b := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(s))
	}
	return b
}

func samplesOf(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return out
}

func TestRamp(t *testing.T) {
	start := time.Unix(100, 0)
	r := steady(1).retarget(0, audio.Tween{Duration: 100 * time.Millisecond}, start)

	cases := []struct {
		name string
		at   time.Duration
		want float64
		done bool
	}{
		{"start", 0, 1, false},
		{"quarter", 25 * time.Millisecond, 0.75, false},
		{"end", 100 * time.Millisecond, 0, true},
		{"after", time.Second, 0, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			now := start.Add(c.at)
			if got := r.value(now); got < c.want-1e-9 || got > c.want+1e-9 {
				t.Fatalf("value = %v, want %v", got, c.want)
			}
			if r.done(now) != c.done {
				t.Fatalf("done = %v, want %v", r.done(now), c.done)
			}
		})
	}

	mid := r.retarget(1, audio.Tween{Duration: 100 * time.Millisecond}, start.Add(50*time.Millisecond))
	if mid.from < 0.5-1e-9 || mid.from > 0.5+1e-9 {
		t.Fatalf("retarget should start from the current value, got %v", mid.from)
	}
}

func TestLowPassSmoothsStep(t *testing.T) {
	// a step from 0 to max on both channels
	in := pcmOf(0, 0, 32000, 32000, 32000, 32000, 32000, 32000)
	f := newLowPass(bytes.NewReader(in), newCutoff(100), 44100)

	out, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d bytes, got %d", len(in), len(out))
	}
	s := samplesOf(out)
	if s[2] >= 32000 || s[2] <= 0 {
		t.Fatalf("first filtered step sample should be attenuated, got %d", s[2])
	}
	if s[2] != s[3] {
		t.Fatalf("channels should be filtered independently and equally, got %d/%d", s[2], s[3])
	}
	if !(s[4] > s[2] && s[6] > s[4]) {
		t.Fatalf("filtered step should rise monotonically, got %v", s)
	}
}

func TestLowPassOddReads(t *testing.T) {
	in := pcmOf(100, -100, 200, -200, 300, -300)
	f := newLowPass(bytes.NewReader(in), newCutoff(0), 44100) // cutoff 0 passes through

	var out []byte
	p := make([]byte, 3)
	for {
		n, err := f.Read(p)
		out = append(out, p[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("read: %v", err)
		}
	}
	if !bytes.Equal(in, out) {
		t.Fatalf("pass-through mismatch: %v vs %v", samplesOf(in), samplesOf(out))
	}
}

func TestLowPassSeekResets(t *testing.T) {
	in := pcmOf(32000, 32000, 32000, 32000)
	f := newLowPass(bytes.NewReader(in), newCutoff(200), 44100)

	first, _ := io.ReadAll(f)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("seek: %v", err)
	}
	second, _ := io.ReadAll(f)
	if !bytes.Equal(first, second) {
		t.Fatalf("rewound output differs: %v vs %v", samplesOf(first), samplesOf(second))
	}
}

func TestBusChain(t *testing.T) {
	now := time.Unix(0, 0)
	e := newEngine(nil, WithClock(func() time.Time { return now }))

	master, err := e.CreateSubBus(audio.BusConfig{Name: "master"})
	if err != nil {
		t.Fatalf("master: %v", err)
	}
	filter, err := e.CreateSubBus(audio.BusConfig{Name: "filter", Parent: master, LowPassCutoff: 100})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if _, err := e.CreateSubBus(audio.BusConfig{Name: "orphan", Parent: 99}); !errors.Is(err, audio.ErrUnknownBus) {
		t.Fatalf("expected ErrUnknownBus, got %v", err)
	}

	if err := e.SetBusVolume(master, 0.5, audio.Tween{}); err != nil {
		t.Fatalf("set master: %v", err)
	}
	if err := e.SetBusVolume(filter, 0.5, audio.Tween{Duration: time.Second}); err != nil {
		t.Fatalf("set filter: %v", err)
	}

	if got := e.busAmplitude(filter, now); got != 0.5 {
		t.Fatalf("amplitude at tween start = %v, want 0.5", got)
	}
	now = now.Add(time.Second)
	if got := e.busAmplitude(filter, now); got != 0.25 {
		t.Fatalf("amplitude after tween = %v, want 0.25", got)
	}

	if e.filterFor(filter) == nil {
		t.Fatalf("filter bus should carry a cutoff")
	}
	if e.filterFor(master) != nil {
		t.Fatalf("master bus should not carry a cutoff")
	}
	if err := e.SetBusCutoff(master, 500, audio.DefaultTween); !errors.Is(err, audio.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if err := e.SetBusCutoff(filter, 500, audio.Tween{}); err != nil {
		t.Fatalf("set cutoff: %v", err)
	}
	if got := e.filterFor(filter).get(); got != 500 {
		t.Fatalf("cutoff = %v, want 500", got)
	}
}

func TestStopUnknownHandle(t *testing.T) {
	e := newEngine(nil)
	if err := e.Stop(7, audio.DefaultTween); !errors.Is(err, audio.ErrUnknownHandle) {
		t.Fatalf("expected ErrUnknownHandle, got %v", err)
	}
}

func TestVoiceLifecycle(t *testing.T) {
	const fade = 10 * time.Millisecond
	cases := []struct {
		name    string
		voice   voice
		fade    audio.Tween
		held    bool // still registered right after Stop
		advance time.Duration
		live    bool // still registered after Update
	}{
		{"fade holds until update", voice{}, audio.Tween{Duration: fade}, true, fade, false},
		{"fade not finished", voice{}, audio.Tween{Duration: fade}, true, fade / 2, true},
		{"zero fade releases at once", voice{}, audio.Tween{}, false, 0, false},
		{"finished voice is dropped", voice{done: true}, audio.Tween{Duration: fade}, false, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			now := time.Unix(0, 0)
			e := newEngine(nil, WithClock(func() time.Time { return now }))
			v := c.voice
			e.voices[1] = &v

			if err := e.Stop(1, c.fade); err != nil {
				t.Fatalf("stop: %v", err)
			}
			if _, ok := e.voices[1]; ok != c.held {
				t.Fatalf("held after stop = %v, want %v", ok, c.held)
			}

			now = now.Add(c.advance)
			e.Update()
			if _, ok := e.voices[1]; ok != c.live {
				t.Fatalf("registered after update = %v, want %v", ok, c.live)
			}
		})
	}
}

func TestStopWhileFadingKeepsFirstFade(t *testing.T) {
	now := time.Unix(0, 0)
	e := newEngine(nil, WithClock(func() time.Time { return now }))
	e.voices[1] = &voice{}

	if err := e.Stop(1, audio.Tween{Duration: 100 * time.Millisecond}); err != nil {
		t.Fatalf("stop: %v", err)
	}
	first := *e.voices[1].fade

	now = now.Add(50 * time.Millisecond)
	if err := e.Stop(1, audio.Tween{}); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	v, ok := e.voices[1]
	if !ok {
		t.Fatalf("second stop should not release a fading voice")
	}
	if *v.fade != first {
		t.Fatalf("second stop replaced the fade: %+v vs %+v", *v.fade, first)
	}
}

func TestCloseReleasesVoices(t *testing.T) {
	e := newEngine(nil)
	e.voices[1] = &voice{}
	e.voices[2] = &voice{done: true}
	e.voices[3] = &voice{fade: &ramp{}}

	if err := e.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(e.voices) != 0 {
		t.Fatalf("expected every voice released, %d left", len(e.voices))
	}
	if err := e.Close(); !errors.Is(err, audio.ErrEngineClosed) {
		t.Fatalf("expected ErrEngineClosed on second close, got %v", err)
	}
	if _, err := e.CreateSubBus(audio.BusConfig{Name: "late"}); !errors.Is(err, audio.ErrEngineClosed) {
		t.Fatalf("expected ErrEngineClosed after close, got %v", err)
	}
}
