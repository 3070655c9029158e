package audio_test

import (
	"bytes"
	"errors"
	"log"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/milk9111/sfxqueue/audio"
	"github.com/milk9111/sfxqueue/audio/mock"
)

var explicitStopFade = audio.Tween{Duration: 25 * time.Millisecond}

type fixture struct {
	engine  *mock.Engine
	catalog *mock.Catalog
	coord   *audio.Coordinator
	sounds  *audio.Sounds
	logs    *bytes.Buffer
}

func newFixture(t testing.TB, names ...string) *fixture {
	t.Helper()
	logs := &bytes.Buffer{}
	logger := log.New(logs, "", 0)
	engine := mock.NewEngine()
	catalog := mock.NewCatalog(names...)
	coord := audio.NewCoordinator(audio.NewQueues(), catalog, engine, audio.Options{
		Logger:   logger,
		StopFade: explicitStopFade,
	})
	require.True(t, coord.Active())
	return &fixture{
		engine:  engine,
		catalog: catalog,
		coord:   coord,
		sounds:  audio.NewSounds(coord, catalog, audio.WithLogger(logger)),
		logs:    logs,
	}
}

func TestCoordinatorStopsBeforePlays(t *testing.T) {
	f := newFixture(t, "music")

	f.sounds.PlayByName("music", audio.PlaySoundParams{})
	f.coord.ProcessTick()
	first, ok := f.coord.Registry().Get("music")
	require.True(t, ok)

	// play enqueued before stop within the same tick still restarts the sound
	f.sounds.PlayByName("music", audio.PlaySoundParams{})
	f.sounds.StopByName("music")
	f.coord.ProcessTick()

	second, ok := f.coord.Registry().Get("music")
	require.True(t, ok, "music should be live after stop+play")
	require.NotEqual(t, first, second)
	require.Len(t, f.engine.Stops, 1)
	require.Equal(t, first, f.engine.Stops[0].Handle)
	require.Equal(t, explicitStopFade, f.engine.Stops[0].Fade)
	require.Less(t, f.engine.Stops[0].Seq, f.engine.Submissions[1].Seq)
}

func TestProperty_StopQueueAppliedFirst(t *testing.T) {
	ids := []audio.SoundID{"a", "b", "c"}
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t, "a", "b", "c")

		warm := rapid.SliceOf(rapid.SampledFrom(ids)).Draw(rt, "warm")
		live := map[audio.SoundID]bool{}
		for _, id := range warm {
			f.sounds.PlaySoundID(id)
			live[id] = true
		}
		f.coord.ProcessTick()
		before := len(f.engine.Submissions)

		n := rapid.IntRange(0, 12).Draw(rt, "n")
		stopped := map[audio.SoundID]bool{}
		played := map[audio.SoundID]bool{}
		for i := 0; i < n; i++ {
			id := rapid.SampledFrom(ids).Draw(rt, "id")
			if rapid.Bool().Draw(rt, "stop") {
				f.sounds.StopSoundID(id)
				stopped[id] = true
			} else {
				f.sounds.PlaySoundID(id)
				played[id] = true
			}
		}
		f.coord.ProcessTick()

		lastExplicitStop := 0
		for _, s := range f.engine.Stops {
			if s.Fade == explicitStopFade && s.Seq > lastExplicitStop {
				lastExplicitStop = s.Seq
			}
		}
		for _, sub := range f.engine.Submissions[before:] {
			if sub.Seq < lastExplicitStop {
				rt.Fatalf("play of %q (seq %d) ran before a stop (seq %d)", sub.Sound, sub.Seq, lastExplicitStop)
			}
		}

		for _, id := range ids {
			want := played[id] || (live[id] && !stopped[id])
			_, got := f.coord.Registry().Get(id)
			if got != want {
				rt.Fatalf("%q live = %v, want %v", id, got, want)
			}
		}
	})
}

func TestCoordinatorReplaySupersedes(t *testing.T) {
	f := newFixture(t, "x")

	f.sounds.PlaySound("x")
	f.sounds.PlaySound("x")
	f.coord.ProcessTick()

	require.Equal(t, 1, f.coord.Registry().Len())
	require.Len(t, f.engine.Submissions, 2)
	require.Len(t, f.engine.Stops, 1)
	require.Equal(t, f.engine.Submissions[0].Handle, f.engine.Stops[0].Handle)
	require.Equal(t, audio.DefaultTween, f.engine.Stops[0].Fade)

	h, ok := f.coord.Registry().Get("x")
	require.True(t, ok)
	require.Equal(t, f.engine.Submissions[1].Handle, h)
	require.Len(t, f.engine.Live(), 1)
}

func TestCoordinatorStopWithoutLiveHandle(t *testing.T) {
	f := newFixture(t, "x", "y")
	f.sounds.PlaySound("y")
	f.coord.ProcessTick()
	before := f.coord.Registry().Len()

	f.sounds.StopByName("x")
	f.sounds.StopByName("never-registered")
	f.coord.ProcessTick()

	require.Equal(t, before, f.coord.Registry().Len())
	require.Empty(t, f.engine.Stops)
	require.Empty(t, f.logs.String())
}

func TestCoordinatorResolutionFailureSkipsOnlyThatEntry(t *testing.T) {
	f := newFixture(t, "known")

	f.sounds.PlaySound("unknown")
	f.sounds.PlaySound("known")
	f.coord.ProcessTick()

	require.Equal(t, []audio.SoundID{"known"}, f.coord.Registry().IDs())
	require.Contains(t, f.logs.String(), `play "unknown"`)
}

func TestCoordinatorSubmitFailureLeavesRegistry(t *testing.T) {
	f := newFixture(t, "x", "y")
	f.sounds.PlaySound("x")
	f.coord.ProcessTick()
	live, _ := f.coord.Registry().Get("x")

	f.engine.FailSubmit = map[audio.SoundID]error{"x": errors.New("device busy")}
	f.sounds.PlaySound("x")
	f.sounds.PlaySound("y")
	f.coord.ProcessTick()

	h, ok := f.coord.Registry().Get("x")
	require.True(t, ok)
	require.Equal(t, live, h, "failed replay must not touch the existing entry")
	_, ok = f.coord.Registry().Get("y")
	require.True(t, ok)
	require.Contains(t, f.logs.String(), "device busy")
}

func TestMasterVolume(t *testing.T) {
	tests := []struct {
		name string
		run  func(c *audio.Coordinator)
		want float64
	}{
		{"initial", func(c *audio.Coordinator) {}, 1},
		{"clamp_low", func(c *audio.Coordinator) { c.SetMasterVolume(-1) }, 0},
		{"clamp_high", func(c *audio.Coordinator) { c.SetMasterVolume(5) }, 1},
		{"change_composes", func(c *audio.Coordinator) {
			c.SetMasterVolume(0.5)
			c.ChangeMasterVolume(0.2)
		}, 0.7},
		{"saturates_up", func(c *audio.Coordinator) {
			c.SetMasterVolume(0.5)
			for i := 0; i < 5; i++ {
				c.ChangeMasterVolume(0.75)
			}
		}, 1},
		{"saturates_down", func(c *audio.Coordinator) {
			for i := 0; i < 5; i++ {
				c.ChangeMasterVolume(-3)
			}
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.run(f.coord)
			require.InDelta(t, tt.want, f.coord.MasterVolume(), 1e-9)
			if n := len(f.engine.Volumes); n > 0 {
				last := f.engine.Volumes[n-1]
				require.InDelta(t, tt.want, last.Amplitude, 1e-9)
				require.Equal(t, audio.DefaultTween, last.Tween)
			}
		})
	}
}

func TestPlayRandomVariantUniform(t *testing.T) {
	f := newFixture(t, "footstep-1", "footstep-2", "footstep-3")
	r := rand.New(rand.NewPCG(1, 2))
	sounds := audio.NewSounds(f.coord, f.catalog, audio.WithRand(r.IntN))

	counts := map[audio.SoundID]int{}
	for i := 0; i < 1000; i++ {
		id := sounds.PlayRandomVariant("footstep", 3, audio.DefaultPlaybackSettings())
		counts[id]++
	}

	require.Len(t, counts, 3)
	for _, id := range []audio.SoundID{"footstep-1", "footstep-2", "footstep-3"} {
		require.Greater(t, counts[id], 270, "%s drawn too rarely", id)
		require.Less(t, counts[id], 400, "%s drawn too often", id)
	}
	require.Len(t, f.engine.Submissions, 1000)
	require.LessOrEqual(t, f.coord.Registry().Len(), 3)
}

func TestPlayRandomVariantInvalidCount(t *testing.T) {
	f := newFixture(t, "footstep-1")
	require.Equal(t, audio.SoundID(""), f.sounds.PlayRandomVariant("footstep", 0, audio.DefaultPlaybackSettings()))
	require.Equal(t, audio.SoundID(""), f.sounds.PlayRandom("footstep", -2))
	require.Empty(t, f.engine.Submissions)
}

func TestPlayRandomQueues(t *testing.T) {
	f := newFixture(t, "hit-1", "hit-2")
	sounds := audio.NewSounds(f.coord, f.catalog, audio.WithRand(func(int) int { return 1 }))

	require.Equal(t, audio.SoundID("hit-2"), sounds.PlayRandom("hit", 2))
	require.Empty(t, f.engine.Submissions, "queued path waits for the tick")
	f.coord.ProcessTick()
	require.Equal(t, []audio.SoundID{"hit-2"}, f.coord.Registry().IDs())
}

func TestLoopCapabilityGap(t *testing.T) {
	tests := []struct {
		name     string
		looping  bool
		wantLoop bool
		wantWarn bool
	}{
		{"engine_without_loops", false, false, true},
		{"engine_with_loops", true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "ambience")
			f.engine.Looping = tt.looping

			settings := audio.PlaybackSettings{Volume: 0.4, Looped: true}
			require.NoError(t, f.coord.PlaySound("ambience", &settings))

			require.Len(t, f.engine.Submissions, 1)
			require.Equal(t, tt.wantLoop, f.engine.Submissions[0].Settings.Looped)
			require.Equal(t, 0.4, f.engine.Submissions[0].Settings.Volume)
			require.Equal(t, tt.wantWarn, bytes.Contains(f.logs.Bytes(), []byte("looping not supported")))
		})
	}
}

func TestQueuedLoopedMusicStillPlays(t *testing.T) {
	f := newFixture(t, "theme")
	f.sounds.PlayMusicIDEx("theme", audio.PlaySoundParams{Looped: true})
	f.sounds.PlayByName("theme", audio.PlaySoundParams{Looped: true})
	f.coord.ProcessTick()

	require.Len(t, f.engine.Submissions, 2)
	require.False(t, f.engine.Submissions[1].Settings.Looped)
	require.Contains(t, f.logs.String(), "looped music not supported yet")
	require.Equal(t, []audio.SoundID{"theme"}, f.coord.Registry().IDs())
}

func TestFilterTrackRouting(t *testing.T) {
	f := newFixture(t, "muffled")
	settings := audio.PlaybackSettings{Volume: 1, Track: audio.TrackFilter}
	require.NoError(t, f.coord.PlaySound("muffled", &settings))

	cfg, ok := f.engine.Bus(f.engine.Submissions[0].Bus)
	require.True(t, ok)
	require.Equal(t, "filter", cfg.Name)
	require.Equal(t, 100.0, cfg.LowPassCutoff)

	f.coord.SetFilterCutoff(800, audio.DefaultTween)
	require.Equal(t, []float64{800}, f.engine.Cutoffs)
}

func TestCoordinatorWithoutBackend(t *testing.T) {
	logs := &bytes.Buffer{}
	logger := log.New(logs, "", 0)
	catalog := mock.NewCatalog("x")

	coords := map[string]*audio.Coordinator{
		"nil_engine": audio.NewCoordinator(nil, catalog, nil, audio.Options{Logger: logger}),
		"open_fails": audio.Init(nil, catalog, func() (audio.MixEngine, error) {
			return nil, errors.New("no device")
		}, audio.Options{Logger: logger}),
		"bus_fails": audio.NewCoordinator(nil, catalog, &mock.Engine{FailBuses: errors.New("bus")}, audio.Options{Logger: logger}),
	}

	for name, c := range coords {
		t.Run(name, func(t *testing.T) {
			require.False(t, c.Active())
			sounds := audio.NewSounds(c, catalog, audio.WithLogger(logger))

			require.NotPanics(t, func() {
				sounds.PlayByName("x", audio.PlaySoundParams{})
				sounds.StopByName("x")
				sounds.PlayRandomVariant("x", 2, audio.DefaultPlaybackSettings())
				c.SetMasterVolume(0.3)
				c.ChangeMasterVolume(0.1)
				c.SetFilterCutoff(200, audio.DefaultTween)
				c.ProcessTick()
				require.NoError(t, c.Close())
			})
			require.Equal(t, 0.0, c.MasterVolume())
			require.ErrorIs(t, c.PlaySound("x", nil), audio.ErrNoBackend)

			plays, stops := c.Queues().Pending()
			require.Zero(t, plays, "inert coordinator still drains")
			require.Zero(t, stops)
		})
	}
	require.Contains(t, logs.String(), "no device")
}

func TestCoordinatorClose(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.sounds.PlaySound("a")
	f.sounds.PlaySound("b")
	f.coord.ProcessTick()
	require.Equal(t, 1, f.engine.Updates())

	require.NoError(t, f.coord.Close())
	require.True(t, f.engine.Closed())
	require.False(t, f.coord.Active())
	require.Empty(t, f.engine.Live())
	require.Zero(t, f.coord.Registry().Len())
	require.Equal(t, 0.0, f.coord.MasterVolume())
}

func TestTweenProgress(t *testing.T) {
	tests := []struct {
		name    string
		tween   audio.Tween
		elapsed time.Duration
		want    float64
	}{
		{"zero_duration", audio.Tween{}, 0, 1},
		{"start", audio.Tween{Duration: time.Second}, 0, 0},
		{"linear_half", audio.Tween{Duration: time.Second}, 500 * time.Millisecond, 0.5},
		{"in_half", audio.Tween{Duration: time.Second, Easing: audio.EaseInPowi}, 500 * time.Millisecond, 0.25},
		{"out_half", audio.Tween{Duration: time.Second, Easing: audio.EaseOutPowi}, 500 * time.Millisecond, 0.75},
		{"past_end", audio.Tween{Duration: time.Second}, 2 * time.Second, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, tt.tween.Progress(tt.elapsed), 1e-9)
		})
	}
}

func TestVariantID(t *testing.T) {
	require.Equal(t, audio.SoundID("footstep-3"), audio.VariantID("Footstep", 3))
	require.Equal(t, audio.SoundID("door"), audio.NewSoundID("  Door "))
}
