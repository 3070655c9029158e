// Package cue runs small tengo scripts that drive sounds once per tick.
//
// A cue script defines update(sfx, state, tick). sfx exposes play, stop,
// play_random, play_random_now, set_volume, change_volume, volume, log and
// finish; state is a map that persists between ticks.
package cue

import (
	"fmt"
	"io/fs"
	"log"
	"path"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/sfxqueue/audio"
)

// Mixer is the volume surface a cue can reach. *audio.Coordinator
// implements it.
type Mixer interface {
	SetMasterVolume(v float64)
	ChangeMasterVolume(delta float64)
	MasterVolume() float64
}

const dispatchScript = `
update(__sfx, __state, __tick)
`

// Runner owns one compiled cue script.
type Runner struct {
	name     string
	compiled *tengo.Compiled
	sounds   *audio.Sounds
	mixer    Mixer
	logger   *log.Logger
	state    *tengo.Map
	finished bool
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for script errors and sfx.log.
func WithLogger(logger *log.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Compile builds a runner from script source. mixer may be nil, in which case
// the volume functions do nothing and volume() returns 0.
func Compile(name string, src []byte, sounds *audio.Sounds, mixer Mixer, opts ...Option) (*Runner, error) {
	if sounds == nil {
		return nil, fmt.Errorf("cue: %s: nil sounds", name)
	}

	script := tengo.NewScript([]byte(string(src) + "\n" + dispatchScript))
	_ = script.Add("__sfx", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	_ = script.Add("__tick", 0)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("cue: compile %s: %w", name, err)
	}

	r := &Runner{
		name:     name,
		compiled: compiled,
		sounds:   sounds,
		mixer:    mixer,
		logger:   log.Default(),
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Load reads a cue from fsys. A bare name such as "intro" is looked up as
// cues/intro.tengo.
func Load(fsys fs.FS, name string, sounds *audio.Sounds, mixer Mixer, opts ...Option) (*Runner, error) {
	p := ScriptPath(name)
	src, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("cue: load %s: %w", p, err)
	}
	return Compile(p, src, sounds, mixer, opts...)
}

// ScriptPath maps a cue name to its path inside an asset tree.
func ScriptPath(name string) string {
	s := strings.TrimPrefix(path.Clean(strings.ReplaceAll(name, "\\", "/")), "/")
	if path.Ext(s) != ".tengo" {
		s += ".tengo"
	}
	if !strings.HasPrefix(s, "cues/") {
		s = "cues/" + s
	}
	return s
}

// Name returns the script path or name the runner was built from.
func (r *Runner) Name() string {
	return r.name
}

// Done reports whether the script called sfx.finish().
func (r *Runner) Done() bool {
	return r.finished
}

// Update runs the script's update function for tick. A finished cue does
// nothing.
func (r *Runner) Update(tick uint64) error {
	if r == nil || r.finished {
		return nil
	}
	if err := r.compiled.Set("__sfx", r.bindings()); err != nil {
		return err
	}
	if err := r.compiled.Set("__state", r.state); err != nil {
		return err
	}
	if err := r.compiled.Set("__tick", int64(tick)); err != nil {
		return err
	}
	if err := r.compiled.Run(); err != nil {
		return fmt.Errorf("cue: %s tick %d: %w", r.name, tick, err)
	}
	return nil
}

// State returns a snapshot of the script's persistent state.
func (r *Runner) State() map[string]any {
	out, _ := objectToAny(r.state).(map[string]any)
	return out
}

func (r *Runner) bindings() *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["play"] = &tengo.UserFunction{Name: "play", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		name := strings.TrimSpace(objectAsString(args[0]))
		if name == "" {
			return tengo.FalseValue, nil
		}
		var params audio.PlaySoundParams
		if len(args) > 1 {
			params.Looped = !args[1].IsFalsy()
		}
		r.sounds.PlayByName(name, params)
		return tengo.TrueValue, nil
	}}

	values["stop"] = &tengo.UserFunction{Name: "stop", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		name := strings.TrimSpace(objectAsString(args[0]))
		if name == "" {
			return tengo.FalseValue, nil
		}
		r.sounds.StopByName(name)
		return tengo.TrueValue, nil
	}}

	values["play_random"] = &tengo.UserFunction{Name: "play_random", Value: func(args ...tengo.Object) (tengo.Object, error) {
		base, count, ok := variantArgs(args)
		if !ok {
			return tengo.UndefinedValue, nil
		}
		return idObject(r.sounds.PlayRandom(base, count)), nil
	}}

	values["play_random_now"] = &tengo.UserFunction{Name: "play_random_now", Value: func(args ...tengo.Object) (tengo.Object, error) {
		base, count, ok := variantArgs(args)
		if !ok {
			return tengo.UndefinedValue, nil
		}
		settings := audio.DefaultPlaybackSettings()
		if len(args) > 2 {
			if v, ok := tengo.ToFloat64(args[2]); ok {
				settings.Volume = v
			}
		}
		return idObject(r.sounds.PlayRandomVariant(base, count, settings)), nil
	}}

	values["set_volume"] = &tengo.UserFunction{Name: "set_volume", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 || r.mixer == nil {
			return tengo.FalseValue, nil
		}
		v, ok := tengo.ToFloat64(args[0])
		if !ok {
			return tengo.FalseValue, nil
		}
		r.mixer.SetMasterVolume(v)
		return tengo.TrueValue, nil
	}}

	values["change_volume"] = &tengo.UserFunction{Name: "change_volume", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 || r.mixer == nil {
			return tengo.FalseValue, nil
		}
		d, ok := tengo.ToFloat64(args[0])
		if !ok {
			return tengo.FalseValue, nil
		}
		r.mixer.ChangeMasterVolume(d)
		return tengo.TrueValue, nil
	}}

	values["volume"] = &tengo.UserFunction{Name: "volume", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if r.mixer == nil {
			return &tengo.Float{Value: 0}, nil
		}
		return &tengo.Float{Value: r.mixer.MasterVolume()}, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		r.logger.Printf("cue: %s: %s", r.name, strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	values["finish"] = &tengo.UserFunction{Name: "finish", Value: func(args ...tengo.Object) (tengo.Object, error) {
		r.finished = true
		return tengo.TrueValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func variantArgs(args []tengo.Object) (string, int, bool) {
	if len(args) < 2 {
		return "", 0, false
	}
	base := strings.TrimSpace(objectAsString(args[0]))
	count, ok := tengo.ToInt(args[1])
	if base == "" || !ok {
		return "", 0, false
	}
	return base, count, true
}

func idObject(id audio.SoundID) tengo.Object {
	if id == "" {
		return tengo.UndefinedValue
	}
	return &tengo.String{Value: string(id)}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func objectToAny(obj tengo.Object) any {
	if obj == nil {
		return nil
	}

	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	case *tengo.Int:
		return int(v.Value)
	case *tengo.Float:
		return v.Value
	case *tengo.Bool:
		return !v.IsFalsy()
	case *tengo.Array:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.Map:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.Undefined:
		return nil
	default:
		return v.String()
	}
}
