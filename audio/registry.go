package audio

import (
	"log"
	"sort"
)

// Registry maps each logical sound to its one live playback handle.
// It is owned by the goroutine that drives the coordinator.
//
// Replaying an id cuts off the previous instance, which also means rapid
// one-shot effects under the same id cut each other off.
type Registry struct {
	engine  MixEngine
	logger  *log.Logger
	handles map[SoundID]PlaybackHandle
}

// NewRegistry creates an empty registry that stops superseded handles
// through engine.
func NewRegistry(engine MixEngine, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		engine:  engine,
		logger:  logger,
		handles: make(map[SoundID]PlaybackHandle),
	}
}

// Insert records h as the live handle for id, stopping any previous handle.
func (r *Registry) Insert(id SoundID, h PlaybackHandle) {
	if r == nil {
		return
	}
	if prev, ok := r.handles[id]; ok && r.engine != nil {
		if err := r.engine.Stop(prev, DefaultTween); err != nil {
			r.logger.Printf("audio: stop superseded %q: %v", id, err)
		}
	}
	r.handles[id] = h
}

// Remove deletes and returns the handle for id, if any.
func (r *Registry) Remove(id SoundID) (PlaybackHandle, bool) {
	if r == nil {
		return 0, false
	}
	h, ok := r.handles[id]
	if ok {
		delete(r.handles, id)
	}
	return h, ok
}

// Get returns the live handle for id.
func (r *Registry) Get(id SoundID) (PlaybackHandle, bool) {
	if r == nil {
		return 0, false
	}
	h, ok := r.handles[id]
	return h, ok
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.handles)
}

// IDs returns the live ids in sorted order.
func (r *Registry) IDs() []SoundID {
	if r == nil {
		return nil
	}
	ids := make([]SoundID, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// StopAll stops every live handle with fade and empties the registry.
func (r *Registry) StopAll(fade Tween) {
	if r == nil {
		return
	}
	for _, id := range r.IDs() {
		h := r.handles[id]
		delete(r.handles, id)
		if r.engine == nil {
			continue
		}
		if err := r.engine.Stop(h, fade); err != nil {
			r.logger.Printf("audio: stop %q: %v", id, err)
		}
	}
}
