// Package catalog resolves sound names to decoded PCM. Sounds are listed in a
// YAML manifest, decoded on first use, and kept in an in-memory cache until
// their file changes or the manifest is reloaded.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/milk9111/sfxqueue/audio"
)

// DefaultManifest is the manifest path used when none is configured.
const DefaultManifest = "sounds.yaml"

// Catalog implements audio.Catalog over an fs.FS.
type Catalog struct {
	src        fs.FS
	manifest   string
	sampleRate int
	logger     *log.Logger
	ttl        time.Duration

	mu      sync.RWMutex
	entries map[audio.SoundID]Entry
	aliases map[audio.SoundID]audio.SoundID
	byFile  map[string][]audio.SoundID

	pcm *cache.Cache
}

// Option customizes a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger used for decode failures and reloads.
func WithLogger(logger *log.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCacheTTL evicts decoded sounds that have not been set for ttl.
// Zero keeps them until invalidated.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Catalog) {
		c.ttl = ttl
	}
}

// New reads the manifest from src and returns a catalog decoding at
// sampleRate.
func New(src fs.FS, manifest string, sampleRate int, opts ...Option) (*Catalog, error) {
	if manifest == "" {
		manifest = DefaultManifest
	}
	c := &Catalog{
		src:        src,
		manifest:   cleanPath(manifest),
		sampleRate: sampleRate,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	expiry, cleanup := cache.NoExpiration, time.Duration(0)
	if c.ttl > 0 {
		expiry, cleanup = c.ttl, 2*c.ttl
	}
	c.pcm = cache.New(expiry, cleanup)

	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the manifest and drops every cached sound. On error the
// previous manifest stays in effect.
func (c *Catalog) Reload() error {
	data, err := fs.ReadFile(c.src, c.manifest)
	if err != nil {
		return fmt.Errorf("catalog: load %s: %w", c.manifest, err)
	}
	m, err := ParseManifest(c.manifest, data)
	if err != nil {
		return err
	}

	entries := make(map[audio.SoundID]Entry)
	aliases := make(map[audio.SoundID]audio.SoundID)
	byFile := make(map[string][]audio.SoundID)
	for _, e := range m.Entries() {
		id := audio.NewSoundID(e.Name)
		e.File = cleanPath(e.File)
		entries[id] = e
		byFile[e.File] = append(byFile[e.File], id)
		for _, alias := range e.Aliases {
			aliases[audio.NewSoundID(alias)] = id
		}
	}

	c.mu.Lock()
	c.entries, c.aliases, c.byFile = entries, aliases, byFile
	c.mu.Unlock()
	c.pcm.Flush()
	return nil
}

// ResolveName normalizes name and follows manifest aliases.
func (c *Catalog) ResolveName(name string) audio.SoundID {
	id := audio.NewSoundID(name)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if canon, ok := c.aliases[id]; ok {
		return canon
	}
	return id
}

// Lookup returns the decoded sound for id, decoding it on first use.
// Decode failures are logged and reported as a miss.
func (c *Catalog) Lookup(id audio.SoundID) (audio.DecodedSound, bool) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return audio.DecodedSound{}, false
	}

	if v, ok := c.pcm.Get(string(id)); ok {
		return v.(audio.DecodedSound), true
	}

	s, err := c.load(id, e)
	if err != nil {
		c.logger.Printf("catalog: load %q: %v", id, err)
		return audio.DecodedSound{}, false
	}
	return s, true
}

// Preload decodes every sound so the first play does no file work.
func (c *Catalog) Preload() error {
	var errs []error
	for _, name := range c.Names() {
		id := audio.SoundID(name)
		c.mu.RLock()
		e := c.entries[id]
		c.mu.RUnlock()
		if _, ok := c.pcm.Get(name); ok {
			continue
		}
		if _, err := c.load(id, e); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("catalog: preload: %w", errors.Join(errs...))
	}
	return nil
}

// Invalidate drops cached PCM for every sound backed by file and returns
// how many entries it touched.
func (c *Catalog) Invalidate(file string) int {
	c.mu.RLock()
	ids := c.byFile[cleanPath(file)]
	c.mu.RUnlock()
	for _, id := range ids {
		c.pcm.Delete(string(id))
	}
	return len(ids)
}

// Sync applies pending watcher events without blocking. A manifest change
// reloads the catalog, any other change invalidates the affected sounds.
func (c *Catalog) Sync(w *Watcher) {
	if w == nil {
		return
	}
	for {
		select {
		case name := <-w.Events:
			c.apply(name)
		case err := <-w.Errors:
			c.logger.Printf("catalog: watch: %v", err)
		default:
			return
		}
	}
}

func (c *Catalog) apply(name string) {
	if cleanPath(name) == c.manifest {
		if err := c.Reload(); err != nil {
			c.logger.Printf("catalog: reload: %v", err)
			return
		}
		c.logger.Printf("catalog: reloaded %s (%d sounds)", c.manifest, c.Len())
		return
	}
	if n := c.Invalidate(name); n > 0 {
		c.logger.Printf("catalog: %s changed, dropped %d cached sound(s)", name, n)
	}
}

// Entry returns the manifest entry for id.
func (c *Catalog) Entry(id audio.SoundID) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// Names returns every sound id in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for id := range c.entries {
		out = append(out, string(id))
	}
	sort.Strings(out)
	return out
}

// Len returns the number of sounds in the manifest.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cached returns the number of decoded sounds held in memory.
func (c *Catalog) Cached() int {
	return c.pcm.ItemCount()
}

func (c *Catalog) load(id audio.SoundID, e Entry) (audio.DecodedSound, error) {
	data, err := fs.ReadFile(c.src, e.File)
	if err != nil {
		return audio.DecodedSound{}, err
	}
	pcm, err := Decode(e.File, data, c.sampleRate)
	if err != nil {
		return audio.DecodedSound{}, err
	}
	gain := e.Volume
	if gain == 0 {
		gain = 1
	}
	s := audio.DecodedSound{ID: id, PCM: pcm, SampleRate: c.sampleRate, Gain: gain}
	c.pcm.Set(string(id), s, cache.DefaultExpiration)
	return s, nil
}
