package main

import (
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"

	"github.com/milk9111/sfxqueue/audio"
	"github.com/milk9111/sfxqueue/sfx"
)

const (
	baseWidth  = 960
	baseHeight = 540

	volumeStep   = 0.1
	closedCutoff = 100.0
	openCutoff   = 8000.0
)

const helpText = `J jump  L land  C coin  M theme on/off  A ambience (filtered)
SPACE random footstep  B drop ball  I intro cue  W walk cue
UP/DOWN volume  F open/close filter  S stop last`

type Game struct {
	frames int

	sys     *sfx.System
	board   *soundboard
	impacts *impacts

	last       audio.SoundID
	musicOn    bool
	filterOpen bool
}

func NewGame(sys *sfx.System) *Game {
	g := &Game{
		sys:     sys,
		impacts: newImpacts(baseWidth*0.7, baseHeight),
	}
	g.board = newSoundboard(g, sys.Catalog.Names())
	return g
}

func (g *Game) Update() error {
	g.frames++

	g.handleKeys()
	for _, speed := range g.impacts.step(1.0 / float64(ebiten.TPS())) {
		settings := audio.DefaultPlaybackSettings()
		settings.Volume = loudness(speed)
		if id := g.sys.Sounds.PlayRandomVariant("footstep", 3, settings); id != "" {
			g.last = id
		}
	}

	g.sys.Tick()

	g.board.refresh(g.sys.Coordinator.MasterVolume(), g.last)
	g.board.ui.Update()
	return nil
}

func (g *Game) handleKeys() {
	if inpututil.IsKeyJustPressed(ebiten.KeyJ) {
		g.play("jump")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.play("land")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.play("coin")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		if g.musicOn {
			g.sys.Sounds.StopByName("theme")
		} else {
			settings := audio.DefaultPlaybackSettings()
			settings.Looped = true
			if err := g.sys.Coordinator.PlaySound(g.sys.Catalog.ResolveName("theme"), &settings); err != nil && g.sys.Coordinator.Active() {
				log.Printf("theme: %v", err)
			}
		}
		g.musicOn = !g.musicOn
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyA) {
		settings := audio.DefaultPlaybackSettings()
		settings.Looped = true
		settings.Track = audio.TrackFilter
		if err := g.sys.Coordinator.PlaySound("ambience", &settings); err != nil && g.sys.Coordinator.Active() {
			log.Printf("ambience: %v", err)
		}
		g.last = "ambience"
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if id := g.sys.Sounds.PlayRandomVariant("footstep", 3, audio.DefaultPlaybackSettings()); id != "" {
			g.last = id
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.impacts.drop(40 + rand.Float64()*(baseWidth*0.7-80))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyI) {
		g.startCue("intro")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyW) {
		g.startCue("footsteps")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyUp) {
		g.sys.Coordinator.ChangeMasterVolume(volumeStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDown) {
		g.sys.Coordinator.ChangeMasterVolume(-volumeStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		g.filterOpen = !g.filterOpen
		hz := closedCutoff
		if g.filterOpen {
			hz = openCutoff
		}
		g.sys.Coordinator.SetFilterCutoff(hz, audio.Tween{Duration: 500 * time.Millisecond, Easing: audio.EaseOutPowi})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.stopLast()
	}
}

func (g *Game) play(id audio.SoundID) {
	g.sys.Sounds.PlaySoundID(id)
	g.last = id
}

func (g *Game) stopLast() {
	if g.last != "" {
		g.sys.Sounds.StopSoundID(g.last)
	}
}

func (g *Game) startCue(name string) {
	if _, err := g.sys.StartCue(name); err != nil {
		log.Printf("cue %s: %v", name, err)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Midnightblue)
	g.impacts.draw(screen)

	backend := "on"
	if !g.sys.Coordinator.Active() {
		backend = "off (no audio device)"
	}
	plays, stops := g.sys.Coordinator.Queues().Pending()
	status := []string{
		fmt.Sprintf("Frames: %d    FPS: %.2f    audio: %s", g.frames, ebiten.ActualFPS(), backend),
		fmt.Sprintf("playing: %d    queued: %d play / %d stop    cues: %d", g.sys.Coordinator.Registry().Len(), plays, stops, g.sys.Cues()),
		helpText,
	}
	ebitenutil.DebugPrint(screen, strings.Join(status, "\n"))

	g.drawVolumeMeter(screen)
	g.board.ui.Draw(screen)
}

// drawVolumeMeter draws the master volume as a horizontal bar.
func (g *Game) drawVolumeMeter(screen *ebiten.Image) {
	const (
		x, y  = 12, 80
		w, h  = 200, 12
		inset = 2
	)
	vol := float32(g.sys.Coordinator.MasterVolume())
	vector.FillRect(screen, x, y, w, h, colornames.Darkslategray, false)
	vector.FillRect(screen, x+inset, y+inset, (w-2*inset)*vol, h-2*inset, colornames.Seagreen, false)
	vector.StrokeRect(screen, x, y, w, h, 1, colornames.Lightgrey, false)
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
