package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/milk9111/sfxqueue/config"
	"github.com/milk9111/sfxqueue/sfx"
	"github.com/milk9111/sfxqueue/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	backend := flag.String("backend", "", "audio backend override: ebiten, mock or none")
	dir := flag.String("dir", "", "directory whose sounds shadow the embedded bank")
	watch := flag.Bool("watch", false, "reload sounds from -dir when they change")
	trace := flag.Bool("trace", false, "print process_sounds spans to stdout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *backend != "" {
		cfg.Audio.Backend = strings.ToLower(*backend)
	}
	if *dir != "" {
		cfg.Catalog.Dir = *dir
	}
	cfg.Catalog.Watch = cfg.Catalog.Watch || *watch
	cfg.Trace.Enabled = cfg.Trace.Enabled || *trace
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	shutdown, err := telemetry.Setup(context.Background(), cfg.Trace)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("telemetry: shutdown: %v", err)
		}
	}()

	sys, err := sfx.Open(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := sys.Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}()

	ebiten.SetTPS(cfg.Audio.TPS)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("sfxqueue")

	if err := ebiten.RunGame(NewGame(sys)); err != nil {
		log.Print(err)
	}
}
