package audio

import (
	"fmt"
	"log"
)

const defaultFilterCutoff = 100.0

// MixBusConfig configures the sub-buses created at startup.
type MixBusConfig struct {
	// FilterCutoff is the low-pass cutoff of the filter bus in Hz.
	FilterCutoff float64
	// VolumeTween smooths master volume changes.
	VolumeTween Tween
}

// MixBus owns the master and filter sub-buses and the master volume.
type MixBus struct {
	engine MixEngine
	logger *log.Logger

	master BusHandle
	filter BusHandle

	masterVolume float64
	volumeTween  Tween
}

// NewMixBus creates the master bus and a filter bus feeding into it.
func NewMixBus(engine MixEngine, cfg MixBusConfig, logger *log.Logger) (*MixBus, error) {
	if engine == nil {
		return nil, ErrNoBackend
	}
	if logger == nil {
		logger = log.Default()
	}
	if cfg.FilterCutoff <= 0 {
		cfg.FilterCutoff = defaultFilterCutoff
	}
	if cfg.VolumeTween == (Tween{}) {
		cfg.VolumeTween = DefaultTween
	}

	master, err := engine.CreateSubBus(BusConfig{Name: "master"})
	if err != nil {
		return nil, fmt.Errorf("audio: add master track: %w", err)
	}
	filter, err := engine.CreateSubBus(BusConfig{Name: "filter", Parent: master, LowPassCutoff: cfg.FilterCutoff})
	if err != nil {
		return nil, fmt.Errorf("audio: add filter track: %w", err)
	}

	return &MixBus{
		engine:       engine,
		logger:       logger,
		master:       master,
		filter:       filter,
		masterVolume: 1,
		volumeTween:  cfg.VolumeTween,
	}, nil
}

// Bus returns the sub-bus a track routes to.
func (m *MixBus) Bus(track Track) BusHandle {
	if track == TrackFilter {
		return m.filter
	}
	return m.master
}

// SetMasterVolume clamps v to [0,1] and ramps the master bus to it.
func (m *MixBus) SetMasterVolume(v float64) {
	m.masterVolume = clamp01(v)
	if err := m.engine.SetBusVolume(m.master, m.masterVolume, m.volumeTween); err != nil {
		m.logger.Printf("audio: set master volume: %v", err)
	}
}

// ChangeMasterVolume adds delta to the current master volume.
func (m *MixBus) ChangeMasterVolume(delta float64) {
	m.SetMasterVolume(m.masterVolume + delta)
}

// MasterVolume returns the stored master volume.
func (m *MixBus) MasterVolume() float64 {
	return m.masterVolume
}

// SetFilterCutoff moves the filter bus cutoff when the engine supports it.
func (m *MixBus) SetFilterCutoff(hz float64, tween Tween) error {
	fe, ok := m.engine.(FilterEngine)
	if !ok {
		return fmt.Errorf("audio: filter cutoff: %w", ErrUnsupported)
	}
	return fe.SetBusCutoff(m.filter, hz, tween)
}

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
