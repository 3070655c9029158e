package audio

import "errors"

var (
	ErrNoBackend       = errors.New("audio: no usable mixing backend")
	ErrUnknownSound    = errors.New("audio: no sound data")
	ErrUnknownHandle   = errors.New("audio: unknown playback handle")
	ErrUnknownBus      = errors.New("audio: unknown bus")
	ErrEngineClosed    = errors.New("audio: engine closed")
	ErrUnsupported     = errors.New("audio: capability not supported by engine")
	ErrLoopUnsupported = errors.New("audio: looping not supported by playback path")
)
