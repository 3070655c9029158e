package catalog

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// Decode turns an encoded file into 16-bit stereo PCM at sampleRate.
// Files with a .pcm or .raw extension are taken as already decoded.
func Decode(name string, data []byte, sampleRate int) ([]byte, error) {
	r := bytes.NewReader(data)

	var (
		stream io.Reader
		err    error
	)
	switch strings.ToLower(path.Ext(name)) {
	case ".wav":
		stream, err = wav.DecodeWithSampleRate(sampleRate, r)
	case ".mp3":
		stream, err = mp3.DecodeWithSampleRate(sampleRate, r)
	case ".ogg":
		stream, err = vorbis.DecodeWithSampleRate(sampleRate, r)
	case ".pcm", ".raw":
		return data, nil
	default:
		return nil, fmt.Errorf("decode %q: unsupported format", name)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", name, err)
	}

	pcm, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", name, err)
	}
	return pcm, nil
}

func isAudioFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".wav", ".mp3", ".ogg", ".pcm", ".raw":
		return true
	}
	return false
}
