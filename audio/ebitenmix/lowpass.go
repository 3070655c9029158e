package ebitenmix

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync/atomic"
)

// frameSize is one 16-bit stereo frame in bytes.
const frameSize = 4

// cutoff is shared between the engine goroutine and the player's reader.
type cutoff struct {
	bits atomic.Uint64
}

func newCutoff(hz float64) *cutoff {
	c := &cutoff{}
	c.set(hz)
	return c
}

func (c *cutoff) set(hz float64) {
	c.bits.Store(math.Float64bits(hz))
}

func (c *cutoff) get() float64 {
	return math.Float64frombits(c.bits.Load())
}

// lowPass is a one-pole low-pass filter over 16-bit stereo PCM.
type lowPass struct {
	src        io.Reader
	cutoff     *cutoff
	sampleRate float64

	prev [2]float64
	buf  []byte
	rest []byte
}

func newLowPass(src io.Reader, c *cutoff, sampleRate int) *lowPass {
	return &lowPass{src: src, cutoff: c, sampleRate: float64(sampleRate)}
}

func (f *lowPass) alpha() float64 {
	hz := f.cutoff.get()
	if hz <= 0 || f.sampleRate <= 0 {
		return 1
	}
	dt := 1 / f.sampleRate
	rc := 1 / (2 * math.Pi * hz)
	return dt / (rc + dt)
}

func (f *lowPass) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(f.rest) > 0 {
		n := copy(p, f.rest)
		f.rest = f.rest[n:]
		return n, nil
	}

	want := len(p) - len(p)%frameSize
	if want == 0 {
		want = frameSize
	}
	if cap(f.buf) < want {
		f.buf = make([]byte, want)
	}
	buf := f.buf[:want]

	n, err := io.ReadFull(f.src, buf)
	n -= n % frameSize
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
		if n == 0 {
			err = io.EOF
		}
	}
	f.process(buf[:n])

	c := copy(p, buf[:n])
	f.rest = append(f.rest[:0], buf[c:n]...)
	return c, err
}

func (f *lowPass) process(pcm []byte) {
	a := f.alpha()
	for i := 0; i+1 < len(pcm); i += 2 {
		ch := (i / 2) % 2
		x := float64(int16(binary.LittleEndian.Uint16(pcm[i:])))
		y := f.prev[ch] + a*(x-f.prev[ch])
		f.prev[ch] = y
		binary.LittleEndian.PutUint16(pcm[i:], uint16(clampSample(y)))
	}
}

// Seek resets the filter state so a rewound player starts clean.
func (f *lowPass) Seek(offset int64, whence int) (int64, error) {
	s, ok := f.src.(io.Seeker)
	if !ok {
		return 0, errors.New("ebitenmix: filter source is not seekable")
	}
	f.prev = [2]float64{}
	f.rest = f.rest[:0]
	return s.Seek(offset, whence)
}

func clampSample(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(math.Round(v))
}
