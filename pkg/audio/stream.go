package audio

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

const bytesPerSample = 4 // float32 LE

type sourceHolder struct {
	src FrameSource
}

// frameReader is the io.Reader handed to the output device. Each frame asks the
// source for one mono value and copies it to every channel. The source pointer
// is swapped atomically so Read never takes a lock.
type frameReader struct {
	src      atomic.Pointer[sourceHolder]
	channels int
	running  atomic.Bool
}

func newFrameReader(src FrameSource, channels int) *frameReader {
	r := &frameReader{channels: channels}
	r.setSource(src)
	r.running.Store(true)
	return r
}

func (r *frameReader) setSource(src FrameSource) {
	if src == nil {
		r.src.Store(nil)
		return
	}
	r.src.Store(&sourceHolder{src: src})
}

// Read fills p with whole frames of float32 little-endian samples
func (r *frameReader) Read(p []byte) (int, error) {
	frameBytes := bytesPerSample * r.channels
	n := len(p) / frameBytes * frameBytes

	h := r.src.Load()
	if h == nil || !r.running.Load() {
		clear(p[:n])
		return n, nil
	}

	for off := 0; off < n; off += frameBytes {
		bits := math.Float32bits(h.src.Tick())
		for ch := 0; ch < r.channels; ch++ {
			binary.LittleEndian.PutUint32(p[off+ch*bytesPerSample:], bits)
		}
	}
	return n, nil
}
