package fingerprint

import "fmt"

// SampleWindow keeps the most recent FFTSize samples of the stream. It advances
// by one chunk per AddChunk call and counts every sample it has seen.
type SampleWindow struct {
	ring      []int16
	next      int // chunk slot written by the next AddChunk
	filled    int
	processed int64
}

func NewSampleWindow() *SampleWindow {
	return &SampleWindow{ring: make([]int16, FFTSize)}
}

// AddChunk shifts one chunk into the window. The chunk must hold exactly
// ChunkSize samples.
func (w *SampleWindow) AddChunk(chunk []int16) {
	if len(chunk) != ChunkSize {
		panic(fmt.Sprintf("fingerprint: chunk has %d samples, want %d", len(chunk), ChunkSize))
	}

	copy(w.ring[w.next*ChunkSize:], chunk)
	w.next = (w.next + 1) % ChunkCount
	if w.filled < FFTSize {
		w.filled += ChunkSize
	}
	w.processed += ChunkSize
}

func (w *SampleWindow) IsFull() bool {
	return w.filled == FFTSize
}

// Samples returns a copy of the window, oldest sample first. Calling it before
// the window is full panics.
func (w *SampleWindow) Samples() []int16 {
	if !w.IsFull() {
		panic("fingerprint: window read before it is full")
	}

	out := make([]int16, FFTSize)
	split := w.next * ChunkSize
	n := copy(out, w.ring[split:])
	copy(out[n:], w.ring[:split])
	return out
}

func (w *SampleWindow) ProcessedSamples() int64 {
	return w.processed
}

func (w *SampleWindow) ProcessedMs() int64 {
	return w.processed * 1000 / SampleRate
}
