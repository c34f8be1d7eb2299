// Package audio delivers 16 kHz mono PCM to the fingerprinting pipeline from
// files and in-memory buffers.
package audio

import (
	"context"
	"time"
)

// SampleRate is the rate every source delivers.
const SampleRate = 16000

// DefaultBlockSize is 64 ms of audio.
const DefaultBlockSize = 1024

// Source delivers blocks of 16 kHz mono PCM in order. Blocks may have any
// length. Stream returns nil once the audio is exhausted and ctx.Err() when
// cancelled. It never closes out.
type Source interface {
	Stream(ctx context.Context, out chan<- []int16) error
}

// SliceSource streams an in-memory buffer.
type SliceSource struct {
	Samples   []int16
	BlockSize int
	// Realtime paces delivery at the audio's own speed.
	Realtime bool
}

func (s *SliceSource) Stream(ctx context.Context, out chan<- []int16) error {
	size := s.BlockSize
	if size <= 0 {
		size = DefaultBlockSize
	}

	var tick <-chan time.Time
	if s.Realtime {
		ticker := time.NewTicker(time.Duration(size) * time.Second / SampleRate)
		defer ticker.Stop()
		tick = ticker.C
	}

	for off := 0; off < len(s.Samples); off += size {
		end := min(off+size, len(s.Samples))
		block := make([]int16, end-off)
		copy(block, s.Samples[off:end])

		if err := Send(ctx, out, block); err != nil {
			return err
		}
		if tick != nil {
			select {
			case <-tick:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// Send delivers block, waiting for room in out. Blocks are never dropped,
// so the consumer always sees contiguous audio.
func Send(ctx context.Context, out chan<- []int16, block []int16) error {
	select {
	case out <- block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Chunker re-blocks arbitrary blocks into fixed-size chunks.
type Chunker struct {
	size    int
	pending []int16
}

func NewChunker(size int) *Chunker {
	return &Chunker{size: size}
}

// Push appends block and returns every complete chunk now available. The
// returned chunks do not alias block.
func (c *Chunker) Push(block []int16) [][]int16 {
	c.pending = append(c.pending, block...)

	var chunks [][]int16
	for len(c.pending) >= c.size {
		chunk := make([]int16, c.size)
		copy(chunk, c.pending)
		chunks = append(chunks, chunk)
		c.pending = c.pending[c.size:]
	}
	if len(c.pending) == 0 {
		c.pending = c.pending[:0:0]
	}
	return chunks
}

// Pending is the number of samples waiting for a full chunk.
func (c *Chunker) Pending() int {
	return len(c.pending)
}
