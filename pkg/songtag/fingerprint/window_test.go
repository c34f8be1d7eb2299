package fingerprint

import "testing"

func chunkOf(v int16) []int16 {
	c := make([]int16, ChunkSize)
	for i := range c {
		c[i] = v
	}
	return c
}

// TestSampleWindowBecomesFull checks the window fills after exactly ChunkCount chunks and stays full.
func TestSampleWindowBecomesFull(t *testing.T) {
	w := NewSampleWindow()

	for i := 1; i <= 3*ChunkCount; i++ {
		w.AddChunk(chunkOf(int16(i)))
		want := i >= ChunkCount
		if w.IsFull() != want {
			t.Fatalf("After %d chunks expected IsFull=%v, got %v", i, want, w.IsFull())
		}
	}
}

// TestSampleWindowOrder checks samples come back oldest first after the ring wraps.
func TestSampleWindowOrder(t *testing.T) {
	w := NewSampleWindow()
	total := ChunkCount + 5
	for i := 0; i < total; i++ {
		w.AddChunk(chunkOf(int16(i)))
	}

	samples := w.Samples()
	if len(samples) != FFTSize {
		t.Fatalf("Expected %d samples, got %d", FFTSize, len(samples))
	}
	for c := 0; c < ChunkCount; c++ {
		want := int16(total - ChunkCount + c)
		if got := samples[c*ChunkSize]; got != want {
			t.Errorf("Chunk slot %d: expected %d, got %d", c, want, got)
		}
	}
}

// TestSampleWindowCounters checks the processed sample and millisecond counters.
func TestSampleWindowCounters(t *testing.T) {
	w := NewSampleWindow()
	for i := 0; i < 375; i++ {
		w.AddChunk(chunkOf(0))
	}

	if w.ProcessedSamples() != 375*ChunkSize {
		t.Errorf("Expected %d processed samples, got %d", 375*ChunkSize, w.ProcessedSamples())
	}
	if w.ProcessedMs() != 3000 {
		t.Errorf("Expected 3000 ms, got %d", w.ProcessedMs())
	}
}

// TestAddChunkWrongLength checks a short chunk is rejected.
func TestAddChunkWrongLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for a short chunk")
		}
	}()
	NewSampleWindow().AddChunk(make([]int16, ChunkSize-1))
}

// TestSamplesBeforeFull checks reading a partial window is rejected.
func TestSamplesBeforeFull(t *testing.T) {
	w := NewSampleWindow()
	w.AddChunk(chunkOf(1))

	defer func() {
		if recover() == nil {
			t.Error("Expected panic when reading a partial window")
		}
	}()
	w.Samples()
}
