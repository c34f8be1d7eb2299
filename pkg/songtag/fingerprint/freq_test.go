package fingerprint

import (
	"math"
	"testing"
)

// TestFreqBinRoundTrip checks BinToFreq(FreqToBin(f)) stays within one bin of f.
func TestFreqBinRoundTrip(t *testing.T) {
	for f := 0.0; f <= SampleRate/2; f += 13.7 {
		got := BinToFreq(FreqToBin(f))
		if math.Abs(got-f) > BinResolution() {
			t.Fatalf("Round trip of %.2f Hz gave %.2f Hz", f, got)
		}
	}
}

// TestFreqToBin checks band edges and the rounding of exact halves.
func TestFreqToBin(t *testing.T) {
	tests := []struct {
		freq float64
		bin  int
	}{
		{MinFreq, 32},
		{MaxFreq, 704},
		{1000, 128},
		{0.5 * BinResolution(), 0},
		{1.5 * BinResolution(), 2},
		{2.5 * BinResolution(), 2},
	}

	for _, tt := range tests {
		if got := FreqToBin(tt.freq); got != tt.bin {
			t.Errorf("FreqToBin(%f): expected %d, got %d", tt.freq, tt.bin, got)
		}
	}
}
