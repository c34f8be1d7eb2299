package fingerprint

import (
	"math"
	"math/rand"
	"testing"
)

func sineFrame(freq, amp float64, offset int) []int16 {
	out := make([]int16, FFTSize)
	for i := range out {
		t := float64(offset+i) / SampleRate
		out[i] = int16(amp * math.Sin(2*math.Pi*freq*t))
	}
	return out
}

// TestSpectrogramMagnitudes checks magnitudes are never negative and the maximum never decreases.
func TestSpectrogramMagnitudes(t *testing.T) {
	spec := NewSpectrogram(FFTSize)
	rng := rand.New(rand.NewSource(7))

	prevMax := 0.0
	for stripe := 0; stripe < 20; stripe++ {
		samples := make([]int16, FFTSize)
		for i := range samples {
			samples[i] = int16(rng.Intn(65536) - 32768)
		}
		spec.AddStripe(samples)

		stripeMax := 0.0
		for bin := 0; bin < spec.BinCount(); bin++ {
			m := spec.GetMagnitude(stripe, bin)
			if m < 0 {
				t.Fatalf("Negative magnitude %f at (%d, %d)", m, stripe, bin)
			}
			stripeMax = math.Max(stripeMax, m)
		}

		if spec.MaxMagnitude() < prevMax {
			t.Fatalf("MaxMagnitude decreased from %f to %f", prevMax, spec.MaxMagnitude())
		}
		if spec.MaxMagnitude() < stripeMax {
			t.Fatalf("MaxMagnitude %f below stripe maximum %f", spec.MaxMagnitude(), stripeMax)
		}
		prevMax = spec.MaxMagnitude()
	}

	if spec.StripeCount() != 20 {
		t.Errorf("Expected 20 stripes, got %d", spec.StripeCount())
	}
	if spec.BinCount() != BinCount {
		t.Errorf("Expected %d bins, got %d", BinCount, spec.BinCount())
	}
}

// TestSpectrogramSinePeak checks a sinusoid peaks at its own bin.
func TestSpectrogramSinePeak(t *testing.T) {
	spec := NewSpectrogram(FFTSize)
	spec.AddStripe(sineFrame(1000, 10000, 0))

	best := 0
	for bin := 1; bin < spec.BinCount(); bin++ {
		if spec.GetMagnitude(0, bin) > spec.GetMagnitude(0, best) {
			best = bin
		}
	}
	if best != FreqToBin(1000) {
		t.Errorf("Expected peak at bin %d, got %d", FreqToBin(1000), best)
	}
}

// TestSpectrogramSilence checks an all-zero window yields zero magnitudes.
func TestSpectrogramSilence(t *testing.T) {
	spec := NewSpectrogram(FFTSize)
	spec.AddStripe(make([]int16, FFTSize))

	if spec.MaxMagnitude() != 0 {
		t.Errorf("Expected zero maximum, got %f", spec.MaxMagnitude())
	}
}

// TestSpectrogramContract checks mismatched input and out-of-range reads panic.
func TestSpectrogramContract(t *testing.T) {
	tests := []struct {
		name string
		fn   func(s *Spectrogram)
	}{
		{"short input", func(s *Spectrogram) { s.AddStripe(make([]int16, FFTSize-1)) }},
		{"stripe past end", func(s *Spectrogram) { s.GetMagnitude(1, 0) }},
		{"negative bin", func(s *Spectrogram) { s.GetMagnitude(0, -1) }},
		{"bin past end", func(s *Spectrogram) { s.GetMagnitude(0, BinCount) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := NewSpectrogram(FFTSize)
			spec.AddStripe(make([]int16, FFTSize))
			defer func() {
				if recover() == nil {
					t.Errorf("Expected panic for %s", tt.name)
				}
			}()
			tt.fn(spec)
		})
	}
}
