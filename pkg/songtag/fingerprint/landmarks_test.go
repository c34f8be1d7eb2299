package fingerprint

import (
	"math"
	"testing"
)

// grid is a hand-built magnitude plane, indexed [stripe][bin].
type grid [][]float64

func newGrid(stripes, bins int) grid {
	g := make(grid, stripes)
	for i := range g {
		g[i] = make([]float64, bins)
	}
	return g
}

func (g grid) StripeCount() int                     { return len(g) }
func (g grid) BinCount() int                        { return len(g[0]) }
func (g grid) GetMagnitude(stripe, bin int) float64 { return g[stripe][bin] }

func (g grid) MaxMagnitude() float64 {
	max := 0.0
	for _, row := range g {
		for _, m := range row {
			max = math.Max(max, m)
		}
	}
	return max
}

func smallConfig() DetectorConfig {
	return DetectorConfig{Radius: 2, MinBin: 1, MaxBin: 8}
}

// TestDetectSinglePeak checks a lone maximum is found only at its own stripe.
func TestDetectSinglePeak(t *testing.T) {
	g := newGrid(7, 10)
	g[3][5] = 9

	d := NewDetector(g, smallConfig())
	for s := 2; s <= 4; s++ {
		d.Detect(s)
	}

	locs := d.Locations()
	if len(locs) != 1 {
		t.Fatalf("Expected 1 landmark, got %d", len(locs))
	}
	if locs[0] != (Location{Stripe: 3, Bin: 5}) {
		t.Errorf("Expected landmark at (3, 5), got %+v", locs[0])
	}
}

// TestDetectBandTies covers equal magnitudes under both tie policies.
func TestDetectBandTies(t *testing.T) {
	tests := []struct {
		name   string
		tie    TieBreak
		cells  []Location
		stripe int
		want   []Location
	}{
		{
			name:   "same stripe keeps lowest bin",
			tie:    TieLowestBin,
			cells:  []Location{{2, 7}, {2, 4}},
			stripe: 2,
			want:   []Location{{2, 4}},
		},
		{
			name:   "same stripe strict rejects",
			tie:    TieStrict,
			cells:  []Location{{2, 7}, {2, 4}},
			stripe: 2,
		},
		{
			name:   "earlier stripe owns the tie",
			tie:    TieLowestBin,
			cells:  []Location{{2, 5}, {4, 5}},
			stripe: 2,
			want:   []Location{{2, 5}},
		},
		{
			name:   "later stripe loses the tie",
			tie:    TieLowestBin,
			cells:  []Location{{2, 5}, {4, 5}},
			stripe: 4,
		},
		{
			name:   "lower bin in a later stripe wins",
			tie:    TieLowestBin,
			cells:  []Location{{2, 6}, {4, 3}},
			stripe: 4,
			want:   []Location{{4, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGrid(7, 10)
			for _, c := range tt.cells {
				g[c.Stripe][c.Bin] = 4
			}
			cfg := smallConfig()
			cfg.TieBreak = tt.tie

			d := NewDetector(g, cfg)
			d.Detect(tt.stripe)

			got := d.Locations()
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Landmark %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

// TestDetectIgnoresOutOfBand checks bins outside the band neither qualify nor suppress.
func TestDetectIgnoresOutOfBand(t *testing.T) {
	g := newGrid(5, 10)
	g[2][0] = 100
	g[2][9] = 100
	g[2][3] = 1

	d := NewDetector(g, smallConfig())
	if n := d.Detect(2); n != 1 {
		t.Fatalf("Expected 1 landmark, got %d", n)
	}
	if loc := d.Locations()[0]; loc.Bin != 3 {
		t.Errorf("Expected bin 3, got %d", loc.Bin)
	}
}

// TestDetectTemporal checks the per-bin neighbourhood can yield several landmarks per stripe.
func TestDetectTemporal(t *testing.T) {
	g := newGrid(5, 10)
	g[2][6] = 5
	g[2][2] = 3
	g[1][2] = 4 // beats bin 2 in its own row
	g[2][4] = 2

	cfg := smallConfig()
	cfg.Shape = ShapeTemporal
	d := NewDetector(g, cfg)
	d.Detect(2)

	got := d.Locations()
	want := []Location{{2, 4}, {2, 6}}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Landmark %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

// TestDetectSilence checks an all-zero plane yields no landmarks.
func TestDetectSilence(t *testing.T) {
	for _, shape := range []Shape{ShapeBand, ShapeTemporal} {
		cfg := smallConfig()
		cfg.Shape = shape
		d := NewDetector(newGrid(9, 10), cfg)
		for s := 2; s <= 6; s++ {
			d.Detect(s)
		}
		if d.Count() != 0 {
			t.Errorf("Shape %d: expected no landmarks, got %d", shape, d.Count())
		}
	}
}

// TestDetectNeedsNeighbourhood checks stripes near either end are rejected.
func TestDetectNeedsNeighbourhood(t *testing.T) {
	for _, stripe := range []int{1, 5} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Expected panic for stripe %d", stripe)
				}
			}()
			NewDetector(newGrid(7, 10), smallConfig()).Detect(stripe)
		}()
	}
}

// TestLandmarkRecords checks magnitude scaling, peak code and frequency.
func TestLandmarkRecords(t *testing.T) {
	g := newGrid(5, 10)
	g[2][4] = 50
	g[0][0] = 100

	d := NewDetector(g, smallConfig())
	d.Detect(2)

	lms := d.Landmarks()
	if len(lms) != 1 {
		t.Fatalf("Expected 1 landmark, got %d", len(lms))
	}
	lm := lms[0]
	if lm.Magnitude != 32768 {
		t.Errorf("Expected magnitude 32768, got %d", lm.Magnitude)
	}
	if lm.Code != 64*4-1 {
		t.Errorf("Expected code %d, got %d", 64*4-1, lm.Code)
	}
	if lm.Freq != BinToFreq(4) {
		t.Errorf("Expected frequency %f, got %f", BinToFreq(4), lm.Freq)
	}
}

// TestDetectSinusoid runs a swelling tone through the window and spectrogram and
// checks every landmark sits on the tone's bin.
func TestDetectSinusoid(t *testing.T) {
	const (
		freq    = 1003.0
		seconds = 3
		swellHz = 1.1
	)

	w := NewSampleWindow()
	spec := NewSpectrogram(FFTSize)
	d := NewDetector(spec, DefaultDetectorConfig())

	chunk := make([]int16, ChunkSize)
	for n := 0; n < seconds*SampleRate/ChunkSize; n++ {
		for i := range chunk {
			tm := float64(n*ChunkSize+i) / SampleRate
			amp := 6000 + 4000*math.Sin(2*math.Pi*swellHz*tm)
			chunk[i] = int16(amp * math.Sin(2*math.Pi*freq*tm))
		}
		w.AddChunk(chunk)
		if !w.IsFull() {
			continue
		}
		spec.AddStripe(w.Samples())
		if spec.StripeCount() >= 2*Radius+1 {
			d.Detect(spec.StripeCount() - Radius - 1)
		}
	}

	locs := d.Locations()
	if len(locs) == 0 {
		t.Fatal("Expected landmarks for a swelling tone")
	}
	want := FreqToBin(freq)
	for _, loc := range locs {
		if loc.Bin < want-1 || loc.Bin > want+1 {
			t.Errorf("Landmark at bin %d, expected near %d", loc.Bin, want)
		}
	}
}
