package debug

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/himanishpuri/songtag/pkg/songtag/fingerprint"
)

func toneStripe(freq float64) []int16 {
	out := make([]int16, fingerprint.FFTSize)
	for i := range out {
		out[i] = int16(8000 * math.Sin(2*math.Pi*freq*float64(i)/fingerprint.SampleRate))
	}
	return out
}

// TestPainterPath checks file names use the short tag id and submission.
func TestPainterPath(t *testing.T) {
	p := NewPainter("/tmp/shots")

	tests := []struct {
		tagID    string
		n        int
		expected string
	}{
		{"0123456789abcdef", 2, "/tmp/shots/01234567_02.png"},
		{"abc", 11, "/tmp/shots/abc_11.png"},
		{"", 1, "/tmp/shots/signature_01.png"},
	}
	for _, tt := range tests {
		if got := p.Path(tt.tagID, tt.n); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}
}

// TestPaint checks one column per stripe and one row per bin.
func TestPaint(t *testing.T) {
	spec := fingerprint.NewSpectrogram(fingerprint.FFTSize)
	for i := 0; i < 5; i++ {
		spec.AddStripe(toneStripe(1000))
	}

	dir := filepath.Join(t.TempDir(), "debug")
	p := NewPainter(dir)
	if err := p.Paint("tag-1", 1, spec, []fingerprint.Location{{Stripe: 2, Bin: 128}}); err != nil {
		t.Fatalf("Paint failed: %v", err)
	}

	f, err := os.Open(p.Path("tag-1", 1))
	if err != nil {
		t.Fatalf("Expected image file, got %v", err)
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	if cfg.Width != 5 || cfg.Height != fingerprint.BinCount {
		t.Errorf("Expected 5x%d image, got %dx%d", fingerprint.BinCount, cfg.Width, cfg.Height)
	}
}

// TestPaintEmpty checks nothing is written before the first stripe.
func TestPaintEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "debug")
	p := NewPainter(dir)

	if err := p.Paint("tag", 1, fingerprint.NewSpectrogram(fingerprint.FFTSize), nil); err != nil {
		t.Fatalf("Paint failed: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("Expected no output directory, got %v", err)
	}
}
