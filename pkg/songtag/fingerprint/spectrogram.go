package fingerprint

import (
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Spectrogram turns full sample windows into magnitude stripes. Stripes live in
// one append-only arena, so stripe i occupies mags[i*bins : (i+1)*bins].
type Spectrogram struct {
	size  int
	bins  int
	hann  []float64
	frame []float64
	mags  []float64
	count int
	max   float64
}

// NewSpectrogram prepares a transform over size samples.
func NewSpectrogram(size int) *Spectrogram {
	if size < 2 || size%2 != 0 {
		panic(fmt.Sprintf("fingerprint: invalid transform size %d", size))
	}
	return &Spectrogram{
		size:  size,
		bins:  size/2 + 1,
		hann:  window.Hann(size),
		frame: make([]float64, size),
	}
}

// AddStripe windows the samples, runs a forward FFT and appends the magnitudes
// of the non-redundant half of the spectrum.
func (s *Spectrogram) AddStripe(samples []int16) {
	if len(samples) != s.size {
		panic(fmt.Sprintf("fingerprint: stripe input has %d samples, want %d", len(samples), s.size))
	}

	for i, v := range samples {
		s.frame[i] = float64(v) * s.hann[i]
	}
	spectrum := fft.FFTReal(s.frame)

	for k := 0; k < s.bins; k++ {
		mag := cmplx.Abs(spectrum[k])
		if mag > s.max {
			s.max = mag
		}
		s.mags = append(s.mags, mag)
	}
	s.count++
}

func (s *Spectrogram) StripeCount() int {
	return s.count
}

func (s *Spectrogram) BinCount() int {
	return s.bins
}

// MaxMagnitude is the largest magnitude of any stripe added so far.
func (s *Spectrogram) MaxMagnitude() float64 {
	return s.max
}

func (s *Spectrogram) GetMagnitude(stripe, bin int) float64 {
	if stripe < 0 || stripe >= s.count || bin < 0 || bin >= s.bins {
		panic(fmt.Sprintf("fingerprint: magnitude (%d, %d) out of range [0,%d)x[0,%d)", stripe, bin, s.count, s.bins))
	}
	return s.mags[stripe*s.bins+bin]
}

// Stripe returns a read-only view of one stripe.
func (s *Spectrogram) Stripe(stripe int) []float64 {
	if stripe < 0 || stripe >= s.count {
		panic(fmt.Sprintf("fingerprint: stripe %d out of range [0,%d)", stripe, s.count))
	}
	off := stripe * s.bins
	return s.mags[off : off+s.bins : off+s.bins]
}
