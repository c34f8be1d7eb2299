// Package debug renders spectrograms and landmarks as PNG images.
package debug

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"path/filepath"

	"github.com/eligwz/spectrogram"

	"github.com/himanishpuri/songtag/pkg/songtag/audio"
	"github.com/himanishpuri/songtag/pkg/songtag/fingerprint"
	"github.com/himanishpuri/songtag/pkg/utils"
)

const background = "000000"

var landmarkColor = color.RGBA{R: 255, G: 40, B: 40, A: 255}

// Painter writes one PNG per submission into Dir: a stripe per column, low
// frequencies at the bottom, landmarks marked in red.
type Painter struct {
	Dir string
}

func NewPainter(dir string) *Painter {
	return &Painter{Dir: dir}
}

// Path is where a submission's image is written.
func (p *Painter) Path(tagID string, submission int) string {
	if len(tagID) > 8 {
		tagID = tagID[:8]
	}
	if tagID == "" {
		tagID = "signature"
	}
	return filepath.Join(p.Dir, fmt.Sprintf("%s_%02d.png", tagID, submission))
}

func (p *Painter) Paint(tagID string, submission int, spec *fingerprint.Spectrogram, landmarks []fingerprint.Location) error {
	if spec.StripeCount() == 0 {
		return nil
	}
	if err := utils.MakeDir(p.Dir); err != nil {
		return err
	}

	img := spectrogram.NewImage128(image.Rect(0, 0, spec.StripeCount(), spec.BinCount()))
	render(img, spec, landmarks)

	path := p.Path(tagID, submission)
	if err := spectrogram.SavePng(img, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// render draws spec on a log scale relative to its loudest bin.
func render(img draw.Image, spec *fingerprint.Spectrogram, landmarks []fingerprint.Location) {
	width, height := spec.StripeCount(), spec.BinCount()
	draw.Draw(img, img.Bounds(), image.NewUniform(spectrogram.ParseColor(background)), image.Point{}, draw.Src)

	peak := spec.MaxMagnitude()
	if peak > 0 {
		top := math.Log1p(peak)
		for x := 0; x < width; x++ {
			for bin, mag := range spec.Stripe(x) {
				if mag <= 0 {
					continue
				}
				v := uint8(255 * math.Log1p(mag) / top)
				img.Set(x, height-1-bin, color.RGBA{R: v, G: v, B: v, A: 255})
			}
		}
	}

	for _, lm := range landmarks {
		mark(img, lm.Stripe, height-1-lm.Bin)
	}
}

// mark draws a small cross, clipped by the image bounds.
func mark(img draw.Image, x, y int) {
	b := img.Bounds()
	for d := -2; d <= 2; d++ {
		for _, pt := range []image.Point{{X: x + d, Y: y}, {X: x, Y: y + d}} {
			if pt.In(b) {
				img.Set(pt.X, pt.Y, landmarkColor)
			}
		}
	}
}

// PaintSamples writes a quick overview spectrogram of raw audio, independent
// of the fingerprinting chain.
func PaintSamples(path string, samples []int16, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if err := utils.MakeDir(filepath.Dir(path)); err != nil {
		return err
	}

	norm := make([]float64, len(samples))
	for i, s := range samples {
		norm[i] = float64(s) / 32768
	}

	img := spectrogram.NewImage128(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(spectrogram.ParseColor(background)), image.Point{}, draw.Src)
	spectrogram.Drawfft(
		img,
		norm,
		uint32(audio.SampleRate),
		uint32(height),
		false, // Hamming window
		false, // FFT, not DFT
		true,  // magnitude
		false, // linear scale
	)
	return spectrogram.SavePng(img, path)
}
