package fingerprint

import (
	"fmt"
	"math"
)

// Shape selects the neighbourhood a candidate peak is compared against.
type Shape int

const (
	// ShapeBand compares against every bin of the band in stripes [s-R, s+R].
	ShapeBand Shape = iota
	// ShapeTemporal compares only against the same bin in stripes [s-R, s+R].
	ShapeTemporal
)

// TieBreak decides what happens when a neighbour has exactly the candidate's magnitude.
type TieBreak int

const (
	// TieLowestBin keeps the lowest bin, then the earliest stripe.
	TieLowestBin TieBreak = iota
	// TieStrict rejects the candidate whenever any neighbour equals it.
	TieStrict
)

type DetectorConfig struct {
	Radius   int
	MinBin   int // inclusive
	MaxBin   int // inclusive
	Shape    Shape
	TieBreak TieBreak
	// A candidate must be strictly louder than MinMagnitude, so silence yields nothing.
	MinMagnitude float64
}

func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Radius:   Radius,
		MinBin:   FreqToBin(MinFreq),
		MaxBin:   FreqToBin(MaxFreq),
		Shape:    ShapeBand,
		TieBreak: TieLowestBin,
	}
}

// Magnitudes is the read-only view of a spectrogram the detector needs.
type Magnitudes interface {
	StripeCount() int
	BinCount() int
	GetMagnitude(stripe, bin int) float64
	MaxMagnitude() float64
}

// Location identifies one landmark in the time-frequency plane.
type Location struct {
	Stripe int
	Bin    int
}

// Landmark is a location with the attributes a signature carries.
type Landmark struct {
	Stripe    int
	Bin       int
	Freq      float64
	Magnitude uint16 // scaled against the spectrogram maximum
	Code      uint16
}

// stripePeak is the loudest in-band bin of one stripe, lowest bin on ties.
type stripePeak struct {
	mag   float64
	bin   int
	count int // in-band bins sharing mag
}

// Detector finds landmarks in stripes that have a full neighbourhood on both sides.
type Detector struct {
	src   Magnitudes
	cfg   DetectorConfig
	peaks []stripePeak
	locs  []Location
}

func NewDetector(src Magnitudes, cfg DetectorConfig) *Detector {
	switch {
	case cfg.Radius < 1:
		panic(fmt.Sprintf("fingerprint: radius %d must be positive", cfg.Radius))
	case cfg.MinBin < 0 || cfg.MaxBin >= src.BinCount() || cfg.MinBin > cfg.MaxBin:
		panic(fmt.Sprintf("fingerprint: bin range [%d, %d] outside [0, %d)", cfg.MinBin, cfg.MaxBin, src.BinCount()))
	}
	return &Detector{src: src, cfg: cfg}
}

func (d *Detector) Config() DetectorConfig {
	return d.cfg
}

// Detect appends the landmarks of stripe and returns how many were found.
// Stripe must have Radius stripes available before and after it.
func (d *Detector) Detect(stripe int) int {
	r := d.cfg.Radius
	if stripe-r < 0 || stripe+r >= d.src.StripeCount() {
		panic(fmt.Sprintf("fingerprint: stripe %d has no full neighbourhood (radius %d, %d stripes)",
			stripe, r, d.src.StripeCount()))
	}

	before := len(d.locs)
	if d.cfg.Shape == ShapeTemporal {
		d.detectTemporal(stripe)
	} else {
		d.detectBand(stripe)
	}
	return len(d.locs) - before
}

// Locations returns every landmark found so far in detection order.
func (d *Detector) Locations() []Location {
	out := make([]Location, len(d.locs))
	copy(out, d.locs)
	return out
}

func (d *Detector) Count() int {
	return len(d.locs)
}

// Landmarks converts the locations found so far into signature records using
// the current spectrogram maximum.
func (d *Detector) Landmarks() []Landmark {
	max := d.src.MaxMagnitude()
	out := make([]Landmark, 0, len(d.locs))
	for _, loc := range d.locs {
		var norm uint16
		if max > 0 {
			norm = uint16(math.RoundToEven(65535 * d.src.GetMagnitude(loc.Stripe, loc.Bin) / max))
		}
		out = append(out, Landmark{
			Stripe:    loc.Stripe,
			Bin:       loc.Bin,
			Freq:      BinToFreq(loc.Bin),
			Magnitude: norm,
			Code:      uint16(64*loc.Bin - 1),
		})
	}
	return out
}

// detectBand accepts at most one landmark per stripe: the owner of the
// neighbourhood maximum, if that owner sits on the target stripe.
func (d *Detector) detectBand(stripe int) {
	d.summarize()

	lo, hi := stripe-d.cfg.Radius, stripe+d.cfg.Radius
	max := d.peaks[lo].mag
	for s := lo + 1; s <= hi; s++ {
		if d.peaks[s].mag > max {
			max = d.peaks[s].mag
		}
	}
	if max <= d.cfg.MinMagnitude {
		return
	}

	owner, ownerBin, count := -1, 0, 0
	for s := lo; s <= hi; s++ {
		p := d.peaks[s]
		if p.mag != max {
			continue
		}
		count += p.count
		if owner < 0 || p.bin < ownerBin {
			owner, ownerBin = s, p.bin
		}
	}

	if owner != stripe || (d.cfg.TieBreak == TieStrict && count > 1) {
		return
	}
	d.locs = append(d.locs, Location{Stripe: stripe, Bin: ownerBin})
}

func (d *Detector) detectTemporal(stripe int) {
	r := d.cfg.Radius
	for b := d.cfg.MinBin; b <= d.cfg.MaxBin; b++ {
		m := d.src.GetMagnitude(stripe, b)
		if m <= d.cfg.MinMagnitude {
			continue
		}

		peak := true
		for s := stripe - r; s <= stripe+r && peak; s++ {
			if s == stripe {
				continue
			}
			o := d.src.GetMagnitude(s, b)
			if o > m || (o == m && (d.cfg.TieBreak == TieStrict || s < stripe)) {
				peak = false
			}
		}
		if peak {
			d.locs = append(d.locs, Location{Stripe: stripe, Bin: b})
		}
	}
}

// summarize records the in-band peak of every stripe not yet seen.
func (d *Detector) summarize() {
	for s := len(d.peaks); s < d.src.StripeCount(); s++ {
		p := stripePeak{mag: d.src.GetMagnitude(s, d.cfg.MinBin), bin: d.cfg.MinBin, count: 1}
		for b := d.cfg.MinBin + 1; b <= d.cfg.MaxBin; b++ {
			m := d.src.GetMagnitude(s, b)
			switch {
			case m > p.mag:
				p = stripePeak{mag: m, bin: b, count: 1}
			case m == p.mag:
				p.count++
			}
		}
		d.peaks = append(d.peaks, p)
	}
}
