// Package pipeline drives the fingerprinting chain for one capture session:
// chunk -> window -> stripe -> landmarks -> signature.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/himanishpuri/songtag/pkg/songtag/fingerprint"
	"github.com/himanishpuri/songtag/pkg/songtag/signature"
)

// DefaultInitialRetryMs is how much audio the first submission waits for.
const DefaultInitialRetryMs = 3000

// Session owns the window, spectrogram and detector of one capture session.
// It is not safe for concurrent use.
type Session struct {
	TagID string

	window      *fingerprint.SampleWindow
	spec        *fingerprint.Spectrogram
	detector    *fingerprint.Detector
	thresholdMs int64
	submissions int
}

// NewSession starts a session whose first signature is due once initialRetryMs
// of audio has been processed. A threshold of zero or less never comes due.
func NewSession(tagID string, initialRetryMs int64, cfg fingerprint.DetectorConfig) *Session {
	spec := fingerprint.NewSpectrogram(fingerprint.FFTSize)
	return &Session{
		TagID:       tagID,
		window:      fingerprint.NewSampleWindow(),
		spec:        spec,
		detector:    fingerprint.NewDetector(spec, cfg),
		thresholdMs: initialRetryMs,
	}
}

// Feed pushes one chunk through the chain and reports whether a signature is due.
func (s *Session) Feed(chunk []int16) bool {
	s.window.AddChunk(chunk)

	if s.window.IsFull() {
		s.spec.AddStripe(s.window.Samples())
		r := s.detector.Config().Radius
		if n := s.spec.StripeCount(); n >= 2*r+1 {
			s.detector.Detect(n - r - 1)
		}
	}
	return s.Due()
}

func (s *Session) Due() bool {
	return s.thresholdMs > 0 && s.window.ProcessedMs() >= s.thresholdMs
}

// Retry sets the processed-audio threshold of the next submission.
func (s *Session) Retry(thresholdMs int64) {
	s.thresholdMs = thresholdMs
}

// Signature encodes every landmark found so far.
func (s *Session) Signature() ([]byte, error) {
	lms := s.detector.Landmarks()
	peaks := make([]signature.Peak, len(lms))
	for i, lm := range lms {
		peaks[i] = signature.Peak{
			Stripe:    lm.Stripe,
			Magnitude: lm.Magnitude,
			Code:      lm.Code,
			Freq:      lm.Freq,
		}
	}

	sig, err := signature.Write(s.window.ProcessedSamples(), peaks)
	if err != nil {
		return nil, fmt.Errorf("encoding signature: %w", err)
	}
	s.submissions++
	return sig, nil
}

func (s *Session) ProcessedMs() int64 {
	return s.window.ProcessedMs()
}

func (s *Session) ProcessedSamples() int64 {
	return s.window.ProcessedSamples()
}

func (s *Session) ThresholdMs() int64 {
	return s.thresholdMs
}

// Submissions counts signatures produced so far.
func (s *Session) Submissions() int {
	return s.submissions
}

func (s *Session) LandmarkCount() int {
	return s.detector.Count()
}

func (s *Session) Locations() []fingerprint.Location {
	return s.detector.Locations()
}

func (s *Session) Spectrogram() *fingerprint.Spectrogram {
	return s.spec
}

// Signed is the result of fingerprinting a complete buffer.
type Signed struct {
	Signature   []byte
	SampleCount int64
	SampleMs    int64
	Landmarks   int
}

var ErrTooShort = errors.New("audio shorter than one chunk")

// Sign runs a whole 16 kHz mono buffer through a session and encodes the
// result. A trailing partial chunk is dropped.
func Sign(samples []int16, cfg fingerprint.DetectorConfig) (*Signed, error) {
	if len(samples) < fingerprint.ChunkSize {
		return nil, ErrTooShort
	}

	sess := NewSession("", 0, cfg)
	for off := 0; off+fingerprint.ChunkSize <= len(samples); off += fingerprint.ChunkSize {
		sess.Feed(samples[off : off+fingerprint.ChunkSize])
	}

	sig, err := sess.Signature()
	if err != nil {
		return nil, err
	}
	return &Signed{
		Signature:   sig,
		SampleCount: sess.ProcessedSamples(),
		SampleMs:    sess.ProcessedMs(),
		Landmarks:   sess.LandmarkCount(),
	}, nil
}
