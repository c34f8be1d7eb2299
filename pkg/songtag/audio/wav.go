package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"

	"github.com/himanishpuri/songtag/pkg/utils"
)

var ErrNotWAV = errors.New("not a valid WAV file")

// ReadWAV decodes a PCM WAV file into 16 kHz mono samples, downmixing and
// resampling as needed.
func ReadWAV(path string) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotWAV)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading samples from %s: %w", path, err)
	}

	channels := int(decoder.NumChans)
	if channels < 1 {
		channels = 1
	}
	mono := downmix(buf.Data, channels, int(decoder.BitDepth))

	if rate := int(decoder.SampleRate); rate != SampleRate {
		mono, err = Resample(mono, rate, SampleRate)
		if err != nil {
			return nil, fmt.Errorf("resampling %s: %w", path, err)
		}
	}
	return ToPCM16(mono), nil
}

// LoadFile reads any audio file as 16 kHz mono. Files that are not WAV are
// converted with ffmpeg into tempDir first.
func LoadFile(ctx context.Context, path, tempDir string) ([]int16, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		samples, err := ReadWAV(path)
		if !errors.Is(err, ErrNotWAV) {
			return samples, err
		}
	}

	converted, err := ConvertToMonoWAV(ctx, path, tempDir, ConvertWAVConfig{SampleRate: SampleRate})
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}
	defer utils.DeleteFile(converted)

	return ReadWAV(converted)
}

// FileSource streams an audio file.
type FileSource struct {
	Path      string
	TempDir   string
	BlockSize int
	Realtime  bool
}

func (s *FileSource) Stream(ctx context.Context, out chan<- []int16) error {
	samples, err := LoadFile(ctx, s.Path, s.TempDir)
	if err != nil {
		return err
	}
	src := &SliceSource{Samples: samples, BlockSize: s.BlockSize, Realtime: s.Realtime}
	return src.Stream(ctx, out)
}

// downmix averages interleaved frames and scales them to [-1, 1].
func downmix(data []int, channels, bitDepth int) []float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int(1) << (bitDepth - 1))

	frames := len(data) / channels
	out := make([]float64, frames)
	for i := range out {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += data[i*channels+c]
		}
		out[i] = float64(sum) / float64(channels) / scale
	}
	return out
}

// ToPCM16 converts samples in [-1, 1] to 16-bit PCM, clipping out-of-range values.
func ToPCM16(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := math.Round(s * 32768)
		out[i] = int16(max(-32768, min(32767, v)))
	}
	return out
}
