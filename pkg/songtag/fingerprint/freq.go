package fingerprint

import "math"

// Stream and analysis geometry. One chunk is 8 ms of audio at SampleRate.
const (
	SampleRate = 16000
	ChunkSize  = 128
	ChunkCount = 16
	FFTSize    = ChunkSize * ChunkCount
	BinCount   = FFTSize/2 + 1
	Radius     = 48
)

// Landmarks are only searched between these frequencies.
const (
	MinFreq = 250.0
	MaxFreq = 5500.0
)

// FreqToBin returns the FFT bin closest to freq. Exact halves round to the even bin.
func FreqToBin(freq float64) int {
	return int(math.RoundToEven(freq * FFTSize / SampleRate))
}

// BinToFreq returns the centre frequency of bin in Hz.
func BinToFreq(bin int) float64 {
	return float64(bin) * SampleRate / FFTSize
}

// BinResolution is the width of one bin in Hz.
func BinResolution() float64 {
	return float64(SampleRate) / FFTSize
}
