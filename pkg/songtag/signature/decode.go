package signature

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

var ErrMalformed = errors.New("malformed signature")

// Decoded is the content of a signature read back from bytes.
type Decoded struct {
	SampleRate  int
	SampleCount int64
	Bands       map[Band][]Peak
}

// PeakCount returns the number of peaks across all bands.
func (d *Decoded) PeakCount() int {
	n := 0
	for _, peaks := range d.Bands {
		n += len(peaks)
	}
	return n
}

// DurationMs is the audio length the signature describes.
func (d *Decoded) DurationMs() int64 {
	return d.SampleCount * 1000 / int64(d.SampleRate)
}

// Decode parses and validates a binary signature.
func Decode(data []byte) (*Decoded, error) {
	if len(data) < headerSize+8 {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformed, len(data))
	}

	le := binary.LittleEndian
	switch {
	case le.Uint32(data[0:]) != magic1 || le.Uint32(data[12:]) != magic2:
		return nil, fmt.Errorf("%w: bad magic", ErrMalformed)
	case int(le.Uint32(data[8:])) != len(data)-headerSize:
		return nil, fmt.Errorf("%w: size field %d, want %d", ErrMalformed, le.Uint32(data[8:]), len(data)-headerSize)
	case le.Uint32(data[4:]) != crc32.ChecksumIEEE(data[8:]):
		return nil, fmt.Errorf("%w: checksum mismatch", ErrMalformed)
	case le.Uint32(data[headerSize:]) != contentMagic:
		return nil, fmt.Errorf("%w: bad content marker", ErrMalformed)
	}

	rate := 0
	for r, id := range sampleRateIDs {
		if id == le.Uint32(data[28:])>>27 {
			rate = r
		}
	}
	if rate == 0 {
		return nil, fmt.Errorf("%w: unknown sample rate id", ErrMalformed)
	}

	out := &Decoded{
		SampleRate:  rate,
		SampleCount: int64(le.Uint32(data[40:])) - int64(rate)*24/100,
		Bands:       make(map[Band][]Peak),
	}

	rest := data[headerSize+8:]
	for len(rest) > 0 {
		if len(rest) < 8 {
			return nil, fmt.Errorf("%w: truncated band header", ErrMalformed)
		}
		tag, size := le.Uint32(rest), int(le.Uint32(rest[4:]))
		band := Band(tag - bandTagBase)
		if tag < bandTagBase || band > Band3500To5500 {
			return nil, fmt.Errorf("%w: unknown band tag %#x", ErrMalformed, tag)
		}
		padded := size + (4-size%4)%4
		if len(rest)-8 < padded {
			return nil, fmt.Errorf("%w: band %d overruns signature", ErrMalformed, band)
		}

		peaks, err := decodePeaks(rest[8:8+size], rate)
		if err != nil {
			return nil, err
		}
		out.Bands[band] = peaks
		rest = rest[8+padded:]
	}
	return out, nil
}

// DecodeDataURI decodes a signature embedded with DataURI.
func DecodeDataURI(uri string) (*Decoded, error) {
	raw, ok := strings.CutPrefix(uri, DataURIPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: missing data URI prefix", ErrMalformed)
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Decode(data)
}

func decodePeaks(data []byte, rate int) ([]Peak, error) {
	var peaks []Peak
	stripe := 0
	for i := 0; i < len(data); {
		if data[i] == longGap {
			if i+5 > len(data) {
				return nil, fmt.Errorf("%w: truncated stripe jump", ErrMalformed)
			}
			stripe = int(binary.LittleEndian.Uint32(data[i+1:]))
			i += 5
		}
		if i+5 > len(data) {
			return nil, fmt.Errorf("%w: truncated peak", ErrMalformed)
		}
		stripe += int(data[i])
		code := binary.LittleEndian.Uint16(data[i+3:])
		peaks = append(peaks, Peak{
			Stripe:    stripe,
			Magnitude: binary.LittleEndian.Uint16(data[i+1:]),
			Code:      code,
			Freq:      float64(int(code)+1) / 64 * float64(rate) / 2048,
		})
		i += 5
	}
	return peaks, nil
}
