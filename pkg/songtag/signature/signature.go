// Package signature encodes landmarks into the binary signature format the
// recognition service decodes.
//
// Layout (all integers little endian):
//
//	header (48 bytes)
//	  u32 magic 0xcafe2580
//	  u32 CRC32 (IEEE) of every byte after this field
//	  u32 total length - 48
//	  u32 magic 0x94119c00
//	  u32 x3 zero
//	  u32 sample rate id << 27
//	  u32 x2 zero
//	  u32 sample count + sample rate * 0.24
//	  u32 (15 << 19) + 0x40000
//	u32 0x40000000
//	u32 total length - 48
//	per non-empty band, ascending:
//	  u32 0x60030040 + band
//	  u32 peak data length
//	  peak data, zero padded to 4 bytes
//
// Each peak is u8 stripe delta, u16 magnitude, u16 frequency code. A delta of
// 255 or more is written as 0xff followed by the u32 absolute stripe.
package signature

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"sort"
)

const (
	magic1       = 0xcafe2580
	magic2       = 0x94119c00
	fixedValue   = (15 << 19) + 0x40000
	contentMagic = 0x40000000
	bandTagBase  = 0x60030040
	headerSize   = 48
	longGap      = 0xff

	// DataURIPrefix marks a base64 signature embedded in a request.
	DataURIPrefix = "data:audio/vnd.shazam.sig;base64,"
)

// Band is one of the four frequency ranges peaks are grouped by.
type Band int

const (
	Band250To520 Band = iota
	Band520To1450
	Band1450To3500
	Band3500To5500
)

var bandEdges = [...]float64{250, 520, 1450, 3500, 5500}

func (b Band) String() string {
	if b < 0 || int(b) >= len(bandEdges)-1 {
		return fmt.Sprintf("Band(%d)", int(b))
	}
	return fmt.Sprintf("%g-%g Hz", bandEdges[b], bandEdges[b+1])
}

// BandOf returns the band freq falls in. The top edge of the last band is inclusive.
func BandOf(freq float64) (Band, bool) {
	if freq < bandEdges[0] || freq > bandEdges[len(bandEdges)-1] {
		return 0, false
	}
	for b := 1; b < len(bandEdges)-1; b++ {
		if freq < bandEdges[b] {
			return Band(b - 1), true
		}
	}
	return Band3500To5500, true
}

var sampleRateIDs = map[int]uint32{
	8000:  1,
	11025: 2,
	16000: 3,
	32000: 4,
	44100: 5,
	48000: 6,
}

// Peak is one landmark record.
type Peak struct {
	Stripe    int
	Magnitude uint16
	Code      uint16
	Freq      float64
}

// Encoder writes signatures for one sample rate.
type Encoder struct {
	SampleRate int
}

// Write encodes a 16 kHz signature.
func Write(sampleCount int64, peaks []Peak) ([]byte, error) {
	return Encoder{SampleRate: 16000}.Write(sampleCount, peaks)
}

// Write encodes sampleCount and peaks. Identical inputs give identical bytes.
func (e Encoder) Write(sampleCount int64, peaks []Peak) ([]byte, error) {
	rateID, ok := sampleRateIDs[e.SampleRate]
	if !ok {
		return nil, fmt.Errorf("unsupported sample rate %d", e.SampleRate)
	}
	if sampleCount < 0 {
		return nil, fmt.Errorf("negative sample count %d", sampleCount)
	}

	bands, err := groupByBand(peaks)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	header := [12]uint32{
		0: magic1,
		3: magic2,
		7: rateID << 27,
		10: uint32(sampleCount + int64(e.SampleRate)*24/100),
		11: fixedValue,
	}
	write(&buf, header)
	write(&buf, uint32(contentMagic))
	write(&buf, uint32(0)) // size, patched below

	for b, bandPeaks := range bands {
		if len(bandPeaks) == 0 {
			continue
		}
		data := encodePeaks(bandPeaks)
		write(&buf, uint32(bandTagBase+b))
		write(&buf, uint32(len(data)))
		buf.Write(data)
		if pad := (4 - len(data)%4) % 4; pad > 0 {
			buf.Write(make([]byte, pad))
		}
	}

	out := buf.Bytes()
	size := uint32(len(out) - headerSize)
	binary.LittleEndian.PutUint32(out[8:], size)
	binary.LittleEndian.PutUint32(out[headerSize+4:], size)
	binary.LittleEndian.PutUint32(out[4:], crc32.ChecksumIEEE(out[8:]))
	return out, nil
}

// DataURI embeds a signature as a base64 data URI.
func DataURI(sig []byte) string {
	return DataURIPrefix + base64.StdEncoding.EncodeToString(sig)
}

func groupByBand(peaks []Peak) ([4][]Peak, error) {
	var bands [4][]Peak
	for _, p := range peaks {
		if p.Stripe < 0 {
			return bands, fmt.Errorf("peak has negative stripe %d", p.Stripe)
		}
		b, ok := BandOf(p.Freq)
		if !ok {
			continue
		}
		bands[b] = append(bands[b], p)
	}
	for _, bp := range bands {
		sort.SliceStable(bp, func(i, j int) bool { return bp[i].Stripe < bp[j].Stripe })
	}
	return bands, nil
}

func encodePeaks(peaks []Peak) []byte {
	var buf bytes.Buffer
	last := 0
	for _, p := range peaks {
		if p.Stripe-last >= longGap {
			buf.WriteByte(longGap)
			write(&buf, uint32(p.Stripe))
			last = p.Stripe
		}
		buf.WriteByte(byte(p.Stripe - last))
		write(&buf, p.Magnitude)
		write(&buf, p.Code)
		last = p.Stripe
	}
	return buf.Bytes()
}

// write never fails on a bytes.Buffer.
func write(buf *bytes.Buffer, v any) {
	_ = binary.Write(buf, binary.LittleEndian, v)
}
