package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, path string, rate, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to write samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to close encoder: %v", err)
	}
}

// TestChunker checks arbitrary blocks are re-cut into exact chunks.
func TestChunker(t *testing.T) {
	c := NewChunker(4)

	if got := c.Push([]int16{1, 2, 3}); len(got) != 0 {
		t.Fatalf("Expected no chunks yet, got %d", len(got))
	}
	got := c.Push([]int16{4, 5, 6, 7, 8, 9, 10})
	if len(got) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(got))
	}
	if got[0][0] != 1 || got[0][3] != 4 || got[1][0] != 5 || got[1][3] != 8 {
		t.Errorf("Unexpected chunks %v", got)
	}
	if c.Pending() != 2 {
		t.Errorf("Expected 2 pending samples, got %d", c.Pending())
	}
}

// TestSliceSource checks every sample is delivered in order.
func TestSliceSource(t *testing.T) {
	samples := make([]int16, 2500)
	for i := range samples {
		samples[i] = int16(i)
	}

	out := make(chan []int16, 10)
	src := &SliceSource{Samples: samples, BlockSize: 1000}
	if err := src.Stream(context.Background(), out); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	close(out)

	var got []int16
	for block := range out {
		got = append(got, block...)
	}
	if len(got) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(got))
	}
	for i := range got {
		if got[i] != samples[i] {
			t.Fatalf("Sample %d: expected %d, got %d", i, samples[i], got[i])
		}
	}
}

// TestSliceSourceCancel checks a blocked source returns once cancelled.
func TestSliceSourceCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &SliceSource{Samples: make([]int16, 4096)}
	if err := src.Stream(ctx, make(chan []int16)); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// TestReadWAVMono checks 16 kHz mono 16-bit samples survive unchanged.
func TestReadWAVMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	data := []int{0, 100, -100, 32767, -32768, 5}
	writeWAV(t, path, SampleRate, 1, data)

	got, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if len(got) != len(data) {
		t.Fatalf("Expected %d samples, got %d", len(data), len(got))
	}
	for i := range data {
		if int(got[i]) != data[i] {
			t.Errorf("Sample %d: expected %d, got %d", i, data[i], got[i])
		}
	}
}

// TestReadWAVStereo checks stereo frames are averaged.
func TestReadWAVStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeWAV(t, path, SampleRate, 2, []int{100, 300, -50, -150})

	got, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if len(got) != 2 || got[0] != 200 || got[1] != -100 {
		t.Errorf("Expected [200 -100], got %v", got)
	}
}

// TestReadWAVInvalid checks a non-WAV file is reported as such.
func TestReadWAVInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.wav")
	if err := os.WriteFile(path, []byte("definitely not a riff header"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := ReadWAV(path); !errors.Is(err, ErrNotWAV) {
		t.Errorf("Expected ErrNotWAV, got %v", err)
	}
}

// TestFileSource checks a WAV file streams through the Source interface.
func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	data := make([]int, 3000)
	writeWAV(t, path, SampleRate, 1, data)

	out := make(chan []int16, 16)
	src := &FileSource{Path: path, BlockSize: 512}
	if err := src.Stream(context.Background(), out); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	close(out)

	total := 0
	for block := range out {
		total += len(block)
	}
	if total != len(data) {
		t.Errorf("Expected %d samples, got %d", len(data), total)
	}
}

// TestParseProbe checks ffprobe JSON is reduced to the first audio stream.
func TestParseProbe(t *testing.T) {
	out := []byte(`{
		"streams": [
			{"codec_type": "video", "width": 640},
			{"codec_type": "audio", "sample_rate": "44100", "channels": 2}
		],
		"format": {
			"format_name": "mp3",
			"duration": "212.500000",
			"tags": {"title": "Da Funk", "artist": "Daft Punk"}
		}
	}`)

	meta, err := parseProbe("clip.mp3", out)
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if meta.SampleRate != 44100 || meta.Channels != 2 {
		t.Errorf("Expected 44100 Hz stereo, got %d Hz %d ch", meta.SampleRate, meta.Channels)
	}
	if meta.Duration != 212500*time.Millisecond {
		t.Errorf("Expected 3m32.5s, got %v", meta.Duration)
	}
	if meta.Title != "Da Funk" || meta.Artist != "Daft Punk" || meta.Format != "mp3" {
		t.Errorf("Unexpected metadata %+v", meta)
	}
}

// TestParseProbeNoAudio checks files without an audio stream are rejected.
func TestParseProbeNoAudio(t *testing.T) {
	_, err := parseProbe("video.mp4", []byte(`{"streams":[{"codec_type":"video"}],"format":{}}`))
	if !errors.Is(err, ErrNoAudioStream) {
		t.Errorf("Expected ErrNoAudioStream, got %v", err)
	}
	if _, err := parseProbe("bad", []byte("not json")); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

// TestResampleKeepsLength checks the filter tail is flushed so converted
// audio keeps its full duration.
func TestResampleKeepsLength(t *testing.T) {
	for _, rate := range []int{8000, 22050, 44100, 48000} {
		in := make([]float64, rate*3)
		for i := range in {
			in[i] = 0.25
		}

		out, err := Resample(in, rate, SampleRate)
		if err != nil {
			t.Fatalf("Resample(%d) failed: %v", rate, err)
		}
		want := 3 * SampleRate
		if diff := want - len(out); diff < 0 || diff > 32 {
			t.Errorf("Resample(%d): expected about %d samples, got %d", rate, want, len(out))
		}
	}
}

// TestSendWaitsForRoom checks a full queue delays delivery instead of losing
// the block.
func TestSendWaitsForRoom(t *testing.T) {
	out := make(chan []int16, 1)
	out <- []int16{1}

	done := make(chan error, 1)
	go func() {
		done <- Send(context.Background(), out, []int16{2})
	}()

	select {
	case err := <-done:
		t.Fatalf("Expected Send to wait on a full queue, returned %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	if first := <-out; first[0] != 1 {
		t.Errorf("Expected first block 1, got %d", first[0])
	}
	if err := <-done; err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if second := <-out; second[0] != 2 {
		t.Errorf("Expected second block 2, got %d", second[0])
	}
}

// TestSendCancelled checks a waiting Send gives up when ctx ends.
func TestSendCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out := make(chan []int16)
	if err := Send(ctx, out, []int16{1}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}
