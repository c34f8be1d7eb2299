package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"
)

var ErrNoAudioStream = errors.New("no audio stream found")

// Metadata describes a recording as reported by ffprobe.
type Metadata struct {
	Filename   string
	Title      string
	Artist     string
	Duration   time.Duration
	SampleRate int
	Channels   int
	Format     string
}

// Probe runs ffprobe on path. Without a deadline on ctx it gives up after
// five seconds.
func Probe(ctx context.Context, path string) (*Metadata, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx,
		"ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	).Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbe(filepath.Base(path), out)
}

func parseProbe(name string, out []byte) (*Metadata, error) {
	if !gjson.ValidBytes(out) {
		return nil, fmt.Errorf("ffprobe returned invalid JSON for %s", name)
	}
	probe := gjson.ParseBytes(out)

	stream := probe.Get(`streams.#(codec_type=="audio")`)
	if !stream.Exists() {
		return nil, ErrNoAudioStream
	}

	format := probe.Get("format")
	return &Metadata{
		Filename:   name,
		Title:      format.Get("tags.title").String(),
		Artist:     format.Get("tags.artist").String(),
		Duration:   time.Duration(format.Get("duration").Float() * float64(time.Second)),
		SampleRate: int(stream.Get("sample_rate").Int()),
		Channels:   int(stream.Get("channels").Int()),
		Format:     format.Get("format_name").String(),
	}, nil
}
