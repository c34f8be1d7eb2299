//go:build !js && !wasm
// +build !js,!wasm

// Package capture reads live audio from PortAudio input devices.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"

	"github.com/himanishpuri/songtag/pkg/logger"
	"github.com/himanishpuri/songtag/pkg/songtag/audio"
)

// Microphone captures from a PortAudio input device at 16 kHz mono.
type Microphone struct {
	// Device is matched against device names, case-insensitively. Empty
	// selects the default input.
	Device          string
	FramesPerBuffer int
}

// Stream reads until ctx is cancelled. A full queue makes Stream wait rather
// than drop audio; if the wait outlasts PortAudio's own buffer the device
// reports an overflow, which is logged.
func (m *Microphone) Stream(ctx context.Context, out chan<- []int16) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	frames := m.FramesPerBuffer
	if frames <= 0 {
		frames = audio.DefaultBlockSize
	}
	buf := make([]int16, frames)

	stream, err := m.open(buf)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting input stream: %w", err)
	}
	defer stream.Stop()

	log := logger.GetLogger()
	overflows := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				overflows++
				if overflows == 1 || overflows%100 == 0 {
					log.Warnf("Microphone input overflowed %d times, consumer is too slow", overflows)
				}
				continue
			}
			return fmt.Errorf("reading microphone: %w", err)
		}

		block := make([]int16, len(buf))
		copy(block, buf)
		if err := audio.Send(ctx, out, block); err != nil {
			return err
		}
	}
}

func (m *Microphone) open(buf []int16) (*portaudio.Stream, error) {
	if m.Device == "" {
		stream, err := portaudio.OpenDefaultStream(1, 0, audio.SampleRate, len(buf), buf)
		if err != nil {
			return nil, fmt.Errorf("opening default input: %w", err)
		}
		return stream, nil
	}

	dev, err := findInputDevice(m.Device)
	if err != nil {
		return nil, err
	}
	params := portaudio.HighLatencyParameters(dev, nil)
	params.Input.Channels = 1
	params.SampleRate = audio.SampleRate
	params.FramesPerBuffer = len(buf)

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, fmt.Errorf("opening input %q: %w", dev.Name, err)
	}
	return stream, nil
}

// InputDevice describes a capture device.
type InputDevice struct {
	Name              string
	HostAPI           string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}

// InputDevices lists every device with at least one input channel.
func InputDevices() ([]InputDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	def, _ := portaudio.DefaultInputDevice()

	var out []InputDevice
	for _, d := range devices {
		if d.MaxInputChannels < 1 {
			continue
		}
		info := InputDevice{
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			Default:           def != nil && def.Name == d.Name,
		}
		if d.HostApi != nil {
			info.HostAPI = d.HostApi.Name
		}
		out = append(out, info)
	}
	return out, nil
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), strings.ToLower(name)) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no input device matching %q", name)
}
