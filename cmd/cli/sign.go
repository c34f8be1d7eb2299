//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/himanishpuri/songtag/pkg/songtag/audio"
	"github.com/himanishpuri/songtag/pkg/songtag/debug"
	"github.com/himanishpuri/songtag/pkg/songtag/fingerprint"
	"github.com/himanishpuri/songtag/pkg/songtag/pipeline"
	"github.com/himanishpuri/songtag/pkg/songtag/signature"
)

var signCmd = &cobra.Command{
	Use:   "sign <audio_file>",
	Short: "Compute a signature offline",
	Long: `Runs the fingerprinting chain over a whole file and prints the signature as
a data URI, without contacting the recognition service.`,
	Args: cobra.ExactArgs(1),
	RunE: runSign,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <signature_file>",
	Short: "Describe a binary signature or data URI",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	signCmd.Flags().String("out", "", "write the raw signature to this file instead of printing a data URI")
	signCmd.Flags().String("paint", "", "also write a spectrogram PNG of the audio to this path")
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(inspectCmd)
}

type signOutput struct {
	File      string `json:"file" yaml:"file"`
	URI       string `json:"uri,omitempty" yaml:"uri,omitempty"`
	SampleMs  int64  `json:"samplems" yaml:"samplems"`
	Landmarks int    `json:"landmarks" yaml:"landmarks"`
	Bytes     int    `json:"bytes" yaml:"bytes"`
}

func runSign(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), sessionTimeout())
	defer cancel()

	samples, err := audio.LoadFile(ctx, args[0], viper.GetString("temp"))
	if err != nil {
		return err
	}

	signed, err := pipeline.Sign(samples, fingerprint.DefaultDetectorConfig())
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("paint"); path != "" {
		if err := debug.PaintSamples(path, samples, 1024, 512); err != nil {
			return fmt.Errorf("painting spectrogram: %w", err)
		}
	}

	res := signOutput{
		File:      args[0],
		SampleMs:  signed.SampleMs,
		Landmarks: signed.Landmarks,
		Bytes:     len(signed.Signature),
	}
	if path, _ := cmd.Flags().GetString("out"); path != "" {
		if err := os.WriteFile(path, signed.Signature, 0o644); err != nil {
			return err
		}
	} else {
		res.URI = signature.DataURI(signed.Signature)
	}

	return render(cmd.OutOrStdout(), res, func(w io.Writer) error {
		fmt.Fprintf(w, "%s %s of audio, %d landmarks, %s\n",
			green("Signed"), seconds(res.SampleMs), res.Landmarks, humanize.Bytes(uint64(res.Bytes)))
		if res.URI != "" {
			fmt.Fprintln(w, res.URI)
		}
		return nil
	})
}

type inspectOutput struct {
	SampleRate  int            `json:"sample_rate" yaml:"sample_rate"`
	SampleCount int64          `json:"sample_count" yaml:"sample_count"`
	DurationMs  int64          `json:"duration_ms" yaml:"duration_ms"`
	Peaks       map[string]int `json:"peaks" yaml:"peaks"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	var dec *signature.Decoded
	if text := strings.TrimSpace(string(data)); strings.HasPrefix(text, signature.DataURIPrefix) {
		dec, err = signature.DecodeDataURI(text)
	} else {
		dec, err = signature.Decode(data)
	}
	if err != nil {
		return err
	}

	res := inspectOutput{
		SampleRate:  dec.SampleRate,
		SampleCount: dec.SampleCount,
		DurationMs:  dec.DurationMs(),
		Peaks:       make(map[string]int),
	}
	bands := make([]signature.Band, 0, len(dec.Bands))
	for b, peaks := range dec.Bands {
		res.Peaks[b.String()] = len(peaks)
		bands = append(bands, b)
	}
	sort.Slice(bands, func(i, j int) bool { return bands[i] < bands[j] })

	return render(cmd.OutOrStdout(), res, func(w io.Writer) error {
		fmt.Fprintf(w, "%s %s at %d Hz, %d peaks\n", bold("Signature"), seconds(res.DurationMs), res.SampleRate, dec.PeakCount())
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "BAND\tPEAKS")
		for _, b := range bands {
			fmt.Fprintf(tw, "%s\t%d\n", b, len(dec.Bands[b]))
		}
		return tw.Flush()
	})
}
