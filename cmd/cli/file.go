//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/songtag/pkg/logger"
	"github.com/himanishpuri/songtag/pkg/songtag/audio"
)

var fileCmd = &cobra.Command{
	Use:   "file <audio_file>",
	Short: "Tag a recording",
	Long: `Fingerprints an audio file and asks the recognition service about it.
WAV files are read directly; anything else is converted with ffmpeg first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := createService()
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}
		defer svc.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), sessionTimeout())
		defer cancel()

		if meta, err := audio.Probe(ctx, args[0]); err != nil {
			logger.Debugf("Probing %s: %v", args[0], err)
		} else {
			fmt.Fprintf(stderr, "%s: %v, %d Hz, %d ch (%s)\n",
				meta.Filename, meta.Duration.Round(time.Second), meta.SampleRate, meta.Channels, meta.Format)
		}

		res, err := svc.TagFile(ctx, args[0])
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), res)
	},
}

func init() {
	rootCmd.AddCommand(fileCmd)
}
