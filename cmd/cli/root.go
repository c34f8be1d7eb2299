//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/himanishpuri/songtag/pkg/logger"
	"github.com/himanishpuri/songtag/pkg/songtag"
	"github.com/himanishpuri/songtag/pkg/songtag/audio"
	"github.com/himanishpuri/songtag/pkg/songtag/capture"
	"github.com/himanishpuri/songtag/pkg/songtag/debug"
	"github.com/himanishpuri/songtag/pkg/songtag/pipeline"
	"github.com/himanishpuri/songtag/pkg/songtag/shazam"
)

const envPrefix = "SONGTAG"

var (
	configFile string
	stderr     = color.Error
)

var rootCmd = &cobra.Command{
	Use:   "songtag",
	Short: "Recognise songs from the microphone or audio files",
	Long: `songtag listens to live audio (or reads a recording), fingerprints it and
asks the Shazam recognition service what is playing.

Configuration is read from $HOME/.config/songtag/songtag.yaml, SONGTAG_*
environment variables (a .env file is honoured) and flags, in increasing
order of precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd, viper.GetViper()); err != nil {
			return err
		}
		return configureLogging()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "",
		"config file (default is $HOME/.config/songtag/songtag.yaml)")
	flags.String("db", "songtag.sqlite3", "path to the tag history database")
	flags.String("temp", os.TempDir(), "directory for temporary audio conversion files")
	flags.Bool("history", true, "remember recognised songs")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("device", "", "input device name (default is the system default)")
	flags.Duration("max-duration", 0, "give up after this much audio (0 follows the server)")
	flags.Int64("initial-retry", pipeline.DefaultInitialRetryMs, "milliseconds of audio before the first request")
	flags.String("debug-dir", "", "write a spectrogram PNG per request into this directory")
	flags.String("endpoint", shazam.DefaultBaseURL, "recognition endpoint")
	flags.String("timezone", shazam.DefaultTimezone, "timezone reported with each request")
	flags.Duration("timeout", shazam.DefaultTimeout, "HTTP timeout per request")
	flags.StringP("output", "o", "table", "output format (table, json, yaml)")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "songtag"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("songtag")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Debugf("Using config file: %s", viper.ConfigFileUsed())
	}
}

// bindFlags binds each cobra flag to its associated viper configuration
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))

		// Config file and environment fill in flags the user did not pass.
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				lastErr = err
			}
		}

		if err := v.BindPFlag(f.Name, f); err != nil {
			lastErr = err
		}
		if err := v.BindEnv(f.Name, envPrefix+"_"+envVarSuffix); err != nil {
			lastErr = err
		}
	})

	return lastErr
}

func configureLogging() error {
	// LOG_LEVEL, when set, wins over the flag default.
	if os.Getenv("LOG_LEVEL") != "" && !rootCmd.PersistentFlags().Changed("log-level") {
		return nil
	}
	lvl, err := logger.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)
	return nil
}

// createService builds a service from the merged configuration.
func createService() (songtag.Service, error) {
	client := shazam.NewClient(
		shazam.WithBaseURL(viper.GetString("endpoint")),
		shazam.WithTimezone(viper.GetString("timezone")),
		shazam.WithTimeout(viper.GetDuration("timeout")),
	)

	opts := []songtag.Option{
		songtag.WithDBPath(viper.GetString("db")),
		songtag.WithTempDir(viper.GetString("temp")),
		songtag.WithHistory(viper.GetBool("history")),
		songtag.WithRecognizer(client),
		songtag.WithInitialRetry(viper.GetInt64("initial-retry")),
		songtag.WithMaxDuration(viper.GetDuration("max-duration")),
		songtag.WithDevice(viper.GetString("device")),
		songtag.WithMicrophone(func(device string) audio.Source {
			return &capture.Microphone{Device: device}
		}),
	}
	if dir := viper.GetString("debug-dir"); dir != "" {
		opts = append(opts, songtag.WithPainter(debug.NewPainter(dir)))
	}

	return songtag.NewService(opts...)
}

// sessionTimeout bounds one tagging session end to end.
func sessionTimeout() time.Duration {
	if d := viper.GetDuration("max-duration"); d > 0 {
		return d + 2*viper.GetDuration("timeout")
	}
	return 2 * time.Minute
}
