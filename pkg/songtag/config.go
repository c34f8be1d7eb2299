package songtag

import (
	"os"
	"time"

	"github.com/himanishpuri/songtag/pkg/songtag/audio"
	"github.com/himanishpuri/songtag/pkg/songtag/fingerprint"
	"github.com/himanishpuri/songtag/pkg/songtag/pipeline"
)

type Config struct {
	DBPath  string
	TempDir string
	// History stores every match. Off by default.
	History    bool
	Logger     Logger
	Storage    Storage
	Recognizer Recognizer
	// InitialRetryMs is the audio heard before the first submission.
	InitialRetryMs int64
	// MaxDuration ends a session without a match once this much audio has
	// been processed. Zero means no limit.
	MaxDuration time.Duration
	Detector    fingerprint.DetectorConfig
	Painter     Painter
	Device      string
	Microphone  MicrophoneFunc
	// QueueSize bounds the blocks buffered between a source and the pipeline.
	QueueSize int
}

// MicrophoneFunc opens a live source for the named input device; an empty
// name selects the system default.
type MicrophoneFunc func(device string) audio.Source

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithHistory(enabled bool) Option {
	return func(c *Config) {
		c.History = enabled
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithStorage replaces the SQLite history and turns history on.
func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
		c.History = true
	}
}

func WithRecognizer(r Recognizer) Option {
	return func(c *Config) {
		c.Recognizer = r
	}
}

func WithInitialRetry(ms int64) Option {
	return func(c *Config) {
		c.InitialRetryMs = ms
	}
}

func WithMaxDuration(d time.Duration) Option {
	return func(c *Config) {
		c.MaxDuration = d
	}
}

func WithLandmarkPolicy(cfg fingerprint.DetectorConfig) Option {
	return func(c *Config) {
		c.Detector = cfg
	}
}

func WithPainter(p Painter) Option {
	return func(c *Config) {
		c.Painter = p
	}
}

func WithDevice(name string) Option {
	return func(c *Config) {
		c.Device = name
	}
}

func WithMicrophone(open MicrophoneFunc) Option {
	return func(c *Config) {
		c.Microphone = open
	}
}

func WithQueueSize(n int) Option {
	return func(c *Config) {
		c.QueueSize = n
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:         "songtag.sqlite3",
		TempDir:        os.TempDir(),
		InitialRetryMs: pipeline.DefaultInitialRetryMs,
		Detector:       fingerprint.DefaultDetectorConfig(),
		QueueSize:      64,
	}
}
