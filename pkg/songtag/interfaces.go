package songtag

import (
	"context"

	"github.com/himanishpuri/songtag/pkg/models"
	"github.com/himanishpuri/songtag/pkg/songtag/audio"
	"github.com/himanishpuri/songtag/pkg/songtag/fingerprint"
	"github.com/himanishpuri/songtag/pkg/songtag/shazam"
)

type Service interface {
	// Tag runs one capture session over src until it reaches a terminal
	// outcome. label is recorded in the history as the audio's origin.
	Tag(ctx context.Context, src audio.Source, label string) (*TagResult, error)
	TagFile(ctx context.Context, path string) (*TagResult, error)
	Listen(ctx context.Context) (*TagResult, error)
	History(q models.HistoryQuery) ([]models.Tag, error)
	GetTag(id string) (models.Tag, error)
	DeleteTag(id string) error
	Close() error
}

type Storage interface {
	SaveTag(t models.Tag) (models.Tag, error)
	ListTags(q models.HistoryQuery) ([]models.Tag, error)
	GetTag(id string) (models.Tag, error)
	DeleteTag(id string) error
	Close() error
}

// Recognizer submits one signature. shazam.Client is the production one.
type Recognizer interface {
	SendRequest(ctx context.Context, tagID string, sampleMs int64, sig []byte) (*shazam.Result, error)
}

// Painter renders the session state before a submission.
type Painter interface {
	Paint(tagID string, submission int, spec *fingerprint.Spectrogram, landmarks []fingerprint.Location) error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
