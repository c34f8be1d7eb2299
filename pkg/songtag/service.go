// Package songtag recognises songs from live or recorded audio. A Service
// runs capture sessions: audio is fingerprinted as it arrives and a
// signature is submitted whenever enough has been heard, following the
// server's retry hints until it answers with a match or gives up.
package songtag

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/himanishpuri/songtag/pkg/logger"
	"github.com/himanishpuri/songtag/pkg/models"
	"github.com/himanishpuri/songtag/pkg/songtag/audio"
	"github.com/himanishpuri/songtag/pkg/songtag/fingerprint"
	"github.com/himanishpuri/songtag/pkg/songtag/pipeline"
	"github.com/himanishpuri/songtag/pkg/songtag/shazam"
	"github.com/himanishpuri/songtag/pkg/utils"
)

type tagService struct {
	storage    Storage
	recognizer Recognizer
	log        Logger
	config     *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Recognizer == nil {
		cfg.Recognizer = shazam.NewClient()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}

	stor := cfg.Storage
	if stor == nil && cfg.History {
		var err error
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &tagService{
		storage:    stor,
		recognizer: cfg.Recognizer,
		log:        cfg.Logger,
		config:     cfg,
	}, nil
}

// Tag streams src into a fresh session. The returned error is reserved for
// a failing source; every other ending is described by the result.
func (s *tagService) Tag(ctx context.Context, src audio.Source, label string) (*TagResult, error) {
	tagID := utils.GenerateUUID()
	s.log.Infof("Tagging session %s started (%s)", tagID, label)

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	blocks := make(chan []int16, s.config.QueueSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(blocks)
		err := src.Stream(gctx, blocks)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// The consumer reports cancellation itself.
			return nil
		}
		return err
	})

	var result *TagResult
	g.Go(func() error {
		result = s.run(gctx, tagID, label, blocks)
		stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.Errorf("Tagging session %s: audio source failed: %v", tagID, err)
		return nil, fmt.Errorf("reading audio: %w", err)
	}

	if result.Outcome == Matched {
		s.log.Infof("Tagging session %s matched %q by %q after %d ms", tagID, result.Match.Title, result.Match.Artist, result.ProcessedMs)
	} else {
		s.log.Infof("Tagging session %s ended: %s (%v)", tagID, result.Outcome, result.Err)
	}
	return result, nil
}

// run is the single consumer. Only it touches the session.
func (s *tagService) run(ctx context.Context, tagID, label string, blocks <-chan []int16) *TagResult {
	sess := pipeline.NewSession(tagID, s.config.InitialRetryMs, s.config.Detector)
	chunker := audio.NewChunker(fingerprint.ChunkSize)
	maxMs := s.config.MaxDuration.Milliseconds()

	for {
		var block []int16
		var ok bool
		select {
		case <-ctx.Done():
			return s.finish(sess, Cancelled, nil, ctx.Err())
		case block, ok = <-blocks:
		}
		if !ok {
			if err := ctx.Err(); err != nil {
				return s.finish(sess, Cancelled, nil, err)
			}
			return s.finish(sess, SourceEnded, nil, ErrSourceEnded)
		}

		for _, chunk := range chunker.Push(block) {
			if err := ctx.Err(); err != nil {
				return s.finish(sess, Cancelled, nil, err)
			}

			if sess.Feed(chunk) {
				res, err := s.submit(ctx, sess)
				switch {
				case err != nil && ctx.Err() != nil:
					return s.finish(sess, Cancelled, nil, ctx.Err())
				case err != nil:
					return s.finish(sess, TransportError, nil, err)
				case res.Success():
					r := s.finish(sess, Matched, res, nil)
					s.record(r, label)
					return r
				case res.GiveUp():
					return s.finish(sess, GaveUp, nil, ErrGaveUp)
				}

				s.log.Debugf("Session %s: retry at %d ms", tagID, res.RetryMs)
				sess.Retry(res.RetryMs)
			}

			if maxMs > 0 && sess.ProcessedMs() >= maxMs {
				return s.finish(sess, GaveUp, nil, fmt.Errorf("%w within %v", ErrGaveUp, s.config.MaxDuration))
			}
		}
	}
}

func (s *tagService) submit(ctx context.Context, sess *pipeline.Session) (*shazam.Result, error) {
	if s.config.Painter != nil {
		if err := s.config.Painter.Paint(sess.TagID, sess.Submissions()+1, sess.Spectrogram(), sess.Locations()); err != nil {
			s.log.Warnf("Session %s: painting spectrogram: %v", sess.TagID, err)
		}
	}

	sig, err := sess.Signature()
	if err != nil {
		return nil, err
	}
	s.log.Infof("Session %s: submission %d after %d ms, %d landmarks, %d bytes",
		sess.TagID, sess.Submissions(), sess.ProcessedMs(), sess.LandmarkCount(), len(sig))

	return s.recognizer.SendRequest(ctx, sess.TagID, sess.ProcessedMs(), sig)
}

func (s *tagService) finish(sess *pipeline.Session, outcome Outcome, match *shazam.Result, err error) *TagResult {
	return &TagResult{
		TagID:       sess.TagID,
		Outcome:     outcome,
		Match:       match,
		ProcessedMs: sess.ProcessedMs(),
		Submissions: sess.Submissions(),
		Landmarks:   sess.LandmarkCount(),
		Err:         err,
	}
}

// record stores a match in the history. Failures are logged only; the match
// itself stands.
func (s *tagService) record(r *TagResult, label string) {
	if s.storage == nil {
		return
	}

	saved, err := s.storage.SaveTag(models.Tag{
		TagID:       r.TagID,
		TrackID:     r.Match.ID,
		Title:       r.Match.Title,
		Artist:      r.Match.Artist,
		URL:         r.Match.URL,
		Source:      label,
		ProcessedMs: r.ProcessedMs,
	})
	if err != nil {
		s.log.Warnf("Session %s: saving history: %v", r.TagID, err)
		return
	}
	r.HistoryID = saved.ID
}

// TagFile tags a recorded file as fast as it can be decoded.
func (s *tagService) TagFile(ctx context.Context, path string) (*TagResult, error) {
	src := &audio.FileSource{Path: path, TempDir: s.config.TempDir}
	return s.Tag(ctx, src, filepath.Base(path))
}

// Listen tags the configured microphone until a terminal outcome or ctx ends.
func (s *tagService) Listen(ctx context.Context) (*TagResult, error) {
	if s.config.Microphone == nil {
		return nil, ErrNoMicrophone
	}
	label := "microphone"
	if s.config.Device != "" {
		label = s.config.Device
	}
	return s.Tag(ctx, s.config.Microphone(s.config.Device), label)
}

func (s *tagService) History(q models.HistoryQuery) ([]models.Tag, error) {
	if s.storage == nil {
		return nil, ErrHistoryDisabled
	}
	return s.storage.ListTags(q)
}

func (s *tagService) GetTag(id string) (models.Tag, error) {
	if s.storage == nil {
		return models.Tag{}, ErrHistoryDisabled
	}
	return s.storage.GetTag(id)
}

func (s *tagService) DeleteTag(id string) error {
	if s.storage == nil {
		return ErrHistoryDisabled
	}
	return s.storage.DeleteTag(id)
}

// Close releases the history database, if any.
func (s *tagService) Close() error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Close()
}
