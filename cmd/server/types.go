package main

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/himanishpuri/songtag/pkg/models"
	"github.com/himanishpuri/songtag/pkg/songtag"
	"github.com/himanishpuri/songtag/pkg/songtag/shazam"
	"github.com/himanishpuri/songtag/pkg/songtag/signature"
)

// MaxSignatureMs caps signatures forwarded from browsers.
const MaxSignatureMs = 60_000

// TagResponse is the response for POST /api/tag
type TagResponse struct {
	TagID       string         `json:"tag_id"`
	Outcome     string         `json:"outcome"`
	Match       *shazam.Result `json:"match,omitempty"`
	ProcessedMs int64          `json:"processed_ms"`
	Submissions int            `json:"submissions"`
	Landmarks   int            `json:"landmarks"`
	HistoryID   string         `json:"history_id,omitempty"`
	Error       string         `json:"error,omitempty"`
}

func newTagResponse(res *songtag.TagResult) TagResponse {
	out := TagResponse{
		TagID:       res.TagID,
		Outcome:     res.Outcome.String(),
		Match:       res.Match,
		ProcessedMs: res.ProcessedMs,
		Submissions: res.Submissions,
		Landmarks:   res.Landmarks,
		HistoryID:   res.HistoryID,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// RecognizeRequest is the request body for POST /api/recognize, sent by the
// browser build after it signs audio locally.
type RecognizeRequest struct {
	// TagID groups retries of one browser session. Optional.
	TagID    string `json:"tag_id,omitempty"`
	URI      string `json:"uri"`
	SampleMs int64  `json:"samplems"`
}

// Validate decodes the signature and checks its duration. It returns the
// raw signature bytes ready to forward.
func (r *RecognizeRequest) Validate() ([]byte, *signature.Decoded, error) {
	if r.URI == "" {
		return nil, nil, fmt.Errorf("uri is required")
	}
	b64, ok := strings.CutPrefix(r.URI, signature.DataURIPrefix)
	if !ok {
		return nil, nil, fmt.Errorf("uri must start with %q", signature.DataURIPrefix)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, nil, fmt.Errorf("uri is not valid base64: %w", err)
	}
	dec, err := signature.Decode(raw)
	if err != nil {
		return nil, nil, err
	}
	if r.SampleMs <= 0 {
		r.SampleMs = dec.DurationMs()
	}
	if r.SampleMs > MaxSignatureMs {
		return nil, nil, fmt.Errorf("signature too long: %d ms (maximum: %d)", r.SampleMs, MaxSignatureMs)
	}
	return raw, dec, nil
}

// RecognizeResponse tells the browser whether to keep listening.
type RecognizeResponse struct {
	TagID   string         `json:"tag_id"`
	Match   *shazam.Result `json:"match,omitempty"`
	RetryMs int64          `json:"retry_ms"`
	GiveUp  bool           `json:"give_up"`
}

// TagDTO represents a history entry in API responses
type TagDTO struct {
	ID          string    `json:"id"`
	TrackID     string    `json:"track_id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	ProcessedMs int64     `json:"processed_ms"`
	TaggedAt    time.Time `json:"tagged_at"`
}

func newTagDTO(t models.Tag) TagDTO {
	return TagDTO{
		ID:          t.ID,
		TrackID:     t.TrackID,
		Title:       t.Title,
		Artist:      t.Artist,
		URL:         t.URL,
		Source:      t.Source,
		ProcessedMs: t.ProcessedMs,
		TaggedAt:    t.TaggedAt,
	}
}

// ListHistoryResponse is the response for GET /api/history
type ListHistoryResponse struct {
	Tags  []TagDTO `json:"tags"`
	Count int      `json:"count"`
}

// DeleteTagResponse is the response for DELETE /api/history/{id}
type DeleteTagResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// MetricsResponse provides server health and history metrics
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path,omitempty"`
	History      bool   `json:"history"`
	TagCount     int    `json:"tag_count"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
