package models

import "time"

// Tag is one recognised song in the tagging history. TagID names the
// tagging session that produced it and ProcessedMs is how much audio had
// been heard when the match came back.
type Tag struct {
	ID          string    `json:"id" yaml:"id"`
	TagID       string    `json:"tag_id" yaml:"tag_id"`
	TrackID     string    `json:"track_id" yaml:"track_id"`
	Title       string    `json:"title" yaml:"title"`
	Artist      string    `json:"artist" yaml:"artist"`
	URL         string    `json:"url" yaml:"url"`
	Source      string    `json:"source" yaml:"source"`
	ProcessedMs int64     `json:"processed_ms" yaml:"processed_ms"`
	TaggedAt    time.Time `json:"tagged_at" yaml:"tagged_at"`
}
