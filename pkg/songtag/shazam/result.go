package shazam

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// TrackURLPrefix builds a track page URL when the response carries none.
const TrackURLPrefix = "https://www.shazam.com/track/"

// Result is the outcome of one submission. A non-empty ID is a match;
// otherwise RetryMs is the processed-audio threshold for the next attempt,
// and zero means stop trying.
type Result struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Artist  string `json:"artist,omitempty"`
	URL     string `json:"url,omitempty"`
	RetryMs int64  `json:"retry_ms,omitempty"`
}

func (r *Result) Success() bool {
	return r.ID != ""
}

// GiveUp reports whether the service asked to stop retrying. A negative
// delay counts as a refusal.
func (r *Result) GiveUp() bool {
	return !r.Success() && r.RetryMs <= 0
}

// ParseResult reads a match response. Missing fields stay empty; only a body
// that is not JSON at all is an error.
func ParseResult(body []byte) (*Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrTransport)
	}

	res := &Result{ID: gjson.GetBytes(body, "results.matches.0.id").String()}
	if !res.Success() {
		res.RetryMs = retryDelay(gjson.GetBytes(body, "results.retry.retryInMilliseconds"))
		return res, nil
	}

	// song ids are looked up by key rather than path so ids never need escaping
	gjson.GetBytes(body, "resources.shazam-songs").ForEach(func(key, value gjson.Result) bool {
		if key.String() != res.ID {
			return true
		}
		attrs := value.Get("attributes")
		res.Title = attrs.Get("title").String()
		res.Artist = attrs.Get("artist").String()
		res.URL = cleanURL(attrs.Get("webUrl").String())
		return false
	})

	if res.URL == "" {
		res.URL = TrackURLPrefix + res.ID
	}
	return res, nil
}

// cleanURL drops the query string and percent-decodes what is left.
func cleanURL(raw string) string {
	raw, _, _ = strings.Cut(raw, "?")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return unescaped
	}
	return raw
}

// retryDelay accepts only an integral JSON number that fits in 32 bits.
// Anything else reads as 0, which ends the session.
func retryDelay(v gjson.Result) int64 {
	if v.Type != gjson.Number || v.Num != math.Trunc(v.Num) {
		return 0
	}
	if v.Num < math.MinInt32 || v.Num > math.MaxInt32 {
		return 0
	}
	return int64(v.Num)
}
