package generation

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"vidforge/internal/domain"
)

const (
	MaxPromptLength    = 1000
	DefaultDuration    = 5
	DefaultAspectRatio = "16:9"
	DefaultResolution  = "720p"
	DefaultFPS         = 24
)

var (
	allowedDurations    = map[int]bool{5: true, 10: true}
	allowedAspectRatios = map[string]bool{"16:9": true, "9:16": true, "1:1": true, "4:3": true, "3:4": true}
	allowedResolutions  = map[string]bool{"480p": true, "720p": true, "1080p": true}
)

// SubmitRequest is the inbound generation request before normalization.
type SubmitRequest struct {
	Prompt      string `json:"prompt"`
	ImageURL    string `json:"image,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Resolution  string `json:"resolution,omitempty"`
	Model       string `json:"model,omitempty"`
}

// Normalize fills in the documented defaults for omitted fields.
func (r *SubmitRequest) Normalize(defaultModel string) {
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.ImageURL = strings.TrimSpace(r.ImageURL)
	if r.Duration == 0 {
		r.Duration = DefaultDuration
	}
	if r.AspectRatio == "" {
		r.AspectRatio = DefaultAspectRatio
	}
	if r.Resolution == "" {
		r.Resolution = DefaultResolution
	}
	if r.Model == "" {
		r.Model = defaultModel
	}
}

// Validate checks every field and reports the complete list of
// violations rather than stopping at the first one.
func (r *SubmitRequest) Validate() error {
	verr := &domain.ValidationError{}
	if r.Prompt == "" {
		verr.Add("prompt", "is required")
	} else if utf8.RuneCountInString(r.Prompt) > MaxPromptLength {
		verr.Add("prompt", "must be at most 1000 characters")
	}
	if r.ImageURL != "" {
		if u, err := url.Parse(r.ImageURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			verr.Add("image", "must be an http(s) URL")
		}
	}
	if !allowedDurations[r.Duration] {
		verr.Add("duration", "must be one of 5, 10")
	}
	if !allowedAspectRatios[r.AspectRatio] {
		verr.Add("aspect_ratio", "must be one of 16:9, 9:16, 1:1, 4:3, 3:4")
	}
	if !allowedResolutions[r.Resolution] {
		verr.Add("resolution", "must be one of 480p, 720p, 1080p")
	}
	if verr.HasViolations() {
		return verr
	}
	return nil
}
