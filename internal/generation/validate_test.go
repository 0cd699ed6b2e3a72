package generation

import (
	"errors"
	"strings"
	"testing"

	"vidforge/internal/domain"
)

func TestNormalizeDefaults(t *testing.T) {
	req := SubmitRequest{Prompt: "  hello  "}
	req.Normalize("veo-3-fast")
	if req.Prompt != "hello" {
		t.Fatalf("prompt not trimmed: %q", req.Prompt)
	}
	if req.Duration != 5 || req.AspectRatio != "16:9" || req.Resolution != "720p" || req.Model != "veo-3-fast" {
		t.Fatalf("defaults not applied: %+v", req)
	}
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	req := SubmitRequest{Prompt: "p", Duration: 10, AspectRatio: "9:16", Resolution: "1080p", Model: "custom"}
	req.Normalize("veo-3-fast")
	if req.Duration != 10 || req.AspectRatio != "9:16" || req.Resolution != "1080p" || req.Model != "custom" {
		t.Fatalf("explicit values overridden: %+v", req)
	}
}

func TestValidatePromptBounds(t *testing.T) {
	req := SubmitRequest{Prompt: strings.Repeat("x", 1001)}
	req.Normalize("m")
	var verr *domain.ValidationError
	if err := req.Validate(); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	} else if verr.Violations[0].Field != "prompt" {
		t.Fatalf("unexpected field: %+v", verr.Violations)
	}

	ok := SubmitRequest{Prompt: strings.Repeat("x", 1000)}
	ok.Normalize("m")
	if err := ok.Validate(); err != nil {
		t.Fatalf("1000-char prompt should pass: %v", err)
	}
}

func TestValidatePromptBoundIsCharacters(t *testing.T) {
	// 600 two-byte runes: 1200 bytes but well under 1000 characters.
	req := SubmitRequest{Prompt: strings.Repeat("é", 600)}
	req.Normalize("m")
	if err := req.Validate(); err != nil {
		t.Fatalf("multi-byte prompt under the character bound rejected: %v", err)
	}

	long := SubmitRequest{Prompt: strings.Repeat("é", 1001)}
	long.Normalize("m")
	var verr *domain.ValidationError
	if err := long.Validate(); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	} else if verr.Violations[0].Field != "prompt" {
		t.Fatalf("unexpected field: %+v", verr.Violations)
	}
}

func TestValidateImageURL(t *testing.T) {
	req := SubmitRequest{Prompt: "p", ImageURL: "not a url"}
	req.Normalize("m")
	var verr *domain.ValidationError
	if err := req.Validate(); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	ok := SubmitRequest{Prompt: "p", ImageURL: "https://example.com/in.png"}
	ok.Normalize("m")
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid image url rejected: %v", err)
	}
}
