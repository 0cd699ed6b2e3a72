package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Prediction state strings as reported by the provider. Anything not
// listed here is treated as still in flight.
const (
	StateStarting   = "starting"
	StateProcessing = "processing"
	StateSucceeded  = "succeeded"
	StateFailed     = "failed"
	StateCanceled   = "canceled"
)

type Options struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client talks to the external prediction API. All heavy lifting
// happens on the provider side; the client only creates, polls and
// cancels predictions by their opaque id.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.replicate.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.Token),
	}
}

// CreateInput is the normalized generation request sent to the
// provider. A non-empty ImageURL switches the provider from
// text-to-video to image-to-video mode.
type CreateInput struct {
	Version     string
	Prompt      string
	ImageURL    string
	Duration    int
	AspectRatio string
	Resolution  string
	FPS         int
	CameraFixed bool
}

// Prediction is the provider's view of one job.
type Prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`

	// Thumbnail is populated by models that render a poster frame.
	Thumbnail string `json:"thumbnail"`

	// Raw retains the full response body for storage alongside the job.
	Raw json.RawMessage `json:"-"`
}

// Succeeded reports a terminal successful prediction.
func (p *Prediction) Succeeded() bool { return p.Status == StateSucceeded }

// Failed reports a terminal unsuccessful prediction. A provider-side
// cancel lands here too; the local row decides which terminal state
// it maps to.
func (p *Prediction) Failed() bool {
	return p.Status == StateFailed || p.Status == StateCanceled
}

// OutputURL extracts the media URL from the prediction output, which
// the provider returns either as a bare string or a list of strings.
func (p *Prediction) OutputURL() string {
	if len(p.Output) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(p.Output, &single); err == nil {
		return single
	}
	var many []string
	if err := json.Unmarshal(p.Output, &many); err == nil && len(many) > 0 {
		return many[0]
	}
	return ""
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("provider: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider: %s (status %d)", e.Detail, e.StatusCode)
}

type createRequest struct {
	Version string         `json:"version"`
	Input   map[string]any `json:"input"`
}

// CreatePrediction submits a new generation to the provider and
// returns the accepted prediction with its opaque id.
func (c *Client) CreatePrediction(ctx context.Context, in CreateInput) (*Prediction, error) {
	if c.token == "" {
		return nil, errors.New("provider: API token is missing")
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return nil, errors.New("provider: prompt required")
	}
	input := map[string]any{
		"prompt":       in.Prompt,
		"duration":     in.Duration,
		"aspect_ratio": in.AspectRatio,
		"resolution":   in.Resolution,
		"fps":          in.FPS,
		"camera_fixed": in.CameraFixed,
	}
	if in.ImageURL != "" {
		input["image"] = in.ImageURL
	}
	body, err := json.Marshal(createRequest{Version: in.Version, Input: input})
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, "/predictions", bytes.NewReader(body))
}

// GetPrediction fetches the current state of a prediction.
func (c *Client) GetPrediction(ctx context.Context, id string) (*Prediction, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("provider: prediction id required")
	}
	return c.do(ctx, http.MethodGet, "/predictions/"+id, nil)
}

// CancelPrediction asks the provider to stop a running prediction.
func (c *Client) CancelPrediction(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("provider: prediction id required")
	}
	_, err := c.do(ctx, http.MethodPost, "/predictions/"+id+"/cancel", nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(raw)}
	}

	var pred Prediction
	if err := json.Unmarshal(raw, &pred); err != nil {
		return nil, fmt.Errorf("provider: decode response: %w", err)
	}
	if pred.ID == "" {
		return nil, errors.New("provider: response missing prediction id")
	}
	pred.Raw = raw
	return &pred, nil
}

func errorDetail(raw []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		for _, s := range []string{payload.Detail, payload.Error, payload.Title} {
			if s != "" {
				return s
			}
		}
	}
	return strings.TrimSpace(string(raw))
}
