// Package transcribe wraps the hosted speech-to-text API. Jobs are submitted
// with diarization enabled and polled until the provider reports a terminal
// state.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// JobStatus is the provider-side state of a transcription job.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Segment is a single diarized utterance returned by the provider.
type Segment struct {
	SpeakerLabel string `json:"speaker_label"`
	Text         string `json:"text"`
}

// PollResult carries the outcome of a single job poll. Segments are populated
// only when Status is JobSucceeded; FailureReason only when JobFailed.
type PollResult struct {
	Status        JobStatus
	Segments      []Segment
	FailureReason string
}

// Config captures the runtime settings required to talk to the provider.
type Config struct {
	APIKey         string
	BaseURL        string
	Language       string
	MaxSpeakers    int
	TimeoutSeconds int
}

// Client submits and polls diarized transcription jobs.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a transcription client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Language:       strings.TrimSpace(cfg.Language),
			MaxSpeakers:    cfg.MaxSpeakers,
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

type submitRequest struct {
	AudioLocation string `json:"audio_location"`
	Diarize       bool   `json:"diarize"`
	Language      string `json:"language,omitempty"`
	MaxSpeakers   int    `json:"max_speakers,omitempty"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
}

type pollResponse struct {
	Status   string    `json:"status"`
	Segments []Segment `json:"segments"`
	Error    string    `json:"error"`
}

// Submit starts a diarized transcription job for the stored audio object and
// returns the provider job reference.
func (c *Client) Submit(ctx context.Context, audioLocation string) (string, error) {
	audioLocation = strings.TrimSpace(audioLocation)
	if audioLocation == "" {
		return "", errors.New("transcribe submit: audio location required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("transcribe submit: api key required")
	}

	payload := submitRequest{
		AudioLocation: audioLocation,
		Diarize:       true,
		Language:      c.cfg.Language,
		MaxSpeakers:   c.cfg.MaxSpeakers,
	}
	body, err := c.do(ctx, http.MethodPost, c.endpoint("transcriptions"), payload)
	if err != nil {
		return "", fmt.Errorf("transcribe submit: %w", err)
	}

	var parsed submitResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("transcribe submit: decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("transcribe submit: provider error: %s", parsed.Error)
	}
	if strings.TrimSpace(parsed.JobID) == "" {
		return "", errors.New("transcribe submit: provider returned no job id")
	}
	return parsed.JobID, nil
}

// Poll fetches the current state of a previously submitted job.
func (c *Client) Poll(ctx context.Context, jobRef string) (PollResult, error) {
	var empty PollResult
	jobRef = strings.TrimSpace(jobRef)
	if jobRef == "" {
		return empty, errors.New("transcribe poll: job ref required")
	}
	if c.cfg.APIKey == "" {
		return empty, errors.New("transcribe poll: api key required")
	}

	body, err := c.do(ctx, http.MethodGet, c.endpoint("transcriptions", jobRef), nil)
	if err != nil {
		return empty, fmt.Errorf("transcribe poll: %w", err)
	}

	var parsed pollResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return empty, fmt.Errorf("transcribe poll: decode response: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(parsed.Status)) {
	case "queued", "running", "in_progress":
		return PollResult{Status: JobRunning}, nil
	case "succeeded", "completed":
		if len(parsed.Segments) == 0 {
			return empty, errors.New("transcribe poll: completed job has no segments")
		}
		return PollResult{Status: JobSucceeded, Segments: parsed.Segments}, nil
	case "failed", "error":
		reason := strings.TrimSpace(parsed.Error)
		if reason == "" {
			reason = "transcription failed"
		}
		return PollResult{Status: JobFailed, FailureReason: reason}, nil
	default:
		return empty, fmt.Errorf("transcribe poll: unknown job status %q", parsed.Status)
	}
}

// HealthCheck verifies the provider endpoint is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("transcribe health: api key required")
	}
	if _, err := c.do(ctx, http.MethodGet, c.endpoint("health"), nil); err != nil {
		return fmt.Errorf("transcribe health: %w", err)
	}
	return nil
}

func (c *Client) endpoint(parts ...string) string {
	joined, err := url.JoinPath(c.cfg.BaseURL, parts...)
	if err != nil {
		return c.cfg.BaseURL + "/" + strings.Join(parts, "/")
	}
	return joined
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
