// Package gemini is a small REST client for the Google Generative Language API.
package gemini

import (
	"bufio"
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

// ErrUnavailable is returned when no API key is configured.
var ErrUnavailable = errors.New("gemini: api key not configured")

// Model is the generative model surface the rest of the service depends on.
type Model interface {
	Available() bool
	Generate(ctx context.Context, req Request) (string, error)
	Stream(ctx context.Context, req Request, onDelta func(string) error) (string, error)
}

// HTTPError is a non-2xx answer from the API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Body)
}

// Client talks to generateContent and streamGenerateContent.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
}

// New creates a client; timeout bounds a whole call including streaming.
func New(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Available reports whether the client has credentials.
func (c *Client) Available() bool {
	return c != nil && c.APIKey != ""
}

// Generate returns the full text of the first candidate.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := c.do(ctx, "generateContent", "", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gemini: decode response failed: %w", err)
	}
	if err := out.failure(); err != nil {
		return "", err
	}
	return out.text(), nil
}

// Stream calls onDelta for every text chunk as it arrives and returns the
// concatenated text. An error from onDelta stops the stream.
func (c *Client) Stream(ctx context.Context, req Request, onDelta func(string) error) (string, error) {
	resp, err := c.do(ctx, "streamGenerateContent", "alt=sse", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	err = readSSE(resp.Body, func(data string) error {
		var chunk wireResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil
		}
		if err := chunk.failure(); err != nil {
			return err
		}
		d := chunk.text()
		if d == "" {
			return nil
		}
		full.WriteString(d)
		if onDelta != nil {
			return onDelta(d)
		}
		return nil
	})
	if err != nil {
		return full.String(), err
	}
	return full.String(), nil
}

func (c *Client) do(ctx context.Context, method, rawQuery string, req Request) (*http.Response, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}
	body := wireRequest{Contents: req.Contents}
	if req.System != "" {
		body.SystemInstruction = &Content{Parts: []Part{Text(req.System)}}
	}
	if req.JSON {
		body.GenerationConfig = &generationConfig{ResponseMIMEType: "application/json"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:%s", c.BaseURL, c.Model, method)
	if rawQuery != "" {
		url += "?" + rawQuery
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.APIKey)
	if rawQuery != "" {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, nil
}

func (r wireResponse) failure() error {
	if r.Error != nil {
		return fmt.Errorf("gemini error %d: %s", r.Error.Code, r.Error.Message)
	}
	if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return fmt.Errorf("gemini blocked prompt: %s", r.PromptFeedback.BlockReason)
	}
	return nil
}

// readSSE hands the data payload of every server-sent event to onData.
func readSSE(r io.Reader, onData func(string) error) error {
	br := bufio.NewReader(r)
	var dataLines []string
	flush := func() error {
		if len(dataLines) == 0 {
			return nil
		}
		data := strings.Join(dataLines, "\n")
		dataLines = nil
		if strings.TrimSpace(data) == "" || strings.TrimSpace(data) == "[DONE]" {
			return nil
		}
		return onData(data)
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if ferr := flush(); ferr != nil {
				return ferr
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
		if eof {
			return flush()
		}
	}
}
