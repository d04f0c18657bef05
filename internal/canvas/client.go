package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no Canvas access token is set.
var ErrNotConfigured = errors.New("canvas: access token not configured")

// StatusError is a non-2xx answer from Canvas.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("canvas error %d: %s", e.Status, e.Body)
}

// Client calls the Canvas LMS REST API with a personal access token.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New creates a client with a 30s timeout.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether a token is available.
func (c *Client) Configured() bool {
	return c != nil && c.Token != ""
}

// Get forwards a GET to path (relative to the API root) and returns the raw body.
// Non-2xx answers come back as *StatusError.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	target := c.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("canvas request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("canvas read failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// ActiveCourses lists the courses the token holder is actively enrolled in.
func (c *Client) ActiveCourses(ctx context.Context) ([]Course, error) {
	body, err := c.Get(ctx, "courses", url.Values{
		"enrollment_state": {"active"},
		"per_page":         {"50"},
	})
	if err != nil {
		return nil, err
	}
	var out []Course
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode courses: %w", err)
	}
	return out, nil
}

// CourseAssignments lists the assignments of one course.
func (c *Client) CourseAssignments(ctx context.Context, courseID int64) ([]Assignment, error) {
	body, err := c.Get(ctx, "courses/"+strconv.FormatInt(courseID, 10)+"/assignments", url.Values{
		"per_page": {"100"},
	})
	if err != nil {
		return nil, err
	}
	var out []Assignment
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode assignments for course %d: %w", courseID, err)
	}
	return out, nil
}
