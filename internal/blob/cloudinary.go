package blob

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cloudinary stores documents as raw (non-image) assets via the REST API.
type Cloudinary struct {
	CloudName    string
	APIKey       string
	APISecret    string
	Folder       string
	APIBase      string
	DeliveryBase string
	HTTP         *http.Client
	now          func() time.Time
}

// NewCloudinary creates a store for the given account.
func NewCloudinary(cloudName, apiKey, apiSecret, folder string) *Cloudinary {
	return &Cloudinary{
		CloudName:    cloudName,
		APIKey:       apiKey,
		APISecret:    apiSecret,
		Folder:       folder,
		APIBase:      "https://api.cloudinary.com/v1_1",
		DeliveryBase: "https://res.cloudinary.com",
		HTTP:         &http.Client{Timeout: 30 * time.Second},
		now:          time.Now,
	}
}

type uploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Bytes     int64  `json:"bytes"`
}

// Put uploads data under key (inside Folder). The returned Key is the public id.
func (c *Cloudinary) Put(ctx context.Context, key, contentType string, data []byte) (Object, error) {
	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
		"public_id": key,
	}
	if c.Folder != "" {
		params["folder"] = c.Folder
	}
	params["signature"] = c.sign(params)
	params["api_key"] = c.APIKey

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range params {
		_ = w.WriteField(k, v)
	}
	part, err := w.CreateFormFile("file", key)
	if err != nil {
		return Object{}, fmt.Errorf("cloudinary: create form file failed: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return Object{}, fmt.Errorf("cloudinary: write file failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return Object{}, err
	}

	body, err := c.post(ctx, "raw/upload", w.FormDataContentType(), &buf)
	if err != nil {
		return Object{}, err
	}
	var res uploadResult
	if err := json.Unmarshal(body, &res); err != nil {
		return Object{}, fmt.Errorf("cloudinary: decode response failed: %w", err)
	}
	return Object{Key: res.PublicID, URL: res.SecureURL, Size: res.Bytes}, nil
}

// Get downloads the asset with the given public id.
func (c *Cloudinary) Get(ctx context.Context, key string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/raw/upload/%s", c.DeliveryBase, c.CloudName, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("cloudinary: download failed (%d)", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Delete destroys the asset with the given public id.
func (c *Cloudinary) Delete(ctx context.Context, key string) error {
	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
		"public_id": key,
	}
	params["signature"] = c.sign(params)
	params["api_key"] = c.APIKey

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range params {
		_ = w.WriteField(k, v)
	}
	if err := w.Close(); err != nil {
		return err
	}
	body, err := c.post(ctx, "raw/destroy", w.FormDataContentType(), &buf)
	if err != nil {
		return err
	}
	var res struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return fmt.Errorf("cloudinary: decode response failed: %w", err)
	}
	if res.Result == "not found" {
		return ErrNotFound
	}
	if res.Result != "ok" {
		return fmt.Errorf("cloudinary: destroy returned %q", res.Result)
	}
	return nil
}

func (c *Cloudinary) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%s", c.APIBase, c.CloudName, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: create request failed: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("cloudinary: %s failed (%d): %s", path, resp.StatusCode, string(raw))
	}
	return raw, nil
}

// sign computes the API signature over every non-empty param except the
// file, api_key and resource_type.
func (c *Cloudinary) sign(params map[string]string) string {
	exclude := map[string]bool{"api_key": true, "file": true, "resource_type": true}
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		if !exclude[k] && v != "" {
			pairs = append(pairs, k+"="+v)
		}
	}
	sort.Strings(pairs)
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.APISecret))
	return fmt.Sprintf("%x", sum)
}
