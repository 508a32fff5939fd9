// Package liveview provides a client for the LiveView content server.
package liveview

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a LiveView API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new LiveView client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FileInfo describes one document in the live view.
type FileInfo struct {
	ID       string `json:"id"`
	Size     int    `json:"size"`
	Revision uint64 `json:"revision"`
	Created  int64  `json:"created"`
	Updated  int64  `json:"updated"`
}

// ContentResponse is the merged view plus file metadata.
type ContentResponse struct {
	Content string     `json:"content"`
	Files   []FileInfo `json:"files"`
}

// FileResponse is one document's content.
type FileResponse struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Revision uint64 `json:"revision"`
}

// StreamEvent is one record from a chunked event stream.
type StreamEvent struct {
	Topic     string `json:"topic"`
	Kind      string `json:"kind"`
	FileID    string `json:"file_id,omitempty"`
	Revision  uint64 `json:"revision,omitempty"`
	Seq       uint64 `json:"seq"`
	MessageID string `json:"message_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"ts"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Content fetches the merged live view.
func (c *Client) Content(ctx context.Context) (*ContentResponse, error) {
	var out ContentResponse
	if err := c.getJSON(ctx, "/api/content", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// File fetches one document by File Id.
func (c *Client) File(ctx context.Context, fileID string) (*FileResponse, error) {
	var out FileResponse
	path := "/api/file?id=" + url.QueryEscape(fileID)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a document by File Id.
func (c *Client) Delete(ctx context.Context, fileID string) error {
	body, err := json.Marshal(map[string]string{"fileId": fileID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/delete", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// Raw fetches the merged markdown as plain text.
func (c *Client) Raw(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/raw", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// StreamTopic attaches to the chunked NDJSON stream for a topic and invokes
// fn for every delivered event until the context is cancelled, the server
// closes the stream, or fn returns an error.
func (c *Client) StreamTopic(ctx context.Context, topic string, fn func(StreamEvent) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/mcp/stream/"+url.PathEscape(topic), nil)
	if err != nil {
		return err
	}

	// The stream is unbounded; bypass the client-level timeout.
	httpClient := &http.Client{Transport: c.HTTPClient.Transport}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var record struct {
			Result StreamEvent `json:"result"`
		}
		if err := json.Unmarshal(line, &record); err != nil {
			return fmt.Errorf("decoding stream record: %w", err)
		}
		if err := fn(record.Result); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var e errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, e.Error)
	}
	return fmt.Errorf("unexpected status: %s", resp.Status)
}
