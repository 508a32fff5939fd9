package liveview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentDecodesMergedView(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/content", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"content":"# Merged","files":[{"id":"a.md","size":8,"revision":3,"created":1,"updated":2}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Content(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "# Merged", resp.Content)
	require.Len(t, resp.Files, 1)
	assert.Equal(t, "a.md", resp.Files[0].ID)
	assert.Equal(t, uint64(3), resp.Files[0].Revision)
}

func TestFileSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"file not found"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.File(context.Background(), "missing.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestDeletePostsFileID(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/delete", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"deleted","fileId":"a.md"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.NoError(t, c.Delete(context.Background(), "a.md"))
	assert.Equal(t, "a.md", got["fileId"])
}

func TestRawReturnsPlainMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/raw", r.URL.Path)
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		fmt.Fprint(w, "# Plain")
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	text, err := c.Raw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "# Plain", text)
}

func TestStreamTopicDeliversRecordsUntilCallbackStops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mcp/stream/chat", r.URL.Path)
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"jsonrpc":"2.0","result":{"topic":"chat","kind":"message","seq":1,"message":"m1","ts":10}}`)
		fmt.Fprintln(w, `{"jsonrpc":"2.0","result":{"topic":"chat","kind":"message","seq":2,"message":"m2","ts":11}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	var seen []StreamEvent
	err := c.StreamTopic(context.Background(), "chat", func(ev StreamEvent) error {
		seen = append(seen, ev)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, "m1", seen[0].Message)
	assert.Equal(t, uint64(1), seen[0].Seq)
	assert.Equal(t, "m2", seen[1].Message)
	assert.Equal(t, uint64(2), seen[1].Seq)
}

func TestStreamTopicPropagatesCallbackError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"jsonrpc":"2.0","result":{"topic":"chat","kind":"message","seq":1,"message":"m1","ts":10}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	stop := fmt.Errorf("enough")
	err := c.StreamTopic(context.Background(), "chat", func(StreamEvent) error { return stop })
	assert.ErrorIs(t, err, stop)
}
