package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>First entry</title>
      <link>https://example.org/first</link>
      <pubDate>Tue, 10 Mar 2026 08:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Second entry</title>
      <link>https://example.org/second</link>
      <pubDate>Mon, 09 Mar 2026 08:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

func TestDocument(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`<html><body><h1>Listing</h1></body></html>`))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, "harvester-test/1.0")
	doc, err := f.Document(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Listing", doc.Find("h1").Text())
	assert.Equal(t, "harvester-test/1.0", gotAgent)
}

func TestDocumentNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, "harvester-test/1.0")
	_, err := f.Document(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestFeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeedXML))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, "harvester-test/1.0")

	// Two URLs against the same server: entries concatenate in URL order.
	items, err := f.Feeds(context.Background(), srv.URL, srv.URL)
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "First entry", items[0].Title)
	assert.Equal(t, "Second entry", items[1].Title)
	require.NotNil(t, items[0].PublishedParsed)
}

func TestFeedsPropagatesFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, "harvester-test/1.0")
	_, err := f.Feeds(context.Background(), srv.URL)
	assert.Error(t, err)
}
