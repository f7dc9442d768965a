// Package ics turns subscribed iCalendar feeds into calendar events and
// renders event collections back to iCalendar.
package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	appLog "plancal/internal/log"
)

// Feed is one subscribed calendar.
type Feed struct {
	// ID becomes the CalendarID of every event parsed from the feed.
	ID   string
	Name string
	URL  string
}

// FetchResult is the payload of one feed.
type FetchResult struct {
	Feed      Feed
	Body      []byte
	FromCache bool // body came from disk after a 304 or a failed request
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads feeds with conditional GETs, keeping the last body and
// its validators on disk.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher returns a Fetcher caching under cacheDir. A nil client gets a
// default with a 15s timeout.
func NewFetcher(cacheDir string, client *http.Client) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./data/ics"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client, cacheDir: cacheDir}
}

// Fetch downloads one feed. When the server is unreachable or answers with
// an error status, the previously cached body is served instead if present.
func (f *Fetcher) Fetch(ctx context.Context, feed Feed) (FetchResult, error) {
	if feed.URL == "" {
		return FetchResult{}, fmt.Errorf("feed %s: url is empty", feed.ID)
	}

	dir := f.dirFor(feed.URL)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return FetchResult{}, err
	}
	meta, _ := loadMeta(dir)
	cached, _ := os.ReadFile(filepath.Join(dir, "body.ics"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if meta.URL == feed.URL && len(cached) > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	fallback := func(cause error) (FetchResult, error) {
		if len(cached) == 0 {
			return FetchResult{}, fmt.Errorf("feed %s: %w", feed.ID, cause)
		}
		appLog.Warn("ics feed unavailable, serving cached body", "feed", feed.ID, "url", redactURL(feed.URL), "cause", cause)
		return FetchResult{Feed: feed, Body: cached, FromCache: true}, nil
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fallback(err)
		}
		next := cacheMeta{
			URL:          feed.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(dir, next, body); err != nil {
			appLog.Warn("ics cache save failed", "feed", feed.ID, "err", err)
		}
		appLog.Debug("ics feed fetched", "feed", feed.ID, "url", redactURL(feed.URL), "bytes", len(body))
		return FetchResult{Feed: feed, Body: body}, nil

	case http.StatusNotModified:
		if len(cached) == 0 {
			return FetchResult{}, fmt.Errorf("feed %s: 304 without a cached body", feed.ID)
		}
		appLog.Debug("ics feed not modified", "feed", feed.ID)
		return FetchResult{Feed: feed, Body: cached, FromCache: true}, nil

	default:
		return fallback(errors.New(resp.Status))
	}
}

func (f *Fetcher) dirFor(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadMeta(dir string) (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

// saveCache writes the body before the metadata so validators never point
// at a missing body.
func saveCache(dir string, meta cacheMeta, body []byte) error {
	if err := os.WriteFile(filepath.Join(dir, "body.ics"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o600)
}

// redactURL keeps scheme and host only; feed paths often embed secrets.
func redactURL(u string) string {
	const suffix = "/...(redacted)"
	for i := 0; i+2 < len(u); i++ {
		if u[i:i+3] != "://" {
			continue
		}
		j := i + 3
		for j < len(u) && u[j] != '/' {
			j++
		}
		return u[:j] + suffix
	}
	return "ics://...(redacted)"
}
