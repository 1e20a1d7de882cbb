package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fetcher loads and saves a document's notes. *Client implements it.
type Fetcher interface {
	FetchNotes(ctx context.Context, documentID string) (Document, error)
	SaveNotes(ctx context.Context, documentID string, list []Note) (Document, error)
}

var _ Fetcher = (*Client)(nil)

// Client talks to the notes HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBind   = "127.0.0.1:7488"
	defaultUserAgent = "folio/0.1"
	requestTimeout   = 5 * time.Second
)

// NewClient builds a Client for the given host:port or URL.
func NewClient(apiBind string) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: requestTimeout},
		userAgent: defaultUserAgent,
	}, nil
}

// FetchNotes retrieves the notes of a document.
func (c *Client) FetchNotes(ctx context.Context, documentID string) (Document, error) {
	if c == nil {
		return Document{}, fmt.Errorf("client is nil")
	}
	var payload Document
	if err := c.do(ctx, http.MethodGet, notesPath(documentID), nil, &payload); err != nil {
		return Document{}, err
	}
	return payload, nil
}

// SaveNotes replaces the notes of a document and returns the stored result.
func (c *Client) SaveNotes(ctx context.Context, documentID string, list []Note) (Document, error) {
	if c == nil {
		return Document{}, fmt.Errorf("client is nil")
	}
	if list == nil {
		list = []Note{}
	}
	var payload Document
	if err := c.do(ctx, http.MethodPut, notesPath(documentID), SaveRequest{PDFNotes: list}, &payload); err != nil {
		return Document{}, err
	}
	return payload, nil
}

func notesPath(documentID string) string {
	return "/api/documents/" + url.PathEscape(strings.TrimSpace(documentID)) + "/pdf-notes"
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parse path: %w", err)
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", path, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
