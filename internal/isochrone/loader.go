// Package isochrone fetches precomputed walking-time polygons for stations.
package isochrone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/isocronas-quito/api/models"
)

const defaultMaxBytes = 8 << 20

// Polygon is the raw GeoJSON geometry of one station's isochrone for one walking time.
// The geometry is only checked for JSON syntax.
type Polygon struct {
	Station   string
	Minutes   models.TimeSelection
	URL       string
	Geometry  json.RawMessage
	FetchedAt time.Time
}

// Loader resolves and fetches isochrone files relative to a base URL
type Loader struct {
	baseURL  string
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

// Option configures a Loader
type Option func(*Loader)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithMaxBytes caps the size of a response body
func WithMaxBytes(n int64) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// WithLogger sets the logger used for fetch diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates a loader for files under baseURL
func NewLoader(baseURL string, opts ...Option) (*Loader, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid isochrone base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("isochrone base URL must be http or https, got %q", baseURL)
	}

	l := &Loader{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		maxBytes: defaultMaxBytes,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// ResourceName returns the file name of a station's isochrone,
// e.g. "El Labrador", 15 -> "El_Labrador_15min.json"
func ResourceName(stationName string, minutes models.TimeSelection) string {
	return fmt.Sprintf("%s_%dmin.json", strings.ReplaceAll(stationName, " ", "_"), int(minutes))
}

// ResourceURL returns the URL of a station's isochrone file
func (l *Loader) ResourceURL(stationName string, minutes models.TimeSelection) string {
	return l.baseURL + "/" + url.PathEscape(ResourceName(stationName, minutes))
}

// Load fetches the isochrone of a station for the given walking time.
// The HTTP cache is bypassed so every call reads the current file.
func (l *Loader) Load(ctx context.Context, station models.Station, minutes models.TimeSelection) (*Polygon, error) {
	target := l.ResourceURL(station.Name, minutes)
	l.logger.Debug("isochrone_fetch", "station", station.Name, "minutes", int(minutes), "url", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	l.logger.Debug("isochrone_response",
		"station", station.Name,
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: target, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "application/json") {
		return nil, &ContentTypeError{URL: target, ContentType: contentType}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, &FetchError{URL: target, StatusCode: resp.StatusCode, Status: resp.Status, Err: err}
	}
	if int64(len(body)) > l.maxBytes {
		return nil, &ParseError{URL: target, Err: fmt.Errorf("body exceeds %d bytes", l.maxBytes)}
	}

	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, &ParseError{URL: target, Err: syntaxError(body)}
	}

	return &Polygon{
		Station:   station.Name,
		Minutes:   minutes,
		URL:       target,
		Geometry:  json.RawMessage(body),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// syntaxError recovers the decoder's description of why body is not JSON
func syntaxError(body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return err
	}
	return errors.New("invalid JSON")
}
