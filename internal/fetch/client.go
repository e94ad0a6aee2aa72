package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/fpl-tools/fpl-scorer/internal/store"
)

var (
	// ErrNotFound marks a 404 from the FPL API, e.g. an unknown player id.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable marks transport failures, non-2xx responses and
	// bodies that do not decode.
	ErrUnavailable = errors.New("fpl api unavailable")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const DefaultBaseURL = "https://fantasy.premierleague.com/api"

type Client struct {
	HTTP         *http.Client
	Store        *store.JSONStore
	BaseURL      string
	UserAgent    string
	Sleep        time.Duration
	PrettyWrite  bool
	UseCache     bool
	DisableWrite bool
	// Refresh bypasses cached bodies on the typed endpoint helpers.
	Refresh bool
	// MaxAge refetches cached bodies older than this. Zero keeps them
	// until Refresh or force.
	MaxAge time.Duration
	Logger *zap.Logger
}

func NewClient(st *store.JSONStore) *Client {
	return &Client{
		HTTP:        &http.Client{Timeout: 20 * time.Second},
		Store:       st,
		BaseURL:     DefaultBaseURL,
		UserAgent:   "fpl-scorer/1.0",
		Sleep:       250 * time.Millisecond,
		PrettyWrite: true,
		UseCache:    true,
		Logger:      zap.NewNop(),
	}
}

// FetchRaw downloads urlPath (like "/fixtures/") and writes it to relPath.
// Returns raw bytes (from cache or network).
func (c *Client) FetchRaw(ctx context.Context, urlPath string, relPath string, force bool) ([]byte, error) {
	cacheable := c.Store != nil && relPath != ""
	if !force && c.UseCache && cacheable && c.fresh(relPath) {
		return c.Store.ReadRaw(relPath)
	}

	if c.Sleep > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Sleep):
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+urlPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger().Debug("fetch", zap.String("path", urlPath), zap.Bool("force", force))
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w: %v", urlPath, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s read body: %w: %v", urlPath, ErrUnavailable, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("GET %s: %w", urlPath, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s failed: %d body=%s: %w", urlPath, resp.StatusCode, string(body), ErrUnavailable)
	}

	if cacheable && !c.DisableWrite {
		if err := c.Store.WriteRaw(relPath, body, c.PrettyWrite); err != nil {
			return nil, err
		}
	}
	return body, nil
}

func (c *Client) fresh(relPath string) bool {
	mod, err := c.Store.ModTime(relPath)
	if err != nil {
		return false
	}
	return c.MaxAge <= 0 || time.Since(mod) < c.MaxAge
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// decode unmarshals an API body, reporting malformed payloads as unavailable.
func decode(urlPath string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w: %v", urlPath, ErrUnavailable, err)
	}
	return nil
}
