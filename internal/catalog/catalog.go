// Package catalog talks to the public library: search, item metadata and
// the conversion of item files into playable tracks.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	cataloghttp "github.com/justchokingaround/archivist/internal/catalog/http"
	"github.com/justchokingaround/archivist/internal/config"
	"github.com/justchokingaround/archivist/internal/player"
)

// DefaultBaseURL is the public library host
const DefaultBaseURL = "https://archive.org"

// ErrItemNotFound is returned when an identifier names no item
var ErrItemNotFound = errors.New("item not found")

var searchFields = []string{"identifier", "title", "mediatype", "creator", "downloads", "year"}

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	Rows       int
	UserAgent  string
	Cache      *ItemCache // nil disables caching
	Debug      bool
	Logger     *slog.Logger
}

// Client queries the library API
type Client struct {
	http   *cataloghttp.Client
	base   string
	rows   int
	cache  *ItemCache
	logger *slog.Logger
}

// NewClient creates a client
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Rows <= 0 {
		opts.Rows = 25
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	base := strings.TrimRight(opts.BaseURL, "/")

	return &Client{
		http: cataloghttp.NewClient(cataloghttp.ClientConfig{
			BaseURL:    base,
			Timeout:    opts.Timeout,
			MaxRetries: opts.MaxRetries,
			UserAgent:  opts.UserAgent,
			Debug:      opts.Debug,
			Logger:     opts.Logger,
		}),
		base:   base,
		rows:   opts.Rows,
		cache:  opts.Cache,
		logger: opts.Logger,
	}
}

// NewClientWithConfig creates a client from the application configuration,
// with an item cache in the cache directory when a lifetime is set
func NewClientWithConfig(cfg *config.Config, logger *slog.Logger) *Client {
	var cache *ItemCache
	if cfg.Catalog.CacheLifetime > 0 {
		cache = NewItemCache(filepath.Join(config.GetCacheDir(), "items.json"), cfg.Catalog.CacheLifetime)
	}
	return NewClient(Options{
		BaseURL:    cfg.Catalog.BaseURL,
		Timeout:    cfg.Catalog.Timeout,
		MaxRetries: cfg.Catalog.MaxRetries,
		Rows:       cfg.Catalog.Rows,
		UserAgent:  cfg.Catalog.UserAgent,
		Cache:      cache,
		Debug:      cfg.Advanced.Debug,
		Logger:     logger,
	})
}

// BaseURL returns the library host
func (c *Client) BaseURL() string {
	return c.base
}

type searchResponse struct {
	Response struct {
		NumFound int            `json:"numFound"`
		Start    int            `json:"start"`
		Docs     []SearchResult `json:"docs"`
	} `json:"response"`
}

// Search runs a full-text query, most downloaded first
func (c *Client) Search(ctx context.Context, q Query) (*SearchPage, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, errors.New("empty search query")
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Rows <= 0 {
		q.Rows = c.rows
	}

	expr := "(" + text + ")"
	if q.MediaType != "" {
		expr += " AND mediatype:(" + string(q.MediaType) + ")"
	}

	params := url.Values{
		"q":      {expr},
		"fl[]":   searchFields,
		"sort[]": {"downloads desc"},
		"rows":   {strconv.Itoa(q.Rows)},
		"page":   {strconv.Itoa(q.Page)},
		"output": {"json"},
	}

	var resp searchResponse
	if err := c.http.GetJSON(ctx, "/advancedsearch.php", params, &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", text, err)
	}

	results := make([]SearchResult, 0, len(resp.Response.Docs))
	for _, doc := range resp.Response.Docs {
		if doc.Identifier == "" {
			continue
		}
		if doc.Title == "" {
			doc.Title = Text(doc.Identifier)
		}
		results = append(results, doc)
	}

	c.logger.Debug("catalog search", "query", text, "type", q.MediaType, "page", q.Page, "found", resp.Response.NumFound)
	return &SearchPage{Total: resp.Response.NumFound, Page: q.Page, Results: results}, nil
}

// Item fetches the metadata and file list of an item
func (c *Client) Item(ctx context.Context, identifier string) (*Item, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrItemNotFound)
	}

	if c.cache != nil {
		if item, ok := c.cache.Get(identifier).Get(); ok {
			c.logger.Debug("catalog item from cache", "identifier", identifier)
			return item, nil
		}
	}

	var item Item
	err := c.http.GetJSON(ctx, "/metadata/"+url.PathEscape(identifier), nil, &item)
	if cataloghttp.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch item %s: %w", identifier, err)
	}
	// unknown identifiers answer 200 with an empty object
	if len(item.Files) == 0 && item.Metadata.Identifier == "" {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, identifier)
	}
	item.Identifier = identifier

	if c.cache != nil {
		if err := c.cache.Set(identifier, &item); err != nil {
			c.logger.Warn("failed to cache item", "identifier", identifier, "error", err)
		}
	}
	return &item, nil
}

// Tracks fetches an item and converts it into a playlist
func (c *Client) Tracks(ctx context.Context, identifier string, opts TrackOptions) (*Item, []player.Track, error) {
	item, err := c.Item(ctx, identifier)
	if err != nil {
		return nil, nil, err
	}
	if opts.BaseURL == "" {
		opts.BaseURL = c.base
	}
	if opts.MediaType == "" {
		if mt, ok := ParseMediaType(item.Metadata.MediaType.String()); ok {
			opts.MediaType = mt
		}
	}
	return item, TracksFromItemWith(item, opts), nil
}
