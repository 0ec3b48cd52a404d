package scrape

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Fetcher loads fixture pages from disk or over HTTP.
type Fetcher struct {
	client *resty.Client
}

// NewFetcher creates a fetcher with a browser-like user agent.
func NewFetcher() *Fetcher {
	client := resty.New()
	client.SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(30 * time.Second)
	return &Fetcher{client: client}
}

// Load returns the page body. Sources starting with http:// or https:// are
// fetched; anything else is read as a file.
func (f *Fetcher) Load(ctx context.Context, src string) ([]byte, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", src, err)
		}
		return data, nil
	}
	resp, err := f.client.R().SetContext(ctx).Get(src)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch %s: %s", src, resp.Status())
	}
	return resp.Body(), nil
}

// Scrape loads src and parses it.
func (f *Fetcher) Scrape(ctx context.Context, src string) ([]Match, error) {
	data, err := f.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(data))
}
