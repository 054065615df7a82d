package sheets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

// DefaultBaseURL is the Google Sheets host all CSV endpoints hang off.
const DefaultBaseURL = "https://docs.google.com/spreadsheets"

// maxCSVBytes caps how much of an export we will read (50 MB).
const maxCSVBytes = 50 << 20

var sheetIDRe = regexp.MustCompile(`/d/(?:e/)?([a-zA-Z0-9\-_]+)`)

// HTTPClient is the minimal client surface the fetcher needs; *http.Client
// satisfies it and tests substitute fakes.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns a default client with the given timeout.
func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &http.Client{Timeout: timeout}
}

// Fetcher retrieves a published spreadsheet as parsed CSV rows.
type Fetcher struct {
	c    HTTPClient
	log  *slog.Logger
	base string
}

func NewFetcher(c HTTPClient, log *slog.Logger) *Fetcher {
	return &Fetcher{c: c, log: log, base: DefaultBaseURL}
}

// WithBaseURL overrides the spreadsheet host. Used by tests.
func (f *Fetcher) WithBaseURL(base string) *Fetcher {
	f.base = base
	return f
}

// ExtractSheetID pulls the spreadsheet id out of a share or publish URL, plus
// the gid tab identifier if the URL carries one ("0" otherwise).
func ExtractSheetID(rawURL string) (id, gid string, err error) {
	m := sheetIDRe.FindStringSubmatch(rawURL)
	if m == nil {
		return "", "", fmt.Errorf("no spreadsheet id in url %q", rawURL)
	}
	gid = "0"
	if u, uerr := url.Parse(rawURL); uerr == nil {
		if g := u.Query().Get("gid"); g != "" {
			gid = g
		} else if frag, ferr := url.ParseQuery(u.Fragment); ferr == nil {
			if g := frag.Get("gid"); g != "" {
				gid = g
			}
		}
	}
	return m[1], gid, nil
}

// FetchSheet resolves the sheet id from rawURL and tries the CSV export
// endpoints in order, returning parsed rows from the first 2xx response.
// Plain share links and "publish to web" links expose CSV through different
// endpoints, and we cannot tell in advance which applies, hence the ordered
// fallback. Failures of individual endpoints are logged, not surfaced; only
// the aggregate failure reaches the caller.
func (f *Fetcher) FetchSheet(ctx context.Context, rawURL string) ([][]string, error) {
	id, gid, err := ExtractSheetID(rawURL)
	if err != nil {
		return nil, err
	}

	endpoints := []string{
		fmt.Sprintf("%s/d/%s/export?format=csv&gid=%s", f.base, id, gid),
		fmt.Sprintf("%s/d/%s/gviz/tq?tqx=out:csv&gid=%s", f.base, id, gid),
		fmt.Sprintf("%s/d/e/%s/pub?gid=%s&single=true&output=csv", f.base, id, gid),
	}

	var lastErr error
	for _, ep := range endpoints {
		text, err := f.fetchCSV(ctx, ep)
		if err != nil {
			lastErr = err
			f.log.Warn("sheet endpoint failed", slog.String("endpoint", ep), slog.String("err", err.Error()))
			continue
		}
		return ParseCSV(text), nil
	}
	return nil, fmt.Errorf("could not fetch sheet CSV (%w); verify the sheet is published to the web", lastErr)
}

func (f *Fetcher) fetchCSV(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.c.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("non-2xx: %d body=%s", resp.StatusCode, string(b))
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxCSVBytes))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
