// Package preview fetches link previews (title, description, site name) for
// URLs attached to claims
package preview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// MaxBodyBytes caps how much of a page is read while looking for metadata
const MaxBodyBytes = 2 << 20

// Preview is the metadata extracted from a page
type Preview struct {
	Title       string
	Description string
	SiteName    string
	Language    string
}

// Fetcher downloads pages and extracts preview metadata
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

// NewFetcher creates a fetcher with the given request timeout
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent: "OpenFactCheck/1.0 (+link preview)",
	}
}

// Fetch downloads pageURL and extracts its preview
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Preview, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("unsupported url %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	p := Extract(doc)
	if p.SiteName == "" {
		p.SiteName = strings.TrimPrefix(u.Hostname(), "www.")
	}
	return p, nil
}

// Extract walks a parsed document once. Open Graph tags win over <title> and
// the plain description meta tags.
func Extract(doc *html.Node) *Preview {
	var (
		p                       Preview
		ogTitle, ogDesc, ogSite string
		title, desc             string
	)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				if p.Language == "" {
					p.Language = attr(n, "lang")
				}
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				content := strings.TrimSpace(attr(n, "content"))
				if content == "" {
					break
				}
				switch attr(n, "property") {
				case "og:title":
					ogTitle = first(ogTitle, content)
				case "og:description":
					ogDesc = first(ogDesc, content)
				case "og:site_name":
					ogSite = first(ogSite, content)
				}
				switch attr(n, "name") {
				case "description", "twitter:description":
					desc = first(desc, content)
				case "application-name":
					ogSite = first(ogSite, content)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	p.Title = first(ogTitle, title)
	p.Description = first(ogDesc, desc)
	p.SiteName = ogSite
	return &p
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func first(current, candidate string) string {
	if current != "" {
		return current
	}
	return candidate
}
