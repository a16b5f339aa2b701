package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/ppiankov/veritas/internal/logging"
	"github.com/ppiankov/veritas/internal/model"
	"github.com/ppiankov/veritas/internal/util"
	"github.com/ppiankov/veritas/internal/worker"
)

const duckDuckGoDefaultURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoConfig configures the keyless HTML search retriever
type DuckDuckGoConfig struct {
	BaseURL           string
	MaxResults        int
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
	RespectRobots     bool
}

// DuckDuckGo scrapes the DuckDuckGo HTML results page.
// It obeys robots.txt and rate limits per host.
type DuckDuckGo struct {
	config  DuckDuckGoConfig
	fetcher *Fetcher
	robots  *util.RobotsChecker
	limiter *worker.Limiter
	logger  logrus.FieldLogger
}

// NewDuckDuckGo creates a DuckDuckGo retriever
func NewDuckDuckGo(config DuckDuckGoConfig, httpClient *http.Client, logger logrus.FieldLogger) *DuckDuckGo {
	if config.BaseURL == "" {
		config.BaseURL = duckDuckGoDefaultURL
	}
	if config.MaxResults <= 0 {
		config.MaxResults = 3
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 1
	}

	d := &DuckDuckGo{
		config:  config,
		fetcher: NewFetcher(httpClient, config.UserAgent, 2<<20),
		limiter: worker.NewLimiter(config.RequestsPerSecond, config.Burst),
		logger:  logging.OrDiscard(logger),
	}
	if config.RespectRobots {
		d.robots = util.NewRobotsChecker(config.UserAgent, httpClient, 0)
	}
	return d
}

// Name returns the retriever name
func (d *DuckDuckGo) Name() string {
	return "duckduckgo"
}

// Retrieve searches for the claim text and returns the top results
func (d *DuckDuckGo) Retrieve(ctx context.Context, claim model.Claim) ([]model.EvidenceItem, error) {
	searchURL, err := d.searchURL(claim.Text)
	if err != nil {
		return nil, err
	}

	var crawlDelay time.Duration
	if d.robots != nil {
		allowed, delay, err := d.robots.CanFetch(ctx, searchURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("robots.txt disallows %s", searchURL)
		}
		if delay > crawlDelay {
			crawlDelay = delay
		}
	}

	if err := d.limiter.WaitWithDelay(ctx, searchURL, crawlDelay); err != nil {
		return nil, err
	}

	d.logger.WithFields(logrus.Fields{"position": claim.Position, "backend": d.Name()}).Debug("searching")

	page, err := d.fetcher.GetWithRetry(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search: %w", err)
	}

	results, err := parseResults(page.HTML, page.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}

	items := make([]model.EvidenceItem, 0, d.config.MaxResults)
	for _, r := range results {
		if len(items) == d.config.MaxResults {
			break
		}
		snippet := CleanSnippet(r.snippet)
		if snippet == "" {
			continue
		}
		items = append(items, model.EvidenceItem{
			SourceURL: r.url,
			Title:     CleanSnippet(r.title),
			Snippet:   snippet,
		})
	}
	return items, nil
}

func (d *DuckDuckGo) searchURL(query string) (string, error) {
	base, err := url.Parse(d.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid search base URL: %w", err)
	}
	q := base.Query()
	q.Set("q", query)
	base.RawQuery = q.Encode()
	return base.String(), nil
}

type searchResult struct {
	url     string
	title   string
	snippet string
}

// parseResults walks a results page collecting result links and their snippets
func parseResults(htmlContent string, pageURL string) ([]searchResult, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	var results []searchResult
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result__a"):
				if link := resolveResultURL(base, attr(n, "href")); link != "" && !seen[link] {
					seen[link] = true
					results = append(results, searchResult{url: link, title: textContent(n)})
				}
				return
			case hasClass(n, "result__snippet"):
				if len(results) > 0 && results[len(results)-1].snippet == "" {
					results[len(results)-1].snippet = textContent(n)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results, nil
}

// resolveResultURL resolves href against base and unwraps DuckDuckGo redirect links
func resolveResultURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(parsed)

	if target := resolved.Query().Get("uddg"); target != "" && strings.HasPrefix(resolved.Path, "/l/") {
		unwrapped, err := url.Parse(target)
		if err != nil {
			return ""
		}
		resolved = unwrapped
	}

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
