package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/veritas/internal/cache"
	"github.com/ppiankov/veritas/internal/model"
	"github.com/ppiankov/veritas/internal/util"
	"github.com/ppiankov/veritas/internal/validate"
)

// Retriever gathers evidence for a single claim
type Retriever interface {
	Name() string
	Retrieve(ctx context.Context, claim model.Claim) ([]model.EvidenceItem, error)
}

// New builds the retriever selected by cfg.Search, wrapped with authority
// classification and, when c is non-nil, caching.
func New(cfg *model.Config, c cache.Cache, logger logrus.FieldLogger) (Retriever, error) {
	httpClient := util.NewHTTPClient(cfg.HTTP.Timeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)

	var base Retriever
	switch strings.ToLower(cfg.Search.Backend) {
	case "", "synthetic":
		base = NewSynthetic()
	case "tavily":
		t, err := NewTavily(TavilyConfig{
			APIKey:     cfg.Search.APIKey,
			BaseURL:    cfg.Search.BaseURL,
			MaxResults: cfg.Search.MaxResults,
		}, httpClient)
		if err != nil {
			return nil, err
		}
		base = t
	case "duckduckgo", "ddg":
		base = NewDuckDuckGo(DuckDuckGoConfig{
			BaseURL:           cfg.Search.BaseURL,
			MaxResults:        cfg.Search.MaxResults,
			UserAgent:         cfg.Search.UserAgent,
			RequestsPerSecond: cfg.Search.RequestsPerSecond,
			Burst:             cfg.Search.Burst,
			RespectRobots:     cfg.Search.RespectRobots,
		}, httpClient, logger)
	default:
		return nil, fmt.Errorf("unknown search backend: %q (supported: synthetic, tavily, duckduckgo)", cfg.Search.Backend)
	}

	var r Retriever = NewClassified(base, validate.NewAuthorityClassifier(&cfg.Authority))
	if c != nil {
		r = NewCached(r, c, cfg.Cache.TTL, logger)
	}
	return r, nil
}

// Classified tags every evidence item with its source authority tier
type Classified struct {
	next       Retriever
	classifier *validate.AuthorityClassifier
}

// NewClassified wraps next with authority classification
func NewClassified(next Retriever, classifier *validate.AuthorityClassifier) *Classified {
	return &Classified{next: next, classifier: classifier}
}

// Name returns the wrapped retriever name
func (c *Classified) Name() string {
	return c.next.Name()
}

// Retrieve delegates and classifies each item that has a source URL
func (c *Classified) Retrieve(ctx context.Context, claim model.Claim) ([]model.EvidenceItem, error) {
	items, err := c.next.Retrieve(ctx, claim)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].SourceURL != "" && items[i].Authority == model.TierUnknown {
			items[i].Authority = c.classifier.Classify(items[i].SourceURL)
		}
	}
	return items, nil
}
