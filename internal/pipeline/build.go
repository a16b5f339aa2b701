package pipeline

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/veritas/internal/cache"
	"github.com/ppiankov/veritas/internal/extract"
	"github.com/ppiankov/veritas/internal/llm"
	"github.com/ppiankov/veritas/internal/model"
	"github.com/ppiankov/veritas/internal/score"
	"github.com/ppiankov/veritas/internal/search"
	"github.com/ppiankov/veritas/internal/util"
	"github.com/ppiankov/veritas/internal/validate"
	"github.com/ppiankov/veritas/internal/verify"
)

// Build assembles a pipeline from configuration
func Build(cfg *model.Config, logger logrus.FieldLogger) (*Pipeline, error) {
	stack, err := BuildStack(cfg, logger)
	if err != nil {
		return nil, err
	}

	aggregator, err := score.NewAggregator(cfg.Pipeline.Aggregation)
	if err != nil {
		return nil, err
	}

	return New(stack, Options{
		Workers:         cfg.Pipeline.Workers,
		StageTimeout:    cfg.Pipeline.StageTimeout,
		StrictRetrieval: cfg.Pipeline.StrictRetrieval,
		Aggregator:      aggregator,
		Logger:          logger,
	}), nil
}

// BuildStack creates the extractor, retriever and verifier named in cfg.
// The LLM provider is only created when a stage asks for it.
func BuildStack(cfg *model.Config, logger logrus.FieldLogger) (Stack, error) {
	var provider llm.Provider
	getProvider := func() (llm.Provider, error) {
		if provider != nil {
			return provider, nil
		}
		p, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
		if err != nil {
			return nil, fmt.Errorf("create LLM provider: %w", err)
		}
		provider = p
		return provider, nil
	}

	var stack Stack

	switch strings.ToLower(cfg.Extract.Backend) {
	case "", "sentence":
		stack.Extractor = extract.NewClaimExtractor(cfg.Extract.MaxClaims, cfg.Extract.MinLength)
	case "llm":
		p, err := getProvider()
		if err != nil {
			return Stack{}, err
		}
		stack.Extractor = extract.NewLLMExtractor(p, cfg.Extract.MaxClaims, cfg.Extract.MinLength)
	default:
		return Stack{}, fmt.Errorf("unknown extract backend: %q (supported: sentence, llm)", cfg.Extract.Backend)
	}

	evidenceCache, err := cache.New(cfg.Cache)
	if err != nil {
		return Stack{}, err
	}
	retriever, err := search.New(cfg, evidenceCache, logger)
	if err != nil {
		return Stack{}, err
	}
	if cfg.Verify.CheckSources {
		client := util.NewHTTPClient(cfg.HTTP.Timeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
		retriever = search.NewChecked(retriever, validate.NewSourceChecker(client, cfg.Pipeline.Workers, cfg.Search.UserAgent))
	}
	stack.Retriever = retriever

	switch strings.ToLower(cfg.Verify.Backend) {
	case "", "heuristic":
		stack.Verifier = verify.NewHeuristic()
	case "llm":
		p, err := getProvider()
		if err != nil {
			return Stack{}, err
		}
		stack.Verifier = verify.NewLLM(p, cfg.LLM.StrictEvidence)
	default:
		return Stack{}, fmt.Errorf("unknown verify backend: %q (supported: heuristic, llm)", cfg.Verify.Backend)
	}

	return stack, nil
}
