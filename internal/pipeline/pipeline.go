package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/veritas/internal/logging"
	"github.com/ppiankov/veritas/internal/model"
	"github.com/ppiankov/veritas/internal/score"
)

// Progress stage names
const (
	StageExtracting  = "Extracting claims..."
	StageSearching   = "Searching evidence..."
	StageVerifying   = "Verifying facts..."
	StageAggregating = "Calculating trust score..."
	StageComplete    = "Complete"
)

// Options tune a pipeline; zero values take defaults
type Options struct {
	Workers         int           // Concurrent per-claim workers, default 4
	StageTimeout    time.Duration // Per retrieval/verification call, default 30s
	StrictRetrieval bool          // Abort the run when retrieval fails
	Aggregator      *score.Aggregator
	Logger          logrus.FieldLogger
}

// Pipeline runs extraction, per-claim retrieval and verification, then aggregation.
// It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	backend         Backend
	workers         int
	stageTimeout    time.Duration
	strictRetrieval bool
	aggregator      *score.Aggregator
	logger          logrus.FieldLogger
}

// New creates a pipeline over backend
func New(backend Backend, opts Options) *Pipeline {
	p := &Pipeline{
		backend:         backend,
		workers:         opts.Workers,
		stageTimeout:    opts.StageTimeout,
		strictRetrieval: opts.StrictRetrieval,
		aggregator:      opts.Aggregator,
		logger:          logging.OrDiscard(opts.Logger),
	}
	if p.workers <= 0 {
		p.workers = 4
	}
	if p.stageTimeout <= 0 {
		p.stageTimeout = 30 * time.Second
	}
	if p.aggregator == nil {
		p.aggregator, _ = score.NewAggregator("mean")
	}
	return p
}

// Run verifies text and returns the complete report.
// onProgress may be nil; it is called from the calling goroutine only.
func (p *Pipeline) Run(ctx context.Context, text string, onProgress model.ProgressFunc) (*model.Report, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidInput
	}

	runID := uuid.NewString()
	log := p.logger.WithField("run_id", runID)
	started := time.Now()

	lastPercent := 0
	emit := func(stage string, percent int, detail string) {
		if onProgress == nil || ctx.Err() != nil {
			return
		}
		percent = max(percent, lastPercent)
		lastPercent = percent
		onProgress(model.ProgressEvent{Stage: stage, Percent: percent, Detail: detail})
	}

	emit(StageExtracting, 10, "")
	claims, err := p.backend.Extract(ctx, text)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		log.WithError(err).Error("claim extraction failed")
		return nil, &TransportError{Stage: "extraction", Err: err}
	}
	log.WithField("claims", len(claims)).Info("claims extracted")
	emit(StageSearching, 30, fmt.Sprintf("Found %d claims", len(claims)))

	report := &model.Report{
		ID:        runID,
		CreatedAt: time.Now().UTC(),
		Claims:    []model.ClaimResult{},
	}

	if len(claims) == 0 {
		report.Label = score.Label(0)
		emit(StageComplete, 100, "")
		return report, nil
	}

	results, err := p.processClaims(ctx, claims, log, func(processed int) {
		emit(StageVerifying, 30+processed*60/len(claims), fmt.Sprintf("%d/%d claims", processed, len(claims)))
	})
	if err != nil {
		return nil, err
	}

	emit(StageAggregating, 90, "")
	report.Claims = results
	report.OverallTrustScore = p.aggregator.Aggregate(results)
	report.Label = score.Label(report.OverallTrustScore)
	report.Stats = score.Tally(results)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	log.WithFields(logrus.Fields{
		"trust_score": report.OverallTrustScore,
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("verification complete")
	emit(StageComplete, 100, "")

	return report, nil
}

// processClaims runs per-claim work on a bounded worker group.
// Results land at their claim's index; onDone is called from this goroutine once per finished claim.
func (p *Pipeline) processClaims(ctx context.Context, claims []model.Claim, log logrus.FieldLogger, onDone func(processed int)) ([]model.ClaimResult, error) {
	results := make([]model.ClaimResult, len(claims))
	done := make(chan struct{}, len(claims))
	waitErr := make(chan error, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	go func() {
		for i, claim := range claims {
			g.Go(func() error {
				result, err := p.processClaim(gctx, claim, log.WithField("position", claim.Position))
				if err != nil {
					return err
				}
				results[i] = result
				done <- struct{}{}
				return nil
			})
		}
		waitErr <- g.Wait()
		close(done)
	}()

	processed := 0
	for range done {
		processed++
		onDone(processed)
	}

	if err := <-waitErr; err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// processClaim retrieves and verifies one claim.
// Only cancellation and strict-mode retrieval failures are returned as errors.
func (p *Pipeline) processClaim(ctx context.Context, claim model.Claim, log logrus.FieldLogger) (model.ClaimResult, error) {
	if err := ctx.Err(); err != nil {
		return model.ClaimResult{}, err
	}

	evidence, err := p.retrieve(ctx, claim)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.ClaimResult{}, ctxErr
		}
		if p.strictRetrieval {
			return model.ClaimResult{}, &TransportError{Stage: "retrieval", Err: err}
		}
		log.WithError(err).Warn("evidence retrieval failed, continuing without evidence")
		evidence = nil
	}

	verdict, err := p.verify(ctx, claim, evidence)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.ClaimResult{}, ctxErr
		}
		log.WithError(err).Warn("verification failed")
		verdict = model.Verdict{
			Status:     model.StatusInconclusive,
			Confidence: 10,
			Reasoning:  "Verification could not be completed: " + err.Error(),
		}
	}

	result := model.NewClaimResult(claim, verdict, evidence)
	log.WithFields(logrus.Fields{
		"status":     result.Status,
		"confidence": result.Confidence,
		"evidence":   result.EvidenceCount,
	}).Debug("claim verified")
	return result, nil
}

func (p *Pipeline) retrieve(ctx context.Context, claim model.Claim) (evidence []model.EvidenceItem, err error) {
	sctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	defer recoverStage("retrieval", &err)
	return p.backend.Retrieve(sctx, claim)
}

func (p *Pipeline) verify(ctx context.Context, claim model.Claim, evidence []model.EvidenceItem) (verdict model.Verdict, err error) {
	sctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	defer recoverStage("verification", &err)
	return p.backend.Verify(sctx, claim, evidence)
}

// recoverStage turns a panicking stage backend into a stage failure
func recoverStage(stage string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s panicked: %v", stage, r)
	}
}
