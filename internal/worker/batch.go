package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/veritas/internal/model"
)

// Verifier runs one verification
type Verifier interface {
	Run(ctx context.Context, text string, onProgress model.ProgressFunc) (*model.Report, error)
}

// VerifyJob verifies one submission
type VerifyJob struct {
	Index    int
	Text     string
	Verifier Verifier
}

// Execute runs the verification
func (j *VerifyJob) Execute(ctx context.Context) Result {
	report, err := j.Verifier.Run(ctx, j.Text, nil)
	return &VerifyResult{
		Index:  j.Index,
		Text:   j.Text,
		Report: report,
		Error:  err,
	}
}

// VerifyResult is the outcome for one submission of a batch
type VerifyResult struct {
	Index  int
	Text   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the verification
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies many submissions concurrently
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier Verifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// ProcessTexts verifies every submission. Results follow input order;
// submissions that never ran because ctx ended carry ctx's error.
func (b *BatchProcessor) ProcessTexts(ctx context.Context, texts []string) []*VerifyResult {
	if len(texts) == 0 {
		return []*VerifyResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, text := range texts {
		if !pool.Submit(&VerifyJob{Index: i, Text: text, Verifier: b.verifier}) {
			break
		}
	}

	out := make([]*VerifyResult, len(texts))
	for _, r := range pool.Wait() {
		vr := r.(*VerifyResult)
		out[vr.Index] = vr
	}
	for i, r := range out {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &VerifyResult{Index: i, Text: texts[i], Error: err}
		}
	}
	return out
}

// ProcessFile reads submissions from a file and verifies them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*VerifyResult, error) {
	texts, err := ReadSubmissionsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read submissions: %w", err)
	}

	return b.ProcessTexts(ctx, texts), nil
}

// ReadSubmissionsFromFile reads blank-line separated submissions from a file
func ReadSubmissionsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadSubmissions(file)
}

// ReadSubmissions splits r into submissions separated by blank lines.
// Lines starting with # are comments. Duplicate submissions are kept once.
func ReadSubmissions(r io.Reader) ([]string, error) {
	var (
		texts   []string
		current []string
	)
	seen := make(map[string]bool)

	flush := func() {
		if len(current) == 0 {
			return
		}
		text := strings.Join(current, " ")
		current = current[:0]
		if !seen[text] {
			seen[text] = true
			texts = append(texts, text)
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "#"):
			continue
		default:
			current = append(current, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan submissions: %w", err)
	}

	return texts, nil
}
