package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/veritas/internal/model"
)

// mockVerifier implements Verifier
type mockVerifier struct {
	failOn string
	delay  func(text string) time.Duration
}

func (m *mockVerifier) Run(ctx context.Context, text string, _ model.ProgressFunc) (*model.Report, error) {
	if m.delay != nil {
		select {
		case <-time.After(m.delay(text)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return nil, errors.New("verify error")
	}
	return &model.Report{
		OverallTrustScore: len(text),
		Claims:            []model.ClaimResult{{Claim: model.Claim{Text: text}}},
	}, nil
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "submissions.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessTexts(t *testing.T) {
	processor := NewBatchProcessor(&mockVerifier{}, 2)

	texts := []string{"The sky is blue.", "Water is wet.", "Paris is in France."}
	results := processor.ProcessTexts(context.Background(), texts)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %q: %v", res.Text, res.Error)
		}
		if res.Index != i || res.Text != texts[i] {
			t.Errorf("expected result %d for %q, got %d for %q", i, texts[i], res.Index, res.Text)
		}
		if res.Report == nil {
			t.Error("expected report for successful verification")
		}
	}
}

func TestBatchProcessor_ProcessTexts_Order(t *testing.T) {
	// First submissions are slowest
	verifier := &mockVerifier{delay: func(text string) time.Duration {
		return time.Duration(10-len(text)) * 5 * time.Millisecond
	}}
	processor := NewBatchProcessor(verifier, 4)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff"}
	results := processor.ProcessTexts(context.Background(), texts)

	var got []string
	for _, r := range results {
		got = append(got, r.Text)
	}
	if diff := cmp.Diff(texts, got); diff != "" {
		t.Errorf("results out of order (-want +got):\n%s", diff)
	}
}

func TestBatchProcessor_ProcessTexts_Error(t *testing.T) {
	processor := NewBatchProcessor(&mockVerifier{failOn: "bad"}, 2)

	results := processor.ProcessTexts(context.Background(), []string{"good text", "bad text"})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Error != nil {
		t.Errorf("unexpected error: %v", results[0].Error)
	}
	if results[1].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[1].Report != nil {
		t.Error("expected nil report on error")
	}
}

func TestBatchProcessor_ProcessTexts_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockVerifier{}, 2)

	results := processor.ProcessTexts(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessTexts_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&mockVerifier{}, 2)
	results := processor.ProcessTexts(ctx, []string{"one claim here", "two claim here"})

	if len(results) != 2 {
		t.Fatalf("expected a result per submission, got %d", len(results))
	}
	for _, r := range results {
		if !errors.Is(r.Error, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", r.Error)
		}
	}
}

func TestReadSubmissions(t *testing.T) {
	content := `# submissions for the nightly run
The sky is blue.
Water boils at 100 degrees.

   
Paris is the capital
of France.
# trailing comment

The sky is blue.
Water boils at 100 degrees.`

	texts, err := ReadSubmissions(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ReadSubmissions failed: %v", err)
	}

	want := []string{
		"The sky is blue. Water boils at 100 degrees.",
		"Paris is the capital of France.",
	}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Errorf("ReadSubmissions() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadSubmissionsFromFile_NonExistent(t *testing.T) {
	_, err := ReadSubmissionsFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestVerifyResult_GetError(t *testing.T) {
	r1 := &VerifyResult{Text: "x"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("verify failed")
	r2 := &VerifyResult{Text: "x", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTemp(t, "The sky is blue.\n\n# comment\nWater is wet.\n\nParis is in France.\n")

	processor := NewBatchProcessor(&mockVerifier{}, 2)

	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&mockVerifier{}, 2)

	_, err := processor.ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile_Empty(t *testing.T) {
	path := writeTemp(t, "")

	processor := NewBatchProcessor(&mockVerifier{}, 2)

	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results for empty file, got %d", len(results))
	}
}
