package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ppiankov/veritas/internal/model"
	"github.com/ppiankov/veritas/internal/pipeline"
)

func TestClient_Verify_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/verify" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"overall_trust_score": 73,
			"claims": [
				{"original_text": "The sky is blue", "status": "verified", "confidence_score": 88, "reasoning": "Matches sources.", "source_url": "https://nasa.gov/a"},
				{"original_text": "Water is dry", "status": "bogus", "confidence_score": 140, "reasoning": ""}
			]
		}`))
	}))
	defer server.Close()

	var events []model.ProgressEvent
	report, err := New(server.URL, nil).Verify(context.Background(), "The sky is blue. Water is dry.", func(e model.ProgressEvent) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if report.OverallTrustScore != 73 {
		t.Errorf("Expected score 73, got %d", report.OverallTrustScore)
	}
	if len(report.Claims) != 2 {
		t.Fatalf("Expected 2 claims, got %d", len(report.Claims))
	}
	bad := report.Claims[1]
	if bad.Status != model.StatusInconclusive || bad.Confidence != 100 {
		t.Errorf("Expected normalized inconclusive/100, got %s/%d", bad.Status, bad.Confidence)
	}
	if bad.Claim.Position != 1 {
		t.Errorf("Expected position 1, got %d", bad.Claim.Position)
	}
	if report.Stats.Verified != 1 || report.Stats.Inconclusive != 1 {
		t.Errorf("Unexpected stats %+v", report.Stats)
	}
	if last := events[len(events)-1]; last.Percent != 100 {
		t.Errorf("Expected final progress 100, got %d", last.Percent)
	}
}

func TestClient_Verify_ErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail": "Model crashed"}`))
	}))
	defer server.Close()

	_, err := New(server.URL, nil).Verify(context.Background(), "The sky is blue.", nil)
	if err == nil || err.Error() != "Model crashed" {
		t.Errorf("Expected detail message, got %v", err)
	}
}

func TestClient_Verify_UnparsableError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`<html>down</html>`))
	}))
	defer server.Close()

	_, err := New(server.URL, nil).Verify(context.Background(), "The sky is blue.", nil)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if se.Error() != "Server Error: 503" {
		t.Errorf("Expected fallback message, got %q", se.Error())
	}
}

func TestClient_Verify_BadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "Text input is required"}`))
	}))
	defer server.Close()

	_, err := New(server.URL, nil).Verify(context.Background(), "x", nil)
	if !errors.Is(err, pipeline.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestClient_Verify_Blank(t *testing.T) {
	_, err := New("http://127.0.0.1:1", nil).Verify(context.Background(), "  ", nil)
	if !errors.Is(err, pipeline.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestClient_Verify_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := New(url, nil).Verify(context.Background(), "The sky is blue.", nil)

	var transport *pipeline.TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if f := pipeline.Describe(err); f.Title != "CONNECTION FAILED" {
		t.Errorf("Expected CONNECTION FAILED, got %q", f.Title)
	}
}

func TestClient_Verify_MalformedBody(t *testing.T) {
	for name, body := range map[string]string{
		"not json":   `not json`,
		"proxy page": `<html>proxy error</html>`,
		"truncated":  `{"overall_trust_score": 80, "claims": [`,
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			_, err := New(server.URL, nil).Verify(context.Background(), "The sky is blue.", nil)

			var transport *pipeline.TransportError
			if !errors.As(err, &transport) {
				t.Fatalf("Expected TransportError, got %v", err)
			}
			if transport.Stage != "remote" {
				t.Errorf("Expected remote stage, got %s", transport.Stage)
			}
			if f := pipeline.Describe(err); f.Title != "CONNECTION FAILED" {
				t.Errorf("Expected CONNECTION FAILED, got %q", f.Title)
			}
		})
	}
}

func TestClient_Probe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/verify" {
			t.Errorf("Unexpected probe %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer server.Close()

	if err := New(server.URL+"/verify", nil).Probe(context.Background()); err != nil {
		t.Errorf("Expected 405 to count as reachable, got %v", err)
	}

	server.Close()
	if err := New(server.URL, nil).Probe(context.Background()); err == nil {
		t.Error("Expected probe error for closed server")
	}
}
