package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when the submission is empty or whitespace only
var ErrInvalidInput = errors.New("text input is required")

// TransportError reports that a stage backend could not be reached,
// so no result can be produced for the run
type TransportError struct {
	Stage string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s backend unavailable: %v", e.Stage, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Failure is the operator-facing description of a failed run
type Failure struct {
	Type    string   `json:"type"` // error, warning
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Hints   []string `json:"details,omitempty"`
}

// Describe maps a run error to a Failure
func Describe(err error) Failure {
	var transport *TransportError
	switch {
	case err == nil:
		return Failure{}
	case errors.Is(err, ErrInvalidInput):
		return Failure{
			Type:    "warning",
			Title:   "INVALID INPUT",
			Message: "Text input is required",
			Hints:   []string{"Paste or pipe the text you want to verify"},
		}
	case errors.Is(err, context.Canceled):
		return Failure{
			Type:    "warning",
			Title:   "CANCELLED",
			Message: "Verification was cancelled",
		}
	case errors.As(err, &transport):
		return Failure{
			Type:    "error",
			Title:   "CONNECTION FAILED",
			Message: "Could not reach backend",
			Hints: []string{
				"Is the backend server running?",
				"Is Ollama running?",
				"Check the configured backend URL and API keys",
			},
		}
	case errors.Is(err, context.DeadlineExceeded):
		return Failure{
			Type:    "error",
			Title:   "TIMED OUT",
			Message: "Verification did not finish in time",
			Hints:   []string{"Try again in a few moments"},
		}
	default:
		return Failure{
			Type:    "error",
			Title:   "VERIFICATION FAILED",
			Message: err.Error(),
			Hints:   []string{"Try again in a few moments"},
		}
	}
}
