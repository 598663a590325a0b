// Package errors provides severity-aware error types.
package errors

import "fmt"

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// PrepError is a structured error with context.
type PrepError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	DatasetPath string   `json:"dataset_path,omitempty"`
	Recoverable bool     `json:"recoverable"`
}

func (e *PrepError) Error() string {
	if e.DatasetPath != "" {
		return fmt.Sprintf("[%s] %s: %s (dataset: %s)", e.Severity, e.Code, e.Message, e.DatasetPath)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
}

// Error codes
const (
	ErrCodeConventionInvalid = "CONVENTION_INVALID"
	ErrCodeConventionParse   = "CONVENTION_PARSE_FAILED"
	ErrCodeDatasetParse      = "DATASET_PARSE_FAILED"
	ErrCodeInvalidFrequency  = "INVALID_TIME_FREQUENCY"
)

// NewConventionError creates a fatal error for a malformed convention document.
// Convention errors abort the run before any dataset is processed.
func NewConventionError(message string) *PrepError {
	return &PrepError{
		Code:        ErrCodeConventionInvalid,
		Message:     message,
		Severity:    SeverityFatal,
		Recoverable: false,
	}
}

// NewDatasetParseError creates an error for a dataset file that could not be decoded.
func NewDatasetParseError(path, message string) *PrepError {
	return &PrepError{
		Code:        ErrCodeDatasetParse,
		Message:     message,
		Severity:    SeverityError,
		DatasetPath: path,
		Recoverable: false,
	}
}

// NewInvalidFrequencyError creates a fatal error for an unrecognized time
// resolution label in the convention document.
func NewInvalidFrequencyError(freq string) *PrepError {
	return &PrepError{
		Code:        ErrCodeInvalidFrequency,
		Message:     fmt.Sprintf("time resolution must be 'monthly' or 'annual', got %q", freq),
		Severity:    SeverityFatal,
		Recoverable: false,
	}
}
