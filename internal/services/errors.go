package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSubmission marks a transcription job that could not be started.
	ErrSubmission = errors.New("submission error")
	// ErrTranscription marks a transcription job that ran and failed.
	ErrTranscription = errors.New("transcription failure")
	// ErrAnalysis marks a failed summary or action-item generation.
	ErrAnalysis = errors.New("analysis error")
	// ErrInvalidState marks an operation attempted out of sequence.
	ErrInvalidState = errors.New("invalid state")
	// ErrNotFound marks an unknown session identifier.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks rejected caller input.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = errors.New("service failure")
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
