package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyCorpus indicates chunking or indexing had nothing to work with.
	ErrEmptyCorpus = errors.New("corpus produced no usable chunks")

	// ErrNoSnapshot indicates no saved index exists yet.
	ErrNoSnapshot = errors.New("no index snapshot")

	// ErrBackendUnavailable indicates the accelerated vector backend is not
	// compiled into this binary.
	ErrBackendUnavailable = errors.New("vector backend unavailable")

	// ErrFeatureDisabled is matched by every ConfigurationError.
	// Callers render it as "disabled" rather than "broken".
	ErrFeatureDisabled = errors.New("feature disabled")
)

// ConfigurationError reports a missing credential or setting that a feature
// needs. The feature is disabled, the rest of the system keeps running.
type ConfigurationError struct {
	Feature string
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s disabled: %s is not set", e.Feature, e.Setting)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrFeatureDisabled }

// SourceNotFoundError reports that no document source was found, or that the
// sources found held no documents.
type SourceNotFoundError struct {
	Searched []string
	Empty    bool
}

func (e *SourceNotFoundError) Error() string {
	if e.Empty {
		return fmt.Sprintf("no FAQ documents loaded from %s; check file contents and encoding", strings.Join(e.Searched, ", "))
	}
	return fmt.Sprintf("FAQ data not found; provide one of: %s", strings.Join(e.Searched, ", "))
}

// SchemaError reports a source that lacks required fields.
type SchemaError struct {
	Path     string
	Found    []string
	Expected []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s must have %s columns (or close variants); found: %s",
		e.Path, strings.Join(e.Expected, " and "), strings.Join(e.Found, ", "))
}

// TransportError reports a failed call to the embedding or generation service.
type TransportError struct {
	Service string
	Status  int
	Err     error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s service returned %d: %v", e.Service, e.Status, e.Err)
	}
	return fmt.Sprintf("%s service: %v", e.Service, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StaleSnapshotError reports a saved index built with another embedding model.
type StaleSnapshotError struct {
	BuiltWith string
	Want      string
}

func (e *StaleSnapshotError) Error() string {
	return fmt.Sprintf("index was built with %q but %q is configured; run 'faqbot index --rebuild'", e.BuiltWith, e.Want)
}

// IsDisabled reports whether err means a feature is switched off rather than failing.
func IsDisabled(err error) bool {
	return errors.Is(err, ErrFeatureDisabled)
}
