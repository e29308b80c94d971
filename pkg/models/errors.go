package models

import "errors"

var (
	// ErrFileNotFound marks a document whose local path is missing or unreadable.
	ErrFileNotFound = errors.New("file not found")
	// ErrBackendUnavailable marks a capability whose dependency is absent.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrEnrichmentFailure marks an LLM enrichment call that failed or returned unparseable output.
	ErrEnrichmentFailure = errors.New("enrichment failure")
	// ErrIndexBuildFailure marks a transcript batch for which no index could be built.
	ErrIndexBuildFailure = errors.New("index build failure")
)
