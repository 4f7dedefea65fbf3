package models

import (
	"time"
)

// DocumentKind is the closed classification of a disclosure file.
type DocumentKind string

const (
	KindRelease             DocumentKind = "release"
	KindFinancialStatements DocumentKind = "financial_statements"
	KindTranscript          DocumentKind = "transcript"
	KindOther               DocumentKind = "other"
)

// KindPriority is the classification priority order. A file matching
// tokens of more than one kind resolves to the earliest kind listed here.
var KindPriority = []DocumentKind{
	KindRelease,
	KindFinancialStatements,
	KindTranscript,
	KindOther,
}

// DisplayName returns a human-readable label used in consolidated output.
func (k DocumentKind) DisplayName() string {
	switch k {
	case KindRelease:
		return "Release de Resultados"
	case KindFinancialStatements:
		return "Demonstrações Financeiras"
	case KindTranscript:
		return "Transcrição da Teleconferência"
	default:
		return "Documento"
	}
}

// SourceDocument is a materialized disclosure file for one quarter.
// Files are never mutated in place; a document is immutable once created.
type SourceDocument struct {
	Path    string       `json:"path"`
	Kind    DocumentKind `json:"kind"`
	Quarter QuarterLabel `json:"quarter"`
	Size    int64        `json:"size"`
	ModTime time.Time    `json:"mod_time"`
}

// ResultStatus is the outcome of processing one document.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultError   ResultStatus = "error"
)

// ProcessingResult records the outcome of summarizing one SourceDocument.
// Produced exactly once per document per pipeline run, or restored from
// cache. Never mutated after creation; superseded results are new values.
type ProcessingResult struct {
	Document     SourceDocument `json:"document"`
	Status       ResultStatus   `json:"status"`
	Summary      string         `json:"summary,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	PageCount    int            `json:"page_count,omitempty"`
	CharCount    int            `json:"char_count"`
	FromCache    bool           `json:"from_cache"`
}

// Succeeded reports whether the document produced a usable summary.
func (r *ProcessingResult) Succeeded() bool {
	return r.Status == ResultSuccess
}
