package types

import (
	"database/sql"
)

type DocumentKind string

const (
	KindTable         DocumentKind = "table"
	KindView          DocumentKind = "view"
	KindRelationships DocumentKind = "relationships"
)

// SchemaDocument is one unit of embedded schema description: a table, a view
// or the relationship graph. Immutable once embedded.
type SchemaDocument struct {
	Name     string
	Kind     DocumentKind
	Content  string
	RowCount sql.NullInt64
}

// RetrievedDocument pairs a schema document with its retrieval distance.
// Distance is a dissimilarity score (lower = more similar), not a probability.
type RetrievedDocument struct {
	Document SchemaDocument
	Distance float64
}

// Error kinds surfaced in Result.ErrorKind.
const (
	ErrKindEmptyQuestion    = "empty-question"
	ErrKindNoRelevantSchema = "no-relevant-schema"
	ErrKindGenerationFailed = "generation-failed"
	ErrKindInvalidSQL       = "invalid-sql"
	ErrKindExecutionError   = "execution-error"
)

// Result is the single output contract of one question run. Exactly one of
// the success/error field groups is populated; a failed run may still carry
// SQLQuery so callers can see why a generated statement was rejected.
type Result struct {
	Success        bool             `json:"success"`
	Question       string           `json:"question"`
	SQLQuery       string           `json:"sql_query,omitempty"`
	Rows           []map[string]any `json:"results,omitempty"`
	Columns        []string         `json:"columns,omitempty"`
	Analysis       string           `json:"analysis,omitempty"`
	SchemaUsed     []string         `json:"schema_used,omitempty"`
	ResultCount    int              `json:"result_count"`
	ErrorKind      string           `json:"error_kind,omitempty"`
	Error          string           `json:"error,omitempty"`
	ProcessingTime float64          `json:"processing_time"`
	Timestamp      string           `json:"timestamp"`
}
