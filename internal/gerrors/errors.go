// Package gerrors defines the typed error kinds callers of Grafito see
// (§7): each is a distinct exported type carrying structured context
// instead of an opaque string, so a caller can branch on kind with
// errors.As rather than parsing a message.
package gerrors

import "fmt"

// ParseError reports a syntactic or semantic query error, location-tagged
// the way the lexer/parser report offending tokens.
type ParseError struct {
	Line, Col int
	Message   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col, e.Message)
}

// NotFound reports that a requested node or relationship id does not
// exist. Kind is "node" or "relationship".
type NotFound struct {
	Kind string
	ID   int64
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// ConstraintKind distinguishes the three constraint flavors property
// constraints can enforce (§4.2).
type ConstraintKind string

const (
	ConstraintUniqueness ConstraintKind = "uniqueness"
	ConstraintExistence  ConstraintKind = "existence"
	ConstraintType       ConstraintKind = "type"
)

// ConstraintViolation reports a uniqueness, existence, or type constraint
// failure at write time.
type ConstraintViolation struct {
	Constraint string
	Kind       ConstraintKind
	Label      string
	Property   string
	Detail     string
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint %q (%s) on %s.%s violated: %s", e.Constraint, e.Kind, e.Label, e.Property, e.Detail)
}

// TransactionError reports invalid transaction/session state: commit
// outside a transaction, reuse of a closed session, nesting errors.
type TransactionError struct {
	Message string
}

func (e *TransactionError) Error() string { return "transaction error: " + e.Message }

// StorageError wraps an underlying embedded-store I/O failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// IndexKind distinguishes which index namespace an IndexError concerns.
type IndexKind string

const (
	IndexVector   IndexKind = "vector"
	IndexText     IndexKind = "text"
	IndexProperty IndexKind = "property"
)

// IndexError reports an unknown vector/text/property index, or a
// dimension mismatch on a vector upsert/search.
type IndexError struct {
	Kind    IndexKind
	Name    string
	Message string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %q: %s", e.Kind, e.Name, e.Message)
}

// ConfigurationError reports a missing embedding function, unknown
// reranker, or other bad configuration option.
type ConfigurationError struct {
	Option  string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Option, e.Message)
}

// QueryExecutionError reports a runtime evaluation failure: invalid
// regex, wrong argument types, division by zero, a path that exceeded
// the configured hop limit, a negative substring length, and similar.
type QueryExecutionError struct {
	Message string
}

func (e *QueryExecutionError) Error() string { return "query execution error: " + e.Message }

// ImportError reports malformed dump/JSON/JSONL input during restore or
// apoc.import.json.
type ImportError struct {
	Source  string
	Message string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import error (%s): %s", e.Source, e.Message)
}

// NewParseError is a small constructor convenience used throughout
// internal/lexer and internal/parser.
func NewParseError(line, col int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Col: col, Message: fmt.Sprintf(format, args...)}
}

// NewQueryExecutionError is a small constructor convenience used
// throughout internal/eval and internal/exec.
func NewQueryExecutionError(format string, args ...any) *QueryExecutionError {
	return &QueryExecutionError{Message: fmt.Sprintf(format, args...)}
}
