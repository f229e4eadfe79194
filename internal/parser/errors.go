package parser

import "fmt"

// ErrorKind distinguishes the two extraction failure modes: markup that is
// absent entirely (the page structure changed) versus markup that is present
// but carries an unparseable value (the value format changed). Both signal
// that the extractor needs maintenance, for different reasons.
type ErrorKind string

const (
	KindNotFound      ErrorKind = "not found"
	KindInvalidFormat ErrorKind = "invalid format"
)

// ExtractionError identifies which product field failed to extract and why.
type ExtractionError struct {
	Field  string
	Kind   ErrorKind
	Detail string
}

func (e *ExtractionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Field, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Kind)
}

func notFound(field string) *ExtractionError {
	return &ExtractionError{Field: field, Kind: KindNotFound}
}

func invalidFormat(field, detail string) *ExtractionError {
	return &ExtractionError{Field: field, Kind: KindInvalidFormat, Detail: detail}
}
