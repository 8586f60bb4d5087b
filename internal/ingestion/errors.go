package ingestion

import "fmt"

// UnsupportedFormatError is returned for document types no reader handles
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported document format %q (use .pdf, .docx, .html, .txt or .md)", e.Format)
}

// ExtractionError represents a failure to read text out of a document
type ExtractionError struct {
	Source  string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("text extraction failed for %s: %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("text extraction failed for %s: %s", e.Source, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
