package ingest

import (
	"context"
	"errors"
	"fmt"

	"thirdcoast.systems/vodload/internal/objectstore"
)

// ErrDuplicate marks an item that is already recorded. It is reported as a
// skip, never as a failure.
var ErrDuplicate = errors.New("already ingested")

// ValidationError means the manifest row is unusable. Nothing was written.
type ValidationError struct {
	ID     string
	Line   int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("row %d: invalid: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("item %s: invalid: %s", e.ID, e.Reason)
}

// SourceNotFoundError means a source video or thumbnail is missing on disk.
type SourceNotFoundError struct {
	ID   string
	Kind string // "video" or "image"
	Path string
	// Inferred is set when the thumbnail name was derived from the item id
	// because the row did not name one.
	Inferred bool
	Err      error
}

func (e *SourceNotFoundError) Error() string {
	msg := fmt.Sprintf("item %s: source %s not found: %s", e.ID, e.Kind, e.Path)
	if e.Path == "" {
		msg = fmt.Sprintf("item %s: source %s not specified", e.ID, e.Kind)
	}
	if e.Inferred {
		msg += " (name inferred from id; row has no image file name)"
	}
	return msg
}

func (e *SourceNotFoundError) Unwrap() error { return e.Err }

// TranscodeError carries the transcoder's own diagnostic.
type TranscodeError struct {
	ID         string
	Source     string
	Diagnostic string
	Err        error
}

func (e *TranscodeError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("item %s: transcode %s: %v: %s", e.ID, e.Source, e.Err, e.Diagnostic)
	}
	return fmt.Sprintf("item %s: transcode %s: %v", e.ID, e.Source, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// UploadError identifies the first object that could not be stored. Objects
// uploaded before it are left in place.
type UploadError struct {
	ID     string
	Bucket objectstore.Bucket
	Key    string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("item %s: upload %s %s: %v", e.ID, e.Bucket, e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// PersistError means the metadata insert failed after every upload succeeded.
type PersistError struct {
	ID  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("item %s: record metadata: %v", e.ID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// LookupError means the duplicate check itself failed; nothing was written.
type LookupError struct {
	ID  string
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("item %s: duplicate check: %v", e.ID, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// ErrorKind returns a short label for err, used in logs and metrics.
func ErrorKind(err error) string {
	var (
		validation *ValidationError
		notFound   *SourceNotFoundError
		transcode  *TranscodeError
		upload     *UploadError
		persist    *PersistError
		lookup     *LookupError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &notFound):
		return "source_not_found"
	case errors.As(err, &transcode):
		return "transcode"
	case errors.As(err, &upload):
		return "upload"
	case errors.As(err, &persist):
		return "persist"
	case errors.As(err, &lookup):
		return "lookup"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
