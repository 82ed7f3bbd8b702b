// Package browse emulates a hierarchical filesystem over a flat object store.
//
// A combined "container/path" address is parsed into a NavigationContext, the
// store is listed one virtual level at a time, and every store failure is
// classified into a permission-aware diagnostic before it reaches the user.
package browse

import (
	"context"
	"fmt"
	"time"
)

// Store is the object-store client the browser depends on.
//
// Implementations return *StoreError for provider-side failures so that the
// classifier can inspect the machine-readable code.
type Store interface {
	// HeadContainer checks that a container exists and is accessible.
	HeadContainer(ctx context.Context, container string) error

	// ListObjects returns one page of keys at or below req.Prefix.
	ListObjects(ctx context.Context, req ListRequest) (*ListPage, error)

	// PutObject uploads the file at localPath under key.
	PutObject(ctx context.Context, container, key, localPath string) error

	// GetObject downloads key into localPath.
	GetObject(ctx context.Context, container, key, localPath string) error

	// DeleteObject removes key.
	DeleteObject(ctx context.Context, container, key string) error
}

// Prober is implemented by stores that can verify their credentials before
// any container is opened.
type Prober interface {
	Probe(ctx context.Context) error
}

// ObjectReader is implemented by stores that can read the head of an object
// into memory. It backs file previews.
type ObjectReader interface {
	ReadObject(ctx context.Context, container, key string, limit int64) ([]byte, error)
}

// ListRequest selects one page of a listing.
type ListRequest struct {
	Container string

	// Prefix limits results to keys starting with it. Empty lists the whole container.
	Prefix string

	// Delimiter, when set, asks the store to roll keys containing it after
	// Prefix into a single entry ending with the delimiter.
	Delimiter string

	// ContinuationToken resumes from a previous page. Empty starts from the beginning.
	ContinuationToken string

	// MaxKeys caps the page size. Zero uses the store default.
	MaxKeys int
}

// ListPage is one page of a listing.
type ListPage struct {
	Entries []ObjectEntry

	// NextToken is empty when no more pages remain.
	NextToken string
}

// ObjectEntry is a raw object as returned by the store.
type ObjectEntry struct {
	Key      string
	Size     uint64
	Modified time.Time
}

// Raw store error codes the classifier understands.
const (
	CodeAccessDenied          = "AccessDenied"
	CodeForbidden             = "Forbidden"
	CodeAllAccessDisabled     = "AllAccessDisabled"
	CodeNoSuchBucket          = "NoSuchBucket"
	CodeNoSuchKey             = "NoSuchKey"
	CodeNotFound              = "NotFound"
	CodeInvalidAccessKeyID    = "InvalidAccessKeyId"
	CodeSignatureDoesNotMatch = "SignatureDoesNotMatch"
	CodeNoCredentials         = "NoCredentials"
	CodeExpiredToken          = "ExpiredToken"
)

// StoreError is a provider-side failure carrying the provider's error code.
type StoreError struct {
	// Op is the store call that failed (e.g. "ListObjects").
	Op string

	Container string
	Key       string

	// Code is the machine-readable provider code. Empty when unknown.
	Code string

	// Message is the provider's human-readable message.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	detail := e.Message
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	if e.Code != "" {
		detail = fmt.Sprintf("%s: %s", e.Code, detail)
	}

	switch {
	case e.Key != "":
		return fmt.Sprintf("%s %s/%s: %s", e.Op, e.Container, e.Key, detail)
	case e.Container != "":
		return fmt.Sprintf("%s %s: %s", e.Op, e.Container, detail)
	default:
		return fmt.Sprintf("%s: %s", e.Op, detail)
	}
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StoreError) Unwrap() error {
	return e.Err
}
