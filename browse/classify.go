package browse

import (
	"context"
	"errors"
	"fmt"
)

// Operation is a user-triggered action whose failures get classified.
type Operation int

const (
	OpList Operation = iota
	OpUpload
	OpDownload
	OpDelete
	OpHeadContainer
	OpConnect
)

func (o Operation) String() string {
	switch o {
	case OpList:
		return "list"
	case OpUpload:
		return "upload"
	case OpDownload:
		return "download"
	case OpDelete:
		return "delete"
	case OpHeadContainer:
		return "head"
	case OpConnect:
		return "connect"
	default:
		return "unknown"
	}
}

// Store permissions, named by their S3 IAM actions.
const (
	PermListBucket       = "s3:ListBucket"
	PermPutObject        = "s3:PutObject"
	PermGetObject        = "s3:GetObject"
	PermDeleteObject     = "s3:DeleteObject"
	PermListAllMyBuckets = "s3:ListAllMyBuckets"
)

// requiredPermissions is the single permission each operation needs.
var requiredPermissions = map[Operation]string{
	OpList:          PermListBucket,
	OpUpload:        PermPutObject,
	OpDownload:      PermGetObject,
	OpDelete:        PermDeleteObject,
	OpHeadContainer: PermListBucket,
	OpConnect:       PermListAllMyBuckets,
}

// RequiredPermission returns the store permission op needs.
func RequiredPermission(op Operation) string {
	return requiredPermissions[op]
}

// ErrorKind is the diagnostic category of a ClassifiedError.
type ErrorKind int

const (
	// KindOther is any failure not recognized below; code and message are kept verbatim.
	KindOther ErrorKind = iota
	KindAccessDenied
	KindNotFound
	// KindInitialization covers missing or mismatched credentials.
	KindInitialization
	KindInvalidAddress
	// KindInvalidTarget is a request against the wrong kind of entry, e.g. deleting a folder.
	KindInvalidTarget
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindAccessDenied:
		return "access-denied"
	case KindNotFound:
		return "not-found"
	case KindInitialization:
		return "initialization"
	case KindInvalidAddress:
		return "invalid-address"
	case KindInvalidTarget:
		return "invalid-target"
	case KindCanceled:
		return "canceled"
	default:
		return "other"
	}
}

// codeKinds maps raw store codes to their diagnostic kind. Codes absent from
// the table fall through to KindOther.
var codeKinds = map[string]ErrorKind{
	CodeAccessDenied:          KindAccessDenied,
	CodeForbidden:             KindAccessDenied,
	CodeAllAccessDisabled:     KindAccessDenied,
	CodeNoSuchBucket:          KindNotFound,
	CodeNoSuchKey:             KindNotFound,
	CodeNotFound:              KindNotFound,
	CodeInvalidAccessKeyID:    KindInitialization,
	CodeSignatureDoesNotMatch: KindInitialization,
	CodeNoCredentials:         KindInitialization,
	CodeExpiredToken:          KindInitialization,
}

// ClassifiedError is the single user-facing report of a failed operation.
type ClassifiedError struct {
	Kind ErrorKind
	Op   Operation

	// RequiredPermission is set for access-denied failures.
	RequiredPermission string

	Message string

	// RawCode is the store code, when there was one.
	RawCode string

	Err error
}

func (e *ClassifiedError) Error() string {
	return e.Message
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Hint returns the line a user needs to fix the failure, or "".
func (e *ClassifiedError) Hint() string {
	switch e.Kind {
	case KindAccessDenied:
		if e.RequiredPermission != "" {
			return fmt.Sprintf("You need the '%s' permission.", e.RequiredPermission)
		}
	case KindInitialization:
		return "Check the access and secret keys in your configuration."
	}
	return ""
}

// Classify turns err from op into a ClassifiedError. It returns nil for a nil
// err and passes an existing *ClassifiedError through unchanged.
func Classify(op Operation, err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	out := &ClassifiedError{Op: op, Err: err}

	var se *StoreError
	switch {
	case errors.As(err, &se):
		out.RawCode = se.Code
		out.Kind = codeKinds[se.Code]
	case errors.Is(err, ErrInvalidAddress):
		out.Kind = KindInvalidAddress
	case errors.Is(err, ErrIsFolder), errors.Is(err, ErrNotFolder),
		errors.Is(err, ErrNoContainer), errors.Is(err, ErrEmptyName):
		out.Kind = KindInvalidTarget
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		out.Kind = KindCanceled
	}

	if out.Kind == KindAccessDenied {
		out.RequiredPermission = requiredPermissions[op]
	}
	out.Message = describe(out, se)
	return out
}

func describe(ce *ClassifiedError, se *StoreError) string {
	var container, key string
	if se != nil {
		container, key = se.Container, se.Key
	}

	switch ce.Kind {
	case KindAccessDenied:
		return fmt.Sprintf("Access denied when %s. You need '%s' permission.", activity(ce.Op, container, key), ce.RequiredPermission)
	case KindNotFound:
		if ce.RawCode == CodeNoSuchBucket || key == "" || ce.Op == OpHeadContainer || ce.Op == OpList {
			return fmt.Sprintf("Bucket '%s' does not exist.", container)
		}
		return fmt.Sprintf("Object '%s' not found in bucket '%s'.", key, container)
	case KindInitialization:
		switch ce.RawCode {
		case CodeInvalidAccessKeyID:
			return "Invalid access key ID. Please check your credentials."
		case CodeSignatureDoesNotMatch:
			return "Invalid secret access key. Please check your credentials."
		case CodeExpiredToken:
			return "Credentials have expired. Please refresh them."
		default:
			return "Credentials not found. Please configure access and secret keys."
		}
	case KindInvalidAddress:
		return "Please enter a bucket name, optionally followed by /path."
	case KindInvalidTarget:
		switch {
		case errors.Is(ce.Err, ErrIsFolder):
			return fmt.Sprintf("Cannot %s folders. Please select a file.", ce.Op)
		case errors.Is(ce.Err, ErrNotFolder):
			return "Only folders can be opened."
		case errors.Is(ce.Err, ErrNoContainer):
			return "Please load a bucket first."
		default:
			return "Please select a file."
		}
	case KindCanceled:
		return fmt.Sprintf("The %s was canceled.", ce.Op)
	}

	if se != nil && se.Code != "" {
		msg := se.Message
		if msg == "" && se.Err != nil {
			msg = se.Err.Error()
		}
		return fmt.Sprintf("Store error (%s): %s", se.Code, msg)
	}
	return fmt.Sprintf("Failed to %s: %v", ce.Op, ce.Err)
}

func activity(op Operation, container, key string) string {
	switch op {
	case OpList:
		return fmt.Sprintf("listing objects in bucket '%s'", container)
	case OpHeadContainer:
		return fmt.Sprintf("opening bucket '%s'", container)
	case OpUpload:
		return fmt.Sprintf("uploading '%s'", key)
	case OpDownload:
		return fmt.Sprintf("downloading '%s'", key)
	case OpDelete:
		return fmt.Sprintf("deleting '%s'", key)
	case OpConnect:
		return "connecting to the store"
	default:
		return op.String()
	}
}
