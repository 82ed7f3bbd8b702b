package browse

import (
	"errors"
	"fmt"
	"strings"
)

// ParseReason describes why an address could not be parsed.
type ParseReason int

const (
	// ParseEmpty means the input was blank.
	ParseEmpty ParseReason = iota
	// ParseMalformed means the input had a path but no container.
	ParseMalformed
)

func (r ParseReason) String() string {
	switch r {
	case ParseEmpty:
		return "empty"
	case ParseMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ErrInvalidAddress is matched by every *ParseError.
var ErrInvalidAddress = errors.New("invalid address")

// ParseError reports an address that could not be split into container and prefix.
type ParseError struct {
	Input  string
	Reason ParseReason
}

func (e *ParseError) Error() string {
	if e.Reason == ParseEmpty {
		return "invalid address: empty"
	}
	return fmt.Sprintf("invalid address %q: %s", e.Input, e.Reason)
}

// Is reports whether target is ErrInvalidAddress.
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidAddress
}

// Address is a parsed "container/path" string.
//
// Prefix is taken verbatim; an empty Prefix means the container root.
type Address struct {
	Container string
	Prefix    string
}

// String renders the address the way a user would type it.
func (a Address) String() string {
	if a.Prefix == "" {
		return a.Container
	}
	return a.Container + "/" + a.Prefix
}

// Parse splits input on its first "/" into container and prefix.
//
// Surrounding whitespace is trimmed. Container names are not validated here;
// the store rejects illegal names and that error is classified like any other.
func Parse(input string) (Address, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Address{}, &ParseError{Input: input, Reason: ParseEmpty}
	}

	container, prefix, _ := strings.Cut(trimmed, "/")
	if container == "" {
		return Address{}, &ParseError{Input: input, Reason: ParseMalformed}
	}

	return Address{Container: container, Prefix: prefix}, nil
}
