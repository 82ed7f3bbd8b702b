package browse

import (
	"errors"
	"strings"
)

var (
	// ErrNotFolder is returned when descending into a name that is not a folder.
	ErrNotFolder = errors.New("not a folder")

	// ErrNoContainer is returned when an operation needs a container and none is active.
	ErrNoContainer = errors.New("no container selected")
)

// NavigationContext is the active container and prefix of a session.
//
// An empty Prefix is the container root. Values are passed by copy; the only
// long-lived one is owned by Session.
type NavigationContext struct {
	Container string
	Prefix    string
}

// IsZero reports whether no container is active.
func (c NavigationContext) IsZero() bool {
	return c.Container == ""
}

// IsRoot reports whether the context points at the container root.
func (c NavigationContext) IsRoot() bool {
	return c.Prefix == ""
}

// Address returns the context as an address with a normalized prefix.
func (c NavigationContext) Address() Address {
	return Address{Container: c.Container, Prefix: normalizePrefix(c.Prefix)}
}

// SetAbsolute replaces container and prefix wholesale.
func SetAbsolute(addr Address) NavigationContext {
	return NavigationContext{Container: addr.Container, Prefix: addr.Prefix}
}

// Descend appends folder name child to the current prefix.
// child must end with "/"; anything else returns ErrNotFolder.
func Descend(ctx NavigationContext, child string) (NavigationContext, error) {
	if !isFolderName(child) {
		return ctx, ErrNotFolder
	}
	ctx.Prefix = JoinKey(ctx, child)
	return ctx, nil
}

// Ascend moves to the parent prefix. At the container root it returns ctx unchanged.
func Ascend(ctx NavigationContext) NavigationContext {
	if ctx.Prefix == "" {
		return ctx
	}

	trimmed := strings.TrimSuffix(ctx.Prefix, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		ctx.Prefix = ""
		return ctx
	}
	ctx.Prefix = trimmed[:idx+1]
	return ctx
}

// ClearPrefix returns ctx positioned at its container root.
func ClearPrefix(ctx NavigationContext) NavigationContext {
	ctx.Prefix = ""
	return ctx
}

// JoinKey returns the absolute store key for name under the current prefix.
func JoinKey(ctx NavigationContext, name string) string {
	return normalizePrefix(ctx.Prefix) + name
}

// normalizePrefix makes a non-empty prefix end with "/". Keys may contain
// empty segments ("a//b"), so existing slashes are never collapsed.
func normalizePrefix(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}

func isFolderName(name string) bool {
	return strings.HasSuffix(name, "/")
}
