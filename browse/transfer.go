package browse

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrIsFolder is returned when a folder is named where a file is required.
	// Folders are synthesized from key prefixes and cannot be transferred as a unit.
	ErrIsFolder = errors.New("folders cannot be downloaded or deleted")

	// ErrEmptyName is returned for an empty file or display name.
	ErrEmptyName = errors.New("empty name")
)

// UploadKey returns the destination key for a local file under the current prefix.
// Only the base name of localFile is used.
func UploadKey(ctx NavigationContext, localFile string) (string, error) {
	base := filepath.Base(localFile)
	if base == "." || base == string(filepath.Separator) || localFile == "" {
		return "", ErrEmptyName
	}
	return JoinKey(ctx, base), nil
}

// ObjectKey returns the key of a file entry for download or delete.
func ObjectKey(ctx NavigationContext, displayName string) (string, error) {
	if displayName == "" {
		return "", ErrEmptyName
	}
	if strings.HasSuffix(displayName, "/") {
		return "", ErrIsFolder
	}
	return JoinKey(ctx, displayName), nil
}
