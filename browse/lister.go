package browse

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

// ErrPaginationLoop is returned when a store hands back a continuation token
// it already returned, which would otherwise page forever.
var ErrPaginationLoop = errors.New("store repeated a continuation token")

// EntryKind distinguishes synthesized folders from real objects.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindFolder
)

func (k EntryKind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "file"
}

// VirtualEntry is one row of a virtual directory listing.
//
// Folders are synthesized from shared key prefixes: their Name ends with "/"
// and Size and Modified are always zero.
type VirtualEntry struct {
	Name     string
	Kind     EntryKind
	Size     uint64
	Modified time.Time
}

// IsFolder reports whether the entry is a virtual folder.
func (e VirtualEntry) IsFolder() bool {
	return e.Kind == KindFolder
}

// Listing is one level of the virtual tree.
type Listing struct {
	Container string

	// Prefix is the normalized prefix that was listed.
	Prefix string

	// Folders are sorted by name.
	Folders []VirtualEntry

	// Files are in the order the store returned them.
	Files []VirtualEntry

	// Pages is the number of store round-trips it took.
	Pages int
}

// Entries returns folders followed by files.
func (l *Listing) Entries() []VirtualEntry {
	out := make([]VirtualEntry, 0, len(l.Folders)+len(l.Files))
	out = append(out, l.Folders...)
	return append(out, l.Files...)
}

// Len returns the number of visible entries.
func (l *Listing) Len() int {
	return len(l.Folders) + len(l.Files)
}

// Lister reads one virtual level of a container.
type Lister struct {
	store     Store
	pageSize  int
	delimiter string
}

// ListerOption configures a Lister.
type ListerOption func(*Lister)

// WithListPageSize sets the MaxKeys sent with every page request.
func WithListPageSize(n int) ListerOption {
	return func(l *Lister) {
		l.pageSize = n
	}
}

// WithDelimiter asks the store to roll up nested keys server-side.
// Folder names are derived the same way either way; this only reduces how many
// keys are transferred for deep prefixes.
func WithDelimiter(d string) ListerOption {
	return func(l *Lister) {
		l.delimiter = d
	}
}

// NewLister creates a Lister over store.
func NewLister(store Store, opts ...ListerOption) *Lister {
	l := &Lister{store: store, delimiter: "/"}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// List returns the folders and files directly under prefix.
//
// Every page is fetched before partitioning, since a folder can only be
// deduplicated against the full key set.
func (l *Lister) List(ctx context.Context, container, prefix string) (*Listing, error) {
	if container == "" {
		return nil, ErrNoContainer
	}
	prefix = normalizePrefix(prefix)

	var (
		entries []ObjectEntry
		token   string
		pages   int
		seen    = map[string]struct{}{}
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := l.store.ListObjects(ctx, ListRequest{
			Container:         container,
			Prefix:            prefix,
			Delimiter:         l.delimiter,
			ContinuationToken: token,
			MaxKeys:           l.pageSize,
		})
		if err != nil {
			return nil, tagStoreError(err, "ListObjects", container, prefix)
		}
		pages++
		entries = append(entries, page.Entries...)

		if page.NextToken == "" {
			break
		}
		if _, dup := seen[page.NextToken]; dup {
			return nil, &StoreError{Op: "ListObjects", Container: container, Key: prefix, Err: ErrPaginationLoop}
		}
		seen[page.NextToken] = struct{}{}
		token = page.NextToken
	}

	folders, files := partition(prefix, entries)
	return &Listing{
		Container: container,
		Prefix:    prefix,
		Folders:   folders,
		Files:     files,
		Pages:     pages,
	}, nil
}

// partition splits raw entries into the folders and files visible directly under prefix.
func partition(prefix string, entries []ObjectEntry) (folders, files []VirtualEntry) {
	names := make(map[string]struct{})
	for _, obj := range entries {
		display := strings.TrimPrefix(obj.Key, prefix)
		if display == "" {
			// the prefix's own directory marker
			continue
		}

		if folder, _, nested := strings.Cut(display, "/"); nested {
			names[folder+"/"] = struct{}{}
			continue
		}

		files = append(files, VirtualEntry{
			Name:     display,
			Kind:     KindFile,
			Size:     obj.Size,
			Modified: obj.Modified,
		})
	}

	folders = make([]VirtualEntry, 0, len(names))
	for name := range names {
		folders = append(folders, VirtualEntry{Name: name, Kind: KindFolder})
	}
	sort.Slice(folders, func(i, j int) bool {
		return folders[i].Name < folders[j].Name
	})
	return folders, files
}

// tagStoreError fills in call context on a *StoreError, or wraps a foreign
// error in one so the classifier always sees the same shape.
func tagStoreError(err error, op, container, key string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var se *StoreError
	if errors.As(err, &se) {
		if se.Op == "" {
			se.Op = op
		}
		if se.Container == "" {
			se.Container = container
		}
		if se.Key == "" {
			se.Key = key
		}
		return se
	}
	return &StoreError{Op: op, Container: container, Key: key, Err: err}
}
