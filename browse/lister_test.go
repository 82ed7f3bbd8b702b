package browse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(entries []VirtualEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func docsStore() *memStore {
	return newMemStore().put("bucket", "docs/", "docs/readme.txt", "docs/img/pic.png", "top.txt")
}

func TestLister_Partition(t *testing.T) {
	stores := map[string]Store{
		"delimited": docsStore(),
		"flat":      flatStore{docsStore()},
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			lister := NewLister(store)

			root, err := lister.List(context.Background(), "bucket", "")
			require.NoError(t, err)
			assert.Equal(t, []string{"docs/"}, names(root.Folders))
			assert.Equal(t, []string{"top.txt"}, names(root.Files))
			assert.Equal(t, uint64(len("top.txt")), root.Files[0].Size)
			assert.False(t, root.Files[0].Modified.IsZero())

			docs, err := lister.List(context.Background(), "bucket", "docs")
			require.NoError(t, err)
			assert.Equal(t, "docs/", docs.Prefix)
			assert.Equal(t, []string{"img/"}, names(docs.Folders))
			assert.Equal(t, []string{"readme.txt"}, names(docs.Files))
		})
	}
}

func TestLister_FoldersCarryNoMetadata(t *testing.T) {
	listing, err := NewLister(flatStore{docsStore()}).List(context.Background(), "bucket", "")
	require.NoError(t, err)

	for _, f := range listing.Folders {
		assert.True(t, f.IsFolder())
		assert.Zero(t, f.Size)
		assert.True(t, f.Modified.IsZero())
		assert.Equal(t, byte('/'), f.Name[len(f.Name)-1])
	}
}

func TestLister_DeduplicatesAndSortsFolders(t *testing.T) {
	store := newMemStore().put("bucket", "z/1", "z/2", "a/x/1", "a/2", "m/deep/er/file", "b.txt")

	listing, err := NewLister(flatStore{store}).List(context.Background(), "bucket", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/", "m/", "z/"}, names(listing.Folders))
	assert.Equal(t, []string{"a/", "m/", "z/", "b.txt"}, names(listing.Entries()))
	assert.Equal(t, 4, listing.Len())
}

func TestLister_FilesKeepStoreOrder(t *testing.T) {
	store := &scriptedStore{pages: map[string]*ListPage{
		"": {Entries: []ObjectEntry{{Key: "p/zeta"}, {Key: "p/alpha"}, {Key: "p/mid"}}},
	}}

	listing, err := NewLister(store).List(context.Background(), "bucket", "p/")
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names(listing.Files))
}

func TestLister_Pagination(t *testing.T) {
	keys := []string{"a.txt", "b.txt"}

	single := newMemStore().put("bucket", keys...)
	paged := newMemStore().put("bucket", keys...)
	paged.pageSize = 1

	one, err := NewLister(single).List(context.Background(), "bucket", "")
	require.NoError(t, err)
	two, err := NewLister(paged).List(context.Background(), "bucket", "")
	require.NoError(t, err)

	assert.Equal(t, 1, one.Pages)
	assert.Equal(t, 2, two.Pages)
	assert.Equal(t, one.Folders, two.Folders)
	assert.Equal(t, one.Files, two.Files)
	require.Len(t, paged.listCalls, 2)
	assert.Equal(t, "", paged.listCalls[0].ContinuationToken)
	assert.Equal(t, "1", paged.listCalls[1].ContinuationToken)
}

func TestLister_PaginationDeduplicatesAcrossPages(t *testing.T) {
	store := newMemStore().put("bucket", "d/1", "d/2", "d/3", "e/1")
	store.pageSize = 1

	listing, err := NewLister(flatStore{store}).List(context.Background(), "bucket", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"d/", "e/"}, names(listing.Folders))
	assert.Equal(t, 4, listing.Pages)
}

func TestLister_Idempotent(t *testing.T) {
	lister := NewLister(docsStore())

	first, err := lister.List(context.Background(), "bucket", "")
	require.NoError(t, err)
	second, err := lister.List(context.Background(), "bucket", "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLister_EmptyIsNotAnError(t *testing.T) {
	listing, err := NewLister(newMemStore().put("bucket")).List(context.Background(), "bucket", "nothing")
	require.NoError(t, err)
	assert.Zero(t, listing.Len())
}

func TestLister_PageSizeForwarded(t *testing.T) {
	store := docsStore()
	_, err := NewLister(store, WithListPageSize(250)).List(context.Background(), "bucket", "")
	require.NoError(t, err)
	require.NotEmpty(t, store.listCalls)
	assert.Equal(t, 250, store.listCalls[0].MaxKeys)
	assert.Equal(t, "/", store.listCalls[0].Delimiter)
}

func TestLister_PaginationLoop(t *testing.T) {
	store := &scriptedStore{pages: map[string]*ListPage{
		"":   {Entries: []ObjectEntry{{Key: "a"}}, NextToken: "t1"},
		"t1": {Entries: []ObjectEntry{{Key: "b"}}, NextToken: "t1"},
	}}

	_, err := NewLister(store).List(context.Background(), "bucket", "")
	assert.ErrorIs(t, err, ErrPaginationLoop)
}

func TestLister_Errors(t *testing.T) {
	t.Run("missing container", func(t *testing.T) {
		_, err := NewLister(newMemStore()).List(context.Background(), "nope", "")
		var se *StoreError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, CodeNoSuchBucket, se.Code)
		assert.Equal(t, "ListObjects", se.Op)
		assert.Equal(t, "nope", se.Container)
	})

	t.Run("foreign error is wrapped", func(t *testing.T) {
		store := docsStore()
		store.errs["ListObjects"] = errors.New("connection reset")
		_, err := NewLister(store).List(context.Background(), "bucket", "")
		var se *StoreError
		require.True(t, errors.As(err, &se))
		assert.Empty(t, se.Code)
		assert.Contains(t, se.Error(), "connection reset")
	})

	t.Run("no container", func(t *testing.T) {
		_, err := NewLister(docsStore()).List(context.Background(), "", "")
		assert.ErrorIs(t, err, ErrNoContainer)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewLister(docsStore()).List(ctx, "bucket", "")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestStoreError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *StoreError
		want string
	}{
		{
			name: "with key",
			err:  &StoreError{Op: "GetObject", Container: "b", Key: "k.txt", Code: CodeNoSuchKey, Message: "missing"},
			want: "GetObject b/k.txt: NoSuchKey: missing",
		},
		{
			name: "container only",
			err:  &StoreError{Op: "HeadContainer", Container: "b", Code: CodeAccessDenied, Message: "denied"},
			want: "HeadContainer b: AccessDenied: denied",
		},
		{
			name: "wrapped error",
			err:  &StoreError{Op: "Probe", Err: errors.New("dial tcp: timeout")},
			want: "Probe: dial tcp: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestPartition_DropsDirectoryMarker(t *testing.T) {
	folders, files := partition("docs/", []ObjectEntry{
		{Key: "docs/"},
		{Key: "docs/a.txt", Size: 3, Modified: time.Unix(10, 0)},
	})
	assert.Empty(t, folders)
	require.Len(t, files, 1)
	assert.Equal(t, "a.txt", files[0].Name)
	assert.Equal(t, uint64(3), files[0].Size)
}
