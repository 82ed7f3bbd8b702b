package browse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescend(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		child  string
		want   string
	}{
		{name: "from root", prefix: "", child: "a/", want: "a/"},
		{name: "prefix with slash", prefix: "a/", child: "b/", want: "a/b/"},
		{name: "prefix without slash", prefix: "a", child: "b/", want: "a/b/"},
		{name: "empty segment folder", prefix: "a/", child: "/", want: "a//"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NavigationContext{Container: "bucket", Prefix: tt.prefix}
			got, err := Descend(ctx, tt.child)
			require.NoError(t, err)
			assert.Equal(t, "bucket", got.Container)
			assert.Equal(t, tt.want, got.Prefix)
		})
	}
}

func TestDescend_RejectsFiles(t *testing.T) {
	ctx := NavigationContext{Container: "bucket", Prefix: "a/"}
	got, err := Descend(ctx, "file.txt")
	assert.ErrorIs(t, err, ErrNotFolder)
	assert.Equal(t, ctx, got)
}

func TestAscend(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{prefix: "", want: ""},
		{prefix: "a", want: ""},
		{prefix: "a/", want: ""},
		{prefix: "a/b/", want: "a/"},
		{prefix: "a/b", want: "a/"},
		{prefix: "a/b/c/", want: "a/b/"},
		{prefix: "a//", want: "a/"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got := Ascend(NavigationContext{Container: "bucket", Prefix: tt.prefix})
			assert.Equal(t, NavigationContext{Container: "bucket", Prefix: tt.want}, got)
		})
	}
}

func TestAscend_InvertsDescend(t *testing.T) {
	for _, prefix := range []string{"", "x/", "x/y/"} {
		ctx := NavigationContext{Container: "bucket", Prefix: prefix}
		down, err := Descend(ctx, "a/")
		require.NoError(t, err)
		assert.Equal(t, ctx, Ascend(down), "prefix %q", prefix)
	}
}

func TestJoinKey_RoundTrip(t *testing.T) {
	root := NavigationContext{Container: "bucket"}
	down, err := Descend(root, "a/")
	require.NoError(t, err)

	absolute := SetAbsolute(Address{Container: "bucket", Prefix: "a"})

	assert.Equal(t, "a/b.txt", JoinKey(down, "b.txt"))
	assert.Equal(t, "a/b.txt", JoinKey(absolute, "b.txt"))
	assert.Equal(t, "b.txt", JoinKey(root, "b.txt"))
}

func TestSetAbsolute_ReplacesWholesale(t *testing.T) {
	got := SetAbsolute(Address{Container: "other", Prefix: "x/y"})
	assert.Equal(t, NavigationContext{Container: "other", Prefix: "x/y"}, got)
	assert.Equal(t, Address{Container: "other", Prefix: "x/y/"}, got.Address())
}

func TestClearPrefix(t *testing.T) {
	got := ClearPrefix(NavigationContext{Container: "bucket", Prefix: "a/b/"})
	assert.True(t, got.IsRoot())
	assert.Equal(t, "bucket", got.Container)
}

func TestUploadKey(t *testing.T) {
	ctx := NavigationContext{Container: "bucket", Prefix: "docs"}

	key, err := UploadKey(ctx, "/home/me/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "docs/report.pdf", key)

	key, err = UploadKey(NavigationContext{Container: "bucket"}, "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", key)

	_, err = UploadKey(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestObjectKey(t *testing.T) {
	ctx := NavigationContext{Container: "bucket", Prefix: "docs/"}

	key, err := ObjectKey(ctx, "readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "docs/readme.txt", key)

	_, err = ObjectKey(ctx, "img/")
	assert.ErrorIs(t, err, ErrIsFolder)

	_, err = ObjectKey(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyName)
}
