package apps

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func testDirectory(t *testing.T) *Directory {
	t.Helper()
	dir, err := NewDirectory(
		"http://localhost:3002",
		"http://localhost:3000",
		"http://localhost:3001",
	)
	require.NoError(t, err)
	return dir
}

func TestParseType(t *testing.T) {
	for in, want := range map[string]Type{
		"admin":      Admin,
		"Organizer":  Organizer,
		" exhibitor": Exhibitor,
	} {
		got, ok := ParseType(in)
		require.True(t, ok, in)
		require.Equal(t, want, got)
	}

	_, ok := ParseType("store")
	require.False(t, ok)
}

func TestNewDirectoryRejectsBareHost(t *testing.T) {
	_, err := NewDirectory("localhost:3002", "http://localhost:3000", "http://localhost:3001")
	require.Error(t, err)
}

func TestByOrigin(t *testing.T) {
	dir := testDirectory(t)

	typ, ok := dir.ByOrigin("http://localhost:3001")
	require.True(t, ok)
	require.Equal(t, Exhibitor, typ)

	_, ok = dir.ByOrigin("http://evil.example.com")
	require.False(t, ok)
}

func TestRehomePreservesQueryAndFragment(t *testing.T) {
	dir := testDirectory(t)

	original, err := url.Parse("http://localhost:3000/auth/reconcile?provider=google&state=abc123#section")
	require.NoError(t, err)

	got, err := dir.Rehome(Exhibitor, original)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3001/auth/reconcile?provider=google&state=abc123#section", got)

	// The original URL is untouched.
	require.Equal(t, "localhost:3000", original.Host)
}

func TestRehomeUnknownApp(t *testing.T) {
	dir := testDirectory(t)

	original, _ := url.Parse("http://localhost:3000/")
	_, err := dir.Rehome(Type("storefront"), original)
	require.Error(t, err)
}
