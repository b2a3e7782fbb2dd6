package mirror

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guidesearch/internal/blobstore"
)

// fakeClient implements blobstore.Client for testing.
type fakeClient struct {
	names     []string
	blobs     map[string][]byte
	failing   map[string]error
	downloads int
}

func (f *fakeClient) List(_ context.Context) ([]string, error) {
	return f.names, nil
}

func (f *fakeClient) Download(_ context.Context, name string) ([]byte, error) {
	f.downloads++
	if err, ok := f.failing[name]; ok {
		return nil, &blobstore.TransferError{Name: name, Err: err}
	}
	return f.blobs[name], nil
}

func TestSyncMirrorsAllRemoteDocuments(t *testing.T) {
	dir := t.TempDir()
	client := &fakeClient{
		names: []string{"A.pdf", "B.pdf"},
		blobs: map[string][]byte{"A.pdf": []byte("aa"), "B.pdf": []byte("bb")},
	}

	res, err := New(client, dir).Sync(context.Background())
	require.NoError(t, err)

	assert.False(t, res.UpToDate)
	assert.Equal(t, []string{"A.pdf", "B.pdf"}, res.Transferred)
	assert.Empty(t, res.Failed)
	assert.Equal(t, []string{filepath.Join(dir, "A.pdf"), filepath.Join(dir, "B.pdf")}, res.Documents)

	data, err := os.ReadFile(filepath.Join(dir, "A.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("aa"), data)
}

func TestSyncSkipsTransferWhenSetsMatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.pdf"), []byte("aa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "B.pdf"), []byte("bb"), 0o644))

	client := &fakeClient{names: []string{"B.pdf", "A.pdf"}} // order must not matter
	res, err := New(client, dir).Sync(context.Background())
	require.NoError(t, err)

	assert.True(t, res.UpToDate)
	assert.Zero(t, client.downloads)
	assert.Empty(t, res.Transferred)
	assert.Len(t, res.Documents, 2)
}

func TestSyncIsolatesPerDocumentFailures(t *testing.T) {
	dir := t.TempDir()
	client := &fakeClient{
		names:   []string{"A.pdf", "B.pdf", "C.pdf"},
		blobs:   map[string][]byte{"A.pdf": []byte("aa"), "C.pdf": []byte("cc")},
		failing: map[string]error{"B.pdf": errors.New("connection reset")},
	}

	res, err := New(client, dir).Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"A.pdf", "C.pdf"}, res.Transferred)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "B.pdf", res.Failed[0].Name)
	assert.Equal(t, []string{filepath.Join(dir, "A.pdf"), filepath.Join(dir, "C.pdf")}, res.Documents)

	_, statErr := os.Stat(filepath.Join(dir, "B.pdf"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSyncNeverPrunesLocalFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Old.pdf"), []byte("old"), 0o644))

	client := &fakeClient{
		names: []string{"New.pdf"},
		blobs: map[string][]byte{"New.pdf": []byte("new")},
	}
	res, err := New(client, dir).Sync(context.Background())
	require.NoError(t, err)

	// The removed remote document stays in the local set.
	assert.Equal(t, []string{filepath.Join(dir, "New.pdf"), filepath.Join(dir, "Old.pdf")}, res.Documents)
	_, statErr := os.Stat(filepath.Join(dir, "Old.pdf"))
	assert.NoError(t, statErr)
}
