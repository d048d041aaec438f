package storage

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	_, header, err := req.FormFile("file")
	require.NoError(t, err)

	return header
}

func TestSaveAndRemove(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save(uploadHeader(t, "portrait.PNG", []byte("img")), "avatar_")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(name, "avatar_"))
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.True(t, store.Exists(name))

	store.Remove(name)
	assert.False(t, store.Exists(name))

	// Removing twice is harmless.
	store.Remove(name)
	store.Remove("")
}

func TestSaveRejectsUnsupportedExtension(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	for _, filename := range []string{"script.sh", "notes.txt", "noext"} {
		_, err := store.Save(uploadHeader(t, filename, []byte("data")), "")
		assert.ErrorIs(t, err, ErrUnsupportedType)
	}
}

func TestSaveGeneratesUniqueNames(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	first, err := store.Save(uploadHeader(t, "a.jpg", []byte("one")), "")
	require.NoError(t, err)

	second, err := store.Save(uploadHeader(t, "a.jpg", []byte("two")), "")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
