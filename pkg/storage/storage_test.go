package storage

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutDelete(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	s := NewWithFs(fsys, "http://cdn.test/storage/")

	url, err := s.Put("qrcodes/bookings/abc.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.test/storage/qrcodes/bookings/abc.png", url)

	data, err := afero.ReadFile(fsys, "qrcodes/bookings/abc.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	key, ok := s.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "qrcodes/bookings/abc.png", key)

	require.NoError(t, s.Delete(key))
	exists, err := afero.Exists(fsys, key)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, s.Delete(key), "deleting a missing file is not an error")
}

func TestKeysCannotEscapeRoot(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	s := NewWithFs(fsys, "http://cdn.test")

	_, err := s.Put("../../etc/passwd", []byte("x"))
	require.NoError(t, err)

	exists, err := afero.Exists(fsys, "etc/passwd")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = s.Put("/", []byte("x"))
	assert.Error(t, err)

	_, ok := s.KeyFromURL("http://elsewhere/x.png")
	assert.False(t, ok)
}
