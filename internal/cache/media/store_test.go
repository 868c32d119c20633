package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveFetch(t *testing.T) {
	s := NewStore(Config{MaxBytes: 16})
	h, err := s.Save([]byte("jpegdata"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, IsHandle(h))

	blob, err := s.Fetch(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegdata"), blob.Data)
	assert.Equal(t, "image/jpeg", blob.MIMEType)

	blob.Data[0] = 'X'
	again, err := s.Fetch(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, byte('j'), again.Data[0])
}

func TestStoreRejectsOversizedAndUnknown(t *testing.T) {
	s := NewStore(Config{MaxBytes: 4})
	_, err := s.Save([]byte("too large"), "image/png")
	assert.ErrorIs(t, err, ErrTooLarge)
	_, err = s.Save(nil, "image/png")
	assert.Error(t, err)

	_, err = s.Fetch(context.Background(), "photo:missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Fetch(context.Background(), "not-a-handle")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreEvictsOldestUnderPressure(t *testing.T) {
	s := NewStore(Config{MaxBytes: 8})
	first, err := s.Save([]byte("aaaaa"), "image/jpeg")
	require.NoError(t, err)
	second, err := s.Save([]byte("bbbbb"), "image/jpeg")
	require.NoError(t, err)

	_, err = s.Fetch(context.Background(), first)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Fetch(context.Background(), second)
	assert.NoError(t, err)
}
