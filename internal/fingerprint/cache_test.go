package fingerprint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "cache"))
	in := &Entry{
		Fingerprint: "00c0ffee00c0ffee",
		Dialect:     "sqlite",
		CreatedAt:   time.Now().UTC(),
		Output:      []byte(`{"dialect":"sqlite"}`),
	}
	require.NoError(t, s.Save(in))

	out, ok, err := s.Load("00c0ffee00c0ffee")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in.Fingerprint, out.Fingerprint)
	assert.Equal(t, in.Dialect, out.Dialect)
	assert.Equal(t, in.Output, out.Output)
	assert.WithinDuration(t, in.CreatedAt, out.CreatedAt, time.Second)

	// A second save under the same fingerprint replaces the entry.
	in.Output = []byte(`{"dialect":"sqlite","namespaces":[]}`)
	require.NoError(t, s.Save(in))
	out, ok, err = s.Load("00c0ffee00c0ffee")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in.Output, out.Output)
}

func TestStoreMiss(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "cache"))
	e, ok, err := s.Load("deadbeefdeadbeef")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, e)
}

func TestStoreCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "badc0de0badc0de0.bind"), []byte("not msgpack"), 0o600))
	_, _, err := s.Load("badc0de0badc0de0")
	assert.Error(t, err)
}

func TestStoreFingerprintMismatch(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	require.NoError(t, s.Save(&Entry{Fingerprint: "1111111111111111"}))
	require.NoError(t, os.Rename(
		filepath.Join(dir, "1111111111111111.bind"),
		filepath.Join(dir, "2222222222222222.bind"),
	))
	_, _, err := s.Load("2222222222222222")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fingerprint mismatch")
}

func TestStoreRejectsEmptyFingerprint(t *testing.T) {
	s := NewStore(t.TempDir())
	assert.Error(t, s.Save(&Entry{}))
}
