package oplock

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	dir := t.TempDir()
	l := New(filepath.Join(dir, "lock"))

	guard, err := l.TryAcquire()
	require.NoError(t, err)
	require.NotNil(t, guard)

	require.NoError(t, guard.Release())

	// Lock file is removed on release.
	_, err = os.Stat(filepath.Join(dir, "lock"))
	assert.True(t, os.IsNotExist(err))
}

func TestTryAcquireContention(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "operation.lock")

	l1 := New(path)
	guard1, err := l1.TryAcquire()
	require.NoError(t, err)
	require.NotNil(t, guard1)

	l2 := New(path)
	guard2, err := l2.TryAcquire()
	assert.Nil(t, guard2)
	var lockHeld *ErrLockHeld
	require.ErrorAs(t, err, &lockHeld)

	require.NoError(t, guard1.Release())
}

func TestStaleLockRecovered(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "operation.lock")

	// Simulate a stale lock file left behind by a dead process.
	staleContent := "999999:" + itoa(time.Now().Add(-time.Hour).Unix())
	require.NoError(t, os.WriteFile(path, []byte(staleContent+"\n"), 0o600))

	l := New(path)
	guard, err := l.TryAcquire()
	require.NoError(t, err)
	require.NotNil(t, guard)
	require.NoError(t, guard.Release())
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
